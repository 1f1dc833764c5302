// Command devtoken mints a JWT accepted by the local server, for poking the
// authenticated endpoints with curl during development.
//
//	go run ./cmd/devtoken -id u1 -name Alice
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/auth"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/config"
)

func main() {
	id := flag.String("id", "", "player identity (required)")
	name := flag.String("name", "", "display name (defaults to id)")
	flag.Parse()

	if *id == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *name == "" {
		*name = *id
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	tok, exp, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL()).Sign(*id, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	log.Info().Time("expires", exp).Str("id", *id).Msg("token minted")
	fmt.Println(tok)
}
