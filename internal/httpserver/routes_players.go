// internal/httpserver/routes_players.go
//
// Player endpoints:
//   - GET  /api/players         → every stored player
//   - POST /api/player/position → upsert caller's position (auth)
//   - POST /api/player/logout   → remove caller (auth)
//   - POST /api/cleanup         → on-demand TTL sweep

package httpserver

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/auth"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/chat"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/presence"
)

// timestamp formats the server clock for response bodies.
func (s *Server) timestamp() string { return s.now().UTC().Format(chat.TimestampLayout) }

// playersRes is returned by GET /api/players.
type playersRes struct {
	Players   []presence.Player `json:"players"`
	Count     int               `json:"count"`
	Timestamp string            `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
}

// handleListPlayers returns every stored player. On store failure it still
// answers with an empty list, flagged 500.
func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.List(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list players")
		writeJSON(w, http.StatusInternalServerError, playersRes{
			Players: []presence.Player{}, Timestamp: s.timestamp(), Error: "store_unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, playersRes{Players: players, Count: len(players), Timestamp: s.timestamp()})
}

// positionReq is the request payload for POST /api/player/position.
// Pointers distinguish a missing coordinate from zero.
type positionReq struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Emoji string   `json:"emoji"`
}

type positionRes struct {
	Success      bool              `json:"success"`
	PlayerID     string            `json:"playerId"`
	Position     presence.Position `json:"position"`
	TotalPlayers int               `json:"totalPlayers"`
}

// handlePosition validates and stores the caller's position.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, game.ErrUnauthorized)
		return
	}
	var req positionReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, r, fmt.Errorf("%w: x and y are required numbers", game.ErrInvalidInput))
		return
	}

	p, total, err := s.players.Upsert(r.Context(), me.ID, me.Name, *req.X, *req.Y, req.Emoji)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionRes{
		Success:      true,
		PlayerID:     p.ID,
		Position:     p.Position(),
		TotalPlayers: total,
	})
}

type logoutRes struct {
	Success          bool   `json:"success"`
	PlayerRemoved    bool   `json:"playerRemoved"`
	PlayerID         string `json:"playerId"`
	RemainingPlayers int    `json:"remainingPlayers"`
}

// handleLogout removes the caller from the registry. Logging out twice is fine.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, game.ErrUnauthorized)
		return
	}
	removed, remaining, err := s.players.Remove(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logoutRes{
		Success:          true,
		PlayerRemoved:    removed,
		PlayerID:         me.ID,
		RemainingPlayers: remaining,
	})
}

type cleanupRes struct {
	Success        bool   `json:"success"`
	RemovedPlayers int    `json:"removedPlayers"`
	ActivePlayers  int    `json:"activePlayers"`
	Timestamp      string `json:"timestamp"`
}

// handleCleanup runs one sweep with the configured player timeout.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, remaining, err := s.players.Sweep(r.Context(), s.now(), s.timeout)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if removed > 0 {
		hlog.FromRequest(r).Info().Int("removed", removed).Msg("cleanup removed stale players")
	}
	writeJSON(w, http.StatusOK, cleanupRes{
		Success:        true,
		RemovedPlayers: removed,
		ActivePlayers:  remaining,
		Timestamp:      s.timestamp(),
	})
}
