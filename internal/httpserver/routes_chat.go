// internal/httpserver/routes_chat.go
//
// Chat and diagnostics endpoints:
//   - GET  /api/chat  → last N messages (?limit=, default 50)
//   - POST /api/chat  → append a message (auth)
//   - GET  /api/stats → counts, recent messages, uptime
//   - GET  /health    → liveness with store-backed counts

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/auth"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/chat"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
)

// defaultChatLimit is how many messages GET /api/chat returns without ?limit=.
const defaultChatLimit = 50

type chatListRes struct {
	Messages      []chat.Message `json:"messages"`
	TotalMessages int            `json:"totalMessages"`
	Timestamp     string         `json:"timestamp"`
	Error         string         `json:"error,omitempty"`
}

// handleListChat returns the tail of the chat log.
func (s *Server) handleListChat(w http.ResponseWriter, r *http.Request) {
	limit := defaultChatLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, total, err := s.chat.Tail(r.Context(), limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("tail chat")
		writeJSON(w, http.StatusInternalServerError, chatListRes{
			Messages: []chat.Message{}, Timestamp: s.timestamp(), Error: "store_unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, chatListRes{Messages: msgs, TotalMessages: total, Timestamp: s.timestamp()})
}

// chatSendReq is the request payload for POST /api/chat.
type chatSendReq struct {
	Message string `json:"message"`
}

type chatSendRes struct {
	Success       bool         `json:"success"`
	Message       chat.Message `json:"message"`
	TotalMessages int          `json:"totalMessages"`
}

// handleSendChat validates and appends the caller's message.
func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, game.ErrUnauthorized)
		return
	}
	var req chatSendReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, total, err := s.chat.Append(r.Context(), me.ID, me.Name, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatSendRes{Success: true, Message: m, TotalMessages: total})
}

type statsRes struct {
	ActivePlayers  int            `json:"activePlayers"`
	TotalMessages  int            `json:"totalMessages"`
	RecentMessages []chat.Message `json:"recentMessages"`
	Uptime         int64          `json:"uptime"` // seconds
	Version        string         `json:"version"`
	Error          string         `json:"error,omitempty"`
}

// handleStats returns a diagnostic snapshot. On store failure the counts are
// zeroed and the response is flagged 500.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Snapshot(r.Context())
	res := statsRes{
		ActivePlayers:  snap.ActivePlayers,
		TotalMessages:  snap.TotalMessages,
		RecentMessages: snap.RecentMessages,
		Uptime:         int64(s.now().Sub(s.started).Seconds()),
		Version:        s.version,
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("stats snapshot")
		res.Error = "store_unavailable"
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type healthRes struct {
	Status    string `json:"status"`
	Players   int    `json:"players"`
	Messages  int    `json:"messages"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

// handleHealth reports "ok" when both collections are readable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Snapshot(r.Context())
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("health check degraded")
		writeJSON(w, http.StatusServiceUnavailable, healthRes{
			Status: "error", Timestamp: s.timestamp(), Version: s.version, Error: "store_unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, healthRes{
		Status:    "ok",
		Players:   snap.ActivePlayers,
		Messages:  snap.TotalMessages,
		Timestamp: s.timestamp(),
		Version:   s.version,
	})
}
