// Copyright 2024-2026 Aiku AI

package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aiku/mc-discord-bridge/pkg/discord"
)

// maxRequestBodySize is the maximum allowed admin API request body (1 MB).
const maxRequestBodySize = 1 << 20

// AdminAPI exposes the linking operations over HTTP so out-of-process
// plugins can drive the bridge.
type AdminAPI struct {
	log    zerolog.Logger
	bridge *Bridge
}

func NewAdminAPI(bridge *Bridge, log zerolog.Logger) *AdminAPI {
	return &AdminAPI{log: log, bridge: bridge}
}

// Routes returns the admin API handler.
func (a *AdminAPI) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/link-code", a.HandleIssueCode)
	mux.HandleFunc("/api/link", a.HandleLink)
	mux.HandleFunc("/api/unlink", a.HandleUnlink)
	return mux
}

type issueCodeRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type issueCodeResponse struct {
	Message string `json:"message"`
}

// HandleIssueCode is an HTTP handler for POST /api/link-code. It issues
// a linking code for the player and returns the rendered chat line.
func (a *AdminAPI) HandleIssueCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req issueCodeRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if req.PlayerID == uuid.Nil {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	message, err := a.bridge.IssueLinkingCode(r.Context(), req.PlayerID)
	if err != nil {
		a.log.Err(err).Stringer("player_id", req.PlayerID).Msg("Failed to issue linking code")
		http.Error(w, "failed to issue code", http.StatusInternalServerError)
		return
	}
	a.writeJSON(w, issueCodeResponse{Message: message})
}

type linkRequest struct {
	Code      string            `json:"code"`
	DiscordID discord.Snowflake `json:"discord_id"`
	Username  string            `json:"username"`
	Tag       string            `json:"tag"`
}

type linkResponse struct {
	PlayerID  uuid.UUID  `json:"player_id"`
	Displaced *uuid.UUID `json:"displaced,omitempty"`
}

// HandleLink is an HTTP handler for POST /api/link. It consumes a
// linking code on behalf of a Discord account; GET /api/link?discord_id=
// looks up an existing link.
func (a *AdminAPI) HandleLink(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleLookupLink(w, r)
	case http.MethodPost:
		a.handleConsumeCode(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *AdminAPI) handleConsumeCode(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" || req.DiscordID == 0 {
		http.Error(w, "code and discord_id are required", http.StatusBadRequest)
		return
	}

	result, err := a.bridge.ConsumeLinkingCode(r.Context(), req.Code, discord.User{
		ID:       req.DiscordID,
		Username: req.Username,
		Tag:      req.Tag,
	})
	if err != nil && !errors.Is(err, ErrSnapshotWrite) {
		a.log.Err(err).Stringer("discord_id", req.DiscordID).Msg("Failed to consume linking code")
		http.Error(w, "failed to consume code", http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "unknown or expired code", http.StatusNotFound)
		return
	}
	if err != nil {
		// The link is live in memory; persistence will be retried.
		a.log.Warn().Err(err).Stringer("player_id", result.Player).Msg("Link established but snapshot write failed")
	}
	a.writeJSON(w, linkResponse{PlayerID: result.Player, Displaced: result.Link.Displaced})
}

type lookupResponse struct {
	PlayerID   uuid.UUID `json:"player_id"`
	PlayerName string    `json:"player_name,omitempty"`
}

func (a *AdminAPI) handleLookupLink(w http.ResponseWriter, r *http.Request) {
	id, err := discord.ParseSnowflake(r.URL.Query().Get("discord_id"))
	if err != nil {
		http.Error(w, "invalid discord_id", http.StatusBadRequest)
		return
	}
	player, ok := a.bridge.PlayerOf(id)
	if !ok {
		http.Error(w, "not linked", http.StatusNotFound)
		return
	}
	resp := lookupResponse{PlayerID: player}
	if a.bridge.game != nil {
		resp.PlayerName = a.bridge.game.PlayerName(player)
	}
	a.writeJSON(w, resp)
}

type unlinkRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type unlinkResponse struct {
	Message string `json:"message"`
}

// HandleUnlink is an HTTP handler for POST /api/unlink.
func (a *AdminAPI) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req unlinkRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if req.PlayerID == uuid.Nil {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	message, err := a.bridge.Unlink(req.PlayerID)
	if err != nil && !errors.Is(err, ErrSnapshotWrite) {
		a.log.Err(err).Stringer("player_id", req.PlayerID).Msg("Failed to unlink player")
		http.Error(w, "failed to unlink", http.StatusInternalServerError)
		return
	}
	a.writeJSON(w, unlinkResponse{Message: message})
}

func (a *AdminAPI) decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func (a *AdminAPI) writeJSON(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.log.Warn().Err(err).Msg("Failed to write admin API response")
	}
}
