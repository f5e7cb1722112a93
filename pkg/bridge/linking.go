// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aiku/mc-discord-bridge/pkg/discord"
)

// DefaultCodeTTL is the linking code lifetime when the config does not
// set one.
const DefaultCodeTTL = 5 * time.Minute

// CodeRegistry issues and consumes one-time linking codes. Codes are
// case-insensitive on input and a player holds at most one live code at
// a time.
type CodeRegistry struct {
	store CodeStore
	links *IdentityStore
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCodeRegistry(store CodeStore, links *IdentityStore, ttl time.Duration, log zerolog.Logger) *CodeRegistry {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &CodeRegistry{store: store, links: links, ttl: ttl, log: log}
}

// Issue creates a fresh code for the player, replacing any live code
// they already hold.
func (r *CodeRegistry) Issue(ctx context.Context, player uuid.UUID) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := r.store.Put(ctx, code, player, r.ttl); err != nil {
		return "", err
	}
	r.log.Debug().
		Stringer("player_id", player).
		Dur("ttl", r.ttl).
		Msg("Issued linking code")
	return code, nil
}

// ConsumeResult reports a successful code consumption.
type ConsumeResult struct {
	Player uuid.UUID
	Link   LinkResult
}

// Consume claims the code and links its player to the Discord account.
// A nil result with nil error means the code was unknown, expired, or
// already claimed; callers cannot tell those apart, matching what the
// submitting user should learn. The code is burned even if persisting
// the link fails.
func (r *CodeRegistry) Consume(ctx context.Context, code string, id discord.Snowflake) (*ConsumeResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	player, ok, err := r.store.Claim(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	link, err := r.links.Link(player, id)
	if err != nil {
		r.log.Err(err).
			Stringer("player_id", player).
			Stringer("discord_id", id).
			Msg("Linked account but failed to persist")
		return &ConsumeResult{Player: player, Link: link}, err
	}
	r.log.Info().
		Stringer("player_id", player).
		Stringer("discord_id", id).
		Msg("Linked player to Discord account")
	return &ConsumeResult{Player: player, Link: link}, nil
}
