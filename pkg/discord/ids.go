// Copyright 2024-2026 Aiku AI

// Package discord holds the Discord-side domain types consumed by the
// bridge core: snowflake identifiers, entity descriptors, the entity
// resolution capability, and translation of raw message content into
// ordered text/entity segments.
package discord

import (
	"fmt"
	"strconv"
)

// Snowflake is a Discord entity identifier (user, role, channel, guild).
type Snowflake int64

// ParseSnowflake parses the canonical decimal form of a snowflake.
func ParseSnowflake(s string) (Snowflake, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return Snowflake(v), nil
}

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// User describes a resolved Discord user. Color is the game-renderable
// color string supplied by the platform client; empty means the
// configured default applies.
type User struct {
	ID       Snowflake
	Username string
	Nickname string
	Tag      string
	Color    string
}

// DisplayName returns the guild nickname when present, the username otherwise.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Role describes a resolved Discord role.
type Role struct {
	ID    Snowflake
	Name  string
	Color string
}

// Channel describes a resolved Discord guild channel.
type Channel struct {
	ID       Snowflake
	Name     string
	Category string
}
