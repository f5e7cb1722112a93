// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// generateCode returns a fresh uppercase alphanumeric linking code.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate linking code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// CodeStore holds pending linking codes. Implementations must make
// Claim atomic: a stored code is returned to exactly one caller.
type CodeStore interface {
	// Put stores a code for a player with the given lifetime,
	// invalidating any code previously stored for the same player.
	Put(ctx context.Context, code string, player uuid.UUID, ttl time.Duration) error
	// Claim consumes a code. The second return is false when the code
	// is unknown, already claimed, or expired.
	Claim(ctx context.Context, code string) (uuid.UUID, bool, error)
}

type memoryCode struct {
	player    uuid.UUID
	expiresAt time.Time
}

// MemoryCodeStore is the in-process CodeStore used when no Redis is
// configured. Codes do not survive a restart, which is fine for their
// lifetime.
type MemoryCodeStore struct {
	now func() time.Time

	mu       sync.Mutex
	byCode   map[string]memoryCode
	byPlayer map[uuid.UUID]string
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		now:      time.Now,
		byCode:   make(map[string]memoryCode),
		byPlayer: make(map[uuid.UUID]string),
	}
}

func (m *MemoryCodeStore) Put(ctx context.Context, code string, player uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.byPlayer[player]; ok {
		delete(m.byCode, old)
	}
	m.byCode[code] = memoryCode{player: player, expiresAt: m.now().Add(ttl)}
	m.byPlayer[player] = code
	return nil
}

func (m *MemoryCodeStore) Claim(ctx context.Context, code string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byCode[code]
	if !ok {
		return uuid.Nil, false, nil
	}
	delete(m.byCode, code)
	if m.byPlayer[entry.player] == code {
		delete(m.byPlayer, entry.player)
	}
	if m.now().After(entry.expiresAt) {
		return uuid.Nil, false, nil
	}
	return entry.player, true, nil
}
