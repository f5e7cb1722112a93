// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/mc-discord-bridge/pkg/discord"
)

func newTestRegistry(t *testing.T) (*CodeRegistry, *MemoryCodeStore, *IdentityStore) {
	t.Helper()
	links := NewIdentityStore(filepath.Join(t.TempDir(), "players.yml"), nil, zerolog.Nop())
	if err := links.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	store := NewMemoryCodeStore()
	return NewCodeRegistry(store, links, time.Minute, zerolog.Nop()), store, links
}

func TestGenerateCodeShape(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}

func TestIssueAndConsume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, _, links := newTestRegistry(t)

	code, err := registry.Issue(ctx, playerA)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	result, err := registry.Consume(ctx, code, 100)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if result == nil || result.Player != playerA {
		t.Fatalf("Consume result: %+v", result)
	}
	if !result.Link.Changed {
		t.Error("expected link to be established")
	}
	if id, ok := links.DiscordID(playerA); !ok || id != 100 {
		t.Errorf("link not recorded: %d, %v", id, ok)
	}
}

func TestConsumeIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, _, _ := newTestRegistry(t)

	code, err := registry.Issue(ctx, playerA)
	if err != nil {
		t.Fatal(err)
	}
	result, err := registry.Consume(ctx, "  "+strings.ToLower(code)+" ", 100)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if result == nil {
		t.Fatal("lowercased code was rejected")
	}
}

func TestConsumeUnknownCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, _, _ := newTestRegistry(t)

	for _, code := range []string{"NOSUCH", "", "   "} {
		result, err := registry.Consume(ctx, code, 100)
		if err != nil || result != nil {
			t.Errorf("Consume(%q): %+v, %v", code, result, err)
		}
	}
}

func TestConsumeExactlyOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, _, _ := newTestRegistry(t)

	code, err := registry.Issue(ctx, playerA)
	if err != nil {
		t.Fatal(err)
	}

	const workers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id discord.Snowflake) {
			defer wg.Done()
			<-start
			result, err := registry.Consume(ctx, code, id)
			if err != nil {
				t.Errorf("Consume: %v", err)
			}
			if result != nil {
				wins.Add(1)
			}
		}(discord.Snowflake(1000 + i))
	}
	close(start)
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("code consumed %d times, want exactly once", wins.Load())
	}
}

func TestExpiredCodeLooksUnknown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, store, _ := newTestRegistry(t)

	now := time.Now()
	store.now = func() time.Time { return now }

	code, err := registry.Issue(ctx, playerA)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)

	result, err := registry.Consume(ctx, code, 100)
	if err != nil || result != nil {
		t.Errorf("expired code: %+v, %v", result, err)
	}
}

func TestIssueInvalidatesPriorCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, _, _ := newTestRegistry(t)

	first, err := registry.Issue(ctx, playerA)
	if err != nil {
		t.Fatal(err)
	}
	second, err := registry.Issue(ctx, playerA)
	if err != nil {
		t.Fatal(err)
	}

	if result, err := registry.Consume(ctx, first, 100); err != nil || result != nil {
		t.Errorf("stale code still live: %+v, %v", result, err)
	}
	result, err := registry.Consume(ctx, second, 100)
	if err != nil || result == nil {
		t.Errorf("fresh code rejected: %+v, %v", result, err)
	}
}

func TestConsumeDisplacesPreviousOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, _, links := newTestRegistry(t)

	if _, err := links.Link(playerB, 100); err != nil {
		t.Fatal(err)
	}
	code, err := registry.Issue(ctx, playerA)
	if err != nil {
		t.Fatal(err)
	}
	result, err := registry.Consume(ctx, code, 100)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if result.Link.Displaced == nil || *result.Link.Displaced != playerB {
		t.Errorf("expected playerB displaced, got %+v", result.Link)
	}
	if player, ok := links.PlayerOf(100); !ok || player != playerA {
		t.Errorf("ownership after consume: %s, %v", player, ok)
	}
}
