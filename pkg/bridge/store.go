// Copyright 2024-2026 Aiku AI

package bridge

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"gopkg.in/yaml.v3"

	"github.com/aiku/mc-discord-bridge/pkg/discord"
)

// ErrSnapshotWrite marks a persistence failure after a mutation. The
// in-memory state is authoritative and already reflects the mutation;
// callers may retry persistence with Flush.
var ErrSnapshotWrite = errors.New("failed to write account snapshot")

// NameLookup resolves a player id to a display name for operator-facing
// diagnostics. Implementations return "" for unknown players; the store
// never depends on it for correctness.
type NameLookup interface {
	PlayerName(id uuid.UUID) string
}

// snapshotAccount is the on-disk record for one player.
type snapshotAccount struct {
	DiscordID *discord.Snowflake `yaml:"discordId"`
}

type snapshotEntry struct {
	player    uuid.UUID
	discordID *discord.Snowflake
}

// IdentityStore owns the bijective mapping between player UUIDs and
// Discord account ids. The player→Discord mapping persisted in the
// snapshot file is authoritative; the Discord→player index is derived,
// rebuilt on every load and maintained incrementally on every mutation.
// All mutations are serialized and persist before returning.
type IdentityStore struct {
	log   zerolog.Logger
	path  string
	names NameLookup

	mu        sync.Mutex
	accounts  map[uuid.UUID]*discord.Snowflake
	byDiscord map[discord.Snowflake]uuid.UUID
}

// NewIdentityStore creates a store backed by the snapshot file at path.
// names may be nil; Load must be called before use.
func NewIdentityStore(path string, names NameLookup, log zerolog.Logger) *IdentityStore {
	return &IdentityStore{
		log:       log,
		path:      path,
		names:     names,
		accounts:  make(map[uuid.UUID]*discord.Snowflake),
		byDiscord: make(map[discord.Snowflake]uuid.UUID),
	}
}

// Load reads the snapshot and rebuilds the derived index. An absent
// file is treated as an empty mapping and an initial snapshot is
// written; an empty or whitespace-only file is an empty mapping; any
// other unparseable content is an error.
func (s *IdentityStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.accounts = make(map[uuid.UUID]*discord.Snowflake)
		s.byDiscord = make(map[discord.Snowflake]uuid.UUID)
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("read account snapshot: %w", err)
	}

	entries, err := decodeSnapshot(raw)
	if err != nil {
		return fmt.Errorf("parse account snapshot %s: %w", s.path, err)
	}

	s.accounts = make(map[uuid.UUID]*discord.Snowflake, len(entries))
	for _, e := range entries {
		s.accounts[e.player] = e.discordID
	}
	s.rebuildIndexLocked(entries)
	return nil
}

// Reload re-reads the snapshot, discarding in-memory state.
func (s *IdentityStore) Reload() error {
	return s.Load()
}

// decodeSnapshot parses the snapshot preserving document order, which
// makes the duplicate-link tie-break deterministic.
func decodeSnapshot(raw []byte) ([]snapshotEntry, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("snapshot root must be a mapping, got %v", doc.Kind)
	}
	entries := make([]snapshotEntry, 0, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		player, err := uuid.Parse(key.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid player id %q: %w", key.Value, err)
		}
		var account snapshotAccount
		if err := value.Decode(&account); err != nil {
			return nil, fmt.Errorf("invalid record for player %s: %w", player, err)
		}
		entries = append(entries, snapshotEntry{player: player, discordID: account.DiscordID})
	}
	return entries, nil
}

// rebuildIndexLocked derives the Discord→player index. A Discord id
// claimed by two players is a conflict, only possible through
// out-of-band snapshot edits: the first entry wins, the later entrant
// is forcibly unlinked, and both identities are logged.
func (s *IdentityStore) rebuildIndexLocked(entries []snapshotEntry) {
	s.byDiscord = make(map[discord.Snowflake]uuid.UUID, len(entries))
	for _, e := range entries {
		if e.discordID == nil {
			continue
		}
		if existing, ok := s.byDiscord[*e.discordID]; ok {
			s.accounts[e.player] = nil
			s.log.Warn().
				Stringer("discord_id", *e.discordID).
				Str("kept_player", s.displayNameLocked(existing)).
				Str("unlinked_player", s.displayNameLocked(e.player)).
				Msg("Conflicting link in account snapshot, keeping the first entry")
			continue
		}
		s.byDiscord[*e.discordID] = e.player
	}
}

func (s *IdentityStore) displayNameLocked(id uuid.UUID) string {
	if s.names != nil {
		if name := s.names.PlayerName(id); name != "" {
			return name
		}
	}
	return id.String()
}

// DiscordID returns the Discord account linked to player, if any.
func (s *IdentityStore) DiscordID(player uuid.UUID) (discord.Snowflake, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.accounts[player]
	if id == nil {
		return 0, false
	}
	return *id, true
}

// PlayerOf returns the player owning the Discord account, if any.
func (s *IdentityStore) PlayerOf(id discord.Snowflake) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.byDiscord[id]
	return player, ok
}

// LinkResult reports the outcome of a Link call.
type LinkResult struct {
	// Changed is false when the player already owned the Discord id.
	Changed bool
	// Displaced is the player who previously owned the Discord id, so
	// the caller can notify them their link was taken over.
	Displaced *uuid.UUID
	// Previous is the Discord id the player held before this call.
	Previous *discord.Snowflake
}

// Link establishes or replaces the link for player. If the Discord id
// is owned by a different player, that ownership is displaced: the
// index repoints to player and the displaced player's stale outward
// mapping is corrected on their next mutation or index rebuild. The
// mutation persists before Link returns.
func (s *IdentityStore) Link(player uuid.UUID, id discord.Snowflake) (LinkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result LinkResult
	if owner, ok := s.byDiscord[id]; ok {
		if owner == player {
			return result, nil
		}
		result.Displaced = ptr.Ptr(owner)
	}
	s.byDiscord[id] = player

	if previous := s.accounts[player]; previous != nil {
		result.Previous = previous
		if *previous != id {
			delete(s.byDiscord, *previous)
		}
	}
	s.accounts[player] = ptr.Ptr(id)
	result.Changed = true
	return result, s.saveLocked()
}

// Unlink clears the player's link and returns the released Discord id,
// or nil when the player had none. Creates the account implicitly.
func (s *IdentityStore) Unlink(player uuid.UUID) (*discord.Snowflake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.accounts[player]
	if !ok {
		s.accounts[player] = nil
	}
	if previous == nil {
		return nil, nil
	}
	// After a displacement the index may already point elsewhere; only
	// release the entry if this player still owns it.
	if owner, ok := s.byDiscord[*previous]; ok && owner == player {
		delete(s.byDiscord, *previous)
	}
	s.accounts[player] = nil
	return previous, s.saveLocked()
}

// Flush persists the current state, for retrying after ErrSnapshotWrite.
func (s *IdentityStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// LinkedCount returns the number of players with a live link.
func (s *IdentityStore) LinkedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byDiscord)
}

// saveLocked writes the snapshot with keys sorted for stable output,
// via a temp file rename so a crash never truncates the snapshot.
func (s *IdentityStore) saveLocked() error {
	ids := make([]uuid.UUID, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range ids {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: id.String()}
		var value yaml.Node
		if err := value.Encode(snapshotAccount{DiscordID: s.accounts[id]}); err != nil {
			return fmt.Errorf("%w: %v", ErrSnapshotWrite, err)
		}
		doc.Content = append(doc.Content, key, &value)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotWrite, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotWrite, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotWrite, err)
	}
	return nil
}
