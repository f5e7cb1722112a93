// Copyright 2024-2026 Aiku AI

package discord

import (
	"context"
	"regexp"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SegmentKind discriminates the segment variants produced by mention
// resolution.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentUser
	SegmentRole
	SegmentChannel
)

// Segment is one contiguous unit of translated message content. For
// SegmentText, Text holds the literal content. For entity kinds, exactly
// one of User/Role/Channel is set. An entity reference that failed to
// resolve degrades to a SegmentText carrying the original matched token.
type Segment struct {
	Kind SegmentKind
	Text string

	User    *User
	Role    *Role
	Channel *Channel
}

// EntityResolver is the resolution capability supplied by the platform
// client. Each method returns nil (with or without an error) when the id
// does not resolve; the resolver is responsible for its own timeouts.
type EntityResolver interface {
	ResolveUser(ctx context.Context, id Snowflake) (*User, error)
	ResolveRole(ctx context.Context, id Snowflake) (*Role, error)
	ResolveChannel(ctx context.Context, id Snowflake) (*Channel, error)
}

var (
	userMentionRe    = regexp.MustCompile(`<@!?(\d+)>`)
	roleMentionRe    = regexp.MustCompile(`<@&(\d+)>`)
	channelMentionRe = regexp.MustCompile(`<#(\d+)>`)
	customEmojiRe    = regexp.MustCompile(`<a?:(\w+):\d+>`)
)

// ReplaceCustomEmoji rewrites custom emoji tokens (<:name:id> and
// animated <a:name:id>) to their :name: shorthand. It is the default
// transform applied to literal spans during mention resolution.
func ReplaceCustomEmoji(text string) string {
	return customEmojiRe.ReplaceAllString(text, ":$1:")
}

// ResolveOption customizes ResolveMentions.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	transform func(string) string
}

// WithTransform replaces the transform applied to literal spans. Entity
// spans are never transformed.
func WithTransform(fn func(string) string) ResolveOption {
	return func(c *resolveConfig) { c.transform = fn }
}

type mentionMatch struct {
	start, end int
	kind       SegmentKind
	id         Snowflake
	raw        string
}

// findMentions scans text with every matcher and returns the
// non-overlapping matches in document order.
func findMentions(text string) []mentionMatch {
	var matches []mentionMatch
	collect := func(re *regexp.Regexp, kind SegmentKind) {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			id, err := ParseSnowflake(text[loc[2]:loc[3]])
			if err != nil {
				continue
			}
			matches = append(matches, mentionMatch{
				start: loc[0],
				end:   loc[1],
				kind:  kind,
				id:    id,
				raw:   text[loc[0]:loc[1]],
			})
		}
	}
	collect(userMentionRe, SegmentUser)
	collect(roleMentionRe, SegmentRole)
	collect(channelMentionRe, SegmentChannel)

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	// Keep the leftmost match when spans overlap.
	out := matches[:0]
	lastEnd := 0
	for _, m := range matches {
		if m.start < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.end
	}
	return out
}

// ResolveMentions translates raw Discord message content into an ordered
// segment sequence. Entity references are resolved concurrently through
// the supplied resolver, but segments are reassembled strictly in
// document order: concatenating the result reconstructs the message with
// mentions replaced by resolved entities. A reference that does not
// resolve (nil descriptor or resolver error) is preserved as literal
// text.
func ResolveMentions(ctx context.Context, text string, resolver EntityResolver, opts ...ResolveOption) []Segment {
	cfg := resolveConfig{transform: ReplaceCustomEmoji}
	for _, opt := range opts {
		opt(&cfg)
	}

	matches := findMentions(text)
	if len(matches) == 0 {
		if text == "" {
			return nil
		}
		return []Segment{{Kind: SegmentText, Text: cfg.transform(text)}}
	}

	// Pre-size the segment slots so each resolution writes to its own
	// index; completion order never affects output order.
	segments := make([]Segment, 0, len(matches)*2+1)
	type slot struct {
		index int
		match mentionMatch
	}
	var slots []slot
	cursor := 0
	for _, m := range matches {
		if m.start > cursor {
			segments = append(segments, Segment{Kind: SegmentText, Text: cfg.transform(text[cursor:m.start])})
		}
		slots = append(slots, slot{index: len(segments), match: m})
		segments = append(segments, Segment{Kind: SegmentText, Text: m.raw})
		cursor = m.end
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Kind: SegmentText, Text: cfg.transform(text[cursor:])})
	}

	var group errgroup.Group
	for _, s := range slots {
		s := s
		group.Go(func() error {
			if seg, ok := resolveOne(ctx, resolver, s.match); ok {
				segments[s.index] = seg
			}
			return nil
		})
	}
	_ = group.Wait()

	return segments
}

// resolveOne performs a single resolution. The false return means the
// pre-filled literal fallback stays in place.
func resolveOne(ctx context.Context, resolver EntityResolver, m mentionMatch) (Segment, bool) {
	if resolver == nil {
		return Segment{}, false
	}
	switch m.kind {
	case SegmentUser:
		user, err := resolver.ResolveUser(ctx, m.id)
		if err != nil || user == nil {
			return Segment{}, false
		}
		return Segment{Kind: SegmentUser, User: user}, true
	case SegmentRole:
		role, err := resolver.ResolveRole(ctx, m.id)
		if err != nil || role == nil {
			return Segment{}, false
		}
		return Segment{Kind: SegmentRole, Role: role}, true
	case SegmentChannel:
		channel, err := resolver.ResolveChannel(ctx, m.id)
		if err != nil || channel == nil {
			return Segment{}, false
		}
		return Segment{Kind: SegmentChannel, Channel: channel}, true
	}
	return Segment{}, false
}
