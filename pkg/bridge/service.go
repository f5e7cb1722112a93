// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aiku/mc-discord-bridge/pkg/discord"
	"github.com/aiku/mc-discord-bridge/pkg/minecraftfmt"
)

// ChatClient is the Discord side of the bridge. Implementations resolve
// mention entities and deliver outbound messages.
type ChatClient interface {
	discord.EntityResolver
	SendMessage(ctx context.Context, channel discord.Snowflake, content string) error
}

// GameServer is the game side of the bridge.
type GameServer interface {
	// Broadcast sends a chat line to every online player.
	Broadcast(ctx context.Context, message string) error
	// SendTo sends a chat line to one player if they are online.
	SendTo(ctx context.Context, player uuid.UUID, message string) error
	// PlayerName resolves a player id to their current name, or "".
	PlayerName(player uuid.UUID) string
}

// Bridge wires the identity store, the linking registry and the
// formatter to the two chat surfaces.
type Bridge struct {
	log       zerolog.Logger
	cfg       *Config
	links     *IdentityStore
	registry  *CodeRegistry
	formatter *minecraftfmt.Formatter
	chat      ChatClient
	game      GameServer
}

func NewBridge(cfg *Config, links *IdentityStore, registry *CodeRegistry, formatter *minecraftfmt.Formatter, chat ChatClient, game GameServer, log zerolog.Logger) *Bridge {
	return &Bridge{
		log:       log,
		cfg:       cfg,
		links:     links,
		registry:  registry,
		formatter: formatter,
		chat:      chat,
		game:      game,
	}
}

// IssueLinkingCode creates a linking code for the player and returns
// the rendered chat line to show them. When linking is disabled the
// rendered refusal is returned instead, with no code issued.
func (b *Bridge) IssueLinkingCode(ctx context.Context, player uuid.UUID) (string, error) {
	if !b.cfg.Linking.Enabled {
		return b.formatter.FormatLinkDisabled(), nil
	}
	code, err := b.registry.Issue(ctx, player)
	if err != nil {
		return "", err
	}
	return b.formatter.FormatLinkCodeMessage(code), nil
}

// ConsumeLinkingCode claims a code submitted from Discord and links its
// player to the account. The returned result is nil when the code was
// unknown, expired, or already claimed. Both the linking player and any
// displaced player are notified in game.
func (b *Bridge) ConsumeLinkingCode(ctx context.Context, code string, user discord.User) (*ConsumeResult, error) {
	result, err := b.registry.Consume(ctx, code, user.ID)
	if result == nil || err != nil {
		return result, err
	}

	tag := user.Tag
	if tag == "" {
		tag = user.Username
	}
	if b.game != nil {
		if displaced := result.Link.Displaced; displaced != nil {
			name := b.game.PlayerName(result.Player)
			if name == "" {
				name = result.Player.String()
			}
			notice := b.formatter.FormatClaimedByOther(name, tag)
			if err := b.game.SendTo(ctx, *displaced, notice); err != nil {
				b.log.Warn().Err(err).Stringer("player_id", *displaced).Msg("Failed to notify displaced player")
			}
		}
		success := b.formatter.FormatLinkingSuccess(tag)
		if err := b.game.SendTo(ctx, result.Player, success); err != nil {
			b.log.Warn().Err(err).Stringer("player_id", result.Player).Msg("Failed to notify linked player")
		}
	}
	return result, nil
}

// Unlink removes the player's link and returns the rendered response.
// On ErrSnapshotWrite the unlink is still live in memory and the
// response is returned alongside the error.
func (b *Bridge) Unlink(player uuid.UUID) (string, error) {
	previous, err := b.links.Unlink(player)
	if err != nil && !errors.Is(err, ErrSnapshotWrite) {
		return "", err
	}
	if previous == nil {
		return b.formatter.FormatAlreadyUnlinked(), err
	}
	return b.formatter.FormatUnlinkSuccess(), err
}

// DiscordID looks up the Discord account linked to player.
func (b *Bridge) DiscordID(player uuid.UUID) (discord.Snowflake, bool) {
	return b.links.DiscordID(player)
}

// PlayerOf looks up the player owning a Discord account.
func (b *Bridge) PlayerOf(id discord.Snowflake) (uuid.UUID, bool) {
	return b.links.PlayerOf(id)
}

// TranslateMessage resolves mentions in raw Discord message content and
// renders it with the chat template, without delivering it anywhere.
func (b *Bridge) TranslateMessage(ctx context.Context, author *discord.User, channel *discord.Channel, guildName, content string, ts time.Time) string {
	return b.formatter.FormatChatMessage(minecraftfmt.ChatContext{
		Author:    author,
		Channel:   channel,
		GuildName: guildName,
		Timestamp: ts,
		Segments:  discord.ResolveMentions(ctx, content, b.chat),
	})
}

// RelayDiscordMessage renders a Discord message and broadcasts it into
// game chat.
func (b *Bridge) RelayDiscordMessage(ctx context.Context, author *discord.User, channel *discord.Channel, guildName, content string, ts time.Time) error {
	return b.game.Broadcast(ctx, b.TranslateMessage(ctx, author, channel, guildName, content, ts))
}

// RelayGameChat sends a game chat line to the bridged Discord channel.
// Player-controlled text is sanitized so it cannot ping @everyone or
// inject markdown.
func (b *Bridge) RelayGameChat(ctx context.Context, playerName, content string) error {
	rendered := replace(b.cfg.Chat.ChatFormat, []string{
		"%player-name%", discord.EscapeMarkdown(discord.SanitizeMentions(playerName)),
		"%content%", discord.SanitizeMentions(content),
	})
	return b.chat.SendMessage(ctx, b.cfg.Chat.ChannelID, rendered)
}

// RelayJoin announces a player joining.
func (b *Bridge) RelayJoin(ctx context.Context, playerName string) error {
	return b.relayEvent(ctx, b.cfg.Chat.JoinMessage, playerName)
}

// RelayQuit announces a player leaving.
func (b *Bridge) RelayQuit(ctx context.Context, playerName string) error {
	return b.relayEvent(ctx, b.cfg.Chat.QuitMessage, playerName)
}

// RelayDeath announces a death. An empty death message falls back to
// the configured generic template.
func (b *Bridge) RelayDeath(ctx context.Context, playerName, deathMessage string) error {
	template := b.cfg.Chat.DeathMessage
	if strings.TrimSpace(deathMessage) == "" {
		template = b.cfg.Chat.DeathFallback
	}
	rendered := replace(template, []string{
		"%player-name%", discord.EscapeMarkdown(discord.SanitizeMentions(playerName)),
		"%death-message%", discord.SanitizeMentions(deathMessage),
	})
	if rendered == "" {
		return nil
	}
	return b.chat.SendMessage(ctx, b.cfg.Chat.ChannelID, rendered)
}

func (b *Bridge) relayEvent(ctx context.Context, template, playerName string) error {
	if template == "" {
		return nil
	}
	rendered := replace(template, []string{
		"%player-name%", discord.EscapeMarkdown(discord.SanitizeMentions(playerName)),
	})
	return b.chat.SendMessage(ctx, b.cfg.Chat.ChannelID, rendered)
}

// ProfileName renders the profile lookup response for a Discord account.
func (b *Bridge) ProfileName(id discord.Snowflake) (string, bool) {
	player, ok := b.links.PlayerOf(id)
	if !ok {
		return "", false
	}
	name := ""
	if b.game != nil {
		name = b.game.PlayerName(player)
	}
	if name == "" {
		name = player.String()
	}
	return b.formatter.FormatProfileInfo(name), true
}

// replace is shared with the formatter's substitution rule: single
// pass, unknown placeholders verbatim.
func replace(template string, pairs []string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}
