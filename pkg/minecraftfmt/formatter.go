// Copyright 2024-2026 Aiku AI

// Package minecraftfmt renders Discord-originated content into game
// chat lines using operator-configured %placeholder% templates with
// legacy ampersand color codes. Substitution is pure and synchronous;
// placeholders a template does not use, and tokens the formatter does
// not recognize, pass through verbatim.
package minecraftfmt

import (
	"strings"
	"time"

	"github.com/aiku/mc-discord-bridge/pkg/discord"
)

// Formatter applies the message templates. Zero I/O, safe for
// concurrent use.
type Formatter struct {
	messages *Messages
	location *time.Location
	use24h   bool
}

// New builds a Formatter. A nil messages set falls back to the
// defaults; a nil location means UTC.
func New(messages *Messages, location *time.Location, use24h bool) *Formatter {
	if messages == nil {
		messages = DefaultMessages()
	}
	if location == nil {
		location = time.UTC
	}
	return &Formatter{messages: messages, location: location, use24h: use24h}
}

// ChatContext carries everything needed to render one relayed Discord
// message into game chat.
type ChatContext struct {
	Author    *discord.User
	Channel   *discord.Channel
	GuildName string
	Timestamp time.Time
	Segments  []discord.Segment
}

func (f *Formatter) timePairs(ts time.Time) []string {
	shortLayout, longLayout := "15:04", "15:04:05"
	if !f.use24h {
		shortLayout, longLayout = "03:04 PM", "03:04:05 PM"
	}
	zoned := ts.In(f.location)
	return []string{
		"%time-short%", zoned.Format(shortLayout),
		"%time-long%", zoned.Format(longLayout),
	}
}

func (f *Formatter) userPairs(u *discord.User, defaultColor string) []string {
	color := u.Color
	if color == "" {
		color = defaultColor
	}
	tag := u.Tag
	if tag == "" {
		tag = u.Username
	}
	return []string{
		"%username%", u.Username,
		"%user-tag%", tag,
		"%user-id%", u.ID.String(),
		"%nickname%", u.DisplayName(),
		"%user-color%", color,
	}
}

func (f *Formatter) channelPairs(c *discord.Channel) []string {
	category := c.Category
	if category == "" {
		category = f.messages.Minecraft.NoCategory
	}
	return []string{
		"%channel-name%", c.Name,
		"%channel-id%", c.ID.String(),
		"%channel-category%", category,
	}
}

// RenderSegments renders resolved segments with the per-kind mention
// templates and concatenates them in order.
func (f *Formatter) RenderSegments(segments []discord.Segment) string {
	mc := f.messages.Minecraft
	var sb strings.Builder
	for _, s := range segments {
		switch s.Kind {
		case discord.SegmentText:
			sb.WriteString(s.Text)
		case discord.SegmentUser:
			sb.WriteString(replace(mc.UserMention, f.userPairs(s.User, mc.MemberMentionDefaultColor)))
		case discord.SegmentRole:
			color := s.Role.Color
			if color == "" {
				color = mc.RoleMentionDefaultColor
			}
			sb.WriteString(replace(mc.RoleMention, []string{
				"%role-name%", s.Role.Name,
				"%role-id%", s.Role.ID.String(),
				"%role-color%", color,
			}))
		case discord.SegmentChannel:
			sb.WriteString(replace(mc.ChannelMention, f.channelPairs(s.Channel)))
		}
	}
	return sb.String()
}

// FormatChatMessage renders one relayed Discord message. All
// substitutions happen in a single pass, so message content can never
// inject placeholders into the surrounding template.
func (f *Formatter) FormatChatMessage(c ChatContext) string {
	return replace(f.messages.Minecraft.Message, f.chatPairs(c))
}

// FormatTooltip renders the hover tooltip for a relayed message.
func (f *Formatter) FormatTooltip(c ChatContext) string {
	return replace(f.messages.Minecraft.Tooltip, f.chatPairs(c))
}

func (f *Formatter) chatPairs(c ChatContext) []string {
	author := c.Author
	if author == nil {
		author = &discord.User{}
	}
	channel := c.Channel
	if channel == nil {
		channel = &discord.Channel{}
	}
	pairs := []string{"%content%", f.RenderSegments(c.Segments)}
	pairs = append(pairs, f.timePairs(c.Timestamp)...)
	pairs = append(pairs, f.userPairs(author, f.messages.Minecraft.DefaultAuthorColor)...)
	pairs = append(pairs, f.channelPairs(channel)...)
	pairs = append(pairs, "%guild-name%", c.GuildName)
	return pairs
}

// FormatHelpHeader renders the help listing header.
func (f *Formatter) FormatHelpHeader(version string) string {
	return replace(f.messages.Commands.HelpHeader, []string{"%plugin-version%", version})
}

// FormatHelpCommand renders one help listing entry.
func (f *Formatter) FormatHelpCommand(command, description string) string {
	return replace(f.messages.Commands.HelpCommand, []string{
		"%command%", command,
		"%description%", description,
	})
}

// FormatLinkCodeMessage renders the message shown to a player after a
// linking code was issued for them.
func (f *Formatter) FormatLinkCodeMessage(code string) string {
	return replace(f.messages.Commands.LinkMessage, []string{"%code%", code})
}

// FormatLinkDisabled renders the response when linking is turned off.
func (f *Formatter) FormatLinkDisabled() string {
	return f.messages.Commands.LinkDisabled
}

// FormatLinkingSuccess renders the in-game confirmation after a code
// was consumed.
func (f *Formatter) FormatLinkingSuccess(userTag string) string {
	return replace(f.messages.Minecraft.LinkingSuccess, []string{"%user-tag%", userTag})
}

// FormatClaimedByOther renders the notice to a player whose link was
// displaced by someone else claiming the same Discord account.
func (f *Formatter) FormatClaimedByOther(playerName, userTag string) string {
	return replace(f.messages.Minecraft.LinkingClaimedByOther, []string{
		"%player-name%", playerName,
		"%user-tag%", userTag,
	})
}

// FormatUnlinkSuccess renders the unlink confirmation.
func (f *Formatter) FormatUnlinkSuccess() string {
	return f.messages.Commands.UnlinkSuccess
}

// FormatAlreadyUnlinked renders the response when there was no link to
// remove.
func (f *Formatter) FormatAlreadyUnlinked() string {
	return f.messages.Commands.AlreadyUnlinked
}

// FormatProfileInfo renders a profile lookup result.
func (f *Formatter) FormatProfileInfo(playerName string) string {
	return replace(f.messages.Commands.ProfileInfo, []string{"%player-name%", playerName})
}

// FormatUpdateNotification renders the update notice. The %link%
// placeholder expands to the update-link template with %url% applied.
func (f *Formatter) FormatUpdateNotification(currentVersion, latestVersion, url string) string {
	link := replace(f.messages.Minecraft.UpdateLink, []string{"%url%", url})
	return replace(f.messages.Minecraft.UpdateMessage, []string{
		"%current-version%", currentVersion,
		"%latest-version%", latestVersion,
		"%url%", url,
		"%link%", link,
	})
}

// replace performs a single-pass substitution. Replaced content is not
// rescanned, and pairs absent from the template are simply unused.
func replace(template string, pairs []string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}
