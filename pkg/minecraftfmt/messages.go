// Copyright 2024-2026 Aiku AI

package minecraftfmt

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Messages holds every operator-configurable template rendered on the
// game side. Templates use %placeholder% substitution; placeholders the
// formatter does not know are left verbatim.
type Messages struct {
	Minecraft MinecraftMessages `yaml:"minecraft"`
	Commands  CommandMessages   `yaml:"commands"`
}

// MinecraftMessages are templates for Discord-originated content
// rendered into game chat, in legacy ampersand color notation.
type MinecraftMessages struct {
	Message string `yaml:"message"`
	Tooltip string `yaml:"tooltip"`

	UserMention    string `yaml:"user-mention"`
	RoleMention    string `yaml:"role-mention"`
	ChannelMention string `yaml:"channel-mention"`

	DefaultAuthorColor        string `yaml:"default-author-color"`
	MemberMentionDefaultColor string `yaml:"member-mention-default-color"`
	RoleMentionDefaultColor   string `yaml:"role-mention-default-color"`
	NoCategory                string `yaml:"no-category"`

	LinkingSuccess        string `yaml:"linking-success"`
	LinkingClaimedByOther string `yaml:"linking-claimed-by-other"`

	UpdateMessage string `yaml:"update-message"`
	UpdateLink    string `yaml:"update-link"`
}

// CommandMessages are templates for responses to in-game bridge commands.
type CommandMessages struct {
	HelpHeader      string `yaml:"help-header"`
	HelpCommand     string `yaml:"help-command"`
	LinkMessage     string `yaml:"link-message"`
	LinkDisabled    string `yaml:"link-disabled"`
	UnlinkSuccess   string `yaml:"unlink-success"`
	AlreadyUnlinked string `yaml:"already-unlinked"`
	ProfileInfo     string `yaml:"profile-info"`
	Unknown         string `yaml:"unknown"`
}

// DefaultMessages returns the built-in template set.
func DefaultMessages() *Messages {
	return &Messages{
		Minecraft: MinecraftMessages{
			Message: "&8[%time-short%] &9[Discord] &f%nickname%&7: &f%content%",
			Tooltip: "&7#%channel-name% (%channel-category%) on %guild-name%",

			UserMention:    "%user-color%@%nickname%&r",
			RoleMention:    "%role-color%@%role-name%&r",
			ChannelMention: "&b#%channel-name%&r",

			DefaultAuthorColor:        "&f",
			MemberMentionDefaultColor: "&b",
			RoleMentionDefaultColor:   "&b",
			NoCategory:                "no category",

			LinkingSuccess:        "&aLinked to Discord account %user-tag%",
			LinkingClaimedByOther: "&e%player-name% is now linked to %user-tag%, your link was removed",

			UpdateMessage: "&eUpdate available: %current-version% -> %latest-version% %link%",
			UpdateLink:    "&b&n%url%",
		},
		Commands: CommandMessages{
			HelpHeader:      "&9Bridge commands (version %plugin-version%):",
			HelpCommand:     "&b%command% &7- %description%",
			LinkMessage:     "&7Your linking code: &b%code%",
			LinkDisabled:    "&cAccount linking is disabled on this server",
			UnlinkSuccess:   "&aYour Discord account has been unlinked",
			AlreadyUnlinked: "&eYour account is not linked to Discord",
			ProfileInfo:     "&7Linked player: &f%player-name%",
			Unknown:         "&cUnknown command, try /bridge help",
		},
	}
}

// LoadMessages reads template overrides from a YAML file layered on top
// of the defaults. An absent path (or empty argument) yields the
// defaults; a malformed file is an error.
func LoadMessages(path string) (*Messages, error) {
	messages := DefaultMessages()
	if path == "" {
		return messages, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return messages, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read messages file: %w", err)
	}
	if err := yaml.Unmarshal(raw, messages); err != nil {
		return nil, fmt.Errorf("parse messages file %s: %w", path, err)
	}
	return messages, nil
}
