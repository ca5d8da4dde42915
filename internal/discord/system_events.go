package discord

import "github.com/rs/zerolog/log"

type SystemEventType string

const SystemEventRefreshCommands SystemEventType = "refresh_commands"

// SystemEvent asks the running bot for housekeeping that a command cannot do
// itself, like re-syncing a guild's slash commands after a group toggle.
type SystemEvent struct {
	Type    SystemEventType
	GuildID string
	Target  string // "all", "group:<name>" or a command name
}

const systemEventBuffer = 16

var systemEventBus = make(chan SystemEvent, systemEventBuffer)

// PublishSystemEvent queues evt without blocking and reports whether it was
// accepted. A full bus drops the event.
func PublishSystemEvent(evt SystemEvent) bool {
	select {
	case systemEventBus <- evt:
		return true
	default:
		log.Warn().
			Str("type", string(evt.Type)).
			Str("guild", evt.GuildID).
			Str("target", evt.Target).
			Msg("System event bus full, dropping event")
		return false
	}
}

// RefreshCommands queues a slash command re-sync for one guild.
func RefreshCommands(guildID, target string) bool {
	return PublishSystemEvent(SystemEvent{Type: SystemEventRefreshCommands, GuildID: guildID, Target: target})
}

func SystemEvents() <-chan SystemEvent {
	return systemEventBus
}
