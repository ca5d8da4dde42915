package command

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// PermissionState is the outcome of a channel permission lookup.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Granted collapses the state for a guard: only an explicit grant passes.
func (p PermissionState) Granted() bool {
	return p == PermissionGranted
}

// ChannelPermission resolves whether userID holds all bits of perm in channelID.
// A failed lookup yields PermissionUnknown rather than a denial.
func ChannelPermission(s Session, userID, channelID string, perm int64) PermissionState {
	if s == nil || userID == "" || channelID == "" {
		return PermissionUnknown
	}

	perms, err := s.UserChannelPermissions(userID, channelID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Str("channel", channelID).Msg("Permission lookup failed")
		return PermissionUnknown
	}
	if perms&perm == perm {
		return PermissionGranted
	}
	return PermissionDenied
}

// PermissionNames maps permission bits to the labels shown to users.
var PermissionNames = map[int64]string{
	discordgo.PermissionAdministrator:      "Administrator",
	discordgo.PermissionManageChannels:     "Manage Channels",
	discordgo.PermissionManageGuild:        "Manage Server",
	discordgo.PermissionManageMessages:     "Manage Messages",
	discordgo.PermissionViewChannel:        "View Channel",
	discordgo.PermissionSendMessages:       "Send Messages",
	discordgo.PermissionSendPolls:          "Send Polls",
	discordgo.PermissionEmbedLinks:         "Embed Links",
	discordgo.PermissionReadMessageHistory: "Read Message History",
	discordgo.PermissionAddReactions:       "Add Reactions",
	discordgo.PermissionModerateMembers:    "Moderate Members",
}
