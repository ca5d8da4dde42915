package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// commandsAPI is the slice of *discordgo.Session used to manage guild commands.
type commandsAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// commandSyncer keeps a guild's slash commands in line with the registry.
// Definitions are hashed and cached per guild so unchanged commands are not
// re-registered on every start.
type commandSyncer struct {
	api      commandsAPI
	registry *cmd.Registry
	cacheDir string
	delay    time.Duration // between creates, to stay under Discord's rate limit
}

// Sync deletes remote commands that are gone locally or whose group is
// disabled, and creates commands whose definition changed.
func (cs *commandSyncer) Sync(appID, guildID string, disabledGroups []string) error {
	remote, err := cs.api.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands for guild %s: %w", guildID, err)
	}

	local := cs.definitions(disabledGroups)
	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}

	hashes := cs.loadHashes(guildID)
	remoteNames := make(map[string]struct{}, len(remote))
	for _, rc := range remote {
		remoteNames[rc.Name] = struct{}{}
		if _, ok := localNames[rc.Name]; ok {
			continue
		}
		log.Info().Str("guild", guildID).Str("command", rc.Name).Msg("Deleting obsolete command")
		if err := cs.api.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Error().Err(err).Str("guild", guildID).Str("command", rc.Name).Msg("Failed to delete command")
			continue
		}
		delete(hashes, rc.Name)
	}

	for _, d := range local {
		h := hashCommand(d)
		_, registered := remoteNames[d.Name]
		if registered && hashes[d.Name] == h {
			continue
		}
		if _, err := cs.api.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Error().Err(err).Str("guild", guildID).Str("command", d.Name).Msg("Failed to register command")
			continue
		}
		log.Info().Str("guild", guildID).Str("command", d.Name).Msg("Registered command")
		hashes[d.Name] = h
		if cs.delay > 0 {
			time.Sleep(cs.delay)
		}
	}

	return cs.saveHashes(guildID, hashes)
}

// RemoveAll deletes every command of the app in the guild.
func (cs *commandSyncer) RemoveAll(appID, guildID string) error {
	remote, err := cs.api.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands for guild %s: %w", guildID, err)
	}
	for _, rc := range remote {
		if err := cs.api.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Error().Err(err).Str("guild", guildID).Str("command", rc.Name).Msg("Failed to delete command")
		}
	}
	return cs.saveHashes(guildID, map[string]string{})
}

func (cs *commandSyncer) definitions(disabledGroups []string) []*discordgo.ApplicationCommand {
	disabled := make(map[string]bool, len(disabledGroups))
	for _, g := range disabledGroups {
		disabled[g] = true
	}
	var defs []*discordgo.ApplicationCommand
	for _, c := range cs.registry.GetAll() {
		a, ok := command.Adapter(c)
		if !ok || disabled[a.Group()] {
			continue
		}
		if def := a.SlashDefinition(); def != nil {
			if def.Type == 0 {
				def.Type = discordgo.ChatApplicationCommand
			}
			defs = append(defs, def)
		}
	}
	return defs
}

// --- Command hash cache ---

func (cs *commandSyncer) hashPath(guildID string) string {
	return filepath.Join(cs.cacheDir, guildID+".json")
}

func (cs *commandSyncer) loadHashes(guildID string) map[string]string {
	out := make(map[string]string)
	data, err := os.ReadFile(cs.hashPath(guildID))
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Msg("Ignoring corrupt command cache")
		return make(map[string]string)
	}
	return out
}

func (cs *commandSyncer) saveHashes(guildID string, hashes map[string]string) error {
	path := cs.hashPath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create command cache dir: %w", err)
	}
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]any{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
