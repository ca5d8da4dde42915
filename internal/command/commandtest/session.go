// Package commandtest provides an in-memory command.Session for tests.
package commandtest

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Sent is one outbound message captured by Session.
type Sent struct {
	ChannelID string
	Content   string
	Complex   *discordgo.MessageSend
	Reference *discordgo.MessageReference
}

// Session records everything sent through it. Perms is returned for every
// permission lookup unless PermErr is set.
type Session struct {
	mu sync.Mutex

	Perms       int64
	PermErr     error
	SendErr     error
	RespondErr  error
	PermLookups int

	Sent      []Sent
	Responses []*discordgo.InteractionResponse
}

func (s *Session) UserChannelPermissions(userID, channelID string, _ ...discordgo.RequestOption) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PermLookups++
	if s.PermErr != nil {
		return 0, s.PermErr
	}
	return s.Perms, nil
}

func (s *Session) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return s.record(Sent{ChannelID: channelID, Content: content})
}

func (s *Session) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return s.record(Sent{ChannelID: channelID, Content: content, Reference: ref})
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	sent := Sent{ChannelID: channelID, Complex: data}
	if data != nil {
		sent.Content = data.Content
		sent.Reference = data.Reference
	}
	return s.record(sent)
}

func (s *Session) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RespondErr != nil {
		return s.RespondErr
	}
	s.Responses = append(s.Responses, resp)
	return nil
}

func (s *Session) record(m Sent) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return nil, s.SendErr
	}
	s.Sent = append(s.Sent, m)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", len(s.Sent)), ChannelID: m.ChannelID, Content: m.Content}, nil
}

// Messages returns a copy of everything sent so far.
func (s *Session) Messages() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.Sent...)
}

// LastResponse returns the most recent interaction response, or nil.
func (s *Session) LastResponse() *discordgo.InteractionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Responses) == 0 {
		return nil
	}
	return s.Responses[len(s.Responses)-1]
}
