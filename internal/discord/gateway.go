package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Gateway owns the bot's Discord session. Every consumer goes through
// Client() and must handle a nil return: the dashboard stays up when the bot
// is offline, it just resolves no guilds and no usernames.
type Gateway struct {
	mu      sync.RWMutex
	session *discordgo.Session
	log     *zap.Logger
}

func NewGateway(log *zap.Logger) *Gateway {
	return &Gateway{log: log}
}

func (g *Gateway) Connect(token string) error {
	if token == "" {
		return fmt.Errorf("bot token is empty")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return err
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	if err := session.Open(); err != nil {
		return fmt.Errorf("gateway open: %w", err)
	}

	g.mu.Lock()
	g.session = session
	g.mu.Unlock()

	g.log.Info("discord gateway connected")
	return nil
}

func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != nil {
		_ = g.session.Close()
		g.session = nil
	}
}

// Client returns the live session, or nil when the bot is not connected.
func (g *Gateway) Client() *discordgo.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Guilds returns id -> name for every guild the bot is currently in.
// Empty map when the gateway is down.
func (g *Gateway) Guilds() map[string]string {
	s := g.Client()
	if s == nil {
		return map[string]string{}
	}

	s.State.RLock()
	defer s.State.RUnlock()

	guilds := make(map[string]string, len(s.State.Guilds))
	for _, guild := range s.State.Guilds {
		guilds[guild.ID] = guild.Name
	}
	return guilds
}

// FetchUsername resolves a user's display name through the Discord API.
// State cache is consulted first to avoid a network round trip.
func (g *Gateway) FetchUsername(ctx context.Context, userID string) (string, error) {
	s := g.Client()
	if s == nil {
		return "", fmt.Errorf("gateway not connected")
	}

	s.State.RLock()
	for _, guild := range s.State.Guilds {
		for _, m := range guild.Members {
			if m.User != nil && m.User.ID == userID {
				s.State.RUnlock()
				return m.User.Username, nil
			}
		}
	}
	s.State.RUnlock()

	user, err := s.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
