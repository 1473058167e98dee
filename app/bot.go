package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/voxrelay/auth/jwt"
	"github.com/kbukum/voxrelay/jobclient"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/telegram"
)

// botSubject is the subject of tokens minted for the bot.
const botSubject = "voxbot"

// BuildBot wires the Telegram bot to the job API. It returns
// telegram.ErrNoToken when no bot token is configured.
func BuildBot(cfg *Config, log *logger.Logger) (*telegram.Bot, error) {
	if log == nil {
		log = logger.Nop()
	}
	clientCfg := cfg.ClientConfig()
	if cfg.Auth.Enabled {
		authCfg := cfg.Auth.Config
		tokens, err := jwt.NewService(&authCfg)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		src := newTokenSource(tokens, authCfg.TokenTTL/2, time.Now)
		if _, err := src.Token(); err != nil {
			return nil, fmt.Errorf("auth: issue bot token: %w", err)
		}
		clientCfg.TokenSource = src.Token
	}
	client, err := jobclient.New(clientCfg, jobclient.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("job client: %w", err)
	}

	botCfg := cfg.Telegram
	botCfg.Token = cfg.APIKeys.Telegram
	return telegram.New(botCfg, client, telegram.WithLogger(log))
}

// tokenSource reissues the bot token once it is older than refresh.
type tokenSource struct {
	tokens  *jwt.Service
	refresh time.Duration
	now     func() time.Time

	mu     sync.Mutex
	token  string
	issued time.Time
}

func newTokenSource(tokens *jwt.Service, refresh time.Duration, now func() time.Time) *tokenSource {
	return &tokenSource{tokens: tokens, refresh: refresh, now: now}
}

func (s *tokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.now().Sub(s.issued) < s.refresh {
		return s.token, nil
	}
	token, err := s.tokens.Issue(botSubject, jwt.RoleClient)
	if err != nil {
		return "", err
	}
	s.token, s.issued = token, s.now()
	return token, nil
}
