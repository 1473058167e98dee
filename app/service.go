package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxrelay/api"
	"github.com/kbukum/voxrelay/auth/jwt"
	"github.com/kbukum/voxrelay/authz"
	"github.com/kbukum/voxrelay/chat"
	"github.com/kbukum/voxrelay/component"
	"github.com/kbukum/voxrelay/database"
	"github.com/kbukum/voxrelay/database/migration"
	"github.com/kbukum/voxrelay/dispatcher"
	"github.com/kbukum/voxrelay/encryption"
	"github.com/kbukum/voxrelay/httpclient"
	"github.com/kbukum/voxrelay/job"
	"github.com/kbukum/voxrelay/kafka/producer"
	"github.com/kbukum/voxrelay/llm"
	_ "github.com/kbukum/voxrelay/llm/openai"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/observability"
	"github.com/kbukum/voxrelay/provider"
	"github.com/kbukum/voxrelay/redis"
	"github.com/kbukum/voxrelay/resilience"
	"github.com/kbukum/voxrelay/server"
	"github.com/kbukum/voxrelay/server/middleware"
	"github.com/kbukum/voxrelay/storage"
	_ "github.com/kbukum/voxrelay/storage/local"
	_ "github.com/kbukum/voxrelay/storage/s3"
	"github.com/kbukum/voxrelay/transcription"
	"github.com/kbukum/voxrelay/transcription/assemblyai"
	"github.com/kbukum/voxrelay/transcription/whisper"
)

// Service is the assembled job service. Components returns what must be
// started, in order.
type Service struct {
	Store      *job.Store
	Storage    storage.Storage
	Dispatcher *dispatcher.Dispatcher
	Relay      *chat.Relay
	Server     *server.Server
	Tokens     *jwt.Service
	// History is set when the SQL job history is enabled.
	History *job.SQLMirror

	components []component.Component
}

// Build wires the service from cfg. metrics may be nil.
func Build(ctx context.Context, cfg *Config, log *logger.Logger, metrics *observability.Metrics) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	svc := &Service{}

	st, err := storage.New(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	svc.Storage = st

	mirror, err := svc.buildMirror(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	storeOpts := []job.Option{job.WithLogger(log), job.WithMirror(mirror)}
	if cfg.Kafka.Enabled {
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		storeOpts = append(storeOpts, job.WithEventSink(NewEventSink(p, cfg.Name)))
		svc.components = append(svc.components, p)
	}
	svc.Store = job.NewStore(storeOpts...)

	providers, err := buildTranscribers(cfg, log, metrics)
	if err != nil {
		return nil, err
	}
	svc.Dispatcher = dispatcher.New(cfg.Jobs.Config, svc.Store, st,
		dispatcher.NewFallbackPolicy(log, providers...),
		dispatcher.WithLogger(log), dispatcher.WithMetrics(metrics))
	svc.components = append(svc.components, svc.Dispatcher)

	completer, err := buildCompleter(cfg, log, metrics)
	if err != nil {
		return nil, err
	}
	svc.Relay = chat.NewRelay(chat.Config{
		Model:        cfg.OpenAI.Model,
		Temperature:  cfg.OpenAI.Temperature,
		UseWebSearch: cfg.OpenAI.UseWebSearch,
	}, completer, log)

	if cfg.Auth.Enabled {
		authCfg := cfg.Auth.Config
		if svc.Tokens, err = jwt.NewService(&authCfg); err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
	}

	svc.Server = svc.buildServer(cfg, log)
	svc.components = append(svc.components, server.NewComponent(svc.Server))

	for _, p := range providers {
		log.Info("transcription provider", logger.Fields(logger.FieldProvider, p.Name(), "available", p.IsAvailable(ctx)))
	}
	return svc, nil
}

// Components returns the lifecycle components in start order.
func (s *Service) Components() []component.Component { return s.components }

func (s *Service) buildMirror(ctx context.Context, cfg *Config, log *logger.Logger) (job.Mirror, error) {
	var sealer job.Sealer
	if cfg.Mirror.EncryptionKey != "" {
		enc, err := encryption.New(cfg.Mirror.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("mirror encryption: %w", err)
		}
		sealer = enc
	}

	var mirrors job.MultiMirror
	if !cfg.Mirror.DisableFiles {
		fm, err := job.NewFileMirror(cfg.Jobs.DataDir, sealer)
		if err != nil {
			return nil, err
		}
		mirrors = append(mirrors, fm)
	}
	if cfg.Redis.Enabled {
		client, err := redis.New(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		mirrors = append(mirrors, job.NewRedisMirror(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL, sealer))
		s.components = append(s.components, redis.NewComponent(client, cfg.Redis, log))
	}
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := migration.Up(db, job.Migrations, job.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("job history schema: %w", err)
		}
		s.History = job.NewSQLMirror(db, sealer)
		mirrors = append(mirrors, s.History)
		s.components = append(s.components, database.NewComponent(db))
	}
	return mirrors, nil
}

func (s *Service) buildServer(cfg *Config, log *logger.Logger) *server.Server {
	srv := server.New(cfg.Backend.Config, log)
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints(cfg.Name, s.health, s.info)

	var opts []api.Option
	if s.History != nil {
		opts = append(opts, api.WithHistory(s.History))
	}
	if s.Tokens != nil {
		checker := authz.NewMapChecker(authz.DefaultGrants())
		opts = append(opts, api.WithGuard(func(permission string) gin.HandlerFunc {
			return middleware.RequirePermission(checker, jwt.RoleFromContext, permission)
		}))
	}

	engine := srv.GinEngine()
	h := api.NewHandler(s.Dispatcher, s.Store, s.Storage, s.Relay, log, opts...)
	h.RegisterFiles(engine)
	if s.Tokens != nil {
		h.Register(engine.Group("", middleware.Auth(middleware.AuthConfig{Validator: s.Tokens.ValidatorFunc()})))
	} else {
		h.Register(engine)
	}
	return srv
}

func (s *Service) health(ctx context.Context) []component.Health {
	out := make([]component.Health, 0, len(s.components))
	for _, c := range s.components {
		out = append(out, c.Health(ctx))
	}
	return out
}

func (s *Service) info() map[string]any {
	counts := s.Store.Counts()
	return map[string]any{
		"jobs": map[string]int{
			string(job.StatusProcessing): counts[job.StatusProcessing],
			string(job.StatusReady):      counts[job.StatusReady],
			string(job.StatusError):      counts[job.StatusError],
		},
		"queue_depth": s.Dispatcher.QueueDepth(),
	}
}

// buildTranscribers returns Whisper then AssemblyAI, each wrapped with
// logging, tracing, metrics and retry of transient failures.
func buildTranscribers(cfg *Config, log *logger.Logger, metrics *observability.Metrics) ([]dispatcher.Transcriber, error) {
	wp, err := whisper.NewProvider(whisper.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.APIKeys.OpenAI,
		Model:   cfg.OpenAI.TranscriptionModel,
		Timeout: cfg.OpenAI.Timeout,
	})
	if err != nil {
		return nil, err
	}
	aaiCfg := cfg.AssemblyAI
	aaiCfg.APIKey = cfg.APIKeys.AssemblyAI
	ap, err := assemblyai.NewProvider(aaiCfg)
	if err != nil {
		return nil, err
	}

	chain := provider.Chain(
		provider.WithLogging[transcription.Request, *transcription.Result](log),
		provider.WithTracing[transcription.Request, *transcription.Result](cfg.Name),
		provider.WithMetrics[transcription.Request, *transcription.Result](metrics),
	)
	// Only the single-shot Whisper call is retried; AssemblyAI polls for
	// minutes and a retry would start a second transcript.
	return []dispatcher.Transcriber{
		chain(provider.WithResilience(transcription.Wrap(wp), whisperPolicy(cfg, log))),
		chain(transcription.Wrap(ap)),
	}, nil
}

func buildCompleter(cfg *Config, log *logger.Logger, metrics *observability.Metrics) (chat.Completer, error) {
	adapter, err := llm.New(llm.Config{
		Name:    "openai-chat",
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.APIKeys.OpenAI,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return provider.Chain(
		provider.WithLogging[llm.CompletionRequest, llm.CompletionResponse](log),
		provider.WithTracing[llm.CompletionRequest, llm.CompletionResponse](cfg.Name),
		provider.WithMetrics[llm.CompletionRequest, llm.CompletionResponse](metrics),
	)(adapter), nil
}

func whisperPolicy(cfg *Config, log *logger.Logger) provider.ResilienceConfig {
	var rc provider.ResilienceConfig
	if cfg.OpenAI.RetryAttempts > 1 {
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.OpenAI.RetryAttempts
		retry.RetryIf = httpclient.IsRetryable
		rc.Retry = &retry
	}
	if cfg.OpenAI.CircuitFailures > 0 {
		rc.CircuitBreaker = &resilience.CircuitBreakerConfig{
			MaxFailures: cfg.OpenAI.CircuitFailures,
			Timeout:     cfg.OpenAI.CircuitCooldown,
			IsFailure:   httpclient.IsRetryable,
			OnStateChange: func(name string, from, to resilience.State) {
				log.Warn("circuit state changed", logger.Fields("breaker", name, "from", from.String(), "to", to.String()))
			},
		}
	}
	return rc
}
