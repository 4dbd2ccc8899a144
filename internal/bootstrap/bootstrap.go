package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	httpadapter "github.com/KiritoZik/psb-AI-backend/internal/adapters/http"
	"github.com/KiritoZik/psb-AI-backend/internal/config"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
	"github.com/KiritoZik/psb-AI-backend/internal/core/usecase"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/classifier"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/extractor/lettertext"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/llm/yandexgpt"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/mail/smtp"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/queue/nats"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/repository/postgres"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/resilience"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/storage/localfs"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/textproc"
	"github.com/KiritoZik/psb-AI-backend/internal/observability/logging"
	"github.com/KiritoZik/psb-AI-backend/internal/observability/metrics"
)

// App holds the wired letter pipeline shared by the API and the worker.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Repo      ports.LetterRepository
	Queue     ports.LetterQueue
	Processor ports.LetterProcessor
	Workflow  ports.LetterWorkflow

	Storage       ports.ObjectStorage
	FileExtractor ports.LetterFileExtractor
	HTTPMetrics   *metrics.HTTPServerMetrics

	closeFn func()
}

// Options selects which optional subsystems a binary brings up. The worker
// does not need HTTP metrics; the API can run without the queue when NATS
// is not deployed.
type Options struct {
	Service         string
	WithQueue       bool
	WithHTTPMetrics bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := logging.NewJSONLogger(opts.Service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewLetterRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	fieldExtractor := textproc.NewExtractor()
	var lemmatizer textproc.Lemmatizer
	if cfg.LemmatizerEnabled {
		lemmatizer = textproc.NewSuffixLemmatizer()
	}
	normalizer := textproc.NewNormalizer(fieldExtractor, lemmatizer)

	letterClassifier, err := classifier.NewMultiTask(
		cfg.ModelsDir,
		normalizer,
		fieldExtractor,
		logging.WithComponent(logger, "classifier"),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load classifier models: %w", err)
	}

	systemPrompt, err := os.ReadFile(cfg.SystemPromptPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read system prompt: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	generator := yandexgpt.New(yandexgpt.Config{
		BaseURL:           cfg.YandexBaseURL,
		APIKey:            cfg.YandexAPIKey,
		FolderID:          cfg.YandexFolderID,
		Model:             cfg.YandexModel,
		Temperature:       cfg.YandexTemperature,
		MaxTokens:         cfg.YandexMaxTokens,
		RequestsPerSecond: cfg.YandexRPS,
		Burst:             cfg.YandexBurst,
	}, executor)
	composer := usecase.NewReplyComposer(generator, string(systemPrompt))

	mailer := smtp.New(smtp.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init letter storage: %w", err)
	}

	var queue *nats.Queue
	if opts.WithQueue {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init letter queue: %w", err)
		}
	}

	app := &App{
		Config: cfg,
		Logger: logger,

		Repo:      repo,
		Processor: usecase.NewProcessLetterUseCase(repo, fieldExtractor, letterClassifier, composer),
		Workflow:  usecase.NewApprovalWorkflowUseCase(repo, mailer),

		Storage:       storage,
		FileExtractor: lettertext.New(),

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}
	if queue != nil {
		app.Queue = queue
	}
	if opts.WithHTTPMetrics {
		app.HTTPMetrics = metrics.NewHTTPServerMetrics(opts.Service)
	}
	return app, nil
}

// Router builds the HTTP surface for the API binary.
func (a *App) Router() *httpadapter.Router {
	auth := httpadapter.NewAuthenticator(
		a.Config.JWTSecret,
		time.Duration(a.Config.JWTTTLMinutes)*time.Minute,
		a.Config.AdminUsername,
		a.Config.AdminPassword,
	)
	traffic := httpadapter.TrafficConfig{
		RateLimitRPS:   a.Config.APIRateLimitRPS,
		RateLimitBurst: a.Config.APIRateLimitBurst,
		MaxConcurrent:  a.Config.APIMaxConcurrent,
		QueueTimeout:   time.Duration(a.Config.APIQueueTimeoutMS) * time.Millisecond,
	}
	return httpadapter.NewRouter(
		a.Processor,
		a.Workflow,
		a.Repo,
		a.Queue,
		a.Storage,
		a.FileExtractor,
		auth,
		a.HTTPMetrics,
		traffic,
		logging.WithComponent(a.Logger, "http"),
	)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
