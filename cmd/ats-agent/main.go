package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"ats-agent-go/internal/analyzer"
	"ats-agent-go/internal/api/handler"
	"ats-agent-go/internal/api/router"
	"ats-agent-go/internal/assistant"
	"ats-agent-go/internal/config"
	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/email"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/parser"
	"ats-agent-go/internal/rating"
	"ats-agent-go/internal/storage"
	"ats-agent-go/internal/tracing"
	"ats-agent-go/pkg/ratelimit"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	pflag.Parse()

	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load config")
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	hlog.SetLogger(hertzzerolog.New())

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not init tracing")
	}

	st, err := storage.NewStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not init storage")
	}
	defer st.Close()

	gen, err := extract.NewGeminiGenerator(ctx, cfg.Gemini.APIKey,
		config.GetDuration(cfg.Extractor.CallTimeout, 60*time.Second))
	if err != nil {
		logger.Fatal().Err(err).Msg("could not init generation client")
	}

	extractor := parser.NewResumeExtractor(gen, cfg)
	var analyzerResumes analyzer.ResumeSource
	if st.MinIO != nil {
		analyzerResumes = st.MinIO
	}
	an := analyzer.New(gen, analyzerResumes, cfg)

	var memory assistant.ChatMemory
	if st.Redis != nil {
		memory = assistant.NewRedisChatMemory(st.Redis.Client(),
			cfg.Assistant.HistoryTurns*2,
			config.GetDuration(cfg.Assistant.TranscriptTTL, 24*time.Hour))
	} else {
		memory = assistant.NewInMemoryChatMemory(cfg.Assistant.HistoryTurns * 2)
	}
	var resumes assistant.ResumeSource
	if st.MinIO != nil {
		resumes = st.MinIO
	}
	as := assistant.New(gen, memory, resumes, cfg)

	ratingModel := cfg.GetModelForTask(constants.TaskApplicantAnalyze)
	limiter := ratelimit.NewTokenBucket(cfg.QPMForModel(ratingModel), 0).
		WithRetryPolicy(time.Duration(cfg.Extractor.RetryWaitSeconds)*time.Second, cfg.Extractor.MaxRetries).
		WithRetryableFunc(extract.Retryable)
	worker := rating.NewWorker(st.MySQL, an, limiter)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if st.RabbitMQ != nil {
		go func() {
			if err := st.RabbitMQ.ConsumeApplicantCreated(consumerCtx, worker.HandleEvent); err != nil && consumerCtx.Err() == nil {
				logger.Error().Err(err).Msg("applicant event consumer stopped")
			}
		}()
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.Register(h, router.Handlers{
		Applicants: handler.NewApplicantHandler(st, extractor, an),
		Jobs:       handler.NewJobHandler(st),
		Clients:    handler.NewClientHandler(st),
		Chat:       handler.NewChatHandler(st, as),
		Ratings:    handler.NewRatingHandler(worker),
		Invites:    handler.NewInviteHandler(email.NewSender(&cfg.Resend)),
		Changes:    handler.NewChangesHandler(st),
	}, cfg.Server.APIKeys)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("http server starting")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	stopConsumer()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("tracer shutdown failed")
	}
}
