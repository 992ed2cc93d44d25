package main

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ben-burie/Stryde/internal/domain/chat"
	"github.com/ben-burie/Stryde/internal/domain/page"
	"github.com/ben-burie/Stryde/internal/domain/upload"
	"github.com/ben-burie/Stryde/internal/infra/analytics"
	"github.com/ben-burie/Stryde/internal/infra/config"
	"github.com/ben-burie/Stryde/internal/infra/llm/chatgpt"
	"github.com/ben-burie/Stryde/pkg/logger"
	"github.com/ben-burie/Stryde/pkg/metrics"
)

func provideLogger(cfg *config.Config) (*slog.Logger, func()) {
	return logger.New(logger.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
	})
}

func provideMetrics() *metrics.Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return metrics.NewManager("stryde", "web", reg)
}

func provideAnalyzer(cfg *config.Config) upload.Analyzer {
	return analytics.NewClient(cfg.Analytics.BaseURL, cfg.Analytics.Timeout)
}

// provideResponder falls back to canned replies when no model is configured
// or the client cannot be built.
func provideResponder(cfg *config.Config, logger *slog.Logger) chat.Responder {
	canned := chat.NewCannedResponder(nil)
	llm := cfg.Chat.LLM
	if !llm.Enabled() {
		logger.Info("coach model not configured, using canned replies")
		return canned
	}
	client, err := chatgpt.NewClient(llm.APIKey, llm.BaseURL)
	if err != nil {
		logger.Error("coach model client failed, using canned replies", "error", err)
		return canned
	}
	logger.Info("coach model replies enabled", "model", llm.Model)
	return chat.NewLLMResponder(chat.LLMConfig{
		Model:            llm.Model,
		Temperature:      llm.Temperature,
		Prompt:           llm.Prompt,
		MaxHistoryTokens: llm.MaxHistoryTokens,
	}, client, chat.NewTiktokenCounter(llm.Model, logger), canned, logger)
}

func providePageDeps(cfg *config.Config, analyzer upload.Analyzer, responder chat.Responder, m *metrics.Manager, logger *slog.Logger) page.Deps {
	return page.Deps{
		Analyzer:  analyzer,
		Responder: responder,
		Clock:     clock.New(),
		Chat:      chat.Config{ReplyDelay: cfg.Chat.ReplyDelay},
		Metrics:   m,
		Logger:    logger,
	}
}
