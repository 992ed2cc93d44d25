//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/ben-burie/Stryde/internal/bootstrap"
	"github.com/ben-burie/Stryde/internal/domain/page"
	"github.com/ben-burie/Stryde/internal/infra/config"
	httpiface "github.com/ben-burie/Stryde/internal/interface/http"
)

func initializeApp(path config.Path) (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		provideLogger,
		provideMetrics,
		provideAnalyzer,
		provideResponder,
		providePageDeps,
		page.NewRegistry,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
