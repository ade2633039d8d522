//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/urban-heat-advisor/internal/bootstrap"
	"github.com/yanqian/urban-heat-advisor/internal/domain/advisor"
	"github.com/yanqian/urban-heat-advisor/internal/domain/session"
	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
	"github.com/yanqian/urban-heat-advisor/internal/infra/config"
	httpiface "github.com/yanqian/urban-heat-advisor/internal/interface/http"
	"github.com/yanqian/urban-heat-advisor/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideCatalog,
		provideAdvisorConfig,
		provideSurveyConfig,
		provideSessionConfig,
		provideSessionStore,
		provideObjectStorage,
		provideResultRepository,
		advisor.NewService,
		session.NewService,
		survey.NewService,
		wire.Bind(new(survey.Advisor), new(advisor.Service)),
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
