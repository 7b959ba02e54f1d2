// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"kanoonwise_backend/internal/app"
	"kanoonwise_backend/internal/appointment"
	"kanoonwise_backend/internal/auth"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/jobs"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/platform/database"
	"kanoonwise_backend/internal/platform/elasticsearch"
	"kanoonwise_backend/internal/platform/logger"
	platformredis "kanoonwise_backend/internal/platform/redis"
	"kanoonwise_backend/internal/shared"
	"kanoonwise_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		platformredis.NewClient,
		elasticsearch.NewClient,
		provideFileStorage,

		// Core User Services
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),

		// Auth
		provideBlocklist,
		wire.Bind(new(auth.TokenBlocklistService), new(*auth.InMemoryBlocklistService)),
		auth.NewRedisStore,
		auth.NewJWTService,
		auth.NewMailer,
		auth.NewService,
		auth.NewHandler,

		// Lawyer
		lawyer.NewGORMRepository,
		lawyer.NewService,
		lawyer.NewHandler,

		// Appointment
		appointment.NewGORMRepository,
		appointment.NewService,
		appointment.NewHandler,
		jobs.NewAppointmentCompletionJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
