// File: cmd/server/providers.go
package main

import (
	"time"

	"kanoonwise_backend/internal/auth"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/filestorage"

	"go.uber.org/zap"
)

// provideFileStorage builds the attachment storage from config.
func provideFileStorage(cfg *config.Config, logger *zap.Logger) (*filestorage.Service, error) {
	return filestorage.NewService(cfg.FileStoragePath, cfg.FilePublicBaseURL, logger.Named("FileStorage"))
}

// provideBlocklist builds the in-memory session blocklist. Entries live at
// most one session lifetime; the cache sweeps them out shortly after.
func provideBlocklist(cfg *config.Config) *auth.InMemoryBlocklistService {
	return auth.NewInMemoryBlocklistService(auth.InMemoryBlocklistConfig{
		DefaultExpiration: cfg.SessionTokenExpiry,
		CleanupInterval:   10 * time.Minute,
	})
}
