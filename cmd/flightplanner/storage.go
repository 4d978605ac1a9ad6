package main

import (
	"fmt"
	"strings"

	"github.com/skyroute/flightplanner/internal/config"
	"github.com/skyroute/flightplanner/internal/storage"
	gormstorage "github.com/skyroute/flightplanner/internal/storage/gorm"
	"github.com/skyroute/flightplanner/internal/storage/memory"
	wsstorage "github.com/skyroute/flightplanner/internal/storage/websocket"
)

// createStorageBackend returns nil, nil for storage type "none".
func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "none":
		return nil, nil

	case "gorm":
		db, err := connectDatabase()
		if err != nil {
			return nil, fmt.Errorf("failed to create GORM backend: %w", err)
		}
		Logger.Info("GORM storage backend initialized", "sqlite", db.UsingSqlite)
		return gormstorage.New(gormstorage.Dependencies{
			DB:              db.DB,
			Logger:          Logger,
			IsDatabaseValid: func() bool { return db.IsValid },
		}), nil

	case "websocket":
		wsURL := httpToWS(storageCfg.WebSocket.URL)
		if wsURL == "" {
			return nil, fmt.Errorf("storage.websocket.url is not set")
		}
		Logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: storageCfg.WebSocket.Secret,
			Logger: Logger,
		}), nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
