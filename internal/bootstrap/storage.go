package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/partyshop/config"
	"github.com/nikolayk812/partyshop/internal/port"
	"github.com/nikolayk812/partyshop/internal/storage/file"
	"github.com/nikolayk812/partyshop/internal/storage/memory"
	redisstore "github.com/nikolayk812/partyshop/internal/storage/redis"
	"github.com/redis/go-redis/v9"
)

const deviceIDFile = "device-id"

// OpenStorage returns the device key-value store and a func releasing it.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (port.KeyValueStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.StorageMemory:
		return memory.New(), noop, nil

	case config.StorageRedis:
		deviceID, err := DeviceID(cfg)
		if err != nil {
			return nil, nil, err
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			if closeErr := client.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("close redis client: %w", closeErr))
			}
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}

		store, err := redisstore.New(client, deviceID, 0)
		if err != nil {
			return nil, nil, errors.Join(err, client.Close())
		}

		logger.Info("using redis device storage", slog.String("addr", cfg.RedisAddr), slog.String("device_id", deviceID))
		return store, client.Close, nil

	default:
		store, err := file.New(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("file.New: %w", err)
		}

		logger.Debug("using file device storage", slog.String("dir", store.Dir()))
		return store, noop, nil
	}
}

// DeviceID returns the configured id, or the one kept under Dir, creating it on first use.
func DeviceID(cfg config.StorageConfig) (string, error) {
	if id := strings.TrimSpace(cfg.DeviceID); id != "" {
		return id, nil
	}

	path := filepath.Join(cfg.Dir, deviceIDFile)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id, parseErr := uuid.ParseBytes(data); parseErr == nil {
			return id.String(), nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("os.ReadFile: %w", err)
	}

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return "", fmt.Errorf("os.MkdirAll: %w", err)
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", fmt.Errorf("os.WriteFile: %w", err)
	}

	return id, nil
}
