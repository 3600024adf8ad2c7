package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/feedback-hub/config"
	"github.com/oksasatya/feedback-hub/internal/container"
	"github.com/oksasatya/feedback-hub/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-admin", cfg.Env, cfg.LogLevel)

	open := func(ctx context.Context, withObjects bool) (*container.Container, func(), error) {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		backend, release, err := container.OpenBackend(ctx, cfg, rdb, logger)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		infra := container.Infra{Backend: backend}
		closers := []func(){release, func() { _ = rdb.Close() }}

		if withObjects {
			if cfg.GCSBucket == "" {
				release()
				_ = rdb.Close()
				return nil, nil, errors.New("GCS_BUCKET is not set")
			}
			gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
			if err != nil {
				release()
				_ = rdb.Close()
				return nil, nil, err
			}
			infra.Objects = &helpers.GCSUploader{Client: gcs, Bucket: cfg.GCSBucket}
			closers = append(closers, func() { _ = gcs.Close() })
		}

		c := container.New(cfg, logger, infra)
		return c, func() {
			_ = c.Close()
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}, nil
	}

	if err := newRootCmd(open).Execute(); err != nil {
		os.Exit(1)
	}
}
