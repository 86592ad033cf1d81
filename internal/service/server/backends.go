package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/catpoint/internal/classifier"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/repository/state"
)

// remoteRetryWaitTime is the delay before the first retry of a classifier request.
const remoteRetryWaitTime = 200 * time.Millisecond

// closer releases a backend. The returned error is only logged.
type closer func() error

func noopCloser() error { return nil }

// openStore builds the state backend selected by the settings.
func openStore(ctx context.Context, settings *config.Config, stateFileOverride string) (state.Store, closer, error) {
	storeSettings := settings.Store

	switch storeSettings.Driver {
	case config.StoreDriverMemory:
		logger.Warnf(ctx, "Using in-memory state, nothing survives a restart")

		return state.NewMemoryStore(nil), noopCloser, nil
	case config.StoreDriverFile:
		path := storeSettings.File
		if stateFileOverride != "" {
			path = stateFileOverride
		}

		logger.InfoKV(ctx, "Using file state", "state_file", path)

		return state.NewFileStore(path), noopCloser, nil
	case config.StoreDriverRedis:
		store := state.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:        storeSettings.Redis.Addr,
			Password:    storeSettings.Redis.Password,
			DB:          storeSettings.Redis.DB,
			DialTimeout: settings.Timeout,
		}), storeSettings.Redis.KeyPrefix)

		if err := store.Ping(ctx); err != nil {
			_ = store.Close()

			return nil, nil, err
		}

		logger.InfoKV(ctx, "Using redis state", "addr", storeSettings.Redis.Addr)

		return store, store.Close, nil
	case config.StoreDriverPostgres:
		db, err := state.OpenPostgres(ctx, storeSettings.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}

		store := state.NewPostgresStore(db)

		if storeSettings.Postgres.Migrate {
			if err = store.Migrate(ctx); err != nil {
				_ = store.Close()

				return nil, nil, err
			}
		}

		logger.Info(ctx, "Using postgres state")

		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: store driver %q", config.ErrInvalidSetting, storeSettings.Driver)
	}
}

// newClassifier builds the image classifier selected by the settings.
func newClassifier(settings *config.ClassifierConfig) (classifier.Classifier, error) {
	switch settings.Driver {
	case config.ClassifierDriverFake:
		return classifier.NewFake(settings.Seed), nil
	case config.ClassifierDriverRemote:
		return classifier.NewRemote(classifier.RemoteOptions{
			Endpoint:      settings.Endpoint,
			Timeout:       settings.Timeout,
			RetryCount:    settings.RetryCount,
			RetryWaitTime: remoteRetryWaitTime,
		}), nil
	default:
		return nil, fmt.Errorf("%w: classifier driver %q", config.ErrInvalidSetting, settings.Driver)
	}
}
