package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/catpoint/internal/classifier"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/repository/state"
)

// TestResolveListenAddress covers the override and the port extraction.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress("alarm.local:8080", "")
	require.NoError(t, err)
	require.Equal(t, ":8080", address)

	address, err = resolveListenAddress("alarm.local:8080", "127.0.0.1:9090")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

// TestOpenStore builds every local driver and rejects unknown ones.
func TestOpenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	settings := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}

	store, closeStore, err := openStore(ctx, settings, "")
	require.NoError(t, err)
	require.IsType(t, new(state.MemoryStore), store)
	require.NoError(t, closeStore())

	override := filepath.Join(t.TempDir(), "override.json")
	settings.Store = config.StoreConfig{Driver: config.StoreDriverFile, File: "unused.json"}

	store, _, err = openStore(ctx, settings, override)
	require.NoError(t, err)

	fileStore, ok := store.(*state.FileStore)
	require.True(t, ok)
	require.Equal(t, override, fileStore.Path())

	settings.Store = config.StoreConfig{Driver: "etcd"}

	_, _, err = openStore(ctx, settings, "")
	require.ErrorIs(t, err, config.ErrInvalidSetting)
}

// TestOpenStore_Redis connects to an in-process redis server.
func TestOpenStore_Redis(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	settings := &config.Config{
		Timeout: config.DefaultTimeout,
		Store: config.StoreConfig{
			Driver: config.StoreDriverRedis,
			Redis:  config.RedisConfig{Addr: server.Addr(), KeyPrefix: "test:"},
		},
	}

	store, closeStore, err := openStore(context.Background(), settings, "")
	require.NoError(t, err)
	require.IsType(t, new(state.RedisStore), store)
	require.NoError(t, closeStore())

	server.Close()

	_, _, err = openStore(context.Background(), settings, "")
	require.Error(t, err)
}

// TestNewClassifier builds every driver.
func TestNewClassifier(t *testing.T) {
	t.Parallel()

	imageClassifier, err := newClassifier(&config.ClassifierConfig{Driver: config.ClassifierDriverFake, Seed: 7})
	require.NoError(t, err)
	require.IsType(t, new(classifier.Fake), imageClassifier)

	imageClassifier, err = newClassifier(&config.ClassifierConfig{
		Driver:   config.ClassifierDriverRemote,
		Endpoint: "http://127.0.0.1:1/detect",
	})
	require.NoError(t, err)
	require.IsType(t, new(classifier.Remote), imageClassifier)

	_, err = newClassifier(&config.ClassifierConfig{Driver: "oracle"})
	require.ErrorIs(t, err, config.ErrInvalidSetting)
}
