package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/api/mqtt"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
	"github.com/oshokin/catpoint/internal/service/security"
)

// Options controls the catpoint-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile overrides the state file of the file store.
	StateFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the gRPC server and, when enabled, the MQTT bridge.
// It blocks until the context is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	store, closeStore, err := openStore(ctx, settings, opts.StateFile)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close store", "error", closeErr)
		}
	}()

	imageClassifier, err := newClassifier(&settings.Classifier)
	if err != nil {
		return fmt.Errorf("create classifier: %w", err)
	}

	var engineOptions []security.Option

	var bridge *mqtt.Bridge

	if settings.MQTT.Enabled {
		bridge = mqtt.NewBridge(mqtt.Options{
			Broker:   settings.MQTT.Broker,
			ClientID: settings.MQTT.ClientID,
			Username: settings.MQTT.Username,
			Password: settings.MQTT.Password,
			Prefix:   settings.MQTT.Prefix,
			QOS:      settings.MQTT.QOS,
			Retain:   settings.MQTT.Retain,
			Timeout:  settings.Timeout,
		})

		engineOptions = append(engineOptions, security.WithListener(bridge))
	}

	svc := newService(security.NewEngine(store, imageClassifier, engineOptions...))

	if bridge != nil {
		if err = bridge.Connect(ctx, svc); err != nil {
			return fmt.Errorf("connect MQTT bridge: %w", err)
		}

		defer bridge.Close()
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterSecurityServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Catpoint server listening",
		"listen_address", listenAddress,
		"store", settings.Store.Driver,
		"classifier", settings.Classifier.Driver,
		"mqtt", settings.MQTT.Enabled)

	return serve(ctx, grpcServer, lis)
}

// serve runs the gRPC server until the context is canceled.
func serve(ctx context.Context, grpcServer *grpc.Server, lis net.Listener) error {
	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// An override wins; otherwise the port of the configured address is bound on all interfaces.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
