//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// Client wraps the gRPC SecurityService client and decodes its answers.
type Client struct {
	// conn is the underlying gRPC connection to the catpoint server.
	conn *grpc.ClientConn
	// api is the SecurityService stub.
	api *pb.SecurityServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errNotConnected is returned when a call is made on a client without a connection.
	errNotConnected = errors.New("client is not connected")
)

// Dial establishes a gRPC connection to the catpoint server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial catpoint server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewSecurityServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// State retrieves the current state.
func (c *Client) State(ctx context.Context) (*domain.Snapshot, error) {
	return c.call(ctx, "get state", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.GetState(ctx, new(emptypb.Empty))
	})
}

// SetArmingStatus changes the arming mode.
func (c *Client) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*domain.Snapshot, error) {
	return c.call(ctx, "set arming status", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.SetArmingStatus(ctx, wrapperspb.String(status.String()))
	})
}

// ChangeSensorActivation activates or deactivates a sensor.
func (c *Client) ChangeSensorActivation(
	ctx context.Context,
	key domain.SensorKey,
	active bool,
) (*domain.Snapshot, error) {
	request := pb.FromSensor(domain.Sensor{Name: key.Name, Type: key.Type, Active: active})

	return c.call(ctx, "change sensor activation", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.ChangeSensorActivation(ctx, request)
	})
}

// ProcessImage submits a camera frame for classification.
func (c *Client) ProcessImage(ctx context.Context, image domain.Image) (*domain.Snapshot, error) {
	return c.call(ctx, "process image", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.ProcessImage(ctx, wrapperspb.Bytes(image))
	})
}

// AddSensor registers a sensor.
func (c *Client) AddSensor(ctx context.Context, sensor domain.Sensor) (*domain.Snapshot, error) {
	return c.call(ctx, "add sensor", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.AddSensor(ctx, pb.FromSensor(sensor))
	})
}

// RemoveSensor forgets a sensor.
func (c *Client) RemoveSensor(ctx context.Context, key domain.SensorKey) (*domain.Snapshot, error) {
	request := pb.FromSensor(domain.Sensor{Name: key.Name, Type: key.Type})

	return c.call(ctx, "remove sensor", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.RemoveSensor(ctx, request)
	})
}

// ClearAlarm resets the alarm status.
func (c *Client) ClearAlarm(ctx context.Context) (*domain.Snapshot, error) {
	return c.call(ctx, "clear alarm", func(ctx context.Context) (*structpb.Struct, error) {
		return c.api.ClearAlarm(ctx, new(emptypb.Empty))
	})
}

// call runs one RPC with the call timeout and decodes the returned state.
func (c *Client) call(
	ctx context.Context,
	operation string,
	rpc func(context.Context) (*structpb.Struct, error),
) (*domain.Snapshot, error) {
	if c == nil || c.api == nil {
		return nil, errNotConnected
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := rpc(callCtx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	snapshot, err := pb.ToSnapshot(response)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", operation, err)
	}

	return snapshot, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
