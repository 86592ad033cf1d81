package security

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/catpoint/internal/classifier"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
	engine "github.com/oshokin/catpoint/internal/service/security"
)

// Service abstracts the business operations the transport layer depends on.
// Every mutation returns the state observed right after it.
type Service interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*domain.Snapshot, error)
	ChangeSensorActivationStatus(ctx context.Context, sensor domain.Sensor, active bool) (*domain.Snapshot, error)
	ProcessImage(ctx context.Context, image domain.Image) (*domain.Snapshot, error)
	AddSensor(ctx context.Context, sensor domain.Sensor) (*domain.Snapshot, error)
	RemoveSensor(ctx context.Context, sensor domain.Sensor) (*domain.Snapshot, error)
	ClearAlarm(ctx context.Context) (*domain.Snapshot, error)
}

// Server implements the SecurityService gRPC API.
type Server struct {
	pb.UnimplementedSecurityServiceServer

	// service provides the business logic.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetState returns the current state.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return respond(ctx, "get state")(s.service.Snapshot(ctx))
}

// SetArmingStatus changes the arming mode.
func (s *Server) SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	armingStatus, err := domain.ParseArmingStatus(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	return respond(ctx, "set arming status")(s.service.SetArmingStatus(ctx, armingStatus))
}

// ChangeSensorActivation activates or deactivates a sensor.
func (s *Server) ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := decodeSensor(req)
	if err != nil {
		return nil, err
	}

	if _, ok := req.GetFields()[pb.FieldActive]; !ok {
		return nil, status.Error(codes.InvalidArgument, "active is required")
	}

	// The document carries the requested activation; unknown sensors count as inactive before it.
	active := sensor.Active
	sensor.Active = false

	return respond(ctx, "change sensor activation")(
		s.service.ChangeSensorActivationStatus(ctx, sensor, active),
	)
}

// ProcessImage classifies a camera frame.
func (s *Server) ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if len(req.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "image is required")
	}

	return respond(ctx, "process image")(s.service.ProcessImage(ctx, domain.Image(req.GetValue())))
}

// AddSensor registers a sensor.
func (s *Server) AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := decodeSensor(req)
	if err != nil {
		return nil, err
	}

	return respond(ctx, "add sensor")(s.service.AddSensor(ctx, sensor))
}

// RemoveSensor forgets a sensor.
func (s *Server) RemoveSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sensor, err := decodeSensor(req)
	if err != nil {
		return nil, err
	}

	return respond(ctx, "remove sensor")(s.service.RemoveSensor(ctx, sensor))
}

// ClearAlarm resets the alarm status.
func (s *Server) ClearAlarm(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return respond(ctx, "clear alarm")(s.service.ClearAlarm(ctx))
}

// decodeSensor parses a sensor document into a domain value.
func decodeSensor(req *structpb.Struct) (domain.Sensor, error) {
	if req == nil {
		return domain.Sensor{}, status.Error(codes.InvalidArgument, "request is required")
	}

	sensor, err := pb.ToSensor(req)
	if err != nil {
		return domain.Sensor{}, status.Error(codes.InvalidArgument, err.Error())
	}

	return sensor, nil
}

// respond converts a service result into a gRPC answer, mapping errors to status codes.
func respond(ctx context.Context, operation string) func(*domain.Snapshot, error) (*structpb.Struct, error) {
	return func(snapshot *domain.Snapshot, err error) (*structpb.Struct, error) {
		if err == nil {
			return pb.FromSnapshot(snapshot), nil
		}

		code := codeOf(err)
		if code == codes.Internal || code == codes.Unavailable {
			logger.ErrorKV(ctx, "Request failed", "operation", operation, "error", err)
		}

		return nil, status.Error(code, operation+": "+err.Error())
	}
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, domain.ErrInvalidSensor),
		errors.Is(err, domain.ErrUnknownValue),
		errors.Is(err, engine.ErrInvalidArmingStatus),
		errors.Is(err, engine.ErrInvalidAlarmStatus):
		return codes.InvalidArgument
	case errors.Is(err, classifier.ErrClassifierUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
