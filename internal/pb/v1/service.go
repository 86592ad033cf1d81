package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "catpoint.v1.SecurityService"

// Full method names of SecurityService.
const (
	GetStateFullMethod               = "/" + ServiceName + "/GetState"
	SetArmingStatusFullMethod        = "/" + ServiceName + "/SetArmingStatus"
	ChangeSensorActivationFullMethod = "/" + ServiceName + "/ChangeSensorActivation"
	ProcessImageFullMethod           = "/" + ServiceName + "/ProcessImage"
	AddSensorFullMethod              = "/" + ServiceName + "/AddSensor"
	RemoveSensorFullMethod           = "/" + ServiceName + "/RemoveSensor"
	ClearAlarmFullMethod             = "/" + ServiceName + "/ClearAlarm"
)

// SecurityServiceServer is the server API for SecurityService.
// Every method answers with the resulting state document.
type SecurityServiceServer interface {
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
	AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ClearAlarm(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedSecurityServiceServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible when methods are added.
type UnimplementedSecurityServiceServer struct{}

// GetState is not implemented.
func (UnimplementedSecurityServiceServer) GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetState not implemented")
}

// SetArmingStatus is not implemented.
func (UnimplementedSecurityServiceServer) SetArmingStatus(
	context.Context,
	*wrapperspb.StringValue,
) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetArmingStatus not implemented")
}

// ChangeSensorActivation is not implemented.
func (UnimplementedSecurityServiceServer) ChangeSensorActivation(
	context.Context,
	*structpb.Struct,
) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ChangeSensorActivation not implemented")
}

// ProcessImage is not implemented.
func (UnimplementedSecurityServiceServer) ProcessImage(
	context.Context,
	*wrapperspb.BytesValue,
) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ProcessImage not implemented")
}

// AddSensor is not implemented.
func (UnimplementedSecurityServiceServer) AddSensor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AddSensor not implemented")
}

// RemoveSensor is not implemented.
func (UnimplementedSecurityServiceServer) RemoveSensor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveSensor not implemented")
}

// ClearAlarm is not implemented.
func (UnimplementedSecurityServiceServer) ClearAlarm(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ClearAlarm not implemented")
}

// SecurityServiceDesc is the grpc.ServiceDesc for SecurityService.
//
//nolint:gochecknoglobals // Service descriptors are registered by value.
var SecurityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SecurityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetState",
			Handler:    unaryHandler(GetStateFullMethod, SecurityServiceServer.GetState),
		},
		{
			MethodName: "SetArmingStatus",
			Handler:    unaryHandler(SetArmingStatusFullMethod, SecurityServiceServer.SetArmingStatus),
		},
		{
			MethodName: "ChangeSensorActivation",
			Handler:    unaryHandler(ChangeSensorActivationFullMethod, SecurityServiceServer.ChangeSensorActivation),
		},
		{
			MethodName: "ProcessImage",
			Handler:    unaryHandler(ProcessImageFullMethod, SecurityServiceServer.ProcessImage),
		},
		{
			MethodName: "AddSensor",
			Handler:    unaryHandler(AddSensorFullMethod, SecurityServiceServer.AddSensor),
		},
		{
			MethodName: "RemoveSensor",
			Handler:    unaryHandler(RemoveSensorFullMethod, SecurityServiceServer.RemoveSensor),
		},
		{
			MethodName: "ClearAlarm",
			Handler:    unaryHandler(ClearAlarmFullMethod, SecurityServiceServer.ClearAlarm),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterSecurityServiceServer registers srv on the given registrar.
func RegisterSecurityServiceServer(registrar grpc.ServiceRegistrar, srv SecurityServiceServer) {
	registrar.RegisterService(&SecurityServiceDesc, srv)
}

// unaryHandler adapts a SecurityServiceServer method expression to a grpc.MethodHandler,
// decoding the request into a fresh Req and honoring the unary interceptor chain.
func unaryHandler[Req proto.Message](
	fullMethod string,
	call func(SecurityServiceServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		//nolint:forcetypeassert // ProtoReflect().New() of a Req always yields a Req.
		in := (*new(Req)).ProtoReflect().Type().New().Interface().(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		//nolint:forcetypeassert // grpc guarantees srv implements HandlerType.
		server := srv.(SecurityServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			//nolint:forcetypeassert // The interceptor passes the decoded request through.
			return call(server, ctx, req.(Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// SecurityServiceClient is the typed client API for SecurityService.
type SecurityServiceClient struct {
	// cc is the connection used for every call.
	cc grpc.ClientConnInterface
}

// NewSecurityServiceClient wraps a client connection.
func NewSecurityServiceClient(cc grpc.ClientConnInterface) *SecurityServiceClient {
	return &SecurityServiceClient{
		cc: cc,
	}
}

// GetState returns the current state document.
func (c *SecurityServiceClient) GetState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, GetStateFullMethod, in, opts)
}

// SetArmingStatus changes the arming mode.
func (c *SecurityServiceClient) SetArmingStatus(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, SetArmingStatusFullMethod, in, opts)
}

// ChangeSensorActivation activates or deactivates a sensor.
func (c *SecurityServiceClient) ChangeSensorActivation(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, ChangeSensorActivationFullMethod, in, opts)
}

// ProcessImage submits a camera frame for classification.
func (c *SecurityServiceClient) ProcessImage(
	ctx context.Context,
	in *wrapperspb.BytesValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, ProcessImageFullMethod, in, opts)
}

// AddSensor registers a sensor.
func (c *SecurityServiceClient) AddSensor(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AddSensorFullMethod, in, opts)
}

// RemoveSensor forgets a sensor.
func (c *SecurityServiceClient) RemoveSensor(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, RemoveSensorFullMethod, in, opts)
}

// ClearAlarm resets the alarm status to NO_ALARM.
func (c *SecurityServiceClient) ClearAlarm(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, ClearAlarmFullMethod, in, opts)
}

func invoke(
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in proto.Message,
	opts []grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
