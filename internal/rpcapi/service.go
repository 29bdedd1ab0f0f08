package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// RadioServer is the service interface a hand-authored
// grpc.ServiceDesc dispatches to, the same shape protoc-gen-go-grpc would
// generate from a .proto file: spec §6's three RPC operations plus
// DeviceInfo.
type RadioServer interface {
	Configure(ctx context.Context, req *ConfigureRequest) (*ConfigureResponse, error)
	Transmit(ctx context.Context, req *TransmitRequest) (*TransmitResponse, error)
	ReceiveStream(req *ReceiveStreamRequest, stream ReceiveStreamServer) error
	DeviceInfo(ctx context.Context, req *DeviceInfoRequest) (*DeviceInfoResponse, error)
}

// ReceiveStreamServer is the server-side streaming handle for ReceiveStream.
type ReceiveStreamServer interface {
	Send(*ReceiveResponse) error
	grpc.ServerStream
}

type receiveStreamServer struct {
	grpc.ServerStream
}

func (x *receiveStreamServer) Send(m *ReceiveResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _RadioService_Configure_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ConfigureRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RadioServer).Configure(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/kaonic.RadioService/Configure"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RadioServer).Configure(ctx, req.(*ConfigureRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RadioService_Transmit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(TransmitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RadioServer).Transmit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/kaonic.RadioService/Transmit"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RadioServer).Transmit(ctx, req.(*TransmitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RadioService_DeviceInfo_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeviceInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RadioServer).DeviceInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/kaonic.RadioService/DeviceInfo"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RadioServer).DeviceInfo(ctx, req.(*DeviceInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RadioService_ReceiveStream_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(ReceiveStreamRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(RadioServer).ReceiveStream(m, &receiveStreamServer{stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "kaonic.RadioService",
	HandlerType: (*RadioServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Configure", Handler: _RadioService_Configure_Handler},
		{MethodName: "Transmit", Handler: _RadioService_Transmit_Handler},
		{MethodName: "DeviceInfo", Handler: _RadioService_DeviceInfo_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ReceiveStream", Handler: _RadioService_ReceiveStream_Handler, ServerStreams: true},
	},
	Metadata: "kaonic/rpcapi.proto",
}

// RegisterRadioServiceServer registers srv with s under the hand-authored
// service descriptor above.
func RegisterRadioServiceServer(s grpc.ServiceRegistrar, srv RadioServer) {
	s.RegisterService(&serviceDesc, srv)
}
