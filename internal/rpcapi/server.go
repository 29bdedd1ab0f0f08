package rpcapi

import (
	"context"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
	"github.com/kaonic-radio/kaonic-comm/internal/radioservice"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
)

// receiveQueueCapacity is the RPC listener's bounded queue (spec §4.7: "the
// RPC listener does, with a bounded queue of 64 and drop-oldest policy").
const receiveQueueCapacity = 64

// buildVersion is reported by DeviceInfo; overridden at link time with
// -ldflags "-X github.com/kaonic-radio/kaonic-comm/internal/rpcapi.buildVersion=...".
var buildVersion = "dev"

// Server adapts a radioservice.Service to the RadioServer interface,
// translating the error taxonomy of spec §7 into gRPC status codes.
type Server struct {
	svc *radioservice.Service
	log *log.Logger
}

// NewServer wraps svc for RPC exposure.
func NewServer(svc *radioservice.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{svc: svc, log: logger}
}

func (s *Server) Configure(ctx context.Context, req *ConfigureRequest) (*ConfigureResponse, error) {
	cfg := rf215.RadioConfig{
		CenterFreqKHz:  req.FreqKHz,
		Channel:        req.Channel,
		ChannelSpacing: req.ChannelSpacing,
		TXPowerIndex:   req.TXPower,
		PHY:            req.PHY,
	}
	if err := s.svc.Configure(req.Module, cfg); err != nil {
		return nil, toStatus(err)
	}
	return &ConfigureResponse{}, nil
}

func (s *Server) Transmit(ctx context.Context, req *TransmitRequest) (*TransmitResponse, error) {
	if err := s.svc.Transmit(ctx, req.Module, req.Frame); err != nil {
		return nil, toStatus(err)
	}
	return &TransmitResponse{}, nil
}

// ReceiveStream attaches a listener on req.Module and streams frames as
// they arrive, via a bounded drop-oldest queue so a slow RPC client
// back-pressures itself rather than the MAC's update thread (spec §4.7).
func (s *Server) ReceiveStream(req *ReceiveStreamRequest, stream ReceiveStreamServer) error {
	ctx := stream.Context()
	q := newDropOldestQueue(receiveQueueCapacity)

	handle, err := s.svc.AttachModuleListener(req.Module, func(frame []byte) {
		q.push(&ReceiveResponse{Module: req.Module, Frame: frame})
	})
	if err != nil {
		return toStatus(err)
	}
	defer handle.Release()

	for {
		msg, ok := q.pop(ctx)
		if !ok {
			return ctx.Err()
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
	}
}

// DeviceInfo reports how many modules this daemon exposes and which build
// produced it, so a client can size module-indexed requests (Configure,
// Transmit, ReceiveStream) before issuing them.
func (s *Server) DeviceInfo(ctx context.Context, req *DeviceInfoRequest) (*DeviceInfoResponse, error) {
	return &DeviceInfoResponse{
		ModuleCount:  byte(s.svc.ModuleCount()),
		BuildVersion: buildVersion,
	}, nil
}

func toStatus(err error) error {
	switch kerr.StatusOf(err) {
	case kerr.PreconditionFailed:
		return status.Error(codes.FailedPrecondition, err.Error())
	case kerr.InvalidArg:
		return status.Error(codes.InvalidArgument, err.Error())
	case kerr.NotReady:
		return status.Error(codes.Aborted, err.Error())
	case kerr.Timeout:
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
