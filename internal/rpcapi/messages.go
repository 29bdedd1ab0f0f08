// Package rpcapi is the RPC external collaborator of spec §6: a gRPC
// service exposing Configure, Transmit, and ReceiveStream over the radio
// service. Because the production wire format is deliberately left to an
// external collaborator rather than fixed by the spec (unlike the serial
// service's fully-specified HDLC framing), this package hand-authors the
// service descriptor and a small field codec instead of depending on
// protoc-generated stubs, the way google.golang.org/grpc's own codec
// extension point is designed to be used without protobuf at all.
package rpcapi

import "github.com/kaonic-radio/kaonic-comm/internal/wire"

// ConfigureRequest mirrors spec §6's Configure operation.
type ConfigureRequest = wire.ConfigPacket

// ConfigureResponse is the operation's empty ack.
type ConfigureResponse struct{}

// TransmitRequest mirrors spec §6's Transmit operation.
type TransmitRequest = wire.TransmitPacket

// TransmitResponse is the operation's empty ack.
type TransmitResponse struct{}

// ReceiveStreamRequest selects which module's broadcaster to stream from.
type ReceiveStreamRequest struct {
	Module byte
}

// ReceiveResponse mirrors spec §6's ReceiveResponse.
type ReceiveResponse = wire.ReceivePacket

// DeviceInfoRequest takes no parameters; it exists as a message type only so
// the unary handler shape matches Configure/Transmit.
type DeviceInfoRequest struct{}

// DeviceInfoResponse answers a device-identity query: how many modules this
// daemon exposes and which build produced it, so a client can size its own
// per-module requests (e.g. Configure's module bounds) before issuing them.
type DeviceInfoResponse struct {
	ModuleCount  byte
	BuildVersion string
}
