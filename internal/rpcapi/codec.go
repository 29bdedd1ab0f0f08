package rpcapi

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kaonic-radio/kaonic-comm/internal/wire"
)

// codecName is registered with grpc as this service's content subtype.
const codecName = "kaonicrpc"

// Codec implements google.golang.org/grpc/encoding.Codec over the rpcapi
// message types, using wire's field packing instead of protobuf (no
// protoc-generated types are involved anywhere in this service).
type Codec struct{}

func (Codec) Name() string { return codecName }

func (Codec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case *ConfigureRequest:
		return wire.EncodePayload(m)
	case *ConfigureResponse:
		return nil, nil
	case *TransmitRequest:
		return wire.EncodePayload(m)
	case *TransmitResponse:
		return nil, nil
	case *ReceiveStreamRequest:
		return []byte{m.Module}, nil
	case *ReceiveResponse:
		return wire.EncodePayload(m)
	case *DeviceInfoRequest:
		return nil, nil
	case *DeviceInfoResponse:
		return encodeDeviceInfoResponse(m), nil
	default:
		return nil, fmt.Errorf("rpcapi: codec cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	switch m := v.(type) {
	case *ConfigureRequest:
		decoded, err := wire.DecodeConfigPayload(data)
		if err != nil {
			return err
		}
		*m = *decoded
		return nil
	case *ConfigureResponse:
		return nil
	case *TransmitRequest:
		module, frame, err := wire.DecodeFramePayload(data)
		if err != nil {
			return err
		}
		m.Module, m.Frame = module, frame
		return nil
	case *TransmitResponse:
		return nil
	case *ReceiveStreamRequest:
		if len(data) < 1 {
			return fmt.Errorf("rpcapi: short ReceiveStreamRequest")
		}
		m.Module = data[0]
		return nil
	case *ReceiveResponse:
		module, frame, err := wire.DecodeFramePayload(data)
		if err != nil {
			return err
		}
		m.Module, m.Frame = module, frame
		return nil
	case *DeviceInfoRequest:
		return nil
	case *DeviceInfoResponse:
		return decodeDeviceInfoResponse(data, m)
	default:
		return fmt.Errorf("rpcapi: codec cannot unmarshal into %T", v)
	}
}

// encodeDeviceInfoResponse packs ModuleCount followed by a uint16-length-
// prefixed BuildVersion, the same length-prefixing style internal/wire uses
// for frame payloads.
func encodeDeviceInfoResponse(m *DeviceInfoResponse) []byte {
	var buf bytes.Buffer
	buf.WriteByte(m.ModuleCount)
	version := []byte(m.BuildVersion)
	var length [2]byte
	binary.LittleEndian.PutUint16(length[:], uint16(len(version)))
	buf.Write(length[:])
	buf.Write(version)
	return buf.Bytes()
}

func decodeDeviceInfoResponse(data []byte, m *DeviceInfoResponse) error {
	if len(data) < 3 {
		return fmt.Errorf("rpcapi: short DeviceInfoResponse")
	}
	m.ModuleCount = data[0]
	length := binary.LittleEndian.Uint16(data[1:3])
	if len(data[3:]) < int(length) {
		return fmt.Errorf("rpcapi: short DeviceInfoResponse build version")
	}
	m.BuildVersion = string(data[3 : 3+length])
	return nil
}
