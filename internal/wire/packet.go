package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kaonic-radio/kaonic-comm/internal/hdlc"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
)

// ConfigPacket mirrors the serial/RPC Configure operation (spec §6).
type ConfigPacket struct {
	Module         byte
	FreqKHz        uint32
	Channel        uint16
	ChannelSpacing uint16
	TXPower        byte
	PHY            rf215.PHYConfig
}

// TransmitPacket mirrors the serial/RPC Transmit operation (spec §6).
type TransmitPacket struct {
	Module byte
	Frame  []byte
}

// ReceivePacket mirrors the serial/RPC ReceiveResponse (spec §6).
type ReceivePacket struct {
	Module byte
	Frame  []byte
}

// Encode produces the hdlc.Tag-prefixed payload for p, one of
// *ConfigPacket, *TransmitPacket, or *ReceivePacket.
func Encode(p interface{}) (hdlc.Tag, []byte, error) {
	switch v := p.(type) {
	case *ConfigPacket:
		return hdlc.TagConfig, encodeConfig(v), nil
	case *TransmitPacket:
		return hdlc.TagTransmit, encodeFramePacket(v.Module, v.Frame), nil
	case *ReceivePacket:
		return hdlc.TagReceive, encodeFramePacket(v.Module, v.Frame), nil
	default:
		return hdlc.TagUnknown, nil, fmt.Errorf("wire: unsupported packet type %T", p)
	}
}

// Decode parses payload according to tag into one of *ConfigPacket,
// *TransmitPacket, or *ReceivePacket.
func Decode(tag hdlc.Tag, payload []byte) (interface{}, error) {
	switch tag {
	case hdlc.TagConfig:
		return decodeConfig(payload)
	case hdlc.TagTransmit:
		module, frame, err := decodeFramePacket(payload)
		if err != nil {
			return nil, err
		}
		return &TransmitPacket{Module: module, Frame: frame}, nil
	case hdlc.TagReceive:
		module, frame, err := decodeFramePacket(payload)
		if err != nil {
			return nil, err
		}
		return &ReceivePacket{Module: module, Frame: frame}, nil
	default:
		return nil, fmt.Errorf("wire: unsupported tag %d", tag)
	}
}

// EncodePayload produces the bare field encoding for p (without the hdlc
// tag prefix), for collaborators that frame payloads some other way (the
// RPC codec uses grpc's own framing instead of hdlc's).
func EncodePayload(p interface{}) ([]byte, error) {
	_, payload, err := Encode(p)
	return payload, err
}

// DecodeConfigPayload decodes a bare ConfigPacket field encoding.
func DecodeConfigPayload(payload []byte) (*ConfigPacket, error) {
	return decodeConfig(payload)
}

// DecodeFramePayload decodes a bare Transmit/Receive field encoding into its
// module and frame.
func DecodeFramePayload(payload []byte) (module byte, frame []byte, err error) {
	return decodeFramePacket(payload)
}

const (
	phyKindOFDM byte = 0
	phyKindFSK  byte = 1
)

func encodeConfig(c *ConfigPacket) []byte {
	var buf bytes.Buffer
	buf.WriteByte(c.Module)
	writeU32(&buf, c.FreqKHz)
	writeU16(&buf, c.Channel)
	writeU16(&buf, c.ChannelSpacing)
	buf.WriteByte(c.TXPower)
	encodePHY(&buf, c.PHY)
	return buf.Bytes()
}

func decodeConfig(payload []byte) (*ConfigPacket, error) {
	r := bytes.NewReader(payload)
	c := &ConfigPacket{}
	var err error
	if c.Module, err = r.ReadByte(); err != nil {
		return nil, shortPacket("config.module", err)
	}
	if c.FreqKHz, err = readU32(r); err != nil {
		return nil, shortPacket("config.freq", err)
	}
	if c.Channel, err = readU16(r); err != nil {
		return nil, shortPacket("config.channel", err)
	}
	if c.ChannelSpacing, err = readU16(r); err != nil {
		return nil, shortPacket("config.spacing", err)
	}
	if c.TXPower, err = r.ReadByte(); err != nil {
		return nil, shortPacket("config.txpower", err)
	}
	if c.PHY, err = decodePHY(r); err != nil {
		return nil, err
	}
	return c, nil
}

func encodePHY(buf *bytes.Buffer, phy rf215.PHYConfig) {
	switch phy.Kind {
	case rf215.PHYFSK:
		buf.WriteByte(phyKindFSK)
		buf.WriteByte(byte(phy.FSK.SymbolRate))
		buf.WriteByte(byte(phy.FSK.ModIndex))
		buf.WriteByte(phy.FSK.PreambleLength)
		buf.WriteByte(boolByte(phy.FSK.PreambleInvert))
		writeU16(buf, phy.FSK.SFDPattern0)
		writeU16(buf, phy.FSK.SFDPattern1)
		buf.WriteByte(phy.FSK.SFDSelect)
		buf.WriteByte(boolByte(phy.FSK.FECEnable))
		buf.WriteByte(phy.FSK.FECScheme)
		buf.WriteByte(boolByte(phy.FSK.DataWhitening))
		buf.WriteByte(phy.FSK.Preemphasis)
	default:
		buf.WriteByte(phyKindOFDM)
		buf.WriteByte(phy.OFDM.MCS)
		buf.WriteByte(phy.OFDM.Opt)
	}
}

func decodePHY(r *bytes.Reader) (rf215.PHYConfig, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return rf215.PHYConfig{}, shortPacket("phy.kind", err)
	}
	switch kind {
	case phyKindFSK:
		fsk := rf215.FSKConfig{}
		var b byte
		if b, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.srate", err)
		}
		fsk.SymbolRate = rf215.SymbolRateClass(b)
		if b, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.midx", err)
		}
		fsk.ModIndex = rf215.ModulationIndex(b)
		if fsk.PreambleLength, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.preamble", err)
		}
		if b, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.invert", err)
		}
		fsk.PreambleInvert = b != 0
		if fsk.SFDPattern0, err = readU16(r); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.sfd0", err)
		}
		if fsk.SFDPattern1, err = readU16(r); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.sfd1", err)
		}
		if fsk.SFDSelect, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.sfdsel", err)
		}
		if b, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.fecen", err)
		}
		fsk.FECEnable = b != 0
		if fsk.FECScheme, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.fecscheme", err)
		}
		if b, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.whitening", err)
		}
		fsk.DataWhitening = b != 0
		if fsk.Preemphasis, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.fsk.preemphasis", err)
		}
		return rf215.PHYConfig{Kind: rf215.PHYFSK, FSK: fsk}, nil
	default:
		ofdm := rf215.OFDMConfig{}
		var err error
		if ofdm.MCS, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.ofdm.mcs", err)
		}
		if ofdm.Opt, err = r.ReadByte(); err != nil {
			return rf215.PHYConfig{}, shortPacket("phy.ofdm.opt", err)
		}
		return rf215.PHYConfig{Kind: rf215.PHYOFDM, OFDM: ofdm}, nil
	}
}

func encodeFramePacket(module byte, frame []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(module)
	writeU32(&buf, uint32(len(frame)))
	words := PackFrame(frame)
	for _, w := range words {
		writeU32(&buf, w)
	}
	return buf.Bytes()
}

func decodeFramePacket(payload []byte) (byte, []byte, error) {
	r := bytes.NewReader(payload)
	module, err := r.ReadByte()
	if err != nil {
		return 0, nil, shortPacket("frame.module", err)
	}
	length, err := readU32(r)
	if err != nil {
		return 0, nil, shortPacket("frame.length", err)
	}
	nWords := r.Len() / 4
	words := make([]uint32, nWords)
	for i := range words {
		if words[i], err = readU32(r); err != nil {
			return 0, nil, shortPacket("frame.data", err)
		}
	}
	return module, UnpackFrame(words, int(length)), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	n, err := r.Read(b)
	if err != nil {
		return n, err
	}
	if n != len(b) {
		return n, fmt.Errorf("wire: short read")
	}
	return n, nil
}

func shortPacket(field string, cause error) error {
	return fmt.Errorf("wire: truncated packet at %s: %w", field, cause)
}
