package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaonic-radio/kaonic-comm/internal/hdlc"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
)

func roundTrip(t *testing.T, p interface{}) interface{} {
	t.Helper()
	tag, payload, err := Encode(p)
	require.NoError(t, err)
	got, err := Decode(tag, payload)
	require.NoError(t, err)
	return got
}

// TestConfigPacketRoundTripOFDM covers spec §8 property 2 for the OFDM variant.
func TestConfigPacketRoundTripOFDM(t *testing.T) {
	in := &ConfigPacket{
		Module:         1,
		FreqKHz:        869_535,
		Channel:        1,
		ChannelSpacing: 200,
		TXPower:        10,
		PHY:            rf215.PHYConfig{Kind: rf215.PHYOFDM, OFDM: rf215.OFDMConfig{MCS: 6, Opt: 0}},
	}
	got := roundTrip(t, in)
	assert.Equal(t, in, got)
}

func TestConfigPacketRoundTripFSK(t *testing.T) {
	in := &ConfigPacket{
		Module:         0,
		FreqKHz:        2_400_000,
		Channel:        3,
		ChannelSpacing: 400,
		TXPower:        5,
		PHY: rf215.PHYConfig{Kind: rf215.PHYFSK, FSK: rf215.FSKConfig{
			SymbolRate:     rf215.SRate200k,
			ModIndex:       rf215.ModIndexOne,
			PreambleLength: 16,
			PreambleInvert: true,
			SFDPattern0:    0x7A0E,
			SFDPattern1:    0x12CA,
			SFDSelect:      1,
			FECEnable:      true,
			FECScheme:      1,
			DataWhitening:  true,
			Preemphasis:    2,
		}},
	}
	got := roundTrip(t, in)
	assert.Equal(t, in, got)
}

// TestTransmitPacketRoundTrip covers spec §8 scenario S2.
func TestTransmitPacketRoundTrip(t *testing.T) {
	frame := make([]byte, 10)
	for i := range frame {
		frame[i] = byte(11 + i)
	}
	in := &TransmitPacket{Module: 1, Frame: frame}
	got := roundTrip(t, in).(*TransmitPacket)
	assert.Equal(t, in.Module, got.Module)
	assert.Equal(t, in.Frame, got.Frame)
}

// TestReceivePacketRoundTrip covers spec §8 scenario S1.
func TestReceivePacketRoundTrip(t *testing.T) {
	frame := make([]byte, 10)
	for i := range frame {
		frame[i] = byte(1 + i)
	}
	in := &ReceivePacket{Module: 0, Frame: frame}
	got := roundTrip(t, in).(*ReceivePacket)
	assert.Equal(t, in.Frame, got.Frame)
}

func TestHDLCPacketEndToEndS1(t *testing.T) {
	frame := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tag, payload, err := Encode(&ReceivePacket{Module: 0, Frame: frame})
	require.NoError(t, err)

	raw := hdlc.Frame(tag, payload)
	gotTag, gotPayload, err := hdlc.Deframe(raw)
	require.NoError(t, err)

	decoded, err := Decode(gotTag, gotPayload)
	require.NoError(t, err)
	assert.Equal(t, frame, decoded.(*ReceivePacket).Frame)
}

func TestHDLCPacketEndToEndS2(t *testing.T) {
	frame := []byte{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	tag, payload, err := Encode(&TransmitPacket{Module: 1, Frame: frame})
	require.NoError(t, err)

	raw := hdlc.Frame(tag, payload)
	gotTag, gotPayload, err := hdlc.Deframe(raw)
	require.NoError(t, err)

	decoded, err := Decode(gotTag, gotPayload)
	require.NoError(t, err)
	out := decoded.(*TransmitPacket)
	assert.Equal(t, frame, out.Frame)
	assert.Equal(t, byte(1), out.Module)
}
