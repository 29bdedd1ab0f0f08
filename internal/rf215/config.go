package rf215

import "fmt"

// SubDevice names the active half of the AT86RF215 (glossary: "sub-device").
type SubDevice int

const (
	SubDeviceNone SubDevice = iota
	SubDeviceRF09
	SubDeviceRF24
)

func (s SubDevice) String() string {
	switch s {
	case SubDeviceRF09:
		return "rf09"
	case SubDeviceRF24:
		return "rf24"
	default:
		return "none"
	}
}

// subDeviceForFrequency picks rf09 for f <= 1_500_000 kHz, else rf24 (spec §4.3).
func subDeviceForFrequency(freqKHz uint32) SubDevice {
	if freqKHz <= 1_500_000 {
		return SubDeviceRF09
	}
	return SubDeviceRF24
}

// OFDMConfig is the OFDM PHY variant of the tagged PHY configuration
// (spec §3): modulation-and-coding index and option.
type OFDMConfig struct {
	MCS byte // 0-6
	Opt byte // 0-3
}

// FSKConfig is the FSK PHY variant of the tagged PHY configuration (spec §3).
// All fields map directly to AT86RF215 baseband FSK registers.
type FSKConfig struct {
	SymbolRate      SymbolRateClass
	ModIndex        ModulationIndex
	PreambleLength  byte
	PreambleInvert  bool
	SFDPattern0     uint16
	SFDPattern1     uint16
	SFDSelect       byte // which SFD pattern slot is active
	FECEnable       bool
	FECScheme       byte
	DataWhitening   bool
	Preemphasis     byte
}

// PHYKind tags which variant of PHYConfig is populated.
type PHYKind int

const (
	PHYOFDM PHYKind = iota
	PHYFSK
)

// PHYConfig is the tagged union over {OFDM, FSK} (spec §3, §9 "tagged PHY
// configuration" design note): exactly one of OFDM/FSK is meaningful,
// selected by Kind.
type PHYConfig struct {
	Kind PHYKind
	OFDM OFDMConfig
	FSK  FSKConfig
}

// RadioConfig is the full tuple from spec §3 "Radio configuration".
type RadioConfig struct {
	CenterFreqKHz   uint32
	Channel         uint16
	ChannelSpacing  uint16 // kHz
	TXPowerIndex    byte   // 0-12
	PHY             PHYConfig
}

// Validate checks the bounds spec §3/§4.3 imply.
func (c RadioConfig) Validate() error {
	if c.TXPowerIndex > 12 {
		return fmt.Errorf("tx power index %d out of range [0,12]", c.TXPowerIndex)
	}
	switch c.PHY.Kind {
	case PHYOFDM:
		if c.PHY.OFDM.MCS > 6 {
			return fmt.Errorf("ofdm mcs %d out of range [0,6]", c.PHY.OFDM.MCS)
		}
		if c.PHY.OFDM.Opt > 3 {
			return fmt.Errorf("ofdm opt %d out of range [0,3]", c.PHY.OFDM.Opt)
		}
	case PHYFSK:
		if c.PHY.FSK.SymbolRate > SRate400k {
			return fmt.Errorf("fsk symbol rate class %d out of range [0,5]", c.PHY.FSK.SymbolRate)
		}
	default:
		return fmt.Errorf("unknown phy kind %d", c.PHY.Kind)
	}
	return nil
}

// ActiveSubDevice returns which sub-device this configuration selects.
func (c RadioConfig) ActiveSubDevice() SubDevice {
	return subDeviceForFrequency(c.CenterFreqKHz)
}
