// Package rf215 is the L1 transceiver driver (spec §4.3): register map
// programming, PHY configuration, frequency/channel set, and baseband
// TX/RX against one AT86RF215-family chip.
//
// Grounded on the teacher's Device (michcald-nrf24/nrf24.go): a mutex-guarded
// struct holding hardware handles and a reused scratch buffer, a
// writeRegister/readRegister pair built on a single Tx-shaped transport, a
// state-gated Transmit/Receive pair, and a blocking wait-for-interrupt path
// that falls back to polling when no IRQ line is configured. Generalized
// from the nRF24's flat 1-byte-command register file to the AT86RF215's
// per-sub-device common + baseband register blocks (registers.go), and from
// a single chip to the rf09/rf24 sub-device selection of spec §4.3.
package rf215

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
)

// WriteFunc, ReadFunc, WaitIRQFunc, ResetFunc, SleepFunc and TimeFunc are the
// callback trampolines spec §4.3/§9 describe: the only interaction points
// between this package and the OS, bound to a context pointer (here, the
// enclosing *Device) rather than captured ambient state, so one process can
// run several independent Devices.
type (
	WriteFunc   func(addr uint16, buf []byte) error
	ReadFunc    func(addr uint16, buf []byte) error
	WaitIRQFunc func(ctx context.Context, timeout time.Duration) (fired bool, err error)
	ResetFunc   func(assert bool) error
	SleepFunc   func(time.Duration)
	TimeFunc    func() time.Time
)

// SetFiltersFunc drives the three band filter-select GPIOs (spec §4.2) for
// the frequency and sub-device selected by a Configure call.
type SetFiltersFunc func(freqKHz uint32, active SubDevice) error

// Callbacks bundles the trampolines bound to one frontend's hardware.
type Callbacks struct {
	Write      WriteFunc
	Read       ReadFunc
	WaitIRQ    WaitIRQFunc
	Reset      ResetFunc
	Sleep      SleepFunc
	Now        TimeFunc
	SetFilters SetFiltersFunc
}

func (c Callbacks) validate() error {
	if c.Write == nil || c.Read == nil || c.Reset == nil {
		return fmt.Errorf("rf215: Write/Read/Reset callbacks are required")
	}
	return nil
}

// state is the per-sub-device lifecycle of spec §4.3:
// unconfigured -> configured -> {transmitting, receiving} -> configured.
type state int

const (
	stateUnconfigured state = iota
	stateConfigured
	stateTransmitting
	stateReceiving
)

// Device is the opaque transceiver handle of spec §3: one active sub-device
// selection, the register-access callbacks bound to an SPI instance, and the
// wait-IRQ callback bound to a GPIO edge event source. Exactly one Device
// exists per frontend (spec §3 invariant); its mutex serializes every
// register transaction, matching spec §5.
type Device struct {
	cb  Callbacks
	log *log.Logger

	mu     sync.Mutex
	active SubDevice
	st     state
	cfg    RadioConfig

	txFrame Frame // reused TX scratch buffer (spec §9: no global buffers)
	rxFrame Frame // reused RX scratch buffer
}

// New constructs a Device bound to the given trampolines. It performs no I/O;
// call Init to reset and probe the chip.
func New(cb Callbacks, logger *log.Logger) (*Device, error) {
	if err := cb.validate(); err != nil {
		return nil, kerr.Wrap(kerr.InvalidArg, err)
	}
	if cb.Sleep == nil {
		cb.Sleep = time.Sleep
	}
	if cb.Now == nil {
		cb.Now = time.Now
	}
	if cb.WaitIRQ == nil {
		// No IRQ line: poll, treating every wait as "check the status now".
		cb.WaitIRQ = func(context.Context, time.Duration) (bool, error) { return true, nil }
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Device{cb: cb, log: logger, st: stateUnconfigured}, nil
}

// Init resets the chip and probes its part-number register (spec §4.3):
// assert reset for 25ms, deassert for 25ms, read the part-number register,
// and fail if it reads zero.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.cb.Reset(true); err != nil {
		return kerr.Wrap(kerr.Fail, fmt.Errorf("rf215: assert reset: %w", err))
	}
	d.cb.Sleep(25 * time.Millisecond)
	if err := d.cb.Reset(false); err != nil {
		return kerr.Wrap(kerr.Fail, fmt.Errorf("rf215: deassert reset: %w", err))
	}
	d.cb.Sleep(25 * time.Millisecond)

	var pn [1]byte
	if err := d.cb.Read(baseRF09+regPN, pn[:]); err != nil {
		return kerr.Wrap(kerr.Fail, fmt.Errorf("rf215: read part number: %w", err))
	}
	if pn[0] == 0 {
		return kerr.Wrap(kerr.Fail, fmt.Errorf("rf215: part number register read zero"))
	}

	d.log.Info("transceiver probed", "part_number", pn[0])
	return nil
}

// Configure programs the register set for cfg (spec §4.3): picks the active
// sub-device from frequency, writes the common block, the PHY-specific
// block, then the frequency synthesizer.
func (d *Device) Configure(cfg RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return kerr.Wrap(kerr.InvalidArg, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	active := cfg.ActiveSubDevice()
	base, bbBase := bases(active)

	if d.cb.SetFilters != nil {
		if err := d.cb.SetFilters(cfg.CenterFreqKHz, active); err != nil {
			return kerr.Wrap(kerr.Fail, err)
		}
	}

	if err := d.writeCommonBlock(base); err != nil {
		return err
	}

	switch cfg.PHY.Kind {
	case PHYOFDM:
		if err := d.writeOFDMBlock(bbBase, cfg.PHY.OFDM); err != nil {
			return err
		}
	case PHYFSK:
		if err := d.writeFSKBlock(bbBase, cfg.PHY.FSK, active == SubDeviceRF24); err != nil {
			return err
		}
	}

	if err := d.writeFrequency(base, cfg.ChannelSpacing, cfg.CenterFreqKHz, cfg.Channel); err != nil {
		return err
	}

	if err := d.cb.Write(base+regPAC, []byte{cfg.TXPowerIndex}); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}

	d.active = active
	d.cfg = cfg
	d.st = stateConfigured
	d.log.Info("radio configured", "sub_device", active, "freq_khz", cfg.CenterFreqKHz, "channel", cfg.Channel)
	return nil
}

func bases(active SubDevice) (base, bbBase uint16) {
	if active == SubDeviceRF24 {
		return baseRF24, baseBBC1
	}
	return baseRF09, baseBBC0
}

func (d *Device) writeCommonBlock(base uint16) error {
	// Common register block: mask every IRQ but frame-start/end and
	// errors, and command the state machine to TRXOFF. No clock register is
	// programmed here, and neither PHY block issues a further state
	// command; Transmit issues TX itself.
	return kerr.All(
		d.cb.Write(base+regIRQM, []byte{irqRXFS | irqRXFE | irqTXFE | irqTRXERR}),
		d.cb.Write(base+regCMD, []byte{cmdTRXOFF}),
	)
}

func (d *Device) writeOFDMBlock(bbBase uint16, cfg OFDMConfig) error {
	return kerr.All(
		d.cb.Write(bbBase+regPC, []byte{pcBBEN | pcPTOFDM}),
		d.cb.Write(bbBase+regOFDMC, []byte{cfg.Opt}),
		d.cb.Write(bbBase+regOFDMPHRTX, []byte{cfg.MCS}),
	)
}

func (d *Device) writeFSKBlock(bbBase uint16, cfg FSKConfig, rf24 bool) error {
	p := lookupFSK(cfg.SymbolRate, cfg.ModIndex, rf24)

	fskc0 := byte(cfg.ModIndex) | byte(cfg.SymbolRate)<<1
	fskc2 := byte(0)
	if cfg.FECEnable {
		fskc2 = 0x80 | cfg.FECScheme
	}
	fskc4 := cfg.SFDSelect
	if cfg.PreambleInvert {
		fskc4 |= 0x80
	}
	dw := byte(0)
	if cfg.DataWhitening {
		dw = 1
	}

	return kerr.All(
		d.cb.Write(bbBase+regPC, []byte{pcBBEN | pcPTFSK}),
		d.cb.Write(bbBase+regFSKC0, []byte{fskc0}),
		d.cb.Write(bbBase+regFSKC1, []byte{byte(cfg.SymbolRate)}),
		d.cb.Write(bbBase+regFSKC2, []byte{fskc2}),
		d.cb.Write(bbBase+regFSKC3, []byte{cfg.PreambleLength}),
		d.cb.Write(bbBase+regFSKC4, []byte{fskc4}),
		d.cb.Write(bbBase+regFSKPLL, []byte{cfg.Preemphasis}),
		d.cb.Write(bbBase+regFSKSFD0L, []byte{byte(cfg.SFDPattern0)}),
		d.cb.Write(bbBase+regFSKSFD0H, []byte{byte(cfg.SFDPattern0 >> 8)}),
		d.cb.Write(bbBase+regFSKSFD1L, []byte{byte(cfg.SFDPattern1)}),
		d.cb.Write(bbBase+regFSKSFD1H, []byte{byte(cfg.SFDPattern1 >> 8)}),
		d.cb.Write(bbBase+regFSKDW, []byte{dw}),
		d.cb.Write(baseOf(bbBase)+regTXDFE, []byte{p.txDFESR}),
		d.cb.Write(baseOf(bbBase)+regRXDFE, []byte{p.rxDFESR | p.rxDFERCUT<<5}),
		d.cb.Write(baseOf(bbBase)+regTXCUTC, []byte{p.txCUTC}),
		d.cb.Write(baseOf(bbBase)+regRXBWC, []byte{p.rxBWC}),
	)
}

// baseOf maps a baseband base back to its paired RF sub-device base, since
// TXDFE/RXDFE/TXCUTC/RXBWC live in the RF09/RF24 register block, not BBC.
func baseOf(bbBase uint16) uint16 {
	if bbBase == baseBBC1 {
		return baseRF24
	}
	return baseRF09
}

func (d *Device) writeFrequency(base uint16, spacingKHz uint16, freqKHz uint32, channel uint16) error {
	return kerr.All(
		d.cb.Write(base+regCS, []byte{byte(spacingKHz)}),
		d.cb.Write(base+regCCF0L, []byte{byte(freqKHz)}),
		d.cb.Write(base+regCCF0H, []byte{byte(freqKHz >> 8)}),
		d.cb.Write(base+regCNL, []byte{byte(channel)}),
		d.cb.Write(base+regCNM, []byte{byte(channel >> 8)}),
	)
}

// Transmit copies frame into the baseband TX register file and issues a TX
// command, blocking until the PHY reports TX complete or its internal
// timeout triggers (spec §4.3). Requires a configured active sub-device.
func (d *Device) Transmit(ctx context.Context, frame *Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.st == stateUnconfigured {
		return kerr.New(kerr.PreconditionFailed)
	}
	if frame.Len == 0 || frame.Len > MaxFrameLen {
		return kerr.New(kerr.InvalidArg)
	}

	base, _ := bases(d.active)
	d.st = stateTransmitting
	defer func() { d.st = stateConfigured }()

	lenPrefix := []byte{byte(frame.Len), byte(frame.Len >> 8)}
	if err := kerr.All(
		d.cb.Write(base+regAUXS, lenPrefix), // frame-buffer length header
		d.cb.Write(base+regTXFrameWindow, frame.Bytes()),
		d.cb.Write(base+regCMD, []byte{cmdTX}),
	); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}

	fired, err := d.cb.WaitIRQ(ctx, 2*time.Second)
	if err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	if !fired {
		return kerr.New(kerr.Timeout)
	}

	var irqs [1]byte
	if err := d.cb.Read(base+regIRQS, irqs[:]); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	if irqs[0]&irqTXFE == 0 {
		return kerr.New(kerr.Fail)
	}
	return nil
}

// Receive waits up to timeout for an IRQ, reads the IRQ status register, and
// consumes the baseband RX frame if the status indicates receive-complete
// (spec §4.3). Requires a configured active sub-device.
func (d *Device) Receive(ctx context.Context, frame *Frame, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.st == stateUnconfigured {
		return kerr.New(kerr.PreconditionFailed)
	}

	base, _ := bases(d.active)
	d.st = stateReceiving
	defer func() { d.st = stateConfigured }()

	fired, err := d.cb.WaitIRQ(ctx, timeout)
	if err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	if !fired {
		return kerr.New(kerr.Timeout)
	}

	var irqs [1]byte
	if err := d.cb.Read(base+regIRQS, irqs[:]); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	if irqs[0]&irqRXFE == 0 {
		return kerr.New(kerr.Timeout)
	}

	var lenBuf [2]byte
	if err := d.cb.Read(base+regAUXS, lenBuf[:]); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	n := int(lenBuf[0]) | int(lenBuf[1])<<8
	if n <= 0 || n > MaxFrameLen {
		return kerr.New(kerr.Fail)
	}
	if err := d.cb.Read(base+regRXFrameWindow, frame.Data[:n]); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	frame.Len = n
	return nil
}

// ActiveSubDevice reports which half of the chip the last Configure call
// selected, or SubDeviceNone if never configured.
func (d *Device) ActiveSubDevice() SubDevice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Config returns the RadioConfig most recently applied by Configure, for
// callers (and tests) that need to observe whether a configuration actually
// reached the device rather than re-deriving it independently.
func (d *Device) Config() RadioConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}
