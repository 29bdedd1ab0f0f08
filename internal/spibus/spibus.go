// Package spibus implements the L0 SPI bus (spec §4.1): a half-duplex,
// two-phase register transaction against one AT86RF215 transceiver — a
// 16-bit big-endian register address followed by an N-byte read or write.
//
// Grounded on the teacher's periph.io-backed SPI opening sequence
// (adapter-periph.go: host.Init -> spireg.Open -> Connect), generalized from
// the nRF24's single-byte command prefix to the AT86RF215's wider register
// address space.
package spibus

import (
	"fmt"

	"github.com/charmbracelet/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
)

// Config describes how to open one SPI device node.
type Config struct {
	// Path is the spidev path, e.g. "/dev/spidev0.0".
	Path string
	// SpeedHz is the SPI clock in Hz.
	SpeedHz int64
	// Mode selects clock polarity/phase (0-3), per AT86RF215 requirements (Mode 0).
	Mode spi.Mode
	// BitsPerWord is the SPI word width, normally 8.
	BitsPerWord int
}

// Conn is the minimal transaction surface the bus needs from a periph.io
// connection; satisfied by spi.Conn and by test fakes.
type Conn interface {
	Tx(w, r []byte) error
}

// Bus owns one SPI device exclusively. It is not internally locked —
// serialization across readers/writers is the caller's responsibility
// (spec §5: the per-frontend mutex covers SPI + driver + IRQ wait).
type Bus struct {
	conn   Conn
	closer interface{ Close() error }
	log    *log.Logger
}

var hostInitOnce = func() error {
	_, err := host.Init()
	return err
}

// Open opens the SPI device, sets mode/bits/speed, and returns a ready Bus.
// Fails with kerr.Fail on any underlying transport error, per spec §4.1.
func Open(cfg Config, logger *log.Logger) (*Bus, error) {
	if cfg.Path == "" {
		return nil, kerr.Wrap(kerr.InvalidArg, fmt.Errorf("spibus: empty device path"))
	}
	if err := hostInitOnce(); err != nil {
		return nil, kerr.Wrap(kerr.Fail, fmt.Errorf("spibus: periph host init: %w", err))
	}

	port, err := spireg.Open(cfg.Path)
	if err != nil {
		return nil, kerr.Wrap(kerr.Fail, fmt.Errorf("spibus: open %s: %w", cfg.Path, err))
	}

	bits := cfg.BitsPerWord
	if bits == 0 {
		bits = 8
	}
	speed := cfg.SpeedHz
	if speed == 0 {
		speed = 8_000_000
	}

	c, err := port.Connect(physic.Frequency(speed)*physic.Hertz, cfg.Mode, bits)
	if err != nil {
		port.Close()
		return nil, kerr.Wrap(kerr.Fail, fmt.Errorf("spibus: connect %s: %w", cfg.Path, err))
	}

	if logger == nil {
		logger = log.Default()
	}
	return &Bus{conn: c, closer: port, log: logger.With("component", "spibus", "path", cfg.Path)}, nil
}

// newWithConn wraps an existing Conn (such as a fake) without opening real
// hardware. The Bus it returns has no closer, so Close is a no-op.
func newWithConn(conn Conn, logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{conn: conn, log: logger}
}

// Read performs addr-write then len(buf)-read, delivering the full buffer or
// failing; partial success is never returned (spec §4.1).
func (b *Bus) Read(addr uint16, buf []byte) error {
	if buf == nil || len(buf) == 0 {
		return kerr.New(kerr.InvalidArg)
	}
	w := make([]byte, 2+len(buf))
	w[0] = byte(addr >> 8)
	w[1] = byte(addr)
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	copy(buf, r[2:])
	return nil
}

// Write performs addr-write then len(buf)-write.
func (b *Bus) Write(addr uint16, buf []byte) error {
	if buf == nil || len(buf) == 0 {
		return kerr.New(kerr.InvalidArg)
	}
	w := make([]byte, 2+len(buf))
	w[0] = byte((addr >> 8) | 0x80) // write bit set per AT86RF215 SPI framing
	w[1] = byte(addr)
	copy(w[2:], buf)
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	return nil
}

// Close is idempotent.
func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	c := b.closer
	b.closer = nil
	if err := c.Close(); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	return nil
}
