// Package gpioline implements the L0 GPIO lines (spec §4.2): an active-low
// reset output, a rising-edge IRQ input with pull-down bias, and three
// filter-select outputs (V1, V2, 24) driven per frequency band.
//
// Grounded on the teacher's Pin abstraction (hardware.go/interfaces.go:
// Out/In/Read/Watch/Unwatch) but rebuilt on
// github.com/warthog618/go-gpiocdev instead of periph.io/x/conn/v3/gpio,
// because the machine-config descriptors in spec §6 name lines by
// "chip+line" (a Linux GPIO character-device coordinate), which gpiocdev
// addresses directly; periph.io's registry instead looks pins up by board
// name ("GPIO17"), which has no chip+line of its own.
package gpioline

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"

	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
)

// Line is a single requested GPIO line, either an output or an edge-watched
// input.
type Line struct {
	chip   string
	offset int
	line   *gpiocdev.Line
	log    *log.Logger
}

// Descriptor identifies one GPIO line by its character-device chip name and
// offset, matching §6's "GPIO chip+line" machine-config fields.
type Descriptor struct {
	Chip   string
	Offset int
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s:%d", d.Chip, d.Offset)
}

// RequestOutput opens a line as an output, initially driven to initialLevel.
func RequestOutput(d Descriptor, initialLevel int, logger *log.Logger) (*Line, error) {
	l, err := gpiocdev.RequestLine(d.Chip, d.Offset,
		gpiocdev.AsOutput(initialLevel))
	if err != nil {
		return nil, kerr.Wrap(kerr.Fail, fmt.Errorf("gpioline: request output %s: %w", d, err))
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Line{chip: d.Chip, offset: d.Offset, line: l, log: logger.With("gpio", d.String())}, nil
}

// Set drives an output line high (true) or low (false).
func (l *Line) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return kerr.Wrap(kerr.Fail, err)
	}
	return nil
}

// EdgeHandler is invoked on every matching edge; it must not block.
type EdgeHandler func()

// RequestRisingEdgeInput opens a line as a pull-down input that invokes
// handler on every rising edge (the AT86RF215 IRQ line, spec §4.2).
func RequestRisingEdgeInput(d Descriptor, handler EdgeHandler, logger *log.Logger) (*Line, error) {
	l, err := gpiocdev.RequestLine(d.Chip, d.Offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type == gpiocdev.LineEventRisingEdge {
				handler()
			}
		}),
	)
	if err != nil {
		return nil, kerr.Wrap(kerr.Fail, fmt.Errorf("gpioline: request irq input %s: %w", d, err))
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Line{chip: d.Chip, offset: d.Offset, line: l, log: logger.With("gpio", d.String())}, nil
}

// Value reads the current level of the line.
func (l *Line) Value() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, kerr.Wrap(kerr.Fail, err)
	}
	return v != 0, nil
}

// Close releases the line request. Idempotent.
func (l *Line) Close() error {
	if l.line == nil {
		return nil
	}
	line := l.line
	l.line = nil
	return line.Close()
}

// Band-to-filter GPIO mapping (spec §4.2), frequency in kHz.
type FilterLevels struct {
	V1 bool
	V2 bool
	// Band24 selects the 2.4 GHz filter bank (driven active when rf24 is the
	// active sub-device, not purely from frequency).
	Band24 bool
}

// FiltersForFrequency computes V1/V2 per spec §4.2's band table. Band24 is
// left false here; callers set it from the active sub-device, not frequency
// alone.
func FiltersForFrequency(freqKHz uint32) FilterLevels {
	switch {
	case freqKHz >= 902_000 && freqKHz <= 928_000:
		return FilterLevels{V1: true, V2: true}
	case freqKHz >= 862_000 && freqKHz <= 876_000:
		return FilterLevels{V1: false, V2: true}
	default:
		return FilterLevels{V1: true, V2: false}
	}
}

// FilterLines bundles the three filter-select output lines (spec §4.2).
type FilterLines struct {
	V1, V2, Band24 *Line
}

// Apply drives the three filter lines to match levels.
func (f FilterLines) Apply(levels FilterLevels) error {
	return kerr.All(
		f.V1.Set(levels.V1),
		f.V2.Set(levels.V2),
		f.Band24.Set(levels.Band24),
	)
}

// Close releases all three filter lines.
func (f FilterLines) Close() error {
	return kerr.All(f.V1.Close(), f.V2.Close(), f.Band24.Close())
}
