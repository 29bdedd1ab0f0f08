package rf215

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaonic-radio/kaonic-comm/internal/gpioline"
	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
	"github.com/kaonic-radio/kaonic-comm/internal/spibus"
)

// Hardware binds a Device's trampolines to one frontend's SPI bus, reset
// line, IRQ line, and filter lines, the way adapter-periph.go bound the
// teacher's nRF24 Device to real periph.io handles.
type Hardware struct {
	Bus     *spibus.Bus
	Reset   *gpioline.Line
	IRQ     *gpioline.Line
	Filters gpioline.FilterLines

	irqEvents chan struct{}
}

// NewHardware wires bus/reset/irq/filters into a Callbacks bundle and
// returns a ready Device (uninitialized — call Init next).
func NewHardware(h *Hardware, logger *log.Logger) (*Device, error) {
	if h.Bus == nil || h.Reset == nil {
		return nil, kerr.Wrap(kerr.InvalidArg, fmt.Errorf("rf215: bus and reset line are required"))
	}
	h.irqEvents = make(chan struct{}, 1)

	cb := Callbacks{
		Write: func(addr uint16, buf []byte) error { return h.Bus.Write(addr, buf) },
		Read:  func(addr uint16, buf []byte) error { return h.Bus.Read(addr, buf) },
		Reset: func(assert bool) error {
			// Active-low reset output (spec §4.2): assert drives the line low.
			return h.Reset.Set(!assert)
		},
		WaitIRQ: func(ctx context.Context, timeout time.Duration) (bool, error) {
			if h.IRQ == nil {
				return true, nil // polling fallback: caller treats "fired" as "check now"
			}
			select {
			case <-h.irqEvents:
				return true, nil
			case <-time.After(timeout):
				return false, nil
			case <-ctx.Done():
				return false, ctx.Err()
			}
		},
		SetFilters: func(freqKHz uint32, active SubDevice) error {
			levels := gpioline.FiltersForFrequency(freqKHz)
			levels.Band24 = active == SubDeviceRF24
			return h.Filters.Apply(levels)
		},
	}

	return New(cb, logger)
}

// IRQHandler is registered with gpioline.RequestRisingEdgeInput for h.IRQ;
// it is the trampoline's only link back into Go scheduling (spec §9: must
// not capture state beyond the owning handle).
func (h *Hardware) IRQHandler() {
	select {
	case h.irqEvents <- struct{}{}:
	default:
	}
}

// Close releases the bus and every GPIO line this hardware binding owns.
func (h *Hardware) Close() error {
	return kerr.All(h.Bus.Close(), h.Reset.Close(), closeOptional(h.IRQ), h.Filters.Close())
}

func closeOptional(l *gpioline.Line) error {
	if l == nil {
		return nil
	}
	return l.Close()
}
