package serialsvc

import (
	"fmt"

	"github.com/kaonic-radio/kaonic-comm/internal/hdlc"
)

// handlerFunc applies one decoded packet; the concrete type behind packet is
// whatever wire.Decode produced for the tag the handler is registered under.
type handlerFunc func(packet interface{}) error

// Dispatcher is a small registry of handlerFunc keyed by the wire type tag
// (spec §6), the shape the original's peripheral_dispatcher.hpp gives to
// multiplexing one HDLC byte stream to per-packet-type handlers.
type Dispatcher struct {
	handlers map[hdlc.Tag]handlerFunc
}

func newDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[hdlc.Tag]handlerFunc)}
}

func (d *Dispatcher) register(tag hdlc.Tag, fn handlerFunc) {
	d.handlers[tag] = fn
}

// dispatch runs the handler registered for tag against packet. It returns an
// error if no handler is registered for tag, rather than silently dropping.
func (d *Dispatcher) dispatch(tag hdlc.Tag, packet interface{}) error {
	fn, ok := d.handlers[tag]
	if !ok {
		return fmt.Errorf("serialsvc: no handler registered for tag %d", tag)
	}
	return fn(packet)
}
