// Package serialsvc is the serial/HDLC external collaborator of spec §6: a
// line-oriented adapter between an io.ReadWriter carrying HDLC frames and
// the radio service. Its production wire format is specified in full by
// §6, so unlike the RPC service this package implements its transport
// directly rather than standing in for an external process.
package serialsvc

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/kaonic-radio/kaonic-comm/internal/hdlc"
	"github.com/kaonic-radio/kaonic-comm/internal/radioservice"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
	"github.com/kaonic-radio/kaonic-comm/internal/wire"
)

// Service dispatches inbound HDLC frames from rw to the radio service and
// writes ReceiveResponse frames back out as frames arrive on any module's
// broadcaster (spec §6, §4.7).
type Service struct {
	rw  io.ReadWriter
	svc *radioservice.Service
	log *log.Logger

	writeMu    chan struct{} // 1-buffered mutex, held across one frame write
	dispatcher *Dispatcher
}

// New wires Service to rw and svc. It does not start reading or attaching
// listeners until Run is called.
func New(rw io.ReadWriter, svc *radioservice.Service, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{rw: rw, svc: svc, log: logger, writeMu: make(chan struct{}, 1)}
	s.writeMu <- struct{}{}
	return s
}

// Run attaches a listener on every module that encodes received frames as
// HDLC and writes them to rw, and reads inbound HDLC frames from rw in a
// loop until ctx is cancelled or the reader returns an error.
func (s *Service) Run(ctx context.Context) error {
	for module := 0; module < s.svc.ModuleCount(); module++ {
		m := byte(module)
		h, err := s.svc.AttachModuleListener(m, func(frame []byte) { s.writeReceived(m, frame) })
		if err != nil {
			return fmt.Errorf("serialsvc: attach module %d: %w", m, err)
		}
		defer h.Release()
	}

	s.dispatcher = newDispatcher()
	s.dispatcher.register(hdlc.TagConfig, s.handleConfig)
	s.dispatcher.register(hdlc.TagTransmit, s.handleTransmit(ctx))

	return s.readLoop(ctx)
}

func (s *Service) writeReceived(module byte, frame []byte) {
	tag, payload, err := wire.Encode(&wire.ReceivePacket{Module: module, Frame: frame})
	if err != nil {
		s.log.Error("serialsvc: encode receive packet", "err", err)
		return
	}
	s.writeFrame(tag, payload)
}

func (s *Service) writeFrame(tag hdlc.Tag, payload []byte) {
	<-s.writeMu
	defer func() { s.writeMu <- struct{}{} }()

	if _, err := s.rw.Write(hdlc.Frame(tag, payload)); err != nil {
		s.log.Error("serialsvc: write frame", "err", err)
	}
}

// readLoop synchronizes on hdlc.Flag twice per frame (the opening and
// closing flag written by hdlc.Frame) and then reads the trailing 4-byte
// CRC, reassembling exactly the buffer hdlc.Deframe expects.
func (s *Service) readLoop(ctx context.Context) error {
	reader := bufio.NewReader(s.rw)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := reader.ReadBytes(hdlc.Flag); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("serialsvc: read opening flag: %w", err)
		}

		escaped, err := reader.ReadBytes(hdlc.Flag)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("serialsvc: read closing flag: %w", err)
		}

		var crc [4]byte
		if _, err := io.ReadFull(reader, crc[:]); err != nil {
			return fmt.Errorf("serialsvc: read crc: %w", err)
		}

		raw := make([]byte, 0, 1+len(escaped)+len(crc))
		raw = append(raw, hdlc.Flag)
		raw = append(raw, escaped...)
		raw = append(raw, crc[:]...)
		s.handleFrame(ctx, raw)
	}
}

func (s *Service) handleFrame(ctx context.Context, raw []byte) {
	tag, payload, err := hdlc.Deframe(raw)
	if err != nil {
		s.log.Warn("serialsvc: dropping malformed frame", "err", err)
		return
	}

	packet, err := wire.Decode(tag, payload)
	if err != nil {
		s.log.Warn("serialsvc: dropping undecodable packet", "err", err)
		return
	}

	if err := s.dispatcher.dispatch(tag, packet); err != nil {
		s.log.Error("serialsvc: dispatch", "tag", tag, "err", err)
	}
}

// handleConfig applies a *wire.ConfigPacket, the hdlc.TagConfig handler
// registered with the dispatcher.
func (s *Service) handleConfig(packet interface{}) error {
	p, ok := packet.(*wire.ConfigPacket)
	if !ok {
		return fmt.Errorf("serialsvc: expected *wire.ConfigPacket, got %T", packet)
	}
	return s.svc.Configure(p.Module, radioConfigFromPacket(p))
}

// handleTransmit returns the hdlc.TagTransmit handler bound to ctx, the
// lifetime of one Run call.
func (s *Service) handleTransmit(ctx context.Context) handlerFunc {
	return func(packet interface{}) error {
		p, ok := packet.(*wire.TransmitPacket)
		if !ok {
			return fmt.Errorf("serialsvc: expected *wire.TransmitPacket, got %T", packet)
		}
		return s.svc.Transmit(ctx, p.Module, p.Frame)
	}
}

func radioConfigFromPacket(p *wire.ConfigPacket) rf215.RadioConfig {
	return rf215.RadioConfig{
		CenterFreqKHz:  p.FreqKHz,
		Channel:        p.Channel,
		ChannelSpacing: p.ChannelSpacing,
		TXPowerIndex:   p.TXPower,
		PHY:            p.PHY,
	}
}
