// Package radioservice owns the module-indexed collection of frontends
// (spec §4.8): construction wires one broadcaster and one radio network per
// frontend sharing the mesh configuration, and starts every frontend before
// returning.
package radioservice

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/kaonic-radio/kaonic-comm/internal/broadcaster"
	"github.com/kaonic-radio/kaonic-comm/internal/frontend"
	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
	"github.com/kaonic-radio/kaonic-comm/internal/rfnet"
)

// Module identifies one frontend by position, the way spec §4.8 indexes
// frontends by a module byte.
type Module = byte

// Service is the radio service of spec §4.8: a vector of frontends indexed
// by module.
type Service struct {
	frontends []*frontend.Frontend
	log       *log.Logger
}

// New constructs one frontend per device, starting each before returning.
// meshCfg is shared across all frontends (spec §4.8 "mesh configuration is
// shared"). If any frontend fails to start, the ones already started are
// stopped before returning the error.
func New(ctx context.Context, devices []*rf215.Device, meshCfg rfnet.Config, genID rfnet.GenIDFunc, logger *log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.Default()
	}

	s := &Service{log: logger}
	for i, dev := range devices {
		name := fmt.Sprintf("module%d", i)
		fe, err := frontend.New(name, dev, meshCfg, genID, logger)
		if err != nil {
			s.stopStarted()
			return nil, err
		}
		if err := fe.Start(ctx); err != nil {
			s.stopStarted()
			return nil, err
		}
		s.frontends = append(s.frontends, fe)
	}
	return s, nil
}

func (s *Service) stopStarted() {
	for _, fe := range s.frontends {
		if fe.Running() {
			_ = fe.Stop()
		}
	}
}

func (s *Service) lookup(module Module) (*frontend.Frontend, error) {
	if int(module) >= len(s.frontends) {
		return nil, kerr.New(kerr.InvalidArg)
	}
	return s.frontends[module], nil
}

// Configure forwards to the addressed frontend's transceiver (spec §4.8).
func (s *Service) Configure(module Module, cfg rf215.RadioConfig) error {
	fe, err := s.lookup(module)
	if err != nil {
		return err
	}
	return fe.Configure(cfg)
}

// Transmit forwards to the addressed frontend's Transmit (spec §4.8).
func (s *Service) Transmit(ctx context.Context, module Module, frame []byte) error {
	fe, err := s.lookup(module)
	if err != nil {
		return err
	}
	return fe.Transmit(ctx, frame)
}

// Device returns the addressed frontend's transceiver, for callers that
// need to observe device state directly rather than through Configure.
func (s *Service) Device(module Module) (*rf215.Device, error) {
	fe, err := s.lookup(module)
	if err != nil {
		return nil, err
	}
	return fe.Device(), nil
}

// AttachListener registers listener with every frontend's broadcaster
// (spec §4.8).
func (s *Service) AttachListener(listener broadcaster.Listener) []*broadcaster.Handle {
	handles := make([]*broadcaster.Handle, 0, len(s.frontends))
	for _, fe := range s.frontends {
		handles = append(handles, fe.AttachListener(listener))
	}
	return handles
}

// AttachModuleListener registers listener with a single module's
// broadcaster, for collaborators (serialsvc, rpcapi) that need to tag
// received frames with the module they arrived on.
func (s *Service) AttachModuleListener(module Module, listener broadcaster.Listener) (*broadcaster.Handle, error) {
	fe, err := s.lookup(module)
	if err != nil {
		return nil, err
	}
	return fe.AttachListener(listener), nil
}

// ModuleCount returns the number of frontends this service owns.
func (s *Service) ModuleCount() int {
	return len(s.frontends)
}

// Stats returns the mesh MAC stats for the addressed module.
func (s *Service) Stats(module Module) (rfnet.Stats, error) {
	fe, err := s.lookup(module)
	if err != nil {
		return rfnet.Stats{}, err
	}
	return fe.Stats(), nil
}

// Close stops every frontend.
func (s *Service) Close() error {
	var errs []error
	for _, fe := range s.frontends {
		errs = append(errs, fe.Stop())
	}
	return kerr.All(errs...)
}
