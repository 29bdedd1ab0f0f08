// Command kaonicd is the kaonic-comm daemon (spec §1): it resolves the
// carrier board's machine configuration, brings up one rf215.Device per
// frontend, starts the module-indexed radio service over them, and exposes
// that service through the RPC and serial external interfaces of spec §6.
//
// Grounded on the teacher's examples/simple/{sender,receiver} entrypoints
// (open hardware, construct the device, run forever), generalized from a
// single nRF24 device to a board's worth of AT86RF215 frontends plus the
// two wire-facing services spec §6 adds.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"github.com/kaonic-radio/kaonic-comm/internal/gpioline"
	"github.com/kaonic-radio/kaonic-comm/internal/kaonicfg"
	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
	"github.com/kaonic-radio/kaonic-comm/internal/machineconfig"
	"github.com/kaonic-radio/kaonic-comm/internal/nodeid"
	"github.com/kaonic-radio/kaonic-comm/internal/radioservice"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
	"github.com/kaonic-radio/kaonic-comm/internal/rpcapi"
	"github.com/kaonic-radio/kaonic-comm/internal/serialsvc"
	"github.com/kaonic-radio/kaonic-comm/internal/spibus"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	var configPath string
	fs := pflag.NewFlagSet("kaonicd", pflag.ExitOnError)
	fs.StringVar(&configPath, "config", "/etc/kaonic/kaonic.yaml", "path to the daemon config file")
	flagCfg := kaonicfg.Defaults()
	kaonicfg.Flags(fs, &flagCfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal("parsing flags", "err", err)
	}
	cfg, err := kaonicfg.Load(configPath)
	if err != nil {
		logger.Fatal("loading config", "err", err)
	}
	// Flags given on the command line override the file's values.
	overrides := pflag.NewFlagSet("kaonicd-overrides", pflag.ContinueOnError)
	kaonicfg.Flags(overrides, &cfg)
	fs.Visit(func(f *pflag.Flag) {
		if overrides.Lookup(f.Name) != nil {
			_ = overrides.Set(f.Name, f.Value.String())
		}
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal("kaonicd exited", "err", err)
	}
}

func run(cfg kaonicfg.Config, logger *log.Logger) error {
	board := machineconfig.Resolve()
	logger.Info("resolved machine config", "board", board.Name, "frontends", len(board.Frontends))

	meshCfg, err := cfg.MeshConfig()
	if err != nil {
		return fmt.Errorf("kaonicd: mesh config: %w", err)
	}

	hw, devices, err := openFrontends(board, logger)
	if err != nil {
		return err
	}
	defer closeAll(hw, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := radioservice.New(ctx, devices, meshCfg, func() uint64 { return nodeid.Generate(logger) }, logger)
	if err != nil {
		return fmt.Errorf("kaonicd: radio service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("stopping radio service", "err", err)
		}
	}()

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(rpcapi.Codec{}))
	rpcapi.RegisterRadioServiceServer(grpcServer, rpcapi.NewServer(svc, logger))

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("kaonicd: listen on %s: %w", cfg.ListenAddr, err)
	}
	go func() {
		logger.Info("rpc listening", "addr", cfg.ListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("rpc server stopped", "err", err)
		}
	}()
	defer grpcServer.GracefulStop()

	serialPort, err := os.OpenFile(cfg.SerialDevice, os.O_RDWR, 0)
	if err != nil {
		logger.Warn("serial device unavailable, serial interface disabled", "device", cfg.SerialDevice, "err", err)
	} else {
		defer serialPort.Close()
		serial := serialsvc.New(serialPort, svc, logger)
		go func() {
			if err := serial.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("serial service stopped", "err", err)
			}
		}()
		logger.Info("serial interface running", "device", cfg.SerialDevice)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig)
	cancel()
	return nil
}

// openFrontends opens the SPI bus and GPIO lines for every frontend in
// board, wires them into an rf215.Device, and initializes each device. On
// any failure, every hardware binding opened so far is closed before
// returning the error.
func openFrontends(board machineconfig.Board, logger *log.Logger) ([]*rf215.Hardware, []*rf215.Device, error) {
	var hw []*rf215.Hardware
	var devices []*rf215.Device

	for _, name := range sortedFrontendNames(board) {
		desc := board.Frontends[name]
		flog := logger.With("frontend", name)

		bus, err := openSPI(desc, flog)
		if err != nil {
			closeAll(hw, logger)
			return nil, nil, err
		}

		reset, err := gpioline.RequestOutput(desc.Reset, 1, flog)
		if err != nil {
			bus.Close()
			closeAll(hw, logger)
			return nil, nil, err
		}

		h := &rf215.Hardware{Bus: bus, Reset: reset}

		irq, err := gpioline.RequestRisingEdgeInput(desc.IRQ, func() { h.IRQHandler() }, flog)
		if err != nil {
			reset.Close()
			bus.Close()
			closeAll(hw, logger)
			return nil, nil, err
		}
		h.IRQ = irq

		filters, err := openFilterLines(desc, flog)
		if err != nil {
			irq.Close()
			reset.Close()
			bus.Close()
			closeAll(hw, logger)
			return nil, nil, err
		}
		h.Filters = filters

		dev, err := rf215.NewHardware(h, flog)
		if err != nil {
			h.Close()
			closeAll(hw, logger)
			return nil, nil, err
		}
		if err := dev.Init(); err != nil {
			h.Close()
			closeAll(hw, logger)
			return nil, nil, fmt.Errorf("kaonicd: init %s: %w", name, err)
		}

		hw = append(hw, h)
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		return nil, nil, kerr.Wrap(kerr.Fail, fmt.Errorf("kaonicd: board %s has no frontends", board.Name))
	}
	return hw, devices, nil
}

func openSPI(desc machineconfig.FrontendDescriptor, logger *log.Logger) (*spibus.Bus, error) {
	return spibus.Open(desc.SPI, logger)
}

func openFilterLines(desc machineconfig.FrontendDescriptor, logger *log.Logger) (gpioline.FilterLines, error) {
	v1, err := gpioline.RequestOutput(desc.FilterV1, 0, logger)
	if err != nil {
		return gpioline.FilterLines{}, err
	}
	v2, err := gpioline.RequestOutput(desc.FilterV2, 0, logger)
	if err != nil {
		v1.Close()
		return gpioline.FilterLines{}, err
	}
	b24, err := gpioline.RequestOutput(desc.Filter24, 0, logger)
	if err != nil {
		v1.Close()
		v2.Close()
		return gpioline.FilterLines{}, err
	}
	return gpioline.FilterLines{V1: v1, V2: v2, Band24: b24}, nil
}

// sortedFrontendNames returns board's frontend names in a stable order
// ("rfa" before "rfb") so module indices are reproducible across restarts.
func sortedFrontendNames(board machineconfig.Board) []string {
	preferred := []string{"rfa", "rfb"}
	var names []string
	for _, n := range preferred {
		if _, ok := board.Frontends[n]; ok {
			names = append(names, n)
		}
	}
	for n := range board.Frontends {
		found := false
		for _, p := range preferred {
			if n == p {
				found = true
				break
			}
		}
		if !found {
			names = append(names, n)
		}
	}
	return names
}

func closeAll(hw []*rf215.Hardware, logger *log.Logger) {
	for _, h := range hw {
		if err := h.Close(); err != nil {
			logger.Error("closing frontend hardware", "err", err)
		}
	}
}
