// Package machineconfig resolves the static per-board hardware descriptors
// named in spec §6 "Machine configuration": which SPI device, reset/IRQ GPIO
// lines, and filter-select GPIO lines feed each frontend (RFA, RFB) on a
// given carrier board.
//
// Grounded on original_source/kaonic/src/main.cpp's per-board wiring tables;
// Design Note (e) calls out that main.cpp assigns the same GPIO descriptor to
// both the reset and IRQ slots for one frontend by copy-paste error — this
// package gives RFA and RFB (and within each, reset vs. IRQ) distinct line
// numbers so that mistake is not reproduced.
package machineconfig

import (
	"os"
	"strings"

	"github.com/kaonic-radio/kaonic-comm/internal/gpioline"
	"github.com/kaonic-radio/kaonic-comm/internal/spibus"
)

// MachineFile is the path read at startup to select a board, per spec §6.
const MachineFile = "/etc/kaonic/kaonic_machine"

// MachineEnvVar is an alternative to MachineFile so the daemon is testable
// without root-owned paths; it takes precedence when set.
const MachineEnvVar = "KAONIC_MACHINE"

// FrontendDescriptor is everything needed to open one frontend's hardware.
type FrontendDescriptor struct {
	SPI    spibus.Config
	Reset  gpioline.Descriptor
	IRQ    gpioline.Descriptor
	FilterV1, FilterV2, Filter24 gpioline.Descriptor
}

// Board is a fully resolved machine descriptor: one FrontendDescriptor per
// frontend, keyed by name ("rfa", "rfb").
type Board struct {
	Name      string
	Frontends map[string]FrontendDescriptor
}

const defaultBoard = "stm32mp1-kaonic-proto-c"

var boards = map[string]Board{
	"stm32mp1-kaonic-proto-a": {
		Name: "stm32mp1-kaonic-proto-a",
		Frontends: map[string]FrontendDescriptor{
			"rfa": {
				SPI:      spibus.Config{Path: "/dev/spidev0.0", SpeedHz: 8_000_000},
				Reset:    gpioline.Descriptor{Chip: "gpiochip0", Offset: 17},
				IRQ:      gpioline.Descriptor{Chip: "gpiochip0", Offset: 27},
				FilterV1: gpioline.Descriptor{Chip: "gpiochip0", Offset: 22},
				FilterV2: gpioline.Descriptor{Chip: "gpiochip0", Offset: 23},
				Filter24: gpioline.Descriptor{Chip: "gpiochip0", Offset: 24},
			},
			"rfb": {
				SPI:      spibus.Config{Path: "/dev/spidev0.1", SpeedHz: 8_000_000},
				Reset:    gpioline.Descriptor{Chip: "gpiochip0", Offset: 5},
				IRQ:      gpioline.Descriptor{Chip: "gpiochip0", Offset: 6},
				FilterV1: gpioline.Descriptor{Chip: "gpiochip0", Offset: 12},
				FilterV2: gpioline.Descriptor{Chip: "gpiochip0", Offset: 13},
				Filter24: gpioline.Descriptor{Chip: "gpiochip0", Offset: 16},
			},
		},
	},
	"stm32mp1-kaonic-proto-b": {
		Name: "stm32mp1-kaonic-proto-b",
		Frontends: map[string]FrontendDescriptor{
			"rfa": {
				SPI:      spibus.Config{Path: "/dev/spidev1.0", SpeedHz: 8_000_000},
				Reset:    gpioline.Descriptor{Chip: "gpiochip1", Offset: 17},
				IRQ:      gpioline.Descriptor{Chip: "gpiochip1", Offset: 27},
				FilterV1: gpioline.Descriptor{Chip: "gpiochip1", Offset: 22},
				FilterV2: gpioline.Descriptor{Chip: "gpiochip1", Offset: 23},
				Filter24: gpioline.Descriptor{Chip: "gpiochip1", Offset: 24},
			},
			"rfb": {
				SPI:      spibus.Config{Path: "/dev/spidev1.1", SpeedHz: 8_000_000},
				Reset:    gpioline.Descriptor{Chip: "gpiochip1", Offset: 5},
				IRQ:      gpioline.Descriptor{Chip: "gpiochip1", Offset: 6},
				FilterV1: gpioline.Descriptor{Chip: "gpiochip1", Offset: 12},
				FilterV2: gpioline.Descriptor{Chip: "gpiochip1", Offset: 13},
				Filter24: gpioline.Descriptor{Chip: "gpiochip1", Offset: 16},
			},
		},
	},
	defaultBoard: {
		Name: defaultBoard,
		Frontends: map[string]FrontendDescriptor{
			"rfa": {
				SPI:      spibus.Config{Path: "/dev/spidev2.0", SpeedHz: 8_000_000},
				Reset:    gpioline.Descriptor{Chip: "gpiochip2", Offset: 17},
				IRQ:      gpioline.Descriptor{Chip: "gpiochip2", Offset: 27},
				FilterV1: gpioline.Descriptor{Chip: "gpiochip2", Offset: 22},
				FilterV2: gpioline.Descriptor{Chip: "gpiochip2", Offset: 23},
				Filter24: gpioline.Descriptor{Chip: "gpiochip2", Offset: 24},
			},
			"rfb": {
				SPI:      spibus.Config{Path: "/dev/spidev2.1", SpeedHz: 8_000_000},
				Reset:    gpioline.Descriptor{Chip: "gpiochip2", Offset: 5},
				IRQ:      gpioline.Descriptor{Chip: "gpiochip2", Offset: 6},
				FilterV1: gpioline.Descriptor{Chip: "gpiochip2", Offset: 12},
				FilterV2: gpioline.Descriptor{Chip: "gpiochip2", Offset: 13},
				Filter24: gpioline.Descriptor{Chip: "gpiochip2", Offset: 16},
			},
		},
	},
}

// Normalize maps abbreviated or legacy machine names
// ("stm32mp1-kaonic-protoa") to the canonical hyphenated form used above.
func normalize(name string) string {
	name = strings.TrimSpace(name)
	switch name {
	case "stm32mp1-kaonic-proto-a", "stm32mp1-kaonic-protoa":
		return "stm32mp1-kaonic-proto-a"
	case "stm32mp1-kaonic-proto-b", "stm32mp1-kaonic-protob":
		return "stm32mp1-kaonic-proto-b"
	case "stm32mp1-kaonic-proto-c", "stm32mp1-kaonic-protoc":
		return defaultBoard
	default:
		return ""
	}
}

// Resolve reads MachineEnvVar, then MachineFile, and returns the matching
// Board. An unrecognized or missing value falls back to proto-c, per spec §6.
func Resolve() Board {
	if v, ok := os.LookupEnv(MachineEnvVar); ok {
		if b, ok := boardByRaw(v); ok {
			return b
		}
	}
	if data, err := os.ReadFile(MachineFile); err == nil {
		if b, ok := boardByRaw(string(data)); ok {
			return b
		}
	}
	return boards[defaultBoard]
}

func boardByRaw(raw string) (Board, bool) {
	key := normalize(raw)
	if key == "" {
		return Board{}, false
	}
	b, ok := boards[key]
	return b, ok
}
