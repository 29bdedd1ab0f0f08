// Register map for the AT86RF215 family (spec §6 "Transceiver register
// map"), scoped to the subset spec §4.3 requires: common control/IRQ, the
// frequency synthesizer, and the OFDM/FSK baseband blocks for each
// sub-device (rf09, rf24). Register-table idiom grounded on
// _examples/tve-devices's sx1276/registers.go and sx1231/registers.go
// (named constants grouped by function, no generated code).
package rf215

// Per-sub-device base offsets. rf09 and rf24 have identical register layouts
// at different base addresses; baseband channel 0/1 (BBC0/BBC1) likewise.
const (
	baseRF09 = 0x0000
	baseRF24 = 0x0100
	baseBBC0 = 0x0200
	baseBBC1 = 0x0300
)

// Common per-sub-device registers, offset from baseRF09/baseRF24.
const (
	regIRQM  = 0x00 // IRQ mask
	regAUXS  = 0x01 // aux settings
	regSTATE = 0x02 // current/commanded state
	regCMD   = 0x03 // state command (TRXOFF, TXPREP, TX, RX, RESET)
	regCS    = 0x04 // channel spacing
	regCCF0L = 0x05 // center frequency f0, low byte
	regCCF0H = 0x06 // center frequency f0, high byte
	regCNL   = 0x07 // channel number, low byte
	regCNM   = 0x08 // channel number, mode/high bits
	regRXBWC = 0x09 // RX bandwidth control
	regRXDFE = 0x0A // RX digital front end (sample rate, RCUT)
	regTXCUTC = 0x0B // TX filter cutoff / PA ramp time
	regTXDFE  = 0x0C // TX digital front end (sample rate)
	regPAC    = 0x0D // power amplifier config (TX power index)
	regIRQS   = 0x0E // IRQ status

	regRXFrameWindow = 0x10 // RX baseband frame-buffer access window
	regTXFrameWindow = 0x11 // TX baseband frame-buffer access window
)

// State commands written to regCMD (spec §4.3 state machine).
const (
	cmdTRXOFF = 0x00
	cmdTXPREP = 0x02
	cmdTX     = 0x03
	cmdRX     = 0x04
	cmdReset  = 0x07
)

// IRQ status bits (regIRQS).
const (
	irqRXFS    = 1 << 0 // RX frame start
	irqRXFE    = 1 << 1 // RX frame end (receive-complete)
	irqTXFE    = 1 << 2 // TX frame end (transmit-complete)
	irqEDC     = 1 << 5 // energy detect complete
	irqTRXERR  = 1 << 6 // transceiver error
)

// BBC (baseband controller) common registers, offset from baseBBC0/baseBBC1.
const (
	regFBTXS = 0x00 // frame buffer TX start (2 bytes, little-endian length)
	regFBRXS = 0x02 // frame buffer RX start
	regPC    = 0x04 // PHY control: baseband enable + PHY type select
	regPS    = 0x05 // PHY status
	regIRQM2 = 0x06 // baseband IRQ mask

	regOFDMPHRTX = 0x10 // OFDM PHR TX: MCS field
	regOFDMC     = 0x11 // OFDM config: opt field
	regOFDMSW    = 0x12 // OFDM sliding window / interleaving

	regFSKC0    = 0x20 // FSK config 0: modulation index/order
	regFSKC1    = 0x21 // FSK config 1: symbol rate class
	regFSKC2    = 0x22 // FSK config 2: FEC enable/scheme
	regFSKC3    = 0x23 // FSK config 3: preamble length
	regFSKC4    = 0x24 // FSK config 4: SFD selection / inversion
	regFSKPLL   = 0x25 // FSK preemphasis coefficients
	regFSKSFD0L = 0x26 // FSK SFD pattern 0 low byte
	regFSKSFD0H = 0x27 // FSK SFD pattern 0 high byte
	regFSKSFD1L = 0x28 // FSK SFD pattern 1 low byte
	regFSKSFD1H = 0x29 // FSK SFD pattern 1 high byte
	regFSKDW    = 0x2A // FSK data whitening enable
)

// PC (regPC) baseband-enable / PHY-type bits.
const (
	pcBBEN   = 1 << 0 // baseband enable
	pcPTOFDM = 0 << 1 // PHY type: OFDM
	pcPTFSK  = 1 << 1 // PHY type: (MR-)FSK
)

// Part number: a successful probe reads a non-zero value here.
const regPN = 0x0D // per-chip part-number register, common block
