// Command kaonic-bench is a small RPC client exercising a running kaonicd
// over spec §6's external RPC interface: configure a module, then either
// transmit a counted message every second (sender mode) or stream received
// frames to stdout (receiver mode).
//
// Grounded on the teacher's examples/simple/{sender,receiver} pair (one
// binary, a mode flag, a send-and-print or watch-and-print loop), rebuilt
// against the RPC external interface instead of an in-process nrf24.Device.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
	"github.com/kaonic-radio/kaonic-comm/internal/rpcapi"
)

func main() {
	var (
		addr     string
		mode     string
		module   uint8
		freqKHz  uint32
		interval time.Duration
	)

	fs := pflag.NewFlagSet("kaonic-bench", pflag.ExitOnError)
	fs.StringVar(&addr, "addr", "127.0.0.1:8080", "kaonicd RPC address")
	fs.StringVar(&mode, "mode", "sender", "sender or receiver")
	fs.Uint8Var(&module, "module", 0, "module index to exercise")
	fs.Uint32Var(&freqKHz, "freq", 869_535, "center frequency in kHz")
	fs.DurationVar(&interval, "interval", time.Second, "sender: time between transmits")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rpcapi.Codec{})),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx := context.Background()
	if err := configure(ctx, conn, module, freqKHz); err != nil {
		fmt.Fprintf(os.Stderr, "configure: %v\n", err)
		os.Exit(1)
	}

	switch mode {
	case "sender":
		runSender(ctx, conn, module, interval)
	case "receiver":
		runReceiver(ctx, conn, module)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want sender or receiver)\n", mode)
		os.Exit(1)
	}
}

func configure(ctx context.Context, conn *grpc.ClientConn, module uint8, freqKHz uint32) error {
	req := &rpcapi.ConfigureRequest{
		Module:         module,
		FreqKHz:        freqKHz,
		Channel:        0,
		ChannelSpacing: 200,
		TXPower:        10,
		PHY: rf215.PHYConfig{
			Kind: rf215.PHYOFDM,
			OFDM: rf215.OFDMConfig{MCS: 6, Opt: 0},
		},
	}
	var resp rpcapi.ConfigureResponse
	return conn.Invoke(ctx, "/kaonic.RadioService/Configure", req, &resp)
}

func runSender(ctx context.Context, conn *grpc.ClientConn, module uint8, interval time.Duration) {
	counter := 0
	for {
		counter++
		msg := fmt.Sprintf("kaonic-bench %d", counter)
		req := &rpcapi.TransmitRequest{Module: module, Frame: []byte(msg)}
		var resp rpcapi.TransmitResponse
		tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := conn.Invoke(tctx, "/kaonic.RadioService/Transmit", req, &resp)
		cancel()
		if err != nil {
			fmt.Printf("transmit %q failed: %v\n", msg, err)
		} else {
			fmt.Printf("transmit %q ok\n", msg)
		}
		time.Sleep(interval)
	}
}

func runReceiver(ctx context.Context, conn *grpc.ClientConn, module uint8) {
	stream, err := conn.NewStream(ctx, &grpc.StreamDesc{StreamName: "ReceiveStream", ServerStreams: true},
		"/kaonic.RadioService/ReceiveStream")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open receive stream: %v\n", err)
		os.Exit(1)
	}
	if err := stream.SendMsg(&rpcapi.ReceiveStreamRequest{Module: module}); err != nil {
		fmt.Fprintf(os.Stderr, "send receive request: %v\n", err)
		os.Exit(1)
	}
	if err := stream.CloseSend(); err != nil {
		fmt.Fprintf(os.Stderr, "close send: %v\n", err)
		os.Exit(1)
	}

	for {
		resp := new(rpcapi.ReceiveResponse)
		if err := stream.RecvMsg(resp); err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "receive stream: %v\n", err)
			return
		}
		fmt.Printf("received module=%d frame=%q\n", resp.Module, resp.Frame)
	}
}
