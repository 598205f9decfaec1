// Command routio-watch subscribes to a named channel and prints every
// message it receives, the headless branch of the original videoclient
// sample (src/apps/videoclient.cpp) generalized from one hardcoded "camera"
// tensor channel to any named, typed channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lukacu/routio/client"
	"github.com/lukacu/routio/routioconfig"
	"github.com/lukacu/routio/wire"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		address    string
		channel    string
		typeID     string
		configPath string
		loopback   bool
	)
	flag.StringVar(&address, "address", "/tmp/routio.sock", "router socket path or host:port")
	flag.StringVar(&channel, "channel", "", "channel name to subscribe to")
	flag.StringVar(&typeID, "type", wire.TypeDictionary, "declared type identifier")
	flag.StringVar(&configPath, "config", "", "optional JSON file of client tuning knobs")
	flag.BoolVar(&loopback, "loopback", false, "receive messages published by this client itself")
	flag.Parse()

	if channel == "" {
		fmt.Fprintln(os.Stderr, "usage: routio-watch -channel <name> [-address <socket>] [-type <type-id>]")
		return 1
	}

	cfg := routioconfig.Default()
	if configPath != "" {
		loaded, err := routioconfig.LoadFile(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = loaded
	}
	if cfg.Network == "unix" && address == "" {
		address = "/tmp/routio.sock"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.ConnectWithRetry(ctx, address, "routio-watch", cfg.ClientOptions(), cfg.RetryConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		return 1
	}
	defer c.Close()

	number, err := c.Declare(ctx, channel, typeID, client.RoleSubscriber, loopback)
	if err != nil {
		fmt.Fprintln(os.Stderr, "declare:", err)
		return 1
	}

	c.Subscribe(number, func(payload []byte) {
		printPayload(channel, typeID, payload)
	})

	slog.Info("routio-watch subscribed", "channel", channel, "type", typeID, "number", number)
	<-ctx.Done()
	return 0
}

// printPayload decodes payload through the shared registry when its type
// is known, and otherwise falls back to reporting its size — the same
// headless fallback videoclient.cpp uses when there is no display to draw
// the frame onto.
func printPayload(channel, typeID string, payload []byte) {
	now := time.Now().Format(time.RFC3339)
	if wire.Default.Has(typeID) {
		value, err := wire.Default.Unmarshal(typeID, payload)
		if err == nil {
			fmt.Printf("[%s] %s: %+v\n", now, channel, value)
			return
		}
	}
	fmt.Printf("[%s] %s: %d bytes\n", now, channel, len(payload))
}
