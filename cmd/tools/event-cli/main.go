package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/annel0/worldsim/internal/auth"
	"github.com/annel0/worldsim/internal/eventbus"
)

const timeFormat = "2006-01-02T15:04:05Z"

func main() {
	var (
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
		stream     = flag.String("stream", "WORLDSIM", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, hash, secret")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Source (world name) filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 — until interrupted)")
		password   = flag.String("password", "", "Password for the hash command")
		durable    = flag.String("durable", "", "Durable consumer name to resume from the last acked event")
		fromStart  = flag.Bool("all", false, "Replay the stream from the beginning")
	)
	flag.Parse()

	switch *command {
	case "tail":
		filter := eventbus.Filter{Types: parseStringList(*eventTypes), Sources: parseStringList(*sources)}
		opts := []eventbus.JetStreamOption{eventbus.WithClientName("event-cli")}
		if *durable != "" {
			opts = append(opts, eventbus.WithDurable(*durable))
		}
		if *fromStart {
			opts = append(opts, eventbus.WithDeliverAll())
		}
		if err := tailEvents(*natsURL, *stream, filter, *limit, opts...); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "hash":
		// bcrypt-хеш для admin.operators[].password_hash
		if *password == "" {
			log.Fatal("❌ -password is required")
		}
		hash, err := auth.HashPassword(*password)
		if err != nil {
			log.Fatalf("❌ Hash failed: %v", err)
		}
		fmt.Println(hash)

	case "secret":
		secret, err := auth.GenerateSecret()
		if err != nil {
			log.Fatalf("❌ Secret failed: %v", err)
		}
		fmt.Println(secret)

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(1)
	}
}

// tailEvents печатает доменные события мира из JetStream до прерывания или limit
func tailEvents(url, stream string, filter eventbus.Filter, limit int, opts ...eventbus.JetStreamOption) error {
	// срок хранения стрима задаёт сервер
	bus, err := eventbus.NewJetStreamBus(url, stream, 0, opts...)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("🎬 Tailing %s on %s (types: %v)\n", stream, url, filter.Types)
	count := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n📊 Total events: %d\n", count)
			return nil
		case ev := <-events:
			printEvent(ev)
			count++
			if limit > 0 && count >= limit {
				fmt.Printf("\n📊 Total events: %d\n", count)
				return nil
			}
		}
	}
}

func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s/%s %s\n", ev.Timestamp.Format(timeFormat), ev.Tenant, ev.EventType, ev.ID)

	switch ev.EventType {
	case eventbus.TypePlayerLogin, eventbus.TypePlayerLogout:
		var p eventbus.PlayerSession
		if err := ev.Decode(&p); err == nil {
			fmt.Printf("  Player: %s at (%d,%d,%d) %s\n", p.Name, p.X, p.Y, p.Z, p.Reason)
		}
	case eventbus.TypeCreatureDeath:
		var d eventbus.CreatureDeath
		if err := ev.Decode(&d); err == nil {
			fmt.Printf("  %s %s died at (%d,%d,%d), experience: %v\n", d.Kind, d.Name, d.X, d.Y, d.Z, d.Experience)
		}
	case eventbus.TypeBroadcast:
		var b eventbus.Broadcast
		if err := ev.Decode(&b); err == nil {
			fmt.Printf("  %s: %s\n", b.Author, b.Text)
		}
	default:
		var raw json.RawMessage = ev.Payload
		fmt.Printf("  %s\n", raw)
	}
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
