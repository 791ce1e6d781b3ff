package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeydtaylor/makewaves/pkg/builder"
	"nhooyr.io/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "snapshot websocket URL")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("[signal] shutting down...")
		cancel()
	}()

	conn, _, err := websocket.Dial(ctx, *url, nil)
	if err != nil {
		fmt.Printf("dial error: %v\n", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	last := ""
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				fmt.Printf("read error: %v\n", err)
			}
			return
		}
		var snap builder.StreamSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			fmt.Printf("decode error: %v\n", err)
			continue
		}
		if snap.State != last {
			fmt.Printf("[%s] %s on %s\n", snap.RunID, snap.State, snap.Channel)
			last = snap.State
		}
		peak := 0.0
		for _, v := range snap.Chunk {
			if v > peak {
				peak = v
			} else if -v > peak {
				peak = -v
			}
		}
		fmt.Printf("  iter=%d chunk=%d late=%d peak=%.3f m\n",
			snap.Iterations, snap.ChunkIndex, snap.TimingViolations, peak)
	}
}
