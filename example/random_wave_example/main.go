package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/builder"
)

func main() {
	var (
		waveType = flag.String("type", string(builder.JONSWAP), "Bretschneider, JONSWAP or Pierson-Moskowitz")
		hs       = flag.Float64("hs", 0.1, "significant height, m (ignored for Pierson-Moskowitz)")
		ts       = flag.Float64("ts", 1.5, "significant period, s (ignored for Pierson-Moskowitz)")
		wind     = flag.Float64("wind", 2.0, "wind speed, m/s (Pierson-Moskowitz)")
		scale    = flag.Float64("scale", 1.0, "model scale ratio")
		addr     = flag.String("addr", ":8080", "snapshot websocket address, empty to disable")
	)
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	cfg := builder.LoadConfig()
	if *addr != "" {
		cfg.SnapshotAddr = *addr
	}
	logger := builder.NewLogger(builder.LoggerWithLevel(cfg.LogLevel))

	tank, err := builder.NewTank(ctx, cfg, builder.NewSimulatedDevice(), logger)
	if err != nil {
		fmt.Printf("tank setup error: %v\n", err)
		return
	}

	spec, err := builder.DefaultSpec(builder.WaveType(*waveType))
	if err != nil {
		fmt.Printf("spec error: %v\n", err)
		return
	}
	switch spec.Type {
	case builder.Bretschneider:
		spec = builder.NewBretschneiderSpec(*hs, *ts, *scale)
	case builder.JONSWAP:
		spec.JONSWAP.SigHeight, spec.JONSWAP.SigPeriod, spec.JONSWAP.ScaleRatio = *hs, *ts, *scale
	case builder.PiersonMoskowitz:
		spec = builder.NewPiersonMoskowitzSpec(*wind, *scale)
	default:
		fmt.Println("use regular_wave_example for regular waves")
		return
	}

	syn, err := tank.Make(ctx, spec)
	if err != nil {
		fmt.Printf("make error: %v\n", err)
		return
	}
	fmt.Printf("%s: nominal H=%.3f m T=%.3f s, %d chunks looping every %s\n",
		spec.Type, syn.NominalHeight, syn.NominalPeriod, syn.ChunkCount(),
		time.Duration(syn.ChunkCount())*syn.IterationPeriod())

	go func() {
		if err := tank.Serve(ctx); err != nil && ctx.Err() == nil {
			fmt.Printf("snapshot server error: %v\n", err)
		}
	}()
	if cfg.SnapshotAddr != "" {
		fmt.Printf("Snapshots on ws://localhost%s/ws\n", cfg.SnapshotAddr)
	}

	<-sig
	fmt.Println("[signal] ramping down...")

	stopCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	go func() {
		for tank.Scheduler.IsStarted() {
			fmt.Printf("  %s\n", tank.Scheduler.State())
			time.Sleep(250 * time.Millisecond)
		}
	}()
	if err := tank.Close(stopCtx); err != nil {
		fmt.Printf("stop error: %v\n", err)
	}
	cancel()
	fmt.Printf("stopped after %d iterations, %d timing violations\n",
		tank.Scheduler.Iterations(), tank.Scheduler.TimingViolations())
}
