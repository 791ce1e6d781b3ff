package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/builder"
)

func main() {
	var (
		height     = flag.Float64("height", 0.1, "wave height, m")
		period     = flag.Float64("period", 1.0, "wave period, s")
		wavelength = flag.Float64("wavelength", 0, "wavelength, m (overrides -period when > 0)")
		duration   = flag.Duration("for", 10*time.Second, "how long to make waves")
	)
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	cfg := builder.LoadConfig()
	logger := builder.NewLogger(builder.LoggerWithLevel(cfg.LogLevel), builder.LoggerWithDevelopment(true))

	tank, err := builder.NewTank(ctx, cfg, builder.NewSimulatedDevice(), logger)
	if err != nil {
		fmt.Printf("tank setup error: %v\n", err)
		return
	}

	spec := builder.NewRegularSpec(*height, *period)
	if *wavelength > 0 {
		if spec, err = tank.Synth.RegularFromWavelength(*height, *wavelength); err != nil {
			fmt.Printf("wavelength error: %v\n", err)
			return
		}
	}
	fmt.Printf("Max height at T=%.3f s: %.3f m\n", spec.Regular.Period, tank.Table.MaxHeight(spec.Regular.Period))

	syn, err := tank.Make(ctx, spec)
	if err != nil {
		fmt.Printf("make error: %v\n", err)
		return
	}
	if syn.Clamp != nil && syn.Clamp.Clamped {
		fmt.Printf("Height reduced from %.3f m to %.3f m\n", syn.Clamp.Requested, syn.Clamp.Applied)
	}
	fmt.Printf("Streaming on %s at %.1f Hz, peak stroke %.3f m\n", tank.Scheduler.Channel(), syn.SampleRate(), syn.PeakStroke)

	select {
	case <-sig:
		fmt.Println("[signal] ramping down...")
	case <-time.After(*duration):
	}

	stopCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := tank.Close(stopCtx); err != nil {
		fmt.Printf("stop error: %v\n", err)
	}

	counts := tank.Scheduler.Meter().Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-24s %d\n", name, counts[name])
	}
}
