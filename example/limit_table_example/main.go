package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/builder"
)

func main() {
	var (
		path  = flag.String("out", "settings/limits.parquet", "limit table file")
		step  = flag.Float64("step", 0.001, "period step, s")
		force = flag.Bool("rebuild", false, "ignore any stored table")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := builder.LoadConfig()
	logger := builder.NewLogger(builder.LoggerWithLevel("debug"))

	solver := builder.NewSafetySolver(cfg.Safety)
	grid := builder.DefaultTableGrid()
	grid.Step = *step

	var store builder.LimitStore = builder.NewFileLimitStore(*path)
	if cfg.S3Bucket != "" {
		cli, err := builder.NewS3ClientDefault(ctx, cfg.S3Region, cfg.S3Endpoint, cfg.S3PathStyle)
		if err != nil {
			fmt.Printf("s3 client error: %v\n", err)
			return
		}
		store = builder.NewS3LimitStore(cli, cfg.S3Bucket, cfg.S3Key)
	}

	start := time.Now()
	var (
		table *builder.LimitTable
		err   error
	)
	if *force {
		if table, err = builder.BuildLimitTable(ctx, solver, grid); err == nil {
			err = store.Save(ctx, table)
		}
	} else {
		table, err = builder.LoadOrBuildLimitTable(ctx, store, solver, grid, logger)
	}
	if err != nil {
		fmt.Printf("limit table error: %v\n", err)
		return
	}
	fmt.Printf("%d rows ready in %s\n", table.Len(), time.Since(start).Round(time.Millisecond))

	minL, maxL := solver.WavelengthRange(0.65, 4.5)
	fmt.Printf("wavelength range for 0.65-4.5 s: %.3f-%.3f m\n", minL, maxL)
	for _, T := range []float64{0.5, 1.0, 1.5, 2.0, 3.0, 4.0, 5.0} {
		b := solver.Bounds(T)
		fmt.Printf("T=%.1f s  L=%6.3f m  Hmax=%.3f m  (stroke %.3f, steepness %.3f, depth %.3f)\n",
			T, builder.Wavelength(T, cfg.Safety.Depth, cfg.Safety.Precision), table.MaxHeight(T),
			b.Stroke, b.Steepness, b.Depth)
	}
}
