// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command hpq-demo exercises the queue structures under configurable
// load and prints a small throughput report.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/hpq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hpq-demo",
		Short: "Hierarchical priority queue demos",
		Long:  "hpq-demo runs small workloads against the hpq structures and reports throughput.",
	}

	rootCmd.AddCommand(pipelineCmd())
	rootCmd.AddCommand(delayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run a multi-producer multi-consumer pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			producers, _ := cmd.Flags().GetInt("producers")
			consumers, _ := cmd.Flags().GetInt("consumers")
			items, _ := cmd.Flags().GetInt("items")
			threshold, _ := cmd.Flags().GetInt("threshold")
			maxSteal, _ := cmd.Flags().GetInt("max-steal")
			waitMs, _ := cmd.Flags().GetInt("wait-ms")

			if producers < 1 || consumers < 1 || items < 1 {
				return fmt.Errorf("producers, consumers and items must be positive")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runPipeline(ctx, pipelineConfig{
				producers: producers,
				consumers: consumers,
				items:     items,
				threshold: threshold,
				maxSteal:  maxSteal,
				wait:      time.Duration(waitMs) * time.Millisecond,
			})
		},
	}

	cmd.Flags().Int("producers", 4, "number of producer goroutines")
	cmd.Flags().Int("consumers", 4, "number of consumer goroutines")
	cmd.Flags().Int("items", 100_000, "items pushed per producer")
	cmd.Flags().Int("threshold", hpq.DefaultLocalThreshold, "local queue merge threshold")
	cmd.Flags().Int("max-steal", hpq.DefaultMaxSteal, "max elements moved per steal")
	cmd.Flags().Int("wait-ms", 100, "blocking pop wait cycle in milliseconds")
	return cmd
}

type pipelineConfig struct {
	producers int
	consumers int
	items     int
	threshold int
	maxSteal  int
	wait      time.Duration
}

func runPipeline(ctx context.Context, cfg pipelineConfig) error {
	q := hpq.Build[int](hpq.New().
		LocalThreshold(cfg.threshold).
		MaxSteal(cfg.maxSteal).
		WaitTimeout(cfg.wait))

	total := cfg.producers * cfg.items
	var consumed atomix.Int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()

	var wg sync.WaitGroup
	for p := range cfg.producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := q.Attach()
			defer w.Close()
			for i := range cfg.items {
				w.Push(id*cfg.items + i)
			}
		}(p)
	}

	for range cfg.consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := q.Attach()
			defer w.Close()
			for {
				if _, err := w.Pop(ctx); err != nil {
					return
				}
				if consumed.Add(1) == int64(total) {
					cancel()
					return
				}
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	n := consumed.Load()
	fmt.Printf("pipeline: %d/%d items through %dP/%dC in %v (%.0f items/s)\n",
		n, total, cfg.producers, cfg.consumers, elapsed.Round(time.Millisecond),
		float64(n)/elapsed.Seconds())
	if n != int64(total) {
		return fmt.Errorf("interrupted with %d items outstanding", int64(total)-n)
	}
	return nil
}

func delayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delay",
		Short: "Run a deadline-ordered delivery demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, _ := cmd.Flags().GetInt("items")
			spreadMs, _ := cmd.Flags().GetInt("spread-ms")
			if items < 1 || spreadMs < 1 {
				return fmt.Errorf("items and spread-ms must be positive")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runDelay(ctx, items, time.Duration(spreadMs)*time.Millisecond)
		},
	}

	cmd.Flags().Int("items", 10, "number of delayed items")
	cmd.Flags().Int("spread-ms", 500, "deadlines are spread uniformly over this window")
	return cmd
}

func runDelay(ctx context.Context, items int, spread time.Duration) error {
	q := hpq.NewDelay[int]()

	for i := range items {
		q.Push(i, time.Duration(rand.Int63n(int64(spread))))
	}

	start := time.Now()
	for range items {
		v, err := q.Pop(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("delay: item %d delivered at +%v\n", v, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
