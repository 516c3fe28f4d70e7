// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the SNZI throughput benchmark harness.
//
// It is the Go rendition of the reference snzi_perf_eval_*.cpp programs: for
// each reference tree shape (K, H) and each thread count in a sweep, it
// spawns T goroutines that each loop Arrive/Depart/Query for a fixed
// wall-clock window and reports average per-thread throughput.
//
// # Usage
//
//	go run ./cmd/bench
//	go run ./cmd/bench -variant full -duration 10s -max-threads 64
//
// # Methodology
//
// Each worker goroutine is, in order:
//  1. Locked to its OS thread and pinned to a CPU core (best-effort; pinning
//     failures are logged and do not abort the run).
//  2. Run through one untimed batch of operations to leave the JIT/cache
//     warmup period, then signals a shared warmup barrier.
//  3. Blocked on that barrier until every other worker has also cleared
//     warmup, so the timed window starts from a synchronized point rather
//     than a staggered goroutine-start race.
//  4. Forced cold via a cache-wiping read larger than the configured
//     last-level-cache estimate.
//  5. Run for the timed window, counting completed operations (each
//     Arrive/Depart/Query triple counts as three).
//
// Output is tab-separated: one row per thread count, the thread count
// followed by one column per (K, H) configuration, each cell the average
// per-thread operation rate in ops/ms.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kianostad/snzi/internal/concurrency/affinity"
	"github.com/kianostad/snzi/internal/concurrency/epoch"
	"github.com/kianostad/snzi/internal/core"
)

// config is one reference tree shape from spec §6.
type config struct {
	K, H int
}

var referenceConfigs = []config{
	{K: 2, H: 0},
	{K: 2, H: 1},
	{K: 2, H: 2},
	{K: 4, H: 1},
}

func main() {
	variant := flag.String("variant", "semi", "contention variant to benchmark: no, semi, or full")
	duration := flag.Duration("duration", 5*time.Second, "timed measurement window per configuration")
	warmup := flag.Duration("warmup", 200*time.Millisecond, "untimed warmup batch duration per worker")
	maxThreads := flag.Int("max-threads", runtime.NumCPU(), "largest thread count in the sweep")
	llcBytes := flag.Int("llc-bytes", defaultLLCBytes, "last-level-cache size estimate in bytes, for the cache wiper")
	flag.Parse()

	v, err := parseVariant(*variant)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	threadCounts := threadSweep(*maxThreads)

	fmt.Printf("# variant=%s duration=%s warmup=%s llc-bytes=%d\n", *variant, *duration, *warmup, *llcBytes)
	header := "threads"
	for _, c := range referenceConfigs {
		header += fmt.Sprintf("\tK=%d,H=%d", c.K, c.H)
	}
	fmt.Println(header)

	for _, t := range threadCounts {
		row := fmt.Sprintf("%d", t)
		for _, c := range referenceConfigs {
			rate := runConfig(v, c, t, *duration, *warmup, *llcBytes)
			row += fmt.Sprintf("\t%.2f", rate)
		}
		fmt.Println(row)
	}
}

func parseVariant(s string) (core.Variant, error) {
	switch s {
	case "no":
		return core.NoContention, nil
	case "semi":
		return core.SemiContention, nil
	case "full":
		return core.FullContention, nil
	default:
		return 0, fmt.Errorf("unknown variant %q: want no, semi, or full", s)
	}
}

// threadSweep returns 1, 2, 4, 8, ... doubling up to and including max.
func threadSweep(max int) []int {
	var sweep []int
	for t := 1; t <= max; t *= 2 {
		sweep = append(sweep, t)
	}
	if len(sweep) == 0 || sweep[len(sweep)-1] != max {
		sweep = append(sweep, max)
	}
	return sweep
}

// runConfig benchmarks one (variant, config, threadCount) point and returns
// the average per-thread throughput in ops/ms.
func runConfig(variant core.Variant, c config, threadCount int, window, warmupDur time.Duration, llcBytes int) float64 {
	tree, err := core.NewTree(c.K, c.H, threadCount, variant)
	if err != nil {
		log.Fatalf("NewTree(%d,%d,%d): %v", c.K, c.H, threadCount, err)
	}

	barrier := epoch.NewManager()
	barrier.Add(threadCount)
	setter := affinity.New()

	var totalOps atomic.Uint64
	var wg sync.WaitGroup

	for tid := 0; tid < threadCount; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			if err := setter.Set(tid % runtime.NumCPU()); err != nil {
				fmt.Fprintf(os.Stderr, "affinity.Set(%d): %v\n", tid%runtime.NumCPU(), err)
			}

			cs := core.NewContentionStatus()
			doArrive := func() {
				if variant == core.FullContention {
					tree.ArriveFull(tid, cs)
					return
				}
				tree.Arrive(tid)
			}
			doDepart := func() {
				if variant == core.FullContention {
					tree.DepartFull(tid, cs)
					return
				}
				tree.Depart(tid)
			}

			warmupUntil := time.Now().Add(warmupDur)
			for time.Now().Before(warmupUntil) {
				doArrive()
				doDepart()
				tree.Query()
			}
			barrier.Done()
			barrier.Wait()

			wipeCache(llcBytes)

			ops := uint64(0)
			deadline := time.Now().Add(window)
			for time.Now().Before(deadline) {
				doArrive()
				doDepart()
				tree.Query()
				ops += 3
			}
			totalOps.Add(ops)
		}(tid)
	}

	wg.Wait()

	opsPerMS := float64(totalOps.Load()) / float64(window.Milliseconds())
	return opsPerMS / float64(threadCount)
}
