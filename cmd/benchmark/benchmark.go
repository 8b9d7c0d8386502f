// Command benchmark drives a Manager from many goroutines and reports throughput.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/admin"
	"github.com/goobie-bot/goobie/eviction"
	"github.com/goobie-bot/goobie/expiration"
)

type options struct {
	capacity    int
	preloadKeys int
	goroutines  int
	opsPerG     int
	writeEvery  int
	policy      string
}

var categories = []string{
	expiration.GameData,
	expiration.TeamLogos,
	expiration.VenueData,
	expiration.TeamMetadata,
	expiration.TeamNames,
}

func main() {
	var o options
	cmd := &cobra.Command{
		Use:          "benchmark",
		Short:        "Load-test the cache manager",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().IntVar(&o.capacity, "capacity", 200000, "Max entries (0 = unbounded)")
	cmd.Flags().IntVar(&o.preloadKeys, "preload", 100000, "Keys written before the run")
	cmd.Flags().IntVar(&o.goroutines, "goroutines", 200, "Concurrent workers")
	cmd.Flags().IntVar(&o.opsPerG, "ops", 5000, "Operations per worker")
	cmd.Flags().IntVar(&o.writeEvery, "write-every", 10, "Every Nth operation is a Set (0 = reads only)")
	cmd.Flags().StringVar(&o.policy, "policy", string(eviction.LRU), "Eviction policy: none, lru, lfu, fifo")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, o options) error {
	policy, err := eviction.ParsePolicyType(o.policy)
	if err != nil {
		return err
	}
	if o.preloadKeys <= 0 {
		return fmt.Errorf("--preload must be positive")
	}

	fmt.Fprintln(w, "\n================ CACHE LOAD BENCHMARK =================")
	fmt.Fprintln(w, "CONFIG")
	fmt.Fprintln(w, "---------------------------------")
	fmt.Fprintln(w, "Policy       :", policy)
	fmt.Fprintln(w, "Capacity     :", o.capacity)
	fmt.Fprintln(w, "Preload Keys :", o.preloadKeys)
	fmt.Fprintln(w, "Goroutines   :", o.goroutines)
	fmt.Fprintln(w, "Ops/Goroutine:", o.opsPerG)
	fmt.Fprintln(w, "Write Every  :", o.writeEvery)
	fmt.Fprintln(w, "---------------------------------")

	c := cache.NewManager(
		cache.WithMaxEntries(o.capacity),
		cache.WithEvictionPolicy(policy),
		cache.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	fmt.Fprintln(w, "Preloading cache...")
	for i := 0; i < o.preloadKeys; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, categories[i%len(categories)])
	}

	fmt.Fprintln(w, "Warming up cache...")
	for i := 0; i < 10000; i++ {
		c.Get(fmt.Sprintf("key-%d", i%o.preloadKeys))
	}

	fmt.Fprintln(w, "Running concurrency benchmark...")
	start := time.Now()

	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < o.goroutines; i++ {
		id := i
		g.Go(func() error {
			for j := 0; j < o.opsPerG; j++ {
				n := (id*o.opsPerG + j) % o.preloadKeys
				key := fmt.Sprintf("key-%d", n)
				if o.writeEvery > 0 && j%o.writeEvery == 0 {
					c.Set(key, j, categories[n%len(categories)])
					continue
				}
				c.Get(key)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	duration := time.Since(start)
	totalOps := o.goroutines * o.opsPerG

	fmt.Fprintln(w, "\n================ RESULTS =================")
	fmt.Fprintf(w, "Total Operations : %d\n", totalOps)
	fmt.Fprintf(w, "Total Time       : %v\n", duration)
	fmt.Fprintf(w, "Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Fprintln(w, "=========================================")
	_, err = fmt.Fprint(w, admin.StatsReport(c.Stats(), nil).Text())
	return err
}
