package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/atomic"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/admin"
	"github.com/goobie-bot/goobie/eviction"
	"github.com/goobie-bot/goobie/expiration"
	"github.com/goobie-bot/goobie/keys"
)

const demoCategory = "demo"

func newDemoCmd() *cobra.Command {
	var (
		ttl      time.Duration
		capacity int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through cache behavior against a fake upstream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			return runDemo(cmd.Context(), app, ttl, capacity)
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Second, "TTL of the demo category")
	cmd.Flags().IntVar(&capacity, "capacity", 20, "Max entries before eviction")
	return cmd
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n==================== %s ====================\n", title)
}

func runDemo(ctx context.Context, app *App, ttl time.Duration, capacity int) error {
	w := app.Out
	section(w, "SYSTEM BOOT")
	fmt.Fprintf(w, "EVICTION POLICY : %s\n", eviction.LRU)
	fmt.Fprintf(w, "CAPACITY        : %d keys\n", capacity)
	fmt.Fprintf(w, "DEMO TTL        : %s\n", ttl)

	m := cache.NewManager(
		cache.WithTTLTable(expiration.DefaultTable().With(map[string]time.Duration{demoCategory: ttl})),
		cache.WithMaxEntries(capacity),
		cache.WithEvictionPolicy(eviction.LRU),
		cache.WithLogger(app.Log),
	)

	calls := atomic.NewInt64(0)
	upstream := func(ctx context.Context, team string) (string, error) {
		calls.Inc()
		time.Sleep(20 * time.Millisecond)
		return "logo-for-" + team, nil
	}
	logo := cache.Wrap(m, demoCategory, keys.TeamLogosByName, upstream, cache.WithSingleFlight())

	section(w, "1) CACHE MISS")
	v, _ := logo(ctx, "LA Galaxy")
	fmt.Fprintf(w, "FETCH  → %s (upstream calls: %d)\n", v, calls.Load())

	section(w, "2) CACHE HIT")
	v, _ = logo(ctx, "la galaxy")
	fmt.Fprintf(w, "FETCH  → %s (upstream calls: %d)\n", v, calls.Load())

	section(w, "3) TTL EXPIRATION")
	time.Sleep(ttl + ttl/10)
	_, ok := m.Get(keys.TeamLogosByName("LA Galaxy"))
	fmt.Fprintf(w, "CACHE  → GET after TTL found=%v\n", ok)

	section(w, "4) SINGLEFLIGHT")
	before := calls.Load()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = logo(ctx, "Los Angeles Kings")
		}()
	}
	wg.Wait()
	fmt.Fprintf(w, "5 concurrent fetches → %d upstream calls\n", calls.Load()-before)

	section(w, "5) EVICTION")
	for i := 0; i < capacity*2; i++ {
		m.Set(fmt.Sprintf("k%d", i), i, expiration.Default)
	}
	fmt.Fprintf(w, "CACHE  → %d entries after %d sets\n", m.Len(), capacity*2)

	section(w, "6) CLEAR BY CATEGORY")
	m.Set(keys.GameData("galaxy", "soccer", "20250301", "20250315"), "schedule", expiration.GameData)
	fmt.Fprintf(w, "CACHE  → cleared %d game_data entries\n", m.Clear(expiration.GameData))

	section(w, "7) DELETE")
	fmt.Fprintf(w, "CACHE  → delete k%d removed=%v\n", capacity*2-1, m.Delete(fmt.Sprintf("k%d", capacity*2-1)))

	section(w, "STATS")
	_, err := fmt.Fprint(w, admin.StatsReport(m.Stats(), nil).Text())
	return err
}
