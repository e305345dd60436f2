//go:build soak

package checker

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var soakEdits = []string{
	"brand new xyz line",
	"we said good night",
	"",
	"as well as the cat.",
	"rare odd qq things",
}

func TestSoakIncrementalEdits(t *testing.T) {
	iterations := []int{100, 500, 1000}
	for _, n := range iterations {
		t.Run(fmt.Sprintf("iterations_%d", n), func(t *testing.T) {
			runSoak(t, n)
		})
	}
}

func TestSoakConcurrentEngines(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 400},
		{workers: 4, iterationsPerWorker: 100},
	}
	lex := lexicon.NewCached(testLexicon(lexicon.FoldCase), 0, 0)
	for _, cfg := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", cfg.workers, cfg.iterationsPerWorker), func(t *testing.T) {
			baseline := runtime.NumGoroutine()
			var wg sync.WaitGroup
			for w := 0; w < cfg.workers; w++ {
				wg.Add(1)
				go func(seed int) {
					defer wg.Done()
					lines := bigDoc(600)
					host := newHost(strings.Join(lines, "\n"))
					eng := New(lex, host)
					for i := 0; i < cfg.iterationsPerWorker; i++ {
						lines[(i*7+seed)%len(lines)] = soakEdits[i%len(soakEdits)]
						host.text = strings.Join(lines, "\n")
						if _, err := eng.Analyze(); err != nil {
							t.Errorf("worker %d: %v", seed, err)
							return
						}
					}
				}(w)
			}
			wg.Wait()
			runtime.GC()
			if delta := runtime.NumGoroutine() - baseline; delta > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", delta)
			}
		})
	}
}

func runSoak(t *testing.T, iterations int) {
	lines := bigDoc(800)
	host := newHost(strings.Join(lines, "\n"))
	eng := New(testLexicon(lexicon.StrictCase), host)
	if _, err := eng.Analyze(); err != nil {
		t.Fatalf("initial analysis failed: %v", err)
	}

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)

	for i := 0; i < iterations; i++ {
		lines[(i*13)%len(lines)] = soakEdits[i%len(soakEdits)]
		host.text = strings.Join(lines, "\n")
		if _, err := eng.Analyze(); err != nil {
			t.Fatalf("analysis %d failed: %v", i, err)
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)

	memDelta := int64(final.HeapAlloc) - int64(baseline.HeapAlloc)
	stats := eng.Stats()
	t.Logf("iterations=%d incremental=%d full=%d fallback=%d heap_delta=%d bytes",
		iterations, stats.Incremental, stats.Full, stats.Fallback, memDelta)

	if stats.Fallback > 0 {
		t.Errorf("unexpected fallbacks: %d", stats.Fallback)
	}
	if memDelta > 8<<20 {
		t.Errorf("retained heap grew by %d bytes", memDelta)
	}
}
