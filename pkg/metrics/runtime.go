package metrics

import (
	"runtime"
	"time"
)

// CollectRuntime starts a background sampler that exports Go runtime stats
// as gauges under the given metric prefix.
func (r *Registry) CollectRuntime(prefix string, interval time.Duration) {
	goroutines := r.Gauge(prefix+"_goroutines", "Number of goroutines")
	heapInuse := r.Gauge(prefix+"_heap_inuse_bytes", "Heap bytes in use")
	gcRuns := r.Gauge(prefix+"_gc_cycles_total", "Completed GC cycles")

	go func() {
		var m runtime.MemStats
		for {
			runtime.ReadMemStats(&m)
			goroutines.Set(int64(runtime.NumGoroutine()))
			heapInuse.Set(int64(m.HeapInuse))
			gcRuns.Set(int64(m.NumGC))
			time.Sleep(interval)
		}
	}()
}
