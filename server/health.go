package server

import (
	"math"
	"runtime"
	"time"
)

var start = time.Now()

const mb = 1024 * 1024

// HealthStats runtime stats of the /health endpoint
type HealthStats struct {
	Uptime          int64   `json:"uptime"`
	Goroutines      int     `json:"goroutines"`
	NumCPU          int     `json:"num_cpu"`
	GCCycles        uint32  `json:"gc_cycles"`
	AllocatedMB     float64 `json:"allocated_mb"`
	TotalAllocMB    float64 `json:"total_alloc_mb"`
	HeapSysMB       float64 `json:"heap_sys_mb"`
	HeapAllocatedMB float64 `json:"heap_allocated_mb"`
	SysMB           float64 `json:"sys_mb"`
	ObjectsInUse    uint64  `json:"objects_in_use"`
}

// GetHealthStats snapshot of the runtime memory stats
func GetHealthStats() *HealthStats {
	mem := &runtime.MemStats{}
	runtime.ReadMemStats(mem)
	return &HealthStats{
		Uptime:          GetUptime(),
		Goroutines:      runtime.NumGoroutine(),
		NumCPU:          runtime.NumCPU(),
		GCCycles:        mem.NumGC,
		AllocatedMB:     toMB(mem.Alloc),
		TotalAllocMB:    toMB(mem.TotalAlloc),
		HeapSysMB:       toMB(mem.HeapSys),
		HeapAllocatedMB: toMB(mem.HeapAlloc),
		SysMB:           toMB(mem.Sys),
		ObjectsInUse:    mem.Mallocs - mem.Frees,
	}
}

// GetUptime seconds since process start
func GetUptime() int64 {
	return int64(time.Since(start).Seconds())
}

func toMB(bytes uint64) float64 {
	return math.Round(float64(bytes)/mb*100) / 100
}
