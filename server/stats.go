package server

import (
	"math"
	"sync"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
)

// assumedMaxLinkMbps maps throughput onto the 0-100 net gauge. Adjust if
// the host link is faster or slower.
const assumedMaxLinkMbps = 300.0

// netSampleCount is the moving-average window for the net gauge.
const netSampleCount = 5

// statsSampler reads host gauges. Every reading degrades to zero instead
// of failing, since /stats must always answer.
type statsSampler struct {
	mu           sync.Mutex
	prevNetBytes uint64
	prevTime     time.Time
	recentMbps   []float64
}

func (s *statsSampler) cpuPercent() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0
	}
	return percents[0]
}

func (s *statsSampler) memPercent() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.UsedPercent
}

// netGauge returns smoothed recent throughput as a percentage of the
// assumed link capacity, clamped to 0-100. The first call only primes
// the counters.
func (s *statsSampler) netGauge() float64 {
	counters, err := gopsnet.IOCounters(false)
	if err != nil || len(counters) == 0 {
		return 0
	}
	total := counters[0].BytesSent + counters[0].BytesRecv
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prevTime.IsZero() {
		s.prevNetBytes, s.prevTime = total, now
		return 0
	}

	dt := now.Sub(s.prevTime).Seconds()
	if dt <= 0 {
		dt = 1e-6
	}
	var deltaBytes uint64
	if total > s.prevNetBytes {
		deltaBytes = total - s.prevNetBytes
	}
	s.prevNetBytes, s.prevTime = total, now

	mbps := float64(deltaBytes) * 8 / dt / 1e6
	s.recentMbps = append(s.recentMbps, mbps)
	if len(s.recentMbps) > netSampleCount {
		s.recentMbps = s.recentMbps[len(s.recentMbps)-netSampleCount:]
	}

	var sum float64
	for _, v := range s.recentMbps {
		sum += v
	}
	smoothed := sum / float64(len(s.recentMbps))
	pct := clamp(smoothed / assumedMaxLinkMbps * 100)
	return math.Round(pct*100) / 100
}

func (s *statsSampler) batteryPercent() float64 {
	batteries, err := battery.GetAll()
	if err != nil || len(batteries) == 0 {
		return 0
	}
	b := batteries[0]
	if b.Full == 0 {
		return 0
	}
	return clamp(b.Current / b.Full * 100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
