package sysinfo

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrNoMetrics is returned by Refresh when no probe succeeded.
var ErrNoMetrics = errors.New("no host metrics could be collected")

type Snapshot struct {
	TS int64 `json:"ts"`

	Host HostInfo `json:"host"`
	CPU  CPUInfo  `json:"cpu"`
	Load LoadInfo `json:"load"`
	Mem  MemInfo  `json:"mem"`
	Swap MemInfo  `json:"swap"`
	Disk DiskInfo `json:"disk"`

	Errors []string `json:"errors,omitempty"`
}

type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelVersion   string `json:"kernel_version,omitempty"`
	Arch            string `json:"arch"`
	Virtualization  string `json:"virtualization,omitempty"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
	BootTime        uint64 `json:"boot_time"`
	Procs           uint64 `json:"procs"`
}

type CPUInfo struct {
	Model        string    `json:"model,omitempty"`
	LogicalCores int       `json:"logical_cores"`
	Percent      []float64 `json:"percent,omitempty"`
}

type LoadInfo struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

type MemInfo struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	AvailableMB uint64  `json:"available_mb,omitempty"`
	UsedPercent float64 `json:"used_percent"`
}

type DiskInfo struct {
	Path        string  `json:"path"`
	TotalGB     float64 `json:"total_gb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// Provider refreshes host metrics and exposes the last collected snapshot.
type Provider interface {
	Refresh(ctx context.Context) error
	Snapshot() Snapshot
}

// Collector gathers host metrics through gopsutil. Individual probe failures
// are recorded in Snapshot.Errors; Refresh only fails when nothing could be
// read at all.
type Collector struct {
	mu   sync.Mutex
	last Snapshot

	diskPath string
	now      func() time.Time
}

func NewCollector(diskPath string) *Collector {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Collector{diskPath: diskPath, now: time.Now}
}

func (c *Collector) Refresh(ctx context.Context) error {
	snap := Snapshot{TS: c.now().Unix()}
	ok := 0

	if hi, err := host.InfoWithContext(ctx); err != nil {
		snap.Errors = append(snap.Errors, "host: "+err.Error())
		snap.Host.OS = runtime.GOOS
		snap.Host.Arch = runtime.GOARCH
	} else {
		ok++
		snap.Host = HostInfo{
			Hostname:        hi.Hostname,
			OS:              hi.OS,
			Platform:        hi.Platform,
			PlatformVersion: hi.PlatformVersion,
			KernelVersion:   hi.KernelVersion,
			Arch:            hi.KernelArch,
			Virtualization:  hi.VirtualizationSystem,
			UptimeSeconds:   hi.Uptime,
			BootTime:        hi.BootTime,
			Procs:           hi.Procs,
		}
	}

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		snap.Errors = append(snap.Errors, "cpu counts: "+err.Error())
		snap.CPU.LogicalCores = runtime.NumCPU()
	} else {
		ok++
		snap.CPU.LogicalCores = n
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		snap.CPU.Model = infos[0].ModelName
	}
	// Zero interval compares against the previous call; the first one is
	// measured since boot.
	if pct, err := cpu.PercentWithContext(ctx, 0, true); err != nil {
		snap.Errors = append(snap.Errors, "cpu percent: "+err.Error())
	} else {
		ok++
		snap.CPU.Percent = pct
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		snap.Errors = append(snap.Errors, "load: "+err.Error())
	} else {
		ok++
		snap.Load = LoadInfo{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		snap.Errors = append(snap.Errors, "mem: "+err.Error())
	} else {
		ok++
		snap.Mem = MemInfo{
			TotalMB:     vm.Total / mb,
			UsedMB:      vm.Used / mb,
			AvailableMB: vm.Available / mb,
			UsedPercent: vm.UsedPercent,
		}
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		snap.Swap = MemInfo{
			TotalMB:     sw.Total / mb,
			UsedMB:      sw.Used / mb,
			UsedPercent: sw.UsedPercent,
		}
	}

	if du, err := disk.UsageWithContext(ctx, c.diskPath); err != nil {
		snap.Errors = append(snap.Errors, "disk: "+err.Error())
	} else {
		ok++
		snap.Disk = DiskInfo{
			Path:        c.diskPath,
			TotalGB:     float64(du.Total) / gb,
			FreeGB:      float64(du.Free) / gb,
			UsedPercent: du.UsedPercent,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ok == 0 {
		// keep the previous snapshot; a partial first one is better than none
		if c.last.TS == 0 {
			c.last = snap
		}
		return ErrNoMetrics
	}
	c.last = snap
	return nil
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.clone()
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.CPU.Percent != nil {
		out.CPU.Percent = append([]float64(nil), s.CPU.Percent...)
	}
	if s.Errors != nil {
		out.Errors = append([]string(nil), s.Errors...)
	}
	return out
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot { return s.clone() }

const (
	mb = 1024 * 1024
	gb = 1024.0 * 1024.0 * 1024.0
)
