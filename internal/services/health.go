package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"salesdash/pkg/contracts"
	"salesdash/pkg/contracts/domain"
)

// probeTimeout bounds a single readiness probe.
const probeTimeout = 2 * time.Second

// Health states reported by the probes and the aggregate reports.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// DatasetStatus is the part of DashboardService the health checks need.
type DatasetStatus interface {
	Ready() bool
	DatasetInfo(ctx context.Context) (*domain.DatasetInfo, error)
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// Probe is one named readiness check. It returns nil when the dependency
// is usable and a short human-readable note either way.
type Probe struct {
	Name  string
	Check func(ctx context.Context) (note string, err error)
}

// ProbeResult is the outcome of one probe.
type ProbeResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Elapsed string `json:"elapsed"`
}

// Report is the body of every health endpoint.
type Report struct {
	Status        string                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	Version       string                 `json:"version"`
	UptimeSeconds float64                `json:"uptime_seconds,omitempty"`
	Checks        map[string]ProbeResult `json:"checks,omitempty"`
}

// SystemStats is the body of /api/health/stats.
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	DatasetRows      int     `json:"dataset_rows"`
	DatasetVersion   string  `json:"dataset_version,omitempty"`
	WebSocketClients int     `json:"websocket_clients"`
	Goroutines       int     `json:"goroutines"`
	HeapAllocBytes   uint64  `json:"heap_alloc_bytes"`
	GoVersion        string  `json:"go_version"`
}

// HealthService answers liveness, readiness and build queries.
type HealthService struct {
	build   contracts.Build
	dataset DatasetStatus
	clients ClientCounter
	probes  []Probe
	started time.Time
	logger  *slog.Logger
}

// NewHealthService wires the standard probes: the dataset, the data
// directory and, when clients is non-nil, the websocket hub.
func NewHealthService(build contracts.Build, dataDir string, dataset DatasetStatus, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	hs := &HealthService{
		build:   build,
		dataset: dataset,
		clients: clients,
		started: time.Now(),
		logger:  logger.With(slog.String("component", "health_service")),
	}
	hs.AddProbe(Probe{Name: "dataset", Check: hs.probeDataset})
	hs.AddProbe(Probe{Name: "data_dir", Check: directoryProbe(dataDir)})
	if clients != nil {
		hs.AddProbe(Probe{Name: "websocket", Check: func(context.Context) (string, error) {
			return fmt.Sprintf("%d clients connected", clients.ClientCount()), nil
		}})
	}
	return hs
}

// AddProbe registers an extra readiness probe. Not safe once serving.
func (hs *HealthService) AddProbe(p Probe) {
	hs.probes = append(hs.probes, p)
}

func (hs *HealthService) report(status string) Report {
	return Report{Status: status, Timestamp: time.Now().UTC(), Version: hs.build.Version}
}

// HealthCheck is a cheap summary: ok once a dataset is loaded, degraded
// before that.
func (hs *HealthService) HealthCheck(ctx context.Context) Report {
	if hs.dataset.Ready() {
		return hs.report(StatusOK)
	}
	return hs.report(StatusDegraded)
}

// LivenessCheck reports that the process is serving.
func (hs *HealthService) LivenessCheck(ctx context.Context) Report {
	r := hs.report(StatusAlive)
	r.UptimeSeconds = time.Since(hs.started).Seconds()
	return r
}

// ReadinessCheck runs every probe concurrently. The service is ready only
// when all of them pass.
func (hs *HealthService) ReadinessCheck(ctx context.Context) Report {
	results := make(map[string]ProbeResult, len(hs.probes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range hs.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, probeTimeout)
			defer cancel()

			start := time.Now()
			note, err := p.Check(pctx)
			res := ProbeResult{Status: StatusReady, Message: note, Elapsed: time.Since(start).Round(time.Microsecond).String()}
			if err != nil {
				res.Status, res.Message = StatusNotReady, err.Error()
			}

			mu.Lock()
			results[p.Name] = res
			mu.Unlock()
			// Probe failures are reported, not propagated, so one failing
			// probe does not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	r := hs.report(StatusReady)
	r.Checks = results
	var failed []string
	for name, res := range results {
		if res.Status != StatusReady {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		r.Status = StatusNotReady
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("failed", failed))
	}
	return r
}

// Version describes the running build.
func (hs *HealthService) Version() contracts.Build {
	return hs.build
}

// SystemStats reports process and dataset counters.
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := SystemStats{
		UptimeSeconds:  time.Since(hs.started).Seconds(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		GoVersion:      runtime.Version(),
	}
	if info, err := hs.dataset.DatasetInfo(ctx); err == nil {
		stats.DatasetRows = info.Rows
		stats.DatasetVersion = info.Version
	}
	if hs.clients != nil {
		stats.WebSocketClients = hs.clients.ClientCount()
	}
	return stats
}

func (hs *HealthService) probeDataset(ctx context.Context) (string, error) {
	info, err := hs.dataset.DatasetInfo(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d rows, version %s, built %s ago",
		info.Rows, info.Version, time.Since(info.BuiltAt).Round(time.Second)), nil
}

// directoryProbe checks that dir exists and is a directory. An empty dir
// means none is configured, which passes.
func directoryProbe(dir string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		if dir == "" {
			return "not configured", nil
		}
		fi, err := os.Stat(dir)
		if err != nil {
			return "", err
		}
		if !fi.IsDir() {
			return "", fmt.Errorf("%s is not a directory", dir)
		}
		return dir, nil
	}
}
