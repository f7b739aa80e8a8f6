// Package health reports whether serve can answer: both stores reachable
// and a non-empty index generation live in memory.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the aggregate verdict.
type Status string

// Status values. Unhealthy means every component failed.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is one component's verdict.
type CheckResult string

// CheckResult values.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report.Checks keys.
const (
	CheckCatalog  = "catalog"
	CheckRegistry = "registry"
	CheckIndex    = "index"
)

// PingTimeout bounds each store ping.
const PingTimeout = 2 * time.Second

// Report is the outcome of one Check.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	Generation string // "" without a snapshot
	Vectors    int
}

// Service aggregates component checks.
type Service struct {
	pingers map[string]Pinger
	index   SnapshotSource
}

// New creates a Service. A nil registry is left out of the report.
func New(catalog, registry Pinger, index SnapshotSource) *Service {
	p := map[string]Pinger{CheckCatalog: catalog}
	if registry != nil {
		p[CheckRegistry] = registry
	}
	return &Service{pingers: p, index: index}
}

// Check pings the stores in parallel and inspects the live snapshot.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Checks: make(map[string]CheckResult, len(s.pingers)+1)}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range s.pingers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, PingTimeout)
			defer cancel()
			res := CheckOK
			if err := p.Ping(pctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			r.Checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	r.Checks[CheckIndex] = CheckError
	if snap := s.index.Current(); snap != nil && snap.Len() > 0 {
		r.Checks[CheckIndex] = CheckOK
		r.Generation = snap.Generation
		r.Vectors = snap.Len()
	}

	failed := 0
	for _, v := range r.Checks {
		if v == CheckError {
			failed++
		}
	}
	switch {
	case failed == 0:
		r.Status = Healthy
	case failed == len(r.Checks):
		r.Status = Unhealthy
	default:
		r.Status = Degraded
	}
	return r
}
