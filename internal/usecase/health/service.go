package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents uint64
}

// Service coordinates health checks.
type Service struct {
	db    DBPinger
	index IndexProbe
}

// New creates a Service. db can be nil when no entity store is configured.
func New(db DBPinger, index IndexProbe) *Service {
	return &Service{db: db, index: index}
}

// Check runs health checks against all components. The index failing makes
// the report unhealthy since no search can be served; a failing entity store
// only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
			status = Degraded
		} else {
			checks["database"] = CheckOK
		}
	}

	var docs uint64
	n, err := s.index.DocCount()
	if err != nil {
		checks["index"] = CheckError
		status = Unhealthy
	} else {
		checks["index"] = CheckOK
		docs = n
	}

	return Report{Status: status, Checks: checks, Documents: docs}
}
