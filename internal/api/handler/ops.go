package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/provider/resilience"
)

// DegradedRoutingEstimates is reported while travel times come from the
// straight-line estimator because a routing provider is unhealthy.
const DegradedRoutingEstimates = "routing_estimates_only"

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// OpsConfig holds the dependencies of the operational endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string
	// Checks are probed by name for readiness and status.
	Checks   map[string]CheckFunc
	Registry *resilience.Registry
	// CheckTimeout bounds each probe. Defaults to 2s.
	CheckTimeout time.Duration
}

// OpsHandler serves /v1/ops.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 2 * time.Second
	}
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health. It never touches dependencies.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.now()),
		Version:   h.cfg.Version,
		BuildTime: h.cfg.BuildTime,
	})
}

// ReadinessCheck handles GET /v1/ops/ready and answers 503 while any
// subsystem check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{Status: models.HealthStatusOK, Time: models.Timestamp(h.now())}
	for _, c := range h.runChecks(r.Context()) {
		if c.Status != models.HealthStatusOK {
			health.Failing = append(health.Failing, c.Name)
		}
	}

	status := http.StatusOK
	if len(health.Failing) > 0 {
		health.Status = models.HealthStatusFail
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status. Failed subsystems fail the
// service; unhealthy providers only degrade it.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	out := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: h.runChecks(r.Context()),
		Providers:  h.providerStatus(),
	}

	for _, c := range out.Subsystems {
		if c.Status == models.HealthStatusFail {
			out.Status = models.HealthStatusFail
		}
	}
	for _, p := range out.Providers {
		if p.Status == models.HealthStatusOK {
			continue
		}
		out.Degradations = []string{DegradedRoutingEstimates}
		if out.Status == models.HealthStatusOK {
			out.Status = models.HealthStatusDegraded
		}
		break
	}

	response.JSON(w, r, http.StatusOK, out)
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.CheckResult {
	names := make([]string, 0, len(h.cfg.Checks))
	for name := range h.cfg.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]models.CheckResult, len(names))
	for i, name := range names {
		ctx, cancel := context.WithTimeout(ctx, h.cfg.CheckTimeout)
		start := h.now()
		err := h.cfg.Checks[name](ctx)
		cancel()

		results[i] = models.CheckResult{
			Name:    name,
			Status:  models.HealthStatusOK,
			Latency: h.now().Sub(start).Round(time.Microsecond).String(),
		}
		if err != nil {
			results[i].Status = models.HealthStatusFail
			results[i].Detail = err.Error()
		}
	}
	return results
}

func (h *OpsHandler) providerStatus() []models.ProviderStatus {
	out := []models.ProviderStatus{}
	if h.cfg.Registry == nil {
		return out
	}

	for _, p := range h.cfg.Registry.GetAllHealth() {
		ps := models.ProviderStatus{
			Provider:  p.Name,
			Status:    models.HealthStatusOK,
			Circuit:   p.CircuitState.String(),
			LastError: p.LastError,
		}
		if p.IsUnhealthy() {
			ps.Status = models.HealthStatusFail
		} else if p.IsDegraded() {
			ps.Status = models.HealthStatusDegraded
		}
		if t := p.LastSuccessAt; t != nil {
			ts := models.Timestamp(*t)
			ps.LastSuccessAt = &ts
		}
		if t := p.LastFailureAt; t != nil {
			ts := models.Timestamp(*t)
			ps.LastFailureAt = &ts
		}
		out = append(out, ps)
	}
	return out
}
