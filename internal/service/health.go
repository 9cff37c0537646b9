package service

import (
	"context"
	"errors"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

type probe struct {
	name     string
	critical bool
	check    func(ctx context.Context) error
}

// AddProbe registers an extra dependency check for CheckHealth.
// A failing non-critical probe degrades the service instead of failing it.
func (s *InvoiceService) AddProbe(name string, critical bool, check func(ctx context.Context) error) {
	s.probes = append(s.probes, probe{name: name, critical: critical, check: check})
}

// CheckHealth probes the order backend and every registered dependency
// concurrently.
func (s *InvoiceService) CheckHealth(ctx context.Context) *domain.HealthStatus {
	ctx, span := tracer.Start(ctx, "InvoiceService.CheckHealth")
	defer span.End()

	probes := append([]probe{{name: "orders", critical: true, check: s.pingBackend}}, s.probes...)
	results := make([]domain.ServiceHealth, len(probes))

	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			err := p.check(gCtx)
			results[i] = domain.ServiceHealth{
				Name:        p.name,
				Status:      StatusHealthy,
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: time.Now().UTC().Format(time.RFC3339),
			}
			if err != nil {
				results[i].Status = StatusUnhealthy
				s.logger.Warn("health probe failed", zap.String("probe", p.name), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	for i, r := range results {
		if r.Status == StatusHealthy {
			continue
		}
		if probes[i].critical {
			status = StatusUnhealthy
			break
		}
		status = StatusDegraded
	}

	return &domain.HealthStatus{Status: status, Services: results}
}

// pingBackend looks up an order that never exists; a not-found answer proves
// the backend is reachable.
func (s *InvoiceService) pingBackend(ctx context.Context) error {
	_, err := s.finder.FindInvoice(ctx, 0)
	var notFound *domain.ErrNotFound
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return err
}
