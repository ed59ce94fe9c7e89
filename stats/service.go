package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// ServiceOptions configures the assembled reporting service.
type ServiceOptions struct {
	// RollupInterval controls how often period rollups rebuild. Zero means
	// hourly.
	RollupInterval time.Duration
	// ExportInterval controls how often rollups ship to exporters. Zero
	// disables periodic export; exporters still flush on Close.
	ExportInterval time.Duration
	// RecentEvents bounds the dashboard ring. Zero means 50.
	RecentEvents int
	// Exporters receive daily rollups each export pass.
	Exporters []Exporter
}

// Service assembles the ledger, rollup engine, stream publisher, and
// dashboard into one reporting unit. Register Hook() on the mission service
// and call Start once.
type Service struct {
	ledger    *Ledger
	rollups   *RollupEngine
	publisher *StreamPublisher
	dashboard *Dashboard
	exporters []Exporter

	exportInterval time.Duration
}

func NewService(opts ServiceOptions) *Service {
	ledger := NewLedger()
	publisher := NewStreamPublisher(ledger)
	return &Service{
		ledger:         ledger,
		rollups:        NewRollupEngine(ledger, opts.RollupInterval),
		publisher:      publisher,
		dashboard:      NewDashboard(publisher, ledger, opts.RecentEvents),
		exporters:      opts.Exporters,
		exportInterval: opts.ExportInterval,
	}
}

// Hook returns the event hook feeding this service.
func (s *Service) Hook() Hook { return s.publisher }

// Publisher exposes the stream for additional subscribers.
func (s *Service) Publisher() *StreamPublisher { return s.publisher }

// RollupNow forces an immediate rollup pass.
func (s *Service) RollupNow() error { return s.rollups.RollupNow() }

// Rollups returns the rollups built for a period.
func (s *Service) Rollups(period Period) []*Rollup { return s.rollups.All(period) }

// DashboardData returns the live dashboard snapshot.
func (s *Service) DashboardData() DashboardData { return s.dashboard.Data() }

// Start runs the rollup loop, and the export loop when both an interval and
// exporters are configured. Returns once ctx is done.
func (s *Service) Start(ctx context.Context) {
	go s.rollups.Start(ctx)
	if s.exportInterval <= 0 || len(s.exporters) == 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.exportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.exportPass(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// exportPass rebuilds rollups and ships the daily set.
func (s *Service) exportPass(ctx context.Context) {
	_ = s.rollups.RollupNow()
	for _, rollup := range s.rollups.All(PeriodDaily) {
		for _, e := range s.exporters {
			_ = e.Export(ctx, rollup)
		}
	}
	for _, e := range s.exporters {
		_ = e.Flush(ctx)
	}
}

// Close flushes and closes every exporter.
func (s *Service) Close() error {
	var first error
	for _, e := range s.exporters {
		if err := e.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RollupHandler serves the rollups for one period as JSON. The period comes
// from the "period" query parameter and defaults to daily.
func (s *Service) RollupHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		period := Period(r.URL.Query().Get("period"))
		switch period {
		case PeriodDaily, PeriodWeekly, PeriodMonthly:
		default:
			period = PeriodDaily
		}
		_ = s.rollups.RollupNow()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.rollups.All(period))
	})
}

// DashboardHandler serves the live dashboard snapshot as JSON.
func (s *Service) DashboardHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.DashboardData())
	})
}
