package services

import (
	"context"
	"time"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
)

// ReportService evaluates report directives and hands due ones to the
// builder. Scheduled configs are swept against their cadence; on-completion
// configs fire when a building's last open inspection closes.
type ReportService struct {
	configs repository.ReportConfigRepo
	builder *ReportBuilder
	logger  *observability.Logger
}

// NewReportService creates a new ReportService
func NewReportService(configs repository.ReportConfigRepo, builder *ReportBuilder) *ReportService {
	return &ReportService{
		configs: configs,
		builder: builder,
		logger:  observability.WithField("component", "reports"),
	}
}

// ListDue sweeps enabled scheduled configs and returns the ones whose
// cadence fires now. The sweep itself mutates nothing; callers deliver and
// then MarkSent.
func (s *ReportService) ListDue(ctx context.Context, now time.Time) ([]*models.ReportConfig, error) {
	configs, err := s.configs.ListScheduledEnabled(ctx)
	if err != nil {
		return nil, err
	}

	due := make([]*models.ReportConfig, 0)
	for _, cfg := range configs {
		if IsDue(cfg.Cadence, cfg.LastSentAt, now) {
			due = append(due, cfg)
		}
	}
	return due, nil
}

// BuildSummary renders the building summary workbook for a config
func (s *ReportService) BuildSummary(ctx context.Context, cfg *models.ReportConfig) ([]byte, error) {
	return s.builder.BuildBuildingSummary(ctx, cfg.BuildingID)
}

// MarkSent records a successful delivery so the cadence floor holds
func (s *ReportService) MarkSent(ctx context.Context, configID string, sentAt time.Time) error {
	return s.configs.MarkSent(ctx, configID, sentAt)
}

// InspectionCompleted lets the report service ride the completion signal:
// when a building becomes fully inspected, every enabled on-completion
// config for that building fires. Implements CompletionSignaler so it can
// be chained behind the notifier.
func (s *ReportService) InspectionCompleted(ctx context.Context, inspection *models.Inspection, buildingFullyInspected bool) {
	if !buildingFullyInspected {
		return
	}

	configs, err := s.configs.ListOnCompletionForBuilding(ctx, inspection.BuildingID)
	if err != nil {
		s.logger.WithField("building_id", inspection.BuildingID).
			Warnf("on-completion report sweep failed: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if _, err := s.BuildSummary(ctx, cfg); err != nil {
			s.logger.WithField("report_config_id", cfg.ID).
				Warnf("on-completion report build failed: %v", err)
			continue
		}
		if err := s.MarkSent(ctx, cfg.ID, now); err != nil {
			s.logger.WithField("report_config_id", cfg.ID).
				Warnf("mark sent failed: %v", err)
		}
	}
}

// SignalFanout multiplexes the completion signal to several receivers
type SignalFanout []CompletionSignaler

// InspectionCompleted forwards the event to every receiver in order
func (f SignalFanout) InspectionCompleted(ctx context.Context, inspection *models.Inspection, buildingFullyInspected bool) {
	for _, s := range f {
		s.InspectionCompleted(ctx, inspection, buildingFullyInspected)
	}
}
