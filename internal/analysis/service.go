// Package analysis exposes the three analysis runs the CLI offers. Each run
// drives the collector, normalizes what came back, folds it into statistics,
// and reports one of a small set of distinguishable outcomes: invalid input,
// nothing fetched, nothing matching the date floor, or a result set.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/riverstats/internal/collector"
	"github.com/jonesrussell/riverstats/internal/logger"
	"github.com/jonesrussell/riverstats/internal/models"
	"github.com/jonesrussell/riverstats/internal/normalize"
	"github.com/jonesrussell/riverstats/internal/stats"
)

var (
	// ErrInvalidDate means the caller-supplied date string is not yyyy-MM-dd.
	ErrInvalidDate = errors.New("invalid date, expected yyyy-MM-dd")
	// ErrNoData means the upstream returned nothing to analyze.
	ErrNoData = errors.New("no data returned by upstream")
	// ErrNoMatches means the upstream returned rows, but none at or after
	// the requested date.
	ErrNoMatches = errors.New("no records at or after the requested date")
)

// ActivityAnalysis is the result of one activity run.
type ActivityAnalysis struct {
	Activities   []models.ActivityRecord
	Participants []models.ParticipantRecord
	Stats        models.ActivityStats
}

// Service wires the collector to the aggregation folds.
type Service struct {
	collector *collector.Collector
	log       logger.Logger
}

// New creates an analysis service.
func New(c *collector.Collector, log logger.Logger) *Service {
	return &Service{collector: c, log: log}
}

// RunActivityAnalysis fetches activities created at or after date, resolves
// their details, and returns canonical activity records, per-person
// participation, and summary statistics.
func (s *Service) RunActivityAnalysis(ctx context.Context, date string, sink collector.ProgressSink) (*ActivityAnalysis, error) {
	floor, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	sink.Stage("fetching activity list")
	coll, err := s.collector.CollectActivityDetails(ctx, floor, sink)
	if err != nil {
		return nil, err
	}
	if coll.ListedTotal == 0 {
		return nil, ErrNoData
	}
	if len(coll.Matched) == 0 {
		return nil, ErrNoMatches
	}
	if len(coll.Details) == 0 {
		return nil, fmt.Errorf("activity details: %w", ErrNoData)
	}

	sink.Stage("aggregating")
	result := &ActivityAnalysis{}
	var details []models.ActivityDetail
	for _, raw := range coll.Details {
		rec, err := normalize.Activity(raw)
		if err != nil {
			s.log.Debug("dropping unrecognized detail payload", logger.Error(err))
		} else {
			result.Activities = append(result.Activities, rec)
		}
		detail, err := normalize.ActivityDetail(raw)
		if err == nil {
			details = append(details, detail)
		}
	}
	result.Participants = stats.BuildParticipants(details)
	result.Stats = stats.CalculateActivityStats(result.Activities)
	return result, nil
}

// RunPatrolAnalysis collects patrol or evaluation posts at or after date and
// folds them into per-user statistics.
func (s *Service) RunPatrolAnalysis(ctx context.Context, date string, kind models.Kind, sink collector.ProgressSink) ([]models.UserPostStats, error) {
	floor, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	sink.Stage("fetching " + kind.Label())
	posts, err := s.collector.CollectPatrolPosts(ctx, kind, floor, sink)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNoMatches
	}
	return stats.BuildUserPostStats(posts), nil
}

// RunComprehensiveAnalysis merges patrol, evaluation, and activity
// participation into one per-person rollup. Each source is best-effort:
// a source that fails entirely contributes nothing rather than aborting the
// run, matching the collector's swallow-and-continue policy.
func (s *Service) RunComprehensiveAnalysis(ctx context.Context, date string, sink collector.ProgressSink) ([]models.ComprehensiveStat, error) {
	floor, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	sink.Stage("fetching patrol data")
	patrolPosts, err := s.collector.CollectPatrolPosts(ctx, models.KindPatrol, floor, sink)
	if err != nil {
		return nil, err
	}

	sink.Stage("fetching evaluation data")
	evalPosts, err := s.collector.CollectPatrolPosts(ctx, models.KindEvaluation, floor, sink)
	if err != nil {
		return nil, err
	}

	sink.Stage("fetching activity participation")
	var participants []models.ParticipantRecord
	coll, err := s.collector.CollectActivityDetails(ctx, floor, sink)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case err != nil:
		s.log.Warn("activity source unavailable, continuing without it", logger.Error(err))
	default:
		var details []models.ActivityDetail
		for _, raw := range coll.Details {
			if detail, err := normalize.ActivityDetail(raw); err == nil {
				details = append(details, detail)
			}
		}
		participants = stats.BuildParticipants(details)
	}

	sink.Stage("merging sources")
	merged := stats.MergeComprehensive(
		stats.BuildUserPostStats(patrolPosts),
		stats.BuildUserPostStats(evalPosts),
		participants,
	)
	if len(merged) == 0 {
		return nil, ErrNoMatches
	}
	return merged, nil
}

func parseDate(date string) (time.Time, error) {
	t, err := normalize.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}
