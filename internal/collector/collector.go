// Package collector drives repeated gateway calls into one filtered dataset
// per query. It owns pagination state, the date-floor filter, the
// consecutive-empty stopping rule, inter-request pacing, and the
// swallow-and-continue policy for per-page failures.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/jonesrussell/riverstats/internal/gateway"
	"github.com/jonesrussell/riverstats/internal/logger"
	"github.com/jonesrussell/riverstats/internal/models"
	"github.com/jonesrussell/riverstats/internal/normalize"
	"github.com/jonesrussell/riverstats/internal/retry"
)

// Gateway is the slice of the API client the collector needs.
type Gateway interface {
	ListActivities(ctx context.Context, page, pageSize int) (*gateway.PageResult, error)
	ListPatrolRecords(ctx context.Context, page, pageSize int, kind models.Kind) (*gateway.PageResult, error)
	GetActivityDetail(ctx context.Context, id int64) (json.RawMessage, error)
}

// ProgressSink receives collection progress. Callbacks run synchronously on
// the collecting goroutine, in order, and should return quickly.
type ProgressSink interface {
	// Stage announces a new phase of the run.
	Stage(msg string)
	// PageFetched reports one processed list page and its match count.
	PageFetched(page, matched int)
	// DetailFetched reports one processed activity-detail fetch.
	DetailFetched(index, total int, activityID int64)
}

// NopSink discards all progress updates.
type NopSink struct{}

func (NopSink) Stage(string)                  {}
func (NopSink) PageFetched(int, int)          {}
func (NopSink) DetailFetched(int, int, int64) {}

const (
	// DefaultMaxPages caps a patrol collection run.
	DefaultMaxPages = 100
	// DefaultMaxConsecutiveEmpty is the empty-page streak that stops a run.
	// Pages arrive roughly newest-first, so a streak of pages with no rows
	// at or after the floor date means the floor has been crossed.
	DefaultMaxConsecutiveEmpty = 3
	// DefaultPatrolPageSize is the page size for patrol/evaluation lists.
	DefaultPatrolPageSize = 10
	// DefaultListDelay paces patrol list pages.
	DefaultListDelay = 300 * time.Millisecond
	// DefaultDetailDelay paces per-activity detail fetches.
	DefaultDetailDelay = 500 * time.Millisecond

	defaultListPageSize = 40
	maxListPageSize     = 200
	activitiesPerDay    = 6
	pageSizeBuffer      = 10
)

// Config tunes the collector. Delays are explicit so tests can run with
// zero pacing.
type Config struct {
	MaxPages            int
	MaxConsecutiveEmpty int
	PatrolPageSize      int
	ListDelay           time.Duration
	DetailDelay         time.Duration
	Retry               retry.Config
}

// DefaultConfig returns production pacing and limits.
func DefaultConfig() Config {
	return Config{
		MaxPages:            DefaultMaxPages,
		MaxConsecutiveEmpty: DefaultMaxConsecutiveEmpty,
		PatrolPageSize:      DefaultPatrolPageSize,
		ListDelay:           DefaultListDelay,
		DetailDelay:         DefaultDetailDelay,
		Retry:               retry.DefaultConfig(),
	}
}

// Collector turns paginated resources into filtered in-memory datasets.
type Collector struct {
	gw  Gateway
	cfg Config
	log logger.Logger
	now func() time.Time
}

// New creates a collector.
func New(gw Gateway, cfg Config, log logger.Logger) *Collector {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MaxConsecutiveEmpty <= 0 {
		cfg.MaxConsecutiveEmpty = DefaultMaxConsecutiveEmpty
	}
	if cfg.PatrolPageSize <= 0 {
		cfg.PatrolPageSize = DefaultPatrolPageSize
	}
	return &Collector{gw: gw, cfg: cfg, log: log, now: time.Now}
}

// CollectPatrolPosts pages through the patrol or evaluation list and returns
// every post at or after floor, in upstream order. Individual page failures
// are logged, counted as empty, and never abort the run; a persistently
// failing upstream therefore yields a short dataset rather than an error.
// The only returned error is context cancellation.
func (c *Collector) CollectPatrolPosts(ctx context.Context, kind models.Kind, floor time.Time, sink ProgressSink) ([]models.PatrolPost, error) {
	var collected []models.PatrolPost
	consecutiveEmpty := 0

	for page := 1; page <= c.cfg.MaxPages && consecutiveEmpty < c.cfg.MaxConsecutiveEmpty; page++ {
		result, err := c.fetchPatrolPage(ctx, page, kind)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return collected, err
			}
			c.log.Warn("patrol page failed, skipping",
				logger.Int("page", page),
				logger.Error(err),
			)
			consecutiveEmpty++
			sink.PageFetched(page, 0)
			if err := c.pace(ctx, c.cfg.ListDelay); err != nil {
				return collected, err
			}
			continue
		}

		matched := 0
		if len(result.Rows) > 0 {
			for _, raw := range result.Rows {
				post, err := normalize.PatrolPost(raw)
				if err != nil {
					c.log.Debug("dropping unparseable patrol row", logger.Error(err))
					continue
				}
				t, err := normalize.ParseTimestamp(post.PostTime)
				if err != nil || t.Before(floor) {
					continue
				}
				collected = append(collected, post)
				matched++
			}
			if matched == 0 {
				consecutiveEmpty++
			} else {
				consecutiveEmpty = 0
			}
		} else {
			consecutiveEmpty++
		}

		sink.PageFetched(page, matched)
		if err := c.pace(ctx, c.cfg.ListDelay); err != nil {
			return collected, err
		}
	}

	c.log.Info("patrol collection finished",
		logger.String("kind", kind.Label()),
		logger.Int("collected", len(collected)),
	)
	return collected, nil
}

// ActivityCollection is the result of one activity collection pass.
type ActivityCollection struct {
	// ListedTotal is how many rows the list call returned before filtering.
	ListedTotal int
	// Matched holds activities at or after the floor, newest first.
	Matched []models.ActivityRecord
	// Details holds the raw detail payloads for the matched activities,
	// minus any whose detail fetch failed.
	Details []json.RawMessage
}

// CollectActivityDetails runs the activity flow: one list call sized by the
// page-size heuristic, an in-memory date-floor filter, then a paced per-id
// detail fetch loop with the same skip-on-error policy as patrol pages.
// A failed list call aborts the run; failed detail fetches do not.
func (c *Collector) CollectActivityDetails(ctx context.Context, floor time.Time, sink ProgressSink) (*ActivityCollection, error) {
	pageSize := EstimatePageSize(floor, c.now())

	var page *gateway.PageResult
	err := retry.Do(ctx, c.retryConfig(), func() error {
		p, err := c.gw.ListActivities(ctx, 1, pageSize)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	coll := &ActivityCollection{ListedTotal: len(page.Rows)}
	for _, raw := range page.Rows {
		rec, err := normalize.Activity(raw)
		if err != nil {
			c.log.Debug("dropping unparseable activity row", logger.Error(err))
			continue
		}
		t, err := normalize.ParseTimestamp(rec.CreateTime)
		if err != nil || t.Before(floor) {
			continue
		}
		coll.Matched = append(coll.Matched, rec)
	}
	// Newest first, matching the upstream presentation order.
	sort.SliceStable(coll.Matched, func(i, j int) bool {
		return coll.Matched[i].CreateTime > coll.Matched[j].CreateTime
	})

	for i, rec := range coll.Matched {
		var detail json.RawMessage
		err := retry.Do(ctx, c.retryConfig(), func() error {
			d, err := c.gw.GetActivityDetail(ctx, rec.ID)
			if err != nil {
				return err
			}
			detail = d
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return coll, err
			}
			c.log.Warn("activity detail failed, skipping",
				logger.Int64("activity_id", rec.ID),
				logger.Error(err),
			)
		} else {
			coll.Details = append(coll.Details, detail)
		}

		sink.DetailFetched(i+1, len(coll.Matched), rec.ID)
		if err := c.pace(ctx, c.cfg.DetailDelay); err != nil {
			return coll, err
		}
	}

	c.log.Info("activity collection finished",
		logger.Int("listed", coll.ListedTotal),
		logger.Int("matched", len(coll.Matched)),
		logger.Int("details", len(coll.Details)),
	)
	return coll, nil
}

// EstimatePageSize guesses a list page size large enough to cover every
// activity posted since target, assuming roughly six activities per day plus
// a fixed buffer, capped at 200. Future or degenerate targets get the
// default of 40. This is a best-effort guess, not an exact count.
func EstimatePageSize(target, now time.Time) int {
	if target.After(now) {
		return defaultListPageSize
	}
	daysSince := int(now.Sub(target).Hours()/24) + 1
	if daysSince <= 0 {
		return defaultListPageSize
	}
	estimated := daysSince*activitiesPerDay + pageSizeBuffer
	if estimated > maxListPageSize {
		return maxListPageSize
	}
	return estimated
}

func (c *Collector) fetchPatrolPage(ctx context.Context, page int, kind models.Kind) (*gateway.PageResult, error) {
	var result *gateway.PageResult
	err := retry.Do(ctx, c.retryConfig(), func() error {
		r, err := c.gw.ListPatrolRecords(ctx, page, c.cfg.PatrolPageSize, kind)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

func (c *Collector) retryConfig() retry.Config {
	cfg := c.cfg.Retry
	if cfg.IsRetryable == nil {
		cfg.IsRetryable = gateway.IsTransport
	}
	return cfg
}

// pace waits the inter-request delay, honoring cancellation. The delays are
// the client-side rate limiter: requests to the same upstream are strictly
// sequential with a fixed gap.
func (c *Collector) pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
