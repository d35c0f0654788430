package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/riverstats/internal/analysis"
	"github.com/jonesrussell/riverstats/internal/collector"
	"github.com/jonesrussell/riverstats/internal/config"
	"github.com/jonesrussell/riverstats/internal/export"
	"github.com/jonesrussell/riverstats/internal/gateway"
	"github.com/jonesrussell/riverstats/internal/httpclient"
	"github.com/jonesrussell/riverstats/internal/logger"
	"github.com/jonesrussell/riverstats/internal/retry"
	"github.com/jonesrussell/riverstats/internal/settings"
)

// app bundles the wired dependencies every data command needs.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	store    *settings.Store
	analysis *analysis.Service
	export   *export.Writer
}

// buildApp wires config, logging, settings, the gateway, and the analysis
// pipeline for a command invocation.
func buildApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := settings.NewStore()
	if err != nil {
		return nil, err
	}
	orgID, err := store.OrgID()
	if err != nil {
		return nil, err
	}

	httpClient := httpclient.New(httpclient.Config{
		Timeout:            cfg.API.Timeout,
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
	})
	gw := gateway.New(httpClient, cfg.API.BaseURL, orgID, store, log)

	col := collector.New(gw, collector.Config{
		MaxPages:            cfg.Fetch.MaxPages,
		MaxConsecutiveEmpty: cfg.Fetch.MaxConsecutiveEmpty,
		PatrolPageSize:      cfg.Fetch.PatrolPageSize,
		ListDelay:           cfg.Fetch.ListDelay,
		DetailDelay:         cfg.Fetch.DetailDelay,
		Retry: retry.Config{
			MaxAttempts:  cfg.Fetch.RetryAttempts,
			InitialDelay: cfg.Fetch.RetryDelay,
		},
	}, log)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		analysis: analysis.New(col, log),
		export:   export.NewWriter(cfg.Output.Dir, log),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// consoleSink prints collection progress to stdout as the fetch runs.
type consoleSink struct{}

func (consoleSink) Stage(msg string) {
	fmt.Println(msg)
}

func (consoleSink) PageFetched(page, matched int) {
	fmt.Printf("  page %d: %d matching records\n", page, matched)
}

func (consoleSink) DetailFetched(index, total int, activityID int64) {
	fmt.Printf("  detail %d/%d (activity %d)\n", index, total, activityID)
}

// explainRunError maps analysis and gateway failures to actionable
// messages for the terminal.
func explainRunError(err error, date string) error {
	var authErr *gateway.AuthError
	switch {
	case errors.Is(err, analysis.ErrInvalidDate):
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	case errors.Is(err, analysis.ErrNoData):
		return fmt.Errorf("the portal returned no data for %s", date)
	case errors.Is(err, analysis.ErrNoMatches):
		return fmt.Errorf("no records found on or after %s", date)
	case errors.As(err, &authErr):
		return fmt.Errorf("%w\nrun 'riverstats auth set-token <token>' and retry", err)
	default:
		return err
	}
}
