package app

import (
	"fmt"
	"log/slog"

	"github.com/newrelic/go-agent/v3/newrelic"

	"cabshare/internal/config"
)

// NewNewRelic starts the APM agent. It returns nil when the agent is
// disabled or has no license key.
func NewNewRelic(cfg config.NewRelicConfig, log *slog.Logger) (*newrelic.Application, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil, nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize new relic: %w", err)
	}

	log.Info("new relic enabled", slog.String("app", cfg.AppName))
	return nrApp, nil
}
