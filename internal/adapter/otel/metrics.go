package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "baton"

// Metrics holds all baton metric instruments.
type Metrics struct {
	MutationsApplied  metric.Int64Counter
	MutationsRejected metric.Int64Counter
	LintChecks        metric.Int64Counter
	LintFindings      metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.MutationsApplied, err = meter.Int64Counter("baton.mutations.applied",
		metric.WithDescription("Number of requirement mutations applied"))
	if err != nil {
		return nil, err
	}

	m.MutationsRejected, err = meter.Int64Counter("baton.mutations.rejected",
		metric.WithDescription("Number of requirement mutations rejected"))
	if err != nil {
		return nil, err
	}

	m.LintChecks, err = meter.Int64Counter("baton.lint.checks",
		metric.WithDescription("Number of plan lint requests"))
	if err != nil {
		return nil, err
	}

	m.LintFindings, err = meter.Int64Counter("baton.lint.findings",
		metric.WithDescription("Number of lint findings reported"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
