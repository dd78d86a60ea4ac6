package cli

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// logMetrics writes every counter and gauge sample in g to logger at Debug.
func logMetrics(ctx context.Context, logger *slog.Logger, g prometheus.Gatherer) error {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				value = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				value = m.GetHistogram().GetSampleSum()
			default:
				continue
			}
			attrs := []any{slog.String("metric", mf.GetName()), slog.Float64("value", value)}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, slog.String(lp.GetName(), lp.GetValue()))
			}
			logger.DebugContext(ctx, "metric", attrs...)
		}
	}
	return nil
}
