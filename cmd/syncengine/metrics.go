package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/syncbridge/pms-wits-sync/internal/synccycle"
)

// meter reports through whatever MeterProvider the host process has
// registered globally; with none registered it is a safe no-op, so
// syncengine never needs to bundle its own exporter.
var meter = otel.Meter("github.com/syncbridge/pms-wits-sync/cmd/syncengine")

var statusKey = attribute.Key("status")

var cycleCounter, _ = meter.Int64Counter(
	"syncengine.cycles",
	metric.WithDescription("sync cycles run, labeled by outcome status"),
)

// recordCycleMetrics records one cycle's outcome as a counter increment
// labeled by status, so operators can alert on a rising error rate
// without parsing logs.
func recordCycleMetrics(ctx context.Context, status synccycle.Status, err error) {
	label := string(status)
	if err != nil && label == "" {
		label = string(synccycle.StatusError)
	}
	cycleCounter.Add(ctx, 1, metric.WithAttributes(statusKey.String(label)))
}
