package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/mansoorceksport/tripdesk/internal/service"

// Instruments are created against the global providers, which delegate to
// the real SDK once telemetry.Initialize has run.
var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	enrollmentCounter, _ = meter.Int64Counter("tripdesk.enrollments",
		metric.WithDescription("Trip members enrolled"))
	capacityRejectCounter, _ = meter.Int64Counter("tripdesk.enrollments.rejected",
		metric.WithDescription("Enrollments rejected because the date range was full"))
	syncFailureCounter, _ = meter.Int64Counter("tripdesk.sync.failures",
		metric.WithDescription("Date ranges whose participant count could not be refreshed"))
	syncUpdateCounter, _ = meter.Int64Counter("tripdesk.sync.updates",
		metric.WithDescription("Packages rewritten with corrected participant counts"))
)
