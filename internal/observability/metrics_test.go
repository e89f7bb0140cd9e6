package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("planetctl", "GET", "/health", 200, 12*time.Millisecond)
	RecordRender(40*time.Millisecond, nil)
	RecordRender(0, errors.New("write failed"))
	RecordNoiseBuild("elevation", "pn")
	RecordPatch("patch", true)

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestRecordPatchCountsByLabel(t *testing.T) {
	before := testutil.ToFloat64(patches.WithLabelValues("reset", "true"))
	RecordPatch("reset", true)
	RecordPatch("reset", true)
	after := testutil.ToFloat64(patches.WithLabelValues("reset", "true"))
	if after-before != 2 {
		t.Fatalf("expected two reset patches recorded, got %v", after-before)
	}
}
