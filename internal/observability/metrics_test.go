package observability_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tuongmengleang/firechat/internal/observability"
)

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.ConversationKeysDerived.Inc()
	a.RecordCryptoOperation("encrypt", time.Millisecond)

	if got := testutil.ToFloat64(a.ConversationKeysDerived); got != 1 {
		t.Fatalf("a derived = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.ConversationKeysDerived); got != 0 {
		t.Fatalf("b derived = %v, want 0", got)
	}
	if got := testutil.ToFloat64(a.CryptoOperationsTotal.WithLabelValues("encrypt")); got != 1 {
		t.Fatalf("encrypt ops = %v, want 1", got)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := observability.NewLogger("firechat", "test", &buf, "warn")
	log.Info("hidden")
	log.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseLevel_Default(t *testing.T) {
	if observability.ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("unknown level should map to info")
	}
	if observability.ParseLevel("DEBUG") != zerolog.DebugLevel {
		t.Fatal("level names are case-insensitive")
	}
}
