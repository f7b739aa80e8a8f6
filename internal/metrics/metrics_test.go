package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(StoreRetriesTotal.WithLabelValues("get_many"))
	StoreRetriesTotal.WithLabelValues("get_many").Inc()
	after := testutil.ToFloat64(StoreRetriesTotal.WithLabelValues("get_many"))
	if after-before != 1 {
		t.Errorf("expected +1, got %f", after-before)
	}

	IndexVectors.Set(42)
	if v := testutil.ToFloat64(IndexVectors); v != 42 {
		t.Errorf("index_vectors = %f", v)
	}
}
