package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.ObserveRequest("GET", "/grants/{mode}", 200, 5*time.Millisecond)
	r.ObserveRequest("GET", "/grants/{mode}", 200, 7*time.Millisecond)
	r.ObserveRequest("POST", "/signin", 401, time.Millisecond)
	r.SetEntityCounts(map[string]int{"grants": 3, "shareholders": 2})
	r.ObserveSnapshot(nil)
	r.ObserveSnapshot(errors.New("disk full"))
	r.ObserveSnapshot(nil)

	if got := testutil.ToFloat64(r.requests.WithLabelValues("GET", "/grants/{mode}", "200")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.entities.WithLabelValues("grants")); got != 3 {
		t.Errorf("grants gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.snapshots.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok snapshots = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.snapshots.WithLabelValues("error")); got != 1 {
		t.Errorf("error snapshots = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObserveSnapshot(nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(string(body), `fairshare_snapshots_total{result="ok"} 1`) {
		t.Errorf("metrics output missing snapshot counter:\n%s", body)
	}
}
