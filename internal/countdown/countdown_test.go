package countdown

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSnapshotThresholds(t *testing.T) {
	tests := []struct {
		name     string
		until    time.Duration
		display  string
		expired  bool
		warning  bool
		critical bool
	}{
		{"plenty of time", 5 * time.Minute, "5:00", false, false, false},
		{"under a minute", 45 * time.Second, "0:45", false, true, false},
		{"under thirty seconds", 15 * time.Second, "0:15", false, true, true},
		{"exactly zero", 0, "ENDED", true, false, false},
		{"already past", -10 * time.Second, "ENDED", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Snapshot(base.Add(tt.until), base)
			if st.Display != tt.display {
				t.Errorf("Display = %q, want %q", st.Display, tt.display)
			}
			if st.Expired != tt.expired || st.Warning != tt.warning || st.Critical != tt.critical {
				t.Errorf("flags = {expired:%v warning:%v critical:%v}, want {%v %v %v}",
					st.Expired, st.Warning, st.Critical, tt.expired, tt.warning, tt.critical)
			}
			if st.Remaining < 0 {
				t.Errorf("Remaining = %v, must never be negative", st.Remaining)
			}
		})
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	end := base.Add(90 * time.Second)
	if a, b := Snapshot(end, base), Snapshot(end, base); a != b {
		t.Errorf("equal inputs produced different results: %+v vs %+v", a, b)
	}
}

func TestSnapshotPadsSeconds(t *testing.T) {
	st := Snapshot(base.Add(61*time.Second), base)
	if st.Display != "1:01" {
		t.Errorf("Display = %q, want 1:01", st.Display)
	}
}

func recvStatus(t *testing.T, ch <-chan Status) (Status, bool) {
	t.Helper()
	select {
	case st, ok := <-ch:
		return st, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for countdown tick")
		return Status{}, false
	}
}

func TestEngineTicksDownAndStopsAtZero(t *testing.T) {
	clk := clockwork.NewFakeClockAt(base)
	e := NewEngine(clk, base.Add(250*time.Millisecond), clk.Now)
	defer e.Stop()

	if st, _ := recvStatus(t, e.Updates()); st.Expired {
		t.Fatal("initial sample should not be expired")
	}

	clk.BlockUntil(1)
	for _, wantExpired := range []bool{false, false} {
		clk.Advance(TickInterval)
		st, ok := recvStatus(t, e.Updates())
		if !ok {
			t.Fatal("updates channel closed early")
		}
		if st.Expired != wantExpired {
			t.Fatalf("Expired = %v, want %v (remaining %v)", st.Expired, wantExpired, st.Remaining)
		}
	}

	clk.Advance(TickInterval)
	st, ok := recvStatus(t, e.Updates())
	if !ok || !st.Expired || st.Display != "ENDED" {
		t.Fatalf("final status = %+v (ok=%v), want ENDED", st, ok)
	}

	// Once expired the ticker is stopped and the stream ends.
	if _, ok := recvStatus(t, e.Updates()); ok {
		t.Error("received a tick after expiry")
	}
}

func TestEngineAlreadyExpired(t *testing.T) {
	clk := clockwork.NewFakeClockAt(base)
	e := NewEngine(clk, base.Add(-time.Second), clk.Now)
	defer e.Stop()

	st, ok := recvStatus(t, e.Updates())
	if !ok || !st.Expired {
		t.Fatalf("status = %+v (ok=%v), want immediate ENDED", st, ok)
	}
	if _, ok := recvStatus(t, e.Updates()); ok {
		t.Error("expired engine must not tick")
	}
}

func TestEngineStopIdempotent(t *testing.T) {
	clk := clockwork.NewFakeClockAt(base)
	e := NewEngine(clk, base.Add(time.Hour), clk.Now)
	e.Stop()
	e.Stop()

	// Drain until the closed channel is observed.
	for {
		if _, ok := recvStatus(t, e.Updates()); !ok {
			return
		}
	}
}
