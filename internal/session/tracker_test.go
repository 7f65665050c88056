package session

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func TestNewTrackerDefaults(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	if tr.CurrentPage() != 1 {
		t.Fatalf("expected page 1, got %d", tr.CurrentPage())
	}
	if !tr.Visited(1) {
		t.Fatal("initial page should be visited")
	}
	if tr.Scale() != DefaultScale {
		t.Fatalf("expected default scale %v, got %v", DefaultScale, tr.Scale())
	}
	if tr.LayoutMode() != LayoutSplit {
		t.Fatalf("expected split layout, got %v", tr.LayoutMode())
	}
}

func TestGoToPageIgnoresOutOfRange(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, 0, 4, 100} {
		tr := NewTracker()
		tr.SetTotalPages(3)
		tr.Tick()
		before := tr.Snapshot()
		if tr.GoToPage(n) {
			t.Fatalf("GoToPage(%d) should be rejected", n)
		}
		if after := tr.Snapshot(); !reflect.DeepEqual(before, after) {
			t.Fatalf("GoToPage(%d) changed state:\nbefore %#v\nafter  %#v", n, before, after)
		}
	}
}

func TestNavigationWaitsForTotal(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	for _, n := range []int{2, 7} {
		if tr.GoToPage(n) {
			t.Fatalf("GoToPage(%d) should be ignored while the total is unknown", n)
		}
	}
	if tr.NextPage() {
		t.Fatal("NextPage should be ignored while the total is unknown")
	}
	tr.Tick()
	tr.SetTotalPages(3)
	if tr.CurrentPage() != 1 || tr.CurrentPageElapsed() != 1 {
		t.Fatalf("expected page 1 with 1s, got page %d with %ds", tr.CurrentPage(), tr.CurrentPageElapsed())
	}
	if got := tr.VisitedPages(); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("unexpected visited pages %v", got)
	}
	if !tr.GoToPage(3) {
		t.Fatal("expected move to page 3 once the total is known")
	}
}

func TestSetTotalPagesClampsCurrentPage(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetTotalPages(5)
	tr.GoToPage(2)
	tr.Tick()
	tr.Tick()
	tr.GoToPage(5)
	tr.Tick()

	tr.SetTotalPages(2)
	if tr.CurrentPage() != 2 {
		t.Fatalf("current page should clamp to 2, got %d", tr.CurrentPage())
	}
	if tr.CurrentPageElapsed() != 2 {
		t.Fatalf("page 2 timer should resume at 2, got %d", tr.CurrentPageElapsed())
	}
	tr.Tick()
	if tr.PageTime(2) != 3 {
		t.Fatalf("ticks should land on page 2, got %d", tr.PageTime(2))
	}
	if tr.PageTime(5) != 1 {
		t.Fatalf("page 5 time changed: %d", tr.PageTime(5))
	}
}

func TestRevisitResumesPageTimer(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetTotalPages(2)
	tr.Tick()
	tr.Tick()
	tr.Tick()

	if !tr.GoToPage(2) {
		t.Fatal("expected move to page 2")
	}
	if tr.CurrentPageElapsed() != 0 {
		t.Fatalf("fresh page should start at 0, got %d", tr.CurrentPageElapsed())
	}
	tr.Tick()

	if !tr.GoToPage(1) {
		t.Fatal("expected move back to page 1")
	}
	if tr.CurrentPageElapsed() != 3 {
		t.Fatalf("page 1 should resume at 3, got %d", tr.CurrentPageElapsed())
	}
	tr.Tick()
	if tr.PageTime(1) != 4 || tr.CurrentPageElapsed() != 4 {
		t.Fatalf("page 1 should continue accumulating, got %d/%d", tr.PageTime(1), tr.CurrentPageElapsed())
	}
	if tr.PageTime(2) != 1 {
		t.Fatalf("page 2 time changed: %d", tr.PageTime(2))
	}
	if got := tr.VisitedPages(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("unexpected visited pages %v", got)
	}
}

func TestTotalElapsedMatchesTicks(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	tr := NewTracker()
	tr.SetTotalPages(5)
	ticks := 0
	for i := 0; i < 500; i++ {
		if rng.Intn(3) == 0 {
			tr.GoToPage(rng.Intn(7) - 1)
			continue
		}
		tr.Tick()
		ticks++
	}
	if tr.TotalElapsed() != ticks {
		t.Fatalf("total elapsed %d != ticks %d", tr.TotalElapsed(), ticks)
	}
	if tr.ElapsedTicks() != ticks {
		t.Fatalf("elapsed ticks %d != %d", tr.ElapsedTicks(), ticks)
	}
}

func TestHiddenSuspendsTiming(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.Tick()
	tr.SetVisible(false)
	if tr.Tick() {
		t.Fatal("tick should not count while hidden")
	}
	if tr.PageTime(1) != 1 || tr.CurrentPageElapsed() != 1 {
		t.Fatalf("hidden tick changed timers: %d/%d", tr.PageTime(1), tr.CurrentPageElapsed())
	}
	tr.SetVisible(true)
	tr.Tick()
	if tr.PageTime(1) != 2 {
		t.Fatalf("timer should resume where it left off, got %d", tr.PageTime(1))
	}
}

func TestSetZoomClamps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want float64
	}{
		{0.1, MinScale},
		{-4, MinScale},
		{0.6, 0.6},
		{1.0, 1.0},
		{1.5, 1.5},
		{3, MaxScale},
		{math.Inf(1), MaxScale},
		{math.Inf(-1), MinScale},
		{math.NaN(), MinScale},
	}
	for _, tc := range cases {
		tr := NewTracker()
		if got := tr.SetZoom(tc.in); got != tc.want {
			t.Fatalf("SetZoom(%v) = %v, want %v", tc.in, got, tc.want)
		}
		if tr.Scale() != tc.want {
			t.Fatalf("Scale() = %v after SetZoom(%v)", tr.Scale(), tc.in)
		}
	}
}

func TestZoomStepsStayInRange(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	for i := 0; i < 20; i++ {
		tr.ZoomIn()
	}
	if tr.Scale() != MaxScale {
		t.Fatalf("zoom in should stop at %v, got %v", MaxScale, tr.Scale())
	}
	for i := 0; i < 20; i++ {
		tr.ZoomOut()
	}
	if tr.Scale() != MinScale {
		t.Fatalf("zoom out should stop at %v, got %v", MinScale, tr.Scale())
	}
}

func TestLayoutSwitch(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetLayoutMode(LayoutFull)
	if tr.LayoutMode() != LayoutFull {
		t.Fatal("expected full layout")
	}
	if tr.ToggleLayout() != LayoutSplit {
		t.Fatal("toggle should return to split")
	}
	if ParseLayoutMode("pdf") != LayoutFull || ParseLayoutMode("anything") != LayoutSplit {
		t.Fatal("unexpected layout parsing")
	}
}
