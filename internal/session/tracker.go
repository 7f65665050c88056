// Package session tracks the reader's position in a document: the current
// page, per-page dwell time, visited pages, zoom, and layout.
package session

import (
	"math"
	"sort"
)

// LayoutMode selects how the viewer arranges the page and the QA panel.
type LayoutMode int

const (
	// LayoutSplit shows the page next to the question panel.
	LayoutSplit LayoutMode = iota
	// LayoutFull gives the whole screen to the page.
	LayoutFull
)

func (m LayoutMode) String() string {
	if m == LayoutFull {
		return "full"
	}
	return "split"
}

// ParseLayoutMode maps a config value to a LayoutMode, defaulting to split.
func ParseLayoutMode(value string) LayoutMode {
	if value == "full" || value == "pdf" {
		return LayoutFull
	}
	return LayoutSplit
}

// Zoom bounds and step applied by SetZoom, ZoomIn and ZoomOut.
const (
	MinScale     = 0.6
	MaxScale     = 1.5
	DefaultScale = 0.85
	ZoomStep     = 0.1
)

// Tracker owns the reading session state. It is not safe for concurrent
// use; callers drive it from a single event loop.
type Tracker struct {
	currentPage     int
	totalPages      int
	currentElapsed  int
	pageTimes       map[int]int
	visited         map[int]struct{}
	scale           float64
	layout          LayoutMode
	visible         bool
	ticksWhileShown int
}

// NewTracker starts a session on page 1, visible, at the default zoom.
func NewTracker() *Tracker {
	return &Tracker{
		currentPage: 1,
		pageTimes:   map[int]int{},
		visited:     map[int]struct{}{1: {}},
		scale:       DefaultScale,
		layout:      LayoutSplit,
		visible:     true,
	}
}

// SetTotalPages records the page count reported once the document loads.
// Zero or a negative count means the total is unknown. A current page past
// the new total moves to the last page.
func (t *Tracker) SetTotalPages(n int) {
	if n < 0 {
		n = 0
	}
	t.totalPages = n
	if n > 0 && t.currentPage > n {
		t.currentPage = n
		t.visited[n] = struct{}{}
		t.currentElapsed = t.pageTimes[n]
	}
}

// GoToPage moves to page n and reports whether the move happened. Pages
// outside [1, total] are ignored, and so is every move until the total is
// known. Returning to a page resumes its accumulated time.
func (t *Tracker) GoToPage(n int) bool {
	if t.totalPages == 0 || n < 1 || n > t.totalPages {
		return false
	}
	t.currentPage = n
	t.visited[n] = struct{}{}
	t.currentElapsed = t.pageTimes[n]
	return true
}

// NextPage and PrevPage step one page, within the same bounds as GoToPage.
func (t *Tracker) NextPage() bool { return t.GoToPage(t.currentPage + 1) }
func (t *Tracker) PrevPage() bool { return t.GoToPage(t.currentPage - 1) }

// Tick adds one second to the current page while the session is visible.
func (t *Tracker) Tick() bool {
	if !t.visible {
		return false
	}
	t.currentElapsed++
	t.pageTimes[t.currentPage]++
	t.ticksWhileShown++
	return true
}

// SetVisible suspends or resumes timing. Accumulated time is kept.
func (t *Tracker) SetVisible(visible bool) {
	t.visible = visible
}

// Visible reports whether ticks currently count.
func (t *Tracker) Visible() bool { return t.visible }

// SetZoom stores the requested scale clamped to [MinScale, MaxScale].
func (t *Tracker) SetZoom(requested float64) float64 {
	t.scale = ClampScale(requested)
	return t.scale
}

// ClampScale limits v to [MinScale, MaxScale]. NaN maps to MinScale.
func ClampScale(v float64) float64 {
	if math.IsNaN(v) {
		return MinScale
	}
	return math.Min(MaxScale, math.Max(MinScale, v))
}

func (t *Tracker) ZoomIn() float64 { return t.SetZoom(t.scale + ZoomStep) }
func (t *Tracker) ZoomOut() float64 { return t.SetZoom(t.scale - ZoomStep) }

// SetLayoutMode switches to mode without touching page or timers.
func (t *Tracker) SetLayoutMode(mode LayoutMode) { t.layout = mode }

// ToggleLayout flips between split and full layouts.
func (t *Tracker) ToggleLayout() LayoutMode {
	if t.layout == LayoutSplit {
		t.layout = LayoutFull
	} else {
		t.layout = LayoutSplit
	}
	return t.layout
}

func (t *Tracker) CurrentPage() int { return t.currentPage }

func (t *Tracker) TotalPages() int { return t.totalPages }

// CurrentPageElapsed is the dwell time shown for the page being read.
func (t *Tracker) CurrentPageElapsed() int { return t.currentElapsed }

func (t *Tracker) Scale() float64 { return t.scale }

func (t *Tracker) LayoutMode() LayoutMode { return t.layout }

// PageTime returns the seconds accumulated on page.
func (t *Tracker) PageTime(page int) int { return t.pageTimes[page] }

func (t *Tracker) Visited(page int) bool {
	_, ok := t.visited[page]
	return ok
}

// ElapsedTicks counts the ticks that advanced a timer since the session began.
func (t *Tracker) ElapsedTicks() int { return t.ticksWhileShown }

// TotalElapsed sums the accumulated time of every page.
func (t *Tracker) TotalElapsed() int {
	total := 0
	for _, secs := range t.pageTimes {
		total += secs
	}
	return total
}

// VisitedPages returns the visited page numbers in ascending order.
func (t *Tracker) VisitedPages() []int {
	pages := make([]int, 0, len(t.visited))
	for page := range t.visited {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// Snapshot is a read-only copy of the tracker used for rendering.
type Snapshot struct {
	CurrentPage    int
	TotalPages     int
	CurrentElapsed int
	TotalElapsed   int
	Scale          float64
	Layout         LayoutMode
	Visible        bool
	VisitedPages   []int
	PageTimes      map[int]int
}

func (t *Tracker) Snapshot() Snapshot {
	times := make(map[int]int, len(t.pageTimes))
	for page, secs := range t.pageTimes {
		times[page] = secs
	}
	return Snapshot{
		CurrentPage:    t.currentPage,
		TotalPages:     t.totalPages,
		CurrentElapsed: t.currentElapsed,
		TotalElapsed:   t.TotalElapsed(),
		Scale:          t.scale,
		Layout:         t.layout,
		Visible:        t.visible,
		VisitedPages:   t.VisitedPages(),
		PageTimes:      times,
	}
}
