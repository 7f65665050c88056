package tui

import "github.com/csheth/docview/internal/session"

type paneLayout struct {
	windowWidth    int
	windowHeight   int
	pageWidth      int
	qaWidth        int
	viewportHeight int
}

func newPaneLayout() paneLayout {
	return paneLayout{
		pageWidth:      80,
		qaWidth:        40,
		viewportHeight: 20,
	}
}

// Update recomputes pane sizes for a window. In full layout the page pane
// takes the whole width and the QA pane is hidden.
func (l *paneLayout) Update(width, height int, mode session.LayoutMode) {
	l.windowWidth = width
	l.windowHeight = height
	inner := width - horizontalPadding
	if inner < minPaneWidth {
		inner = minPaneWidth
	}
	if mode == session.LayoutFull {
		l.pageWidth = inner
		l.qaWidth = 0
	} else {
		l.qaWidth = inner * qaPaneShareNumer / qaPaneShareDenom
		if l.qaWidth < minPaneWidth {
			l.qaWidth = minPaneWidth
		}
		l.pageWidth = inner - l.qaWidth
		if l.pageWidth < minPaneWidth {
			l.pageWidth = minPaneWidth
		}
	}
	const chrome = 7
	l.viewportHeight = height - chrome
	if l.viewportHeight < 5 {
		l.viewportHeight = 5
	}
}

// wrapWidth is the rendered page width at a zoom level: the page fills
// its pane at the maximum scale and shrinks proportionally below it.
func (l paneLayout) wrapWidth(scale float64) int {
	width := int(float64(l.pageWidth) * scale / session.MaxScale)
	if width < minPaneWidth-4 {
		width = minPaneWidth - 4
	}
	return width
}
