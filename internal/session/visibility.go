package session

import "sync"

// VisibilitySource reports foreground/background transitions. A true value
// means the reader is looking at the document. The channel is closed once
// the source is released.
type VisibilitySource interface {
	Changes() <-chan bool
	Close() error
}

// ChannelSource adapts an existing channel, typically in tests.
type ChannelSource struct {
	ch   chan bool
	once sync.Once
}

func NewChannelSource(ch chan bool) *ChannelSource {
	return &ChannelSource{ch: ch}
}

func (s *ChannelSource) Changes() <-chan bool { return s.ch }

func (s *ChannelSource) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}

// ManualSource is toggled by the reader, e.g. with a pause key. Updates
// never block: when the buffer is full the oldest pending value is
// replaced since only the latest state matters.
type ManualSource struct {
	mu      sync.Mutex
	ch      chan bool
	visible bool
	closed  bool
}

func NewManualSource() *ManualSource {
	return &ManualSource{ch: make(chan bool, 4), visible: true}
}

func (s *ManualSource) Changes() <-chan bool { return s.ch }

// Set publishes a new state. Repeating the current state is a no-op.
func (s *ManualSource) Set(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.visible == visible {
		return
	}
	s.visible = visible
	for {
		select {
		case s.ch <- visible:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Toggle flips the state and returns the new value.
func (s *ManualSource) Toggle() bool {
	s.mu.Lock()
	next := !s.visible
	s.mu.Unlock()
	s.Set(next)
	return next
}

func (s *ManualSource) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *ManualSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
