package view

import (
	"sync"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/obslog"
	"go.uber.org/zap"
)

// Display shows frames. Implementations must not block for long.
type Display interface {
	Name() string
	Show(f Frame) error
}

// BusyReporter exposes whether a code submission is outstanding.
type BusyReporter interface {
	Busy() bool
}

// Synchronizer keeps the displays in line with the session. It owns the last
// projected input and the highlight layer; every change re-projects and
// fans the frame out.
type Synchronizer struct {
	proj     *Projector
	displays []Display

	mu        sync.Mutex
	gate      BusyReporter
	input     Input
	highlight *domain.Point
	last      Frame
	seq       uint64
}

func NewSynchronizer(proj *Projector, displays ...Display) *Synchronizer {
	if proj == nil {
		proj = NewProjector(nil)
	}
	return &Synchronizer{proj: proj, displays: displays}
}

// AttachGate wires the code gate so frames carry its enablement.
func (s *Synchronizer) AttachGate(g BusyReporter) {
	s.mu.Lock()
	s.gate = g
	s.mu.Unlock()
}

func (s *Synchronizer) AddDisplay(d Display) {
	s.mu.Lock()
	s.displays = append(s.displays, d)
	s.mu.Unlock()
}

// Present replaces the projected snapshot and move log.
func (s *Synchronizer) Present(snap domain.Snapshot, moves []domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input.Snapshot = snap.Clone()
	s.input.Moves = append([]domain.Point(nil), moves...)
	s.publishLocked()
}

// Highlight sets or clears the transient highlight over the current frame.
func (s *Synchronizer) Highlight(p *domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil && s.highlight == nil {
		return
	}
	if p != nil {
		cp := *p
		p = &cp
	}
	s.highlight = p
	s.publishLocked()
}

// Refresh re-projects the current input, e.g. after the gate changed.
func (s *Synchronizer) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked()
}

// Current returns the last published frame.
func (s *Synchronizer) Current() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Synchronizer) publishLocked() {
	in := s.input
	if s.gate != nil {
		in.CodeBusy = s.gate.Busy()
	}
	f := s.proj.Project(in)
	if s.highlight != nil {
		hl := *s.highlight
		f.Highlight = &hl
	}
	s.seq++
	f.Seq = s.seq
	s.last = f

	for _, d := range s.displays {
		if err := d.Show(f); err != nil {
			obslog.L().Warn("display_failed", zap.String("display", d.Name()), zap.Uint64("seq", f.Seq), zap.Error(err))
		}
	}
}
