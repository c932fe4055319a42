package turn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/park285/othello-turn-client/internal/domain"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	fetch     func(n int) (domain.Snapshot, error)
	fetches   int
	submitErr error
	ai        domain.Snapshot
	aiErr     error
	resetErr  error
	startErr  error

	// aiEntered is closed when RequestAIMove is entered; aiRelease gates its return.
	aiEntered chan struct{}
	aiRelease chan struct{}
}

func (g *fakeGateway) record(s string) {
	g.mu.Lock()
	g.calls = append(g.calls, s)
	g.mu.Unlock()
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) FetchState(context.Context) (domain.Snapshot, error) {
	g.mu.Lock()
	g.calls = append(g.calls, "fetch")
	n := g.fetches
	g.fetches++
	f := g.fetch
	g.mu.Unlock()
	if f == nil {
		return snapshotFor(domain.Black, nil, domain.NoWinner), nil
	}
	return f(n)
}

func (g *fakeGateway) SubmitHumanMove(_ context.Context, row, col int) error {
	g.record(fmt.Sprintf("move(%d,%d)", row, col))
	return g.submitErr
}

func (g *fakeGateway) RequestAIMove(context.Context) (domain.Snapshot, error) {
	g.record("ai")
	if g.aiEntered != nil {
		close(g.aiEntered)
	}
	if g.aiRelease != nil {
		<-g.aiRelease
	}
	return g.ai, g.aiErr
}

func (g *fakeGateway) ResetGame(context.Context) error {
	g.record("reset")
	return g.resetErr
}

func (g *fakeGateway) StartSession(_ context.Context, name string) error {
	g.record("start(" + name + ")")
	return g.startErr
}

type presented struct {
	snap  domain.Snapshot
	moves []domain.Point
}

type recordingPresenter struct {
	mu         sync.Mutex
	frames     []presented
	highlights []*domain.Point
}

func (p *recordingPresenter) Present(snap domain.Snapshot, moves []domain.Point) {
	p.mu.Lock()
	p.frames = append(p.frames, presented{snap: snap, moves: moves})
	p.mu.Unlock()
}

func (p *recordingPresenter) Highlight(pt *domain.Point) {
	p.mu.Lock()
	if pt != nil {
		cp := *pt
		pt = &cp
	}
	p.highlights = append(p.highlights, pt)
	p.mu.Unlock()
}

func (p *recordingPresenter) last() presented {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames[len(p.frames)-1]
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func (p *recordingPresenter) Highlights() []*domain.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.Point(nil), p.highlights...)
}

type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

type fakeLocker struct {
	mu       sync.Mutex
	err      error
	acquired int
	released int
}

func (l *fakeLocker) Acquire(context.Context) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func snapshotFor(current domain.Player, last *domain.Point, w domain.Winner) domain.Snapshot {
	return domain.Snapshot{Board: domain.InitialBoard(), CurrentPlayer: current, LastMove: last, Winner: w}
}

// gatedLocker blocks Acquire until gate is closed.
type gatedLocker struct {
	fakeLocker
	entered chan struct{}
	gate    chan struct{}
}

func (l *gatedLocker) Acquire(ctx context.Context) (func(context.Context) error, error) {
	close(l.entered)
	<-l.gate
	return l.fakeLocker.Acquire(ctx)
}
