package turn

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/obslog"
	"github.com/park285/othello-turn-client/internal/session"
	"go.uber.org/zap"
)

const (
	DefaultAIDelay           = 700 * time.Millisecond
	DefaultHighlightDuration = 600 * time.Millisecond
)

// Gateway is the remote game service as the orchestrator uses it.
type Gateway interface {
	FetchState(ctx context.Context) (domain.Snapshot, error)
	SubmitHumanMove(ctx context.Context, row, col int) error
	RequestAIMove(ctx context.Context) (domain.Snapshot, error)
	ResetGame(ctx context.Context) error
	StartSession(ctx context.Context, playerName string) error
}

// Presenter receives every accepted snapshot and the transient highlight layer.
type Presenter interface {
	Present(snap domain.Snapshot, moves []domain.Point)
	// Highlight shows p over the current frame; nil removes it.
	Highlight(p *domain.Point)
}

// Sleeper waits out the timed transitions. Tests substitute a fake.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// Locker is an optional cross-process turn token. Acquire returns a release func.
type Locker interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
}

type Option func(*Orchestrator)

func WithDelays(aiDelay, highlight time.Duration) Option {
	return func(o *Orchestrator) {
		if aiDelay >= 0 {
			o.aiDelay = aiDelay
		}
		if highlight >= 0 {
			o.highlight = highlight
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleeper = s
		}
	}
}

func WithLocker(l Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// Orchestrator drives the human-move → AI-move cycle against the remote game.
// The mutex is the turn token: state changes happen under it, network calls
// never do. Responses from a cycle older than the session epoch are dropped.
type Orchestrator struct {
	gw      Gateway
	sess    *session.Session
	view    Presenter
	locker  Locker
	sleeper Sleeper

	aiDelay   time.Duration
	highlight time.Duration

	mu      sync.Mutex
	machine Machine
	cycles  sync.WaitGroup
	cycle   uint64
	lock    heldLock
}

// heldLock is the turn lock owned by the cycle numbered cycle.
type heldLock struct {
	release func(context.Context) error
	cycle   uint64
}

func New(gw Gateway, sess *session.Session, view Presenter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gw:        gw,
		sess:      sess,
		view:      view,
		sleeper:   SleeperFunc(timerSleep),
		aiDelay:   DefaultAIDelay,
		highlight: DefaultHighlightDuration,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.State()
}

// Activate starts a turn cycle for a human move at p. Guard violations are
// returned synchronously and send nothing. On success the cycle runs in the
// background and the returned channel closes when it ends.
func (o *Orchestrator) Activate(ctx context.Context, p domain.Point) (<-chan struct{}, error) {
	if !p.InBounds() {
		return nil, fmt.Errorf("%w: row=%d col=%d", ErrCellOutOfRange, p.Row, p.Col)
	}

	o.mu.Lock()
	err := o.guardLocked()
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var release func(context.Context) error
	if o.locker != nil {
		rel, err := o.locker.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		release = rel
	}

	o.mu.Lock()
	// the state may have moved while the lock was being acquired
	if err := o.guardLocked(); err != nil {
		o.mu.Unlock()
		o.releaseLock(release, o.sess.Epoch())
		return nil, err
	}
	o.cycle++
	cycle := o.cycle
	if release != nil {
		o.lock = heldLock{release: release, cycle: cycle}
	}
	epoch := o.sess.Epoch()
	o.sess.AppendMove(epoch, p)
	_ = o.machine.Fire(EvActivate)
	o.presentLocked()
	o.cycles.Add(1)
	o.mu.Unlock()

	obslog.L().Info("turn_cycle_started", zap.Uint64("epoch", epoch), zap.Int("row", p.Row), zap.Int("col", p.Col))

	done := make(chan struct{})
	go func() {
		defer o.cycles.Done()
		defer close(done)
		defer o.finishCycle(cycle, epoch)
		o.runCycle(ctx, epoch, p)
	}()
	return done, nil
}

func (o *Orchestrator) guardLocked() error {
	switch {
	case o.machine.State() == Terminal:
		return ErrTerminal
	case o.machine.Busy():
		return ErrBusy
	case o.sess.CurrentPlayer() != domain.Human:
		return ErrNotYourTurn
	}
	return nil
}

func (o *Orchestrator) runCycle(ctx context.Context, epoch uint64, p domain.Point) {
	log := obslog.L().With(zap.Uint64("epoch", epoch))

	if err := o.gw.SubmitHumanMove(ctx, p.Row, p.Col); err != nil {
		log.Warn("human_move_submit_failed", zap.Int("row", p.Row), zap.Int("col", p.Col), zap.Error(err))
		o.advance(epoch, EvSubmitFailed, nil)
		return
	}

	snap, err := o.gw.FetchState(ctx)
	switch {
	case err != nil:
		log.Warn("state_fetch_failed", zap.String("phase", "move_ack"), zap.Error(err))
		if !o.advance(epoch, EvAckFetched, nil) {
			return
		}
	case snap.Winner.Decided():
		o.advance(epoch, EvAckWinner, &snap)
		return
	default:
		if !o.advance(epoch, EvAckFetched, &snap) {
			return
		}
	}

	if err := o.sleeper.Sleep(ctx, o.aiDelay); err != nil {
		log.Warn("turn_cycle_aborted", zap.String("phase", "ai_delay"), zap.Error(err))
		o.advance(epoch, EvAborted, nil)
		return
	}
	if !o.advance(epoch, EvDelayElapsed, nil) {
		return
	}

	ai, err := o.gw.RequestAIMove(ctx)
	if err != nil {
		log.Warn("ai_move_failed", zap.Error(err))
		o.advance(epoch, EvAIFailed, nil)
		return
	}

	if ai.LastMove != nil && o.highlightIfCurrent(epoch, ai.LastMove) {
		err := o.sleeper.Sleep(ctx, o.highlight)
		o.highlightIfCurrent(epoch, nil)
		if err != nil {
			log.Warn("turn_cycle_aborted", zap.String("phase", "highlight"), zap.Error(err))
			o.advance(epoch, EvAborted, nil)
			return
		}
	}

	ev := EvAIApplied
	if ai.Winner.Decided() {
		ev = EvAIWinner
	}
	if o.advance(epoch, ev, &ai) {
		log.Info("turn_cycle_finished", zap.Stringer("state", o.State()), zap.Stringer("winner", ai.Winner))
	}
}

// advance fires ev for the cycle started at epoch, applying and presenting
// snap when given. It returns false when the cycle went stale.
func (o *Orchestrator) advance(epoch uint64, ev Event, snap *domain.Snapshot) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.Epoch() != epoch {
		obslog.L().Info("stale_response_discarded", zap.Uint64("epoch", epoch), zap.Stringer("event", ev))
		return false
	}
	if err := o.machine.Fire(ev); err != nil {
		obslog.L().Error("turn_transition_rejected", zap.Error(err))
		return false
	}
	if snap != nil && o.sess.Apply(epoch, *snap) {
		o.presentLocked()
	}
	return true
}

func (o *Orchestrator) highlightIfCurrent(epoch uint64, p *domain.Point) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.Epoch() != epoch {
		return false
	}
	o.view.Highlight(p)
	return true
}

// finishCycle releases the turn lock if the cycle still owns it. Reset and
// Start take the lock away from an abandoned cycle.
func (o *Orchestrator) finishCycle(cycle, epoch uint64) {
	o.mu.Lock()
	var release func(context.Context) error
	if o.lock.cycle == cycle {
		release = o.lock.release
		o.lock = heldLock{}
	}
	o.mu.Unlock()
	o.releaseLock(release, epoch)
}

// takeLockLocked detaches the held turn lock. Caller holds o.mu.
func (o *Orchestrator) takeLockLocked() func(context.Context) error {
	release := o.lock.release
	o.lock = heldLock{}
	return release
}

func (o *Orchestrator) releaseLock(release func(context.Context) error, epoch uint64) {
	if release == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		obslog.L().Warn("turn_lock_release_failed", zap.Uint64("epoch", epoch), zap.Error(err))
	}
}

// presentLocked pushes the session state to the view. Caller holds o.mu.
func (o *Orchestrator) presentLocked() {
	snap, _ := o.sess.Snapshot()
	o.view.Present(snap, o.sess.MoveLog())
}

// Reset abandons any in-flight cycle, clears the move log and the overlay,
// resets the remote game and refetches the state.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.mu.Lock()
	epoch := o.sess.Reset()
	_ = o.machine.Fire(EvReset)
	o.view.Highlight(nil)
	o.presentLocked()
	release := o.takeLockLocked()
	o.mu.Unlock()

	o.releaseLock(release, epoch)
	obslog.L().Info("game_reset", zap.Uint64("epoch", epoch))
	if err := o.gw.ResetGame(ctx); err != nil {
		obslog.L().Warn("reset_failed", zap.Error(err))
		return fmt.Errorf("reset game: %w", err)
	}
	return o.refresh(ctx, epoch)
}

// Start bootstraps a remote session for playerName and begins a fresh epoch.
func (o *Orchestrator) Start(ctx context.Context, playerName string) error {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return ErrPlayerNameRequired
	}
	if err := o.gw.StartSession(ctx, name); err != nil {
		obslog.L().Warn("session_start_failed", zap.String("player", name), zap.Error(err))
		return fmt.Errorf("start session: %w", err)
	}

	o.mu.Lock()
	epoch := o.sess.Begin(name)
	_ = o.machine.Fire(EvReset)
	o.view.Highlight(nil)
	o.presentLocked()
	release := o.takeLockLocked()
	o.mu.Unlock()

	o.releaseLock(release, epoch)

	obslog.L().Info("session_started", zap.String("player", name), zap.Uint64("epoch", epoch))
	return o.refresh(ctx, epoch)
}

// Refresh refetches the state outside of a cycle. It is a no-op while a cycle
// is in flight.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	return o.refresh(ctx, o.sess.Epoch())
}

func (o *Orchestrator) refresh(ctx context.Context, epoch uint64) error {
	snap, err := o.gw.FetchState(ctx)
	if err != nil {
		obslog.L().Warn("state_fetch_failed", zap.String("phase", "refresh"), zap.Error(err))
		return fmt.Errorf("fetch state: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.Epoch() != epoch || o.machine.Busy() {
		obslog.L().Debug("refresh_discarded", zap.Uint64("epoch", epoch), zap.Stringer("state", o.machine.State()))
		return nil
	}
	ev := EvRefreshed
	if snap.Winner.Decided() {
		ev = EvRefreshWinner
	}
	if err := o.machine.Fire(ev); err != nil {
		return err
	}
	if o.sess.Apply(epoch, snap) {
		o.presentLocked()
	}
	return nil
}

// Wait blocks until every started cycle has finished.
func (o *Orchestrator) Wait() { o.cycles.Wait() }

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
