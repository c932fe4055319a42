package session

import (
	"sync"

	"github.com/park285/othello-turn-client/internal/domain"
)

// Session is the single owner of client-side game state: the latest snapshot,
// the cycle epoch and the human move log. Readers always get copies.
type Session struct {
	mu sync.RWMutex

	id         string
	snap       domain.Snapshot
	observed   bool
	epoch      uint64
	moves      []domain.Point
	playerName string
}

// New creates a session. Until the first snapshot arrives the human is
// assumed to move first.
func New(id string) *Session {
	return &Session{
		id:   id,
		snap: domain.Snapshot{CurrentPlayer: domain.Human},
	}
}

func (s *Session) ID() string { return s.id }

// Snapshot returns the latest snapshot and whether one was ever observed.
func (s *Session) Snapshot() (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), s.observed
}

// CurrentPlayer is the side to move according to the last snapshot.
func (s *Session) CurrentPlayer() domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.CurrentPlayer
}

func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Apply replaces the snapshot when epoch is still current. It reports whether
// the snapshot was taken.
func (s *Session) Apply(epoch uint64, snap domain.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.snap = snap.Clone()
	if s.snap.PlayerName == "" {
		s.snap.PlayerName = s.playerName
	}
	s.observed = true
	return true
}

// Reset starts a new epoch, clears the move log and dismisses any winner on
// the held snapshot. It returns the new epoch.
func (s *Session) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.moves = nil
	s.snap.Winner = domain.NoWinner
	s.snap.LastMove = nil
	return s.epoch
}

// Begin starts a session for playerName; it behaves like Reset and records the name.
func (s *Session) Begin(playerName string) uint64 {
	s.mu.Lock()
	s.playerName = playerName
	s.snap.PlayerName = playerName
	s.mu.Unlock()
	return s.Reset()
}

func (s *Session) PlayerName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerName
}

// AppendMove records a human move if epoch is still current.
func (s *Session) AppendMove(epoch uint64, p domain.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.moves = append(s.moves, p)
	return true
}

// MoveLog returns a copy of the human moves in submission order.
func (s *Session) MoveLog() []domain.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Point(nil), s.moves...)
}
