package session

import (
	"testing"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HumanMovesFirst(t *testing.T) {
	s := New("sid")
	snap, observed := s.Snapshot()
	assert.False(t, observed)
	assert.Equal(t, domain.Black, snap.CurrentPlayer)
	assert.Equal(t, "sid", s.ID())
}

func TestApply_StaleEpochDiscarded(t *testing.T) {
	s := New("sid")
	old := s.Epoch()
	s.Reset()

	snap := domain.Snapshot{Board: domain.InitialBoard(), CurrentPlayer: domain.White}
	assert.False(t, s.Apply(old, snap))
	got, observed := s.Snapshot()
	assert.False(t, observed)
	assert.Equal(t, domain.Black, got.CurrentPlayer)

	assert.True(t, s.Apply(s.Epoch(), snap))
	got, observed = s.Snapshot()
	assert.True(t, observed)
	assert.Equal(t, domain.White, got.CurrentPlayer)
}

func TestApply_StoresCopy(t *testing.T) {
	s := New("sid")
	lm := domain.Point{Row: 1, Col: 2}
	snap := domain.Snapshot{CurrentPlayer: domain.Black, LastMove: &lm, History: []string{"a"}}
	require.True(t, s.Apply(0, snap))

	lm.Row = 7
	snap.History[0] = "b"
	got, _ := s.Snapshot()
	assert.Equal(t, 1, got.LastMove.Row)
	assert.Equal(t, []string{"a"}, got.History)
}

func TestReset_ClearsLogAndWinner(t *testing.T) {
	s := New("sid")
	require.True(t, s.AppendMove(0, domain.Point{Row: 3, Col: 4}))
	require.True(t, s.Apply(0, domain.Snapshot{CurrentPlayer: domain.Black, Winner: domain.WinnerTie}))

	e := s.Reset()
	assert.Equal(t, uint64(1), e)
	assert.Empty(t, s.MoveLog())
	got, _ := s.Snapshot()
	assert.Equal(t, domain.NoWinner, got.Winner)
	assert.False(t, s.AppendMove(0, domain.Point{}))
}

func TestBegin_RecordsPlayerName(t *testing.T) {
	s := New("sid")
	s.Begin("alice")
	assert.Equal(t, "alice", s.PlayerName())

	require.True(t, s.Apply(s.Epoch(), domain.Snapshot{CurrentPlayer: domain.Black}))
	got, _ := s.Snapshot()
	assert.Equal(t, "alice", got.PlayerName)
}

func TestMoveLog_Order(t *testing.T) {
	s := New("sid")
	s.AppendMove(0, domain.Point{Row: 3, Col: 4})
	s.AppendMove(0, domain.Point{Row: 2, Col: 2})
	assert.Equal(t, []domain.Point{{Row: 3, Col: 4}, {Row: 2, Col: 2}}, s.MoveLog())
}
