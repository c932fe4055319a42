package gameclient

import (
	"fmt"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/obslog"
	"github.com/park285/othello-turn-client/pkg/othellodto"
	"go.uber.org/zap"
)

// SnapshotFromDTO validates a wire state and converts it into a Snapshot.
// Shape violations are reported as ErrDecode so callers treat them like any
// other failed round trip.
func SnapshotFromDTO(st *othellodto.GameState) (domain.Snapshot, error) {
	if st == nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %w: empty body", ErrDecode, domain.ErrMalformedSnapshot)
	}
	if len(st.Board) != domain.BoardSize {
		return domain.Snapshot{}, fmt.Errorf("%w: %w: board has %d rows", ErrDecode, domain.ErrMalformedSnapshot, len(st.Board))
	}

	var snap domain.Snapshot
	for r, row := range st.Board {
		if len(row) != domain.BoardSize {
			return domain.Snapshot{}, fmt.Errorf("%w: %w: row %d has %d cells", ErrDecode, domain.ErrMalformedSnapshot, r, len(row))
		}
		for c, v := range row {
			cell := domain.Cell(v)
			if cell != domain.Empty && cell != domain.BlackDisc && cell != domain.WhiteDisc {
				return domain.Snapshot{}, fmt.Errorf("%w: %w: cell (%d,%d)=%d", ErrDecode, domain.ErrMalformedSnapshot, r, c, v)
			}
			snap.Board[r][c] = cell
		}
	}

	snap.CurrentPlayer = domain.Player(st.CurrentPlayer)
	if !snap.CurrentPlayer.Valid() {
		return domain.Snapshot{}, fmt.Errorf("%w: %w: currentPlayer=%d", ErrDecode, domain.ErrMalformedSnapshot, st.CurrentPlayer)
	}

	if len(st.LastMove) > 0 {
		if len(st.LastMove) == 2 {
			p := domain.Point{Row: st.LastMove[0], Col: st.LastMove[1]}
			if p.InBounds() {
				snap.LastMove = &p
			}
		}
		if snap.LastMove == nil {
			obslog.L().Warn("snapshot_last_move_dropped", zap.Ints("last_move", st.LastMove))
		}
	}

	snap.Winner = domain.WinnerFromWire(st.Winner)
	snap.PlayerName = st.BlackPlayerName
	snap.History = append([]string(nil), st.MoveHistory...)
	return snap, nil
}
