package clientbuilder

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/park285/othello-turn-client/internal/config"
	"github.com/park285/othello-turn-client/internal/turn"
	"github.com/park285/othello-turn-client/pkg/othellodto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// fakeRemote plays a scripted game: the human's move hands the turn to
// White and the AI always answers at (2,2).
type fakeRemote struct {
	mu       sync.Mutex
	state    othellodto.GameState
	sessions []string
	started  []string
}

func newFakeRemote() *fakeRemote {
	board := make([][]int, 8)
	for r := range board {
		board[r] = make([]int, 8)
	}
	board[3][3], board[4][4] = 2, 2
	board[3][4], board[4][3] = 1, 1
	return &fakeRemote{state: othellodto.GameState{Board: board, CurrentPlayer: 1}}
}

func (f *fakeRemote) handle(ctx *fasthttp.RequestCtx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, string(ctx.Request.Header.Peek("X-Session-Id")))

	args := ctx.QueryArgs()
	switch strings.TrimPrefix(string(ctx.Path()), "/api/othello") {
	case "/state":
		f.write(ctx, f.state)
	case "/move":
		if string(args.Peek("ai")) == "true" {
			f.state.Board[2][2] = 2
			f.state.LastMove = []int{2, 2}
			f.state.CurrentPlayer = 1
			f.write(ctx, f.state)
			return
		}
		row, _ := args.GetUint("row")
		col, _ := args.GetUint("col")
		f.state.Board[row][col] = 1
		f.state.CurrentPlayer = 2
	case "/start":
		f.started = append(f.started, string(args.Peek("playerName")))
		f.state.BlackPlayerName = string(args.Peek("playerName"))
	case "/reset":
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (f *fakeRemote) write(ctx *fasthttp.RequestCtx, v any) {
	raw, _ := json.Marshal(v)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

type lockedBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func startRemote(t *testing.T, remote *fakeRemote) Option {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: remote.handle}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return WithDial(func(string) (net.Conn, error) { return ln.Dial() })
}

func testConfig(t *testing.T) *config.AppConfig {
	return &config.AppConfig{
		APIBaseURL:        "http://othello.test/api/othello",
		SessionID:         "sess-1",
		HTTPTimeout:       2 * time.Second,
		HTTPRetry:         1,
		AIDelay:           turn.DefaultAIDelay,
		HighlightDuration: turn.DefaultHighlightDuration,
		TurnLockTTL:       time.Minute,
		BoardPNGPath:      filepath.Join(t.TempDir(), "board.png"),
	}
}

var noSleep = WithSleeper(turn.SleeperFunc(func(ctx context.Context, d time.Duration) error { return ctx.Err() }))

func TestNew_PlaysOneTurnThroughConsole(t *testing.T) {
	remote := newFakeRemote()
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	out := &lockedBuffer{}
	d, err := New(context.Background(), cfg, out, startRemote(t, remote), noSleep)
	require.NoError(t, err)
	require.NotNil(t, d.Lock)
	assert.Nil(t, d.Feed)

	ctx := context.Background()
	require.NoError(t, d.Console.Run(ctx, strings.NewReader("start Ada\nmove 4 5\n")))
	d.Orchestrator.Wait()

	held, err := d.Lock.Held(ctx)
	require.NoError(t, err)
	assert.False(t, held)
	require.NoError(t, d.Close())
	assert.False(t, mr.Exists("othello:turn:sess-1"))

	text := out.String()
	assert.Contains(t, text, "Session started for Ada.")
	assert.Contains(t, text, "Othello · Ada (Black) vs AI (White)")
	white := strings.Index(text, "Current Turn: White")
	require.GreaterOrEqual(t, white, 0)
	assert.Greater(t, strings.LastIndex(text, "Current Turn: Black"), white)

	snap, _ := d.Session.Snapshot()
	require.NotNil(t, snap.LastMove)
	assert.Equal(t, 2, snap.LastMove.Row)
	assert.True(t, d.Gate.Enabled())
	assert.True(t, d.View.Current().CodeEnabled)

	info, err := os.Stat(cfg.BoardPNGPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Equal(t, []string{"Ada"}, remote.started)
	for _, s := range remote.sessions {
		assert.Equal(t, "sess-1", s)
	}
}

func TestNew_GeneratesSessionIDAndFeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionID = ""
	cfg.BoardPNGPath = ""
	cfg.ViewWSAddr = "127.0.0.1:0"

	d, err := New(context.Background(), cfg, &lockedBuffer{}, noSleep)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	assert.Len(t, d.Session.ID(), 36)
	require.NotNil(t, d.Feed)
	assert.Nil(t, d.Lock)
}

func TestNew_FeedHonoursOriginAllowList(t *testing.T) {
	cfg := testConfig(t)
	cfg.BoardPNGPath = ""
	cfg.ViewWSAddr = "127.0.0.1:0"
	cfg.ViewWSOrigins = []string{"http://board.local"}

	d, err := New(context.Background(), cfg, &lockedBuffer{}, noSleep)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NotNil(t, d.Feed)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	d.Feed.ServeWS(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), nil, &lockedBuffer{})
	require.Error(t, err)

	cfg := testConfig(t)
	cfg.RedisURL = "redis://127.0.0.1:1"
	_, err = New(context.Background(), cfg, &lockedBuffer{})
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.MessagesDir = filepath.Join(t.TempDir(), "missing")
	_, err = New(context.Background(), cfg, &lockedBuffer{})
	require.Error(t, err)
}
