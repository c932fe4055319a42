package codegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/msgcat"
	"github.com/park285/othello-turn-client/internal/obslog"
	"github.com/park285/othello-turn-client/pkg/othellodto"
	"go.uber.org/zap"
)

var (
	ErrNotYourTurn = errors.New("code submission is only allowed on the human's turn")
	ErrEmptyCode   = errors.New("code is empty")
	ErrBusy        = errors.New("a code submission is already outstanding")
	ErrNoQuestion  = errors.New("no coding question available")
)

// Gateway is the subset of the game service the gate talks to.
type Gateway interface {
	FetchCodingQuestion(ctx context.Context) (*othellodto.CodingQuestion, error)
	SubmitCode(ctx context.Context, code string) (*othellodto.SubmitCodeResponse, error)
}

// TurnSource reports whose turn it is.
type TurnSource interface {
	CurrentPlayer() domain.Player
}

// Question is a loaded coding question with its test cases formatted for display.
type Question struct {
	Text      string
	TestCases string
}

type Option func(*Gate)

// WithNotifier registers a callback run whenever enablement may have changed.
// It is always invoked without the gate's lock held.
func WithNotifier(fn func()) Option {
	return func(g *Gate) { g.notify = fn }
}

func WithCatalog(cat *msgcat.Catalog) Option {
	return func(g *Gate) {
		if cat != nil {
			g.cat = cat
		}
	}
}

// Gate guards the code submission round trip. At most one submission is
// outstanding and only the human may submit.
type Gate struct {
	gw     Gateway
	turn   TurnSource
	cat    *msgcat.Catalog
	notify func()

	mu     sync.Mutex
	busy   bool
	output string
}

func New(gw Gateway, turn TurnSource, opts ...Option) *Gate {
	g := &Gate{gw: gw, turn: turn, cat: msgcat.Default()}
	for _, opt := range opts {
		opt(g)
	}
	g.output = g.cat.Text("code.placeholder", nil)
	return g
}

// Busy reports whether a submission is in flight.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Enabled is true iff it is the human's turn and nothing is outstanding.
func (g *Gate) Enabled() bool {
	return g.turn.CurrentPlayer() == domain.Human && !g.Busy()
}

// Output returns the text of the last submission, or the placeholder.
func (g *Gate) Output() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.output
}

// Clear resets the output area to the placeholder.
func (g *Gate) Clear() string {
	g.mu.Lock()
	g.output = g.cat.Text("code.placeholder", nil)
	out := g.output
	g.mu.Unlock()
	return out
}

// Submit sends code for remote execution and returns the formatted output.
// Guard violations return the user-facing message together with a sentinel
// error and make no network call. Remote and transport failures are reported
// in the output, not as errors.
func (g *Gate) Submit(ctx context.Context, code string) (string, error) {
	if g.turn.CurrentPlayer() != domain.Human {
		return g.setOutput(g.cat.Text("code.not_your_turn", nil)), ErrNotYourTurn
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return g.setOutput(g.cat.Text("code.empty", nil)), ErrEmptyCode
	}

	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return g.cat.Text("code.running", nil), ErrBusy
	}
	g.busy = true
	g.output = g.cat.Text("code.running", nil)
	g.mu.Unlock()
	g.changed()

	var out string
	defer func() {
		g.mu.Lock()
		g.busy = false
		g.output = out
		g.mu.Unlock()
		g.changed()
	}()

	resp, err := g.gw.SubmitCode(ctx, code)
	if err != nil {
		obslog.L().Warn("code_submit_failed", zap.Error(err))
		out = g.cat.Text("code.failure", map[string]any{"Reason": err.Error()})
		return out, nil
	}
	out = g.format(resp)
	obslog.L().Info("code_submitted", zap.Bool("success", resp.Success), zap.Int("code_len", len(code)))
	return out, nil
}

func (g *Gate) format(resp *othellodto.SubmitCodeResponse) string {
	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = g.cat.Text("code.failed", nil)
		}
		return g.cat.Text("code.failure", map[string]any{"Reason": reason})
	}

	var b strings.Builder
	if resp.CompileOutput != "" {
		b.WriteString(g.cat.Text("code.compile_output", map[string]any{"Text": resp.CompileOutput}))
	}
	if resp.Stderr != "" {
		b.WriteString(g.cat.Text("code.stderr", map[string]any{"Text": resp.Stderr}))
	}
	if resp.Stdout != "" {
		b.WriteString(g.cat.Text("code.stdout", map[string]any{"Text": resp.Stdout}))
	} else {
		b.WriteString(g.cat.Text("code.no_output", nil))
	}
	return b.String()
}

// Question loads the current coding question.
func (g *Gate) Question(ctx context.Context) (Question, error) {
	q, err := g.gw.FetchCodingQuestion(ctx)
	if err != nil {
		return Question{}, fmt.Errorf("load coding question: %w", err)
	}
	if q == nil || strings.TrimSpace(q.Question) == "" {
		return Question{}, ErrNoQuestion
	}

	lines := make([]string, 0, len(q.TestCases))
	for i, tc := range q.TestCases {
		lines = append(lines, g.cat.Text("question.testcase", map[string]any{"Index": i + 1, "Case": tc}))
	}
	cases := strings.Join(lines, "\n")
	if len(lines) == 0 {
		cases = g.cat.Text("question.no_testcases", nil)
	}
	return Question{Text: q.Question, TestCases: cases}, nil
}

func (g *Gate) setOutput(s string) string {
	g.mu.Lock()
	g.output = s
	g.mu.Unlock()
	return s
}

func (g *Gate) changed() {
	if g.notify != nil {
		g.notify()
	}
}
