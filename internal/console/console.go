package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/park285/othello-turn-client/internal/codegate"
	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/msgcat"
	"github.com/park285/othello-turn-client/internal/obslog"
	"github.com/park285/othello-turn-client/internal/session"
	"github.com/park285/othello-turn-client/internal/turn"
	"github.com/park285/othello-turn-client/internal/turnlock"
	"go.uber.org/zap"
)

// Orchestrator is the turn driver as the console uses it.
type Orchestrator interface {
	Activate(ctx context.Context, p domain.Point) (<-chan struct{}, error)
	Reset(ctx context.Context) error
	Start(ctx context.Context, playerName string) error
	Refresh(ctx context.Context) error
}

// CodeGate is the code submission surface.
type CodeGate interface {
	Submit(ctx context.Context, code string) (string, error)
	Question(ctx context.Context) (codegate.Question, error)
	Clear() string
}

const codeTerminator = "."

// Console reads commands line by line and dispatches them. Moves run in the
// background so a reset can be issued while a cycle is pending.
type Console struct {
	orch Orchestrator
	sess *session.Session
	gate CodeGate
	cat  *msgcat.Catalog

	mu  sync.Mutex
	out io.Writer
}

func New(orch Orchestrator, sess *session.Session, gate CodeGate, out io.Writer, cat *msgcat.Catalog) *Console {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &Console{orch: orch, sess: sess, gate: gate, cat: cat, out: out}
}

// Run processes commands from in until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-readCtx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	next := func() (string, bool) {
		select {
		case <-ctx.Done():
			return "", false
		case l, ok := <-lines:
			return l, ok
		}
	}

	for {
		c.print(c.cat.Text("console.prompt", nil))
		line, ok := next()
		if !ok {
			break
		}
		if quit := c.Execute(ctx, line, next); quit {
			return nil
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}

// Execute runs one command line. next supplies further lines for multi-line
// input and may be nil. It reports whether the console should stop.
func (c *Console) Execute(ctx context.Context, line string, next func() (string, bool)) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "help", "?":
		c.println(strings.TrimRight(c.cat.Text("console.help", nil), "\n"))
	case "quit", "exit":
		c.println(c.cat.Text("console.bye", nil))
		return true
	case "start":
		c.start(ctx, args)
	case "move", "m":
		c.move(ctx, args)
	case "reset":
		if err := c.orch.Reset(ctx); err != nil {
			c.println(c.explain(err))
			return false
		}
		c.println(c.cat.Text("console.reset_done", nil))
	case "state":
		if err := c.orch.Refresh(ctx); err != nil {
			c.println(c.explain(err))
		}
	case "log":
		c.moveLog()
	case "history":
		c.history()
	case "question":
		c.question(ctx)
	case "code":
		c.code(ctx, next)
	case "clear":
		c.println(c.gate.Clear())
	default:
		c.println(c.cat.Text("console.unknown", map[string]any{"Command": fields[0]}))
	}
	return false
}

func (c *Console) start(ctx context.Context, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		c.println(c.cat.Text("console.usage_start", nil))
		return
	}
	if err := c.orch.Start(ctx, name); err != nil {
		c.println(c.explain(err))
		return
	}
	c.println(c.cat.Text("console.started", map[string]any{"Name": name}))
}

func (c *Console) move(ctx context.Context, args []string) {
	p, ok := parseMove(args)
	if !ok {
		c.println(c.cat.Text("console.usage_move", nil))
		return
	}
	if _, err := c.orch.Activate(ctx, p); err != nil {
		obslog.L().Debug("move_rejected", zap.Int("row", p.Row), zap.Int("col", p.Col), zap.Error(err))
		c.println(c.explain(err))
	}
}

// parseMove reads a 1-indexed "row col" pair, also accepting "row,col".
func parseMove(args []string) (domain.Point, bool) {
	if len(args) == 1 && strings.Contains(args[0], ",") {
		args = strings.SplitN(args[0], ",", 2)
	}
	if len(args) != 2 {
		return domain.Point{}, false
	}
	r, err1 := strconv.Atoi(strings.TrimSpace(args[0]))
	col, err2 := strconv.Atoi(strings.TrimSpace(args[1]))
	if err1 != nil || err2 != nil {
		return domain.Point{}, false
	}
	return domain.Point{Row: r - 1, Col: col - 1}, true
}

func (c *Console) moveLog() {
	moves := c.sess.MoveLog()
	if len(moves) == 0 {
		c.println(c.cat.Text("console.log_empty", nil))
		return
	}
	var sb strings.Builder
	for i, m := range moves {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, m.Display())
	}
	c.print(sb.String())
}

func (c *Console) history() {
	snap, _ := c.sess.Snapshot()
	if len(snap.History) == 0 {
		c.println(c.cat.Text("console.history_empty", nil))
		return
	}
	c.println(strings.Join(snap.History, "\n"))
}

func (c *Console) question(ctx context.Context) {
	q, err := c.gate.Question(ctx)
	switch {
	case errors.Is(err, codegate.ErrNoQuestion):
		c.println(c.cat.Text("question.missing", nil))
	case err != nil:
		obslog.L().Warn("question_load_failed", zap.Error(err))
		c.println(c.explain(err))
	default:
		c.println(q.Text + "\n\n" + q.TestCases)
	}
}

func (c *Console) code(ctx context.Context, next func() (string, bool)) {
	if next == nil {
		return
	}
	c.println(c.cat.Text("console.code_prompt", nil))
	var lines []string
	for {
		l, ok := next()
		if !ok || strings.TrimSpace(l) == codeTerminator {
			break
		}
		lines = append(lines, l)
	}
	out, err := c.gate.Submit(ctx, strings.Join(lines, "\n"))
	if err != nil {
		obslog.L().Debug("code_rejected", zap.Error(err))
	}
	c.println(out)
}

// explain maps an operation error to the message shown to the user.
func (c *Console) explain(err error) string {
	switch {
	case errors.Is(err, turn.ErrBusy):
		return c.cat.Text("console.busy", nil)
	case errors.Is(err, turn.ErrNotYourTurn):
		return c.cat.Text("console.not_your_turn", nil)
	case errors.Is(err, turn.ErrTerminal):
		return c.cat.Text("console.terminal", nil)
	case errors.Is(err, turn.ErrCellOutOfRange):
		return c.cat.Text("console.out_of_range", nil)
	case errors.Is(err, turn.ErrPlayerNameRequired):
		return c.cat.Text("console.name_required", nil)
	case errors.Is(err, turnlock.ErrHeld):
		return c.cat.Text("console.lock_held", nil)
	default:
		return c.cat.Text("console.request_failed", nil)
	}
}

func (c *Console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

func (c *Console) println(s string) { c.print(s + "\n") }
