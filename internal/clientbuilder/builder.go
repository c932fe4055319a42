package clientbuilder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/park285/othello-turn-client/internal/codegate"
	"github.com/park285/othello-turn-client/internal/config"
	"github.com/park285/othello-turn-client/internal/console"
	"github.com/park285/othello-turn-client/internal/gameclient"
	"github.com/park285/othello-turn-client/internal/msgcat"
	"github.com/park285/othello-turn-client/internal/obslog"
	"github.com/park285/othello-turn-client/internal/render"
	"github.com/park285/othello-turn-client/internal/session"
	"github.com/park285/othello-turn-client/internal/turn"
	"github.com/park285/othello-turn-client/internal/turnlock"
	"github.com/park285/othello-turn-client/internal/view"
	"github.com/park285/othello-turn-client/internal/viewfeed"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type Deps struct {
	Client       *gameclient.Client
	Session      *session.Session
	Catalog      *msgcat.Catalog
	View         *view.Synchronizer
	Orchestrator *turn.Orchestrator
	Gate         *codegate.Gate
	Console      *console.Console
	Feed         *viewfeed.Hub
	Lock         *turnlock.Lock

	redis *redis.Client
}

type Option func(*buildOptions)

type buildOptions struct {
	dial    fasthttp.DialFunc
	sleeper turn.Sleeper
}

// WithDial routes the game client through dial instead of TCP.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(o *buildOptions) { o.dial = dial }
}

func WithSleeper(s turn.Sleeper) Option {
	return func(o *buildOptions) { o.sleeper = s }
}

// New wires every component from cfg. The terminal board and console write to out.
func New(ctx context.Context, cfg *config.AppConfig, out io.Writer, opts ...Option) (*Deps, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	sessionID := strings.TrimSpace(cfg.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := session.New(sessionID)

	headers := func() map[string]string {
		return map[string]string{"X-Session-Id": sessionID}
	}
	copts := []gameclient.Option{
		gameclient.WithTimeout(cfg.HTTPTimeout),
		gameclient.WithRetry(cfg.HTTPRetry),
		gameclient.WithHeaderProvider(headers),
	}
	if bo.dial != nil {
		copts = append(copts, gameclient.WithDial(bo.dial))
	}
	client := gameclient.NewClient(cfg.APIBaseURL, copts...)

	vs := view.NewSynchronizer(view.NewProjector(cat), view.NewTextDisplay(out, cat))
	if p := strings.TrimSpace(cfg.BoardPNGPath); p != "" {
		vs.AddDisplay(render.NewFileDisplay(p, render.NewRenderer()))
	}
	var feed *viewfeed.Hub
	if strings.TrimSpace(cfg.ViewWSAddr) != "" {
		feed = viewfeed.NewHub(cfg.ViewWSOrigins)
		vs.AddDisplay(feed)
	}

	d := &Deps{Client: client, Session: sess, Catalog: cat, View: vs, Feed: feed}

	topts := []turn.Option{turn.WithDelays(cfg.AIDelay, cfg.HighlightDuration)}
	if bo.sleeper != nil {
		topts = append(topts, turn.WithSleeper(bo.sleeper))
	}
	if cfg.RedisURL != "" {
		rdb, err := turnlock.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init turn lock: %w", err)
		}
		d.redis = rdb
		d.Lock = turnlock.New(rdb, sessionID, cfg.TurnLockTTL)
		topts = append(topts, turn.WithLocker(d.Lock))
	}
	d.Orchestrator = turn.New(client, sess, vs, topts...)

	d.Gate = codegate.New(client, sess, codegate.WithCatalog(cat), codegate.WithNotifier(vs.Refresh))
	vs.AttachGate(d.Gate)

	d.Console = console.New(d.Orchestrator, sess, d.Gate, out, cat)

	obslog.L().Info("client_built",
		zap.String("api", cfg.APIBaseURL),
		zap.String("session", sessionID),
		zap.Bool("turn_lock", d.Lock != nil),
		zap.Bool("board_png", cfg.BoardPNGPath != ""),
		zap.Bool("view_feed", feed != nil),
	)
	return d, nil
}

// Close waits for in-flight turn cycles and releases external resources.
func (d *Deps) Close() error {
	if d.Orchestrator != nil {
		d.Orchestrator.Wait()
	}
	if d.redis != nil {
		return d.redis.Close()
	}
	return nil
}
