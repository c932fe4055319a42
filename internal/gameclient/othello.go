package gameclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/pkg/othellodto"
	"github.com/valyala/fasthttp"
)

// FetchState returns the authoritative game state.
func (c *Client) FetchState(ctx context.Context) (domain.Snapshot, error) {
	var st othellodto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/state", nil, nil, &st, true); err != nil {
		return domain.Snapshot{}, err
	}
	return SnapshotFromDTO(&st)
}

// SubmitHumanMove posts the human's move. The response body is ignored; the
// effect is observed through the next FetchState.
func (c *Client) SubmitHumanMove(ctx context.Context, row, col int) error {
	q := url.Values{}
	q.Set("row", strconv.Itoa(row))
	q.Set("col", strconv.Itoa(col))
	return c.doJSON(ctx, fasthttp.MethodPost, "/move", q, nil, nil, false)
}

// RequestAIMove asks the remote engine to play and returns the post-move state.
func (c *Client) RequestAIMove(ctx context.Context) (domain.Snapshot, error) {
	q := url.Values{}
	q.Set("ai", "true")
	var st othellodto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/move", q, nil, &st, false); err != nil {
		return domain.Snapshot{}, err
	}
	return SnapshotFromDTO(&st)
}

func (c *Client) ResetGame(ctx context.Context) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/reset", nil, nil, nil, false)
}

func (c *Client) StartSession(ctx context.Context, playerName string) error {
	q := url.Values{}
	q.Set("playerName", playerName)
	return c.doJSON(ctx, fasthttp.MethodPost, "/start", q, nil, nil, false)
}

func (c *Client) FetchCodingQuestion(ctx context.Context) (*othellodto.CodingQuestion, error) {
	var q othellodto.CodingQuestion
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/codingQuestion", nil, nil, &q, true); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) SubmitCode(ctx context.Context, code string) (*othellodto.SubmitCodeResponse, error) {
	var resp othellodto.SubmitCodeResponse
	req := othellodto.SubmitCodeRequest{Code: code}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/submitCode", nil, req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}
