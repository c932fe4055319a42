package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/othello-turn-client/internal/gameclient"
	"github.com/park285/othello-turn-client/internal/turnlock"
)

func main() {
	baseURL := os.Getenv("OTHELLO_API_URL")
	sessionID := os.Getenv("SESSION_ID")
	redisURL := os.Getenv("REDIS_URL")

	if baseURL == "" {
		baseURL = "http://localhost:8080/api/othello"
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if sessionID != "" {
			m["X-Session-Id"] = sessionID
		}
		return m
	}

	client := gameclient.NewClient(baseURL,
		gameclient.WithHeaderProvider(headers),
		gameclient.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := false
	snap, err := client.FetchState(ctx)
	if err != nil {
		log.Printf("/state error: %v", err)
		failed = true
	} else {
		black, white := snap.Board.Count()
		log.Printf("/state ok: current=%s black=%d white=%d winner=%s", snap.CurrentPlayer, black, white, snap.Winner)
	}

	q, err := client.FetchCodingQuestion(ctx)
	if err != nil {
		log.Printf("/codingQuestion error: %v", err)
	} else if q.Question == "" {
		log.Println("/codingQuestion ok: no question uploaded")
	} else {
		fmt.Printf("coding question: %q (%d testcases)\n", q.Question, len(q.TestCases))
	}

	if redisURL == "" {
		log.Println("REDIS_URL not set; skipping turn lock check")
	} else if rdb, err := turnlock.Dial(ctx, redisURL); err != nil {
		log.Printf("redis error: %v", err)
		failed = true
	} else {
		if sessionID != "" {
			held, herr := turnlock.New(rdb, sessionID, turnlock.DefaultTTL).Held(ctx)
			log.Printf("turn lock session=%s held=%v err=%v", sessionID, held, herr)
		} else {
			log.Println("redis ok")
		}
		_ = rdb.Close()
	}

	if failed {
		os.Exit(1)
	}
}
