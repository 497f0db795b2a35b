package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pokerbeat/internal/config"
	"pokerbeat/internal/poker"
	"pokerbeat/internal/testutil"
)

func TestAppPlaysThroughPostgres(t *testing.T) {
	st := testutil.OpenTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.AppConfig{
		Server: config.ServerConfig{BroadcastBuffer: 10, AdminAPIKey: "k"},
		Beat: config.BeatConfig{
			PollTimeout:   50 * time.Millisecond,
			SweepInterval: 50 * time.Millisecond,
			IdleCooldown:  time.Minute,
			BotPoll:       20 * time.Millisecond,
			DeckSeed:      "main",
		},
	}
	a := newApp(ctx, cfg, st)
	a.start(ctx)
	defer func() {
		cancel()
		a.wait()
	}()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("X-Admin-Key", "k")
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodPost, "/api/admin/tables", `{"id":"main-t1","num_seats":6,"sb":1,"bb":2}`); rec.Code != http.StatusCreated {
		t.Fatalf("create table = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodPost, "/api/admin/fund", `{"user_id":"u1","amount":500}`); rec.Code != http.StatusOK {
		t.Fatalf("fund = %d %s", rec.Code, rec.Body.String())
	}
	steps := []string{
		`{"type":"JOIN_TABLE","player_id":"p1","user_id":"u1","username":"alice"}`,
		`{"type":"TAKE_SEAT","player_id":"p1","amount":200}`,
	}
	for _, body := range steps {
		if rec := do(http.MethodPost, "/api/tables/main-t1/actions", body); rec.Code != http.StatusAccepted {
			t.Fatalf("action %s = %d %s", body, rec.Code, rec.Body.String())
		}
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		rec := do(http.MethodGet, "/api/tables/main-t1/state?player_id=p1", "")
		var gs poker.GameState
		_ = json.Unmarshal(rec.Body.Bytes(), &gs)
		if len(gs.Players) == 1 && gs.Players[0].Stack == 200 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("player never seated: %s", rec.Body.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
	if bal, err := st.AccountBalance(ctx, "user:u1"); err != nil || bal != 300 {
		t.Fatalf("balance = %d, %v", bal, err)
	}
}

func TestResumeStartsOpenTables(t *testing.T) {
	st := testutil.OpenTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	snap := testutil.CashTable("resume-t1", 6, 1, 2)
	if err := st.CreateTable(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}
	a := newApp(ctx, config.AppConfig{Beat: config.BeatConfig{PollTimeout: 10 * time.Millisecond, IdleCooldown: time.Minute}}, st)
	if err := a.resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !a.sup.Running("resume-t1") {
		t.Fatal("worker not started for open table")
	}
	cancel()
	a.wait()
}
