package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pokerbeat/internal/config"
	"pokerbeat/internal/logging"
	"pokerbeat/internal/poker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(logCfg); err != nil {
		panic(err)
	}
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &client{
		cfg:      cfg,
		http:     &http.Client{},
		playerID: "bot-" + cfg.UserID,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := c.run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

type client struct {
	cfg      config.BotConfig
	http     *http.Client
	playerID string
	rnd      *rand.Rand
	lastTurn string
}

func (c *client) run(ctx context.Context) error {
	gs, err := c.state(ctx)
	if err != nil {
		return err
	}
	if err := c.sitDown(ctx, gs); err != nil {
		return err
	}
	for ctx.Err() == nil {
		if err := c.stream(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("event stream dropped, reconnecting")
			time.Sleep(time.Second)
		}
	}
	return nil
}

func (c *client) sitDown(ctx context.Context, gs poker.GameState) error {
	if gs.You == nil {
		err := c.post(ctx, poker.Action{Type: poker.ActionJoinTable, PlayerID: c.playerID, UserID: c.cfg.UserID, Username: c.cfg.Username})
		if err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}
	for _, p := range gs.Players {
		if p.ID == c.playerID {
			return nil
		}
	}
	buyin := c.cfg.Buyin
	if buyin == 0 {
		buyin = gs.Table.BB * 20
	}
	if err := c.post(ctx, poker.Action{Type: poker.ActionTakeSeat, PlayerID: c.playerID, Amount: buyin}); err != nil {
		return fmt.Errorf("take seat: %w", err)
	}
	log.Info().Str("table_id", c.cfg.TableID).Str("player_id", c.playerID).Int64("buyin", buyin).Msg("seated")
	return nil
}

// stream follows the table's event stream and acts whenever it is our turn.
func (c *client) stream(ctx context.Context) error {
	u := c.url("events") + "?player_id=" + url.QueryEscape(c.playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("events: status %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Event string `json:"event"`
			Data  struct {
				State poker.GameState `json:"state"`
			} `json:"data"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil || ev.Event != "gamestate" {
			continue
		}
		c.onState(ctx, ev.Data.State)
	}
	return sc.Err()
}

func (c *client) onState(ctx context.Context, gs poker.GameState) {
	a, ok := decide(c.rnd, gs)
	if !ok {
		return
	}
	// one move per turn; replays and echoes of the same turn are skipped
	turn := fmt.Sprintf("%d/%s/%d", gs.Table.HandNumber, gs.Table.Street, gs.Table.PotTotal)
	if turn == c.lastTurn {
		return
	}
	c.lastTurn = turn

	select {
	case <-ctx.Done():
		return
	case <-time.After(c.cfg.Think):
	}
	if err := c.post(ctx, a); err != nil {
		log.Warn().Err(err).Str("action", a.String()).Msg("action refused")
		c.lastTurn = ""
		return
	}
	log.Info().Str("action", a.String()).Int64("hand_number", gs.Table.HandNumber).Msg("acted")
}

// decide picks a random legal move when it is the viewer's turn.
func decide(rnd *rand.Rand, gs poker.GameState) (poker.Action, bool) {
	you := gs.You
	if you == nil {
		return poker.Action{}, false
	}
	myTurn := false
	for _, p := range gs.Players {
		if p.ID == you.PlayerID && p.IsTurn {
			myTurn = true
		}
	}
	if !myTurn {
		return poker.Action{}, false
	}
	avail := map[poker.ActionName]bool{}
	for _, n := range you.AvailableActions {
		avail[n] = true
	}
	hand := gs.Table.HandNumber
	act := func(t poker.ActionName, amt int64) (poker.Action, bool) {
		return poker.Action{Type: t, PlayerID: you.PlayerID, Amount: amt, HandNumber: &hand, Street: gs.Table.Street}, true
	}

	if you.CallAmount == 0 {
		if avail[poker.ActionBet] && rnd.Intn(2) == 0 {
			return act(poker.ActionBet, min(gs.Table.BB, you.MaxBetTo))
		}
		if avail[poker.ActionCheck] {
			return act(poker.ActionCheck, 0)
		}
	}
	switch rnd.Intn(3) {
	case 0:
		if avail[poker.ActionFold] {
			return act(poker.ActionFold, 0)
		}
	case 2:
		if avail[poker.ActionRaiseTo] {
			return act(poker.ActionRaiseTo, min(you.MinRaiseTo, you.MaxBetTo))
		}
	}
	if avail[poker.ActionCall] {
		return act(poker.ActionCall, 0)
	}
	if avail[poker.ActionCheck] {
		return act(poker.ActionCheck, 0)
	}
	if avail[poker.ActionFold] {
		return act(poker.ActionFold, 0)
	}
	return poker.Action{}, false
}

func (c *client) state(ctx context.Context) (poker.GameState, error) {
	var gs poker.GameState
	u := c.url("state") + "?player_id=" + url.QueryEscape(c.playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gs, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return gs, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gs, fmt.Errorf("state: status %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&gs)
	return gs, err
}

func (c *client) post(ctx context.Context, a poker.Action) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("actions"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: status %d %s", a.Type, resp.StatusCode, e.Error)
	}
	return nil
}

func (c *client) url(suffix string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/api/tables/" + url.PathEscape(c.cfg.TableID) + "/" + suffix
}
