package poker

import (
	"time"

	"pokerbeat/internal/cards"
)

type PlayerView struct {
	ID                string        `json:"id"`
	Username          string        `json:"username"`
	IsRobot           bool          `json:"is_robot"`
	Position          *int          `json:"position"`
	Stack             int64         `json:"stack"`
	UncollectedBets   int64         `json:"uncollected_bets"`
	Wagers            int64         `json:"wagers"`
	PlayingState      PlayingState  `json:"playing_state,omitempty"`
	LastAction        ActionName    `json:"last_action,omitempty"`
	InHand            bool          `json:"in_hand"`
	Cards             []cards.Card  `json:"cards,omitempty"`
	TimebankRemaining time.Duration `json:"timebank_remaining"`
	OwesBB            bool          `json:"owes_bb,omitempty"`
	IsTurn            bool          `json:"is_turn"`
}

type TableView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Variant    Variant      `json:"variant"`
	Format     Format       `json:"format"`
	Status     TableStatus  `json:"status"`
	NumSeats   int          `json:"num_seats"`
	SB         int64        `json:"sb"`
	BB         int64        `json:"bb"`
	Ante       int64        `json:"ante"`
	Precision  int          `json:"precision"`
	HandNumber int64        `json:"hand_number"`
	Street     Street       `json:"street"`
	Board      []cards.Card `json:"board"`
	BtnIdx     *int         `json:"btn_idx"`
	SBIdx      *int         `json:"sb_idx"`
	BBIdx      *int         `json:"bb_idx"`
	Pots       []Pot        `json:"pots"`
	PotTotal   int64        `json:"pot_total"`
	NextToAct  string       `json:"next_to_act,omitempty"`
	Deadline   *time.Time   `json:"deadline,omitempty"`
	Sidebets   []Sidebet    `json:"sidebets,omitempty"`
}

// YouView is only present in a player-scoped gamestate.
type YouView struct {
	PlayerID         string       `json:"player_id"`
	AvailableActions []ActionName `json:"available_actions"`
	CallAmount       int64        `json:"call_amount"`
	MinRaiseTo       int64        `json:"min_raise_to"`
	MaxBetTo         int64        `json:"max_bet_to"`
	SecondsToAct     int64        `json:"seconds_to_act"`
}

type GameState struct {
	Table      TableView    `json:"table"`
	Players    []PlayerView `json:"players"`
	Tournament *Tournament  `json:"tournament,omitempty"`
	You        *YouView     `json:"you,omitempty"`
}

// GameStateFor renders the table for one player, or for the public when
// playerID is empty. Hole cards are only visible to their owner or after
// they were shown.
func GameStateFor(acc *Accessor, playerID string) GameState {
	t := acc.Table
	next := acc.NextToAct()
	gs := GameState{
		Table: TableView{
			ID:         t.ID,
			Name:       t.Name,
			Variant:    t.Variant,
			Format:     t.Format,
			Status:     t.Status,
			NumSeats:   t.NumSeats,
			SB:         t.SB,
			BB:         t.BB,
			Ante:       t.Ante,
			Precision:  t.Precision,
			HandNumber: t.HandNumber,
			Street:     acc.Street(),
			Board:      append([]cards.Card{}, t.Board...),
			BtnIdx:     t.BtnIdx,
			SBIdx:      t.SBIdx,
			BBIdx:      t.BBIdx,
			Pots:       acc.SidepotSummary(false),
			PotTotal:   acc.PotTotal(),
			Sidebets:   t.Sidebets,
		},
		Tournament: acc.Tournament,
	}
	if next != nil {
		gs.Table.NextToAct = next.ID
		d := acc.Deadline(next)
		gs.Table.Deadline = &d
	}
	for _, p := range acc.Seated() {
		pv := PlayerView{
			ID:                p.ID,
			Username:          p.Username,
			IsRobot:           p.IsRobot,
			Position:          p.Position,
			Stack:             p.Stack,
			UncollectedBets:   p.UncollectedBets,
			Wagers:            p.Wagers,
			PlayingState:      p.State(),
			LastAction:        p.LastAction,
			InHand:            p.InHand(),
			TimebankRemaining: p.TimebankRemaining,
			OwesBB:            p.OwesBB,
			IsTurn:            next != nil && next.ID == p.ID,
		}
		if p.ID == playerID || p.HasShown {
			pv.Cards = p.Cards
		}
		gs.Players = append(gs.Players, pv)
	}
	if p := acc.Player(playerID); p != nil {
		gs.You = &YouView{
			PlayerID:         p.ID,
			AvailableActions: acc.AvailableActions(p),
			CallAmount:       acc.CallAmount(p, true),
			MinRaiseTo:       acc.MinRaiseTo(),
			MaxBetTo:         acc.MaxBetTo(p),
			SecondsToAct:     int64(acc.SecondsToAct(p) / time.Second),
		}
	}
	return gs
}

// HandRange filters hand history; zero values are open ends.
type HandRange struct {
	From int64
	To   int64
}

func (r HandRange) Contains(hand int64) bool {
	if r.From > 0 && hand < r.From {
		return false
	}
	if r.To > 0 && hand > r.To {
		return false
	}
	return true
}

// RedactLog hides other players' hole cards unless they were shown later
// in the same hand, and never exposes deck seeds.
func RedactLog(events []HistoryEvent, playerID string) []HistoryEvent {
	shown := map[int64]map[string]bool{}
	for _, ev := range events {
		if ev.Kind == EvReveal && ev.Subject.Kind == SubjectPlayer {
			if shown[ev.HandNumber] == nil {
				shown[ev.HandNumber] = map[string]bool{}
			}
			shown[ev.HandNumber][ev.Subject.ID] = true
		}
	}
	out := make([]HistoryEvent, 0, len(events))
	for _, ev := range events {
		switch {
		case ev.Kind == EvDealHole && ev.Subject.ID != playerID && !shown[ev.HandNumber][ev.Subject.ID]:
			ev.Args.Cards = nil
		case ev.Kind == EvShuffle:
			ev.Args.Seed = ""
			ev.Args.Cards = nil
		}
		out = append(out, ev)
	}
	return out
}
