package poker

import (
	"time"

	"pokerbeat/internal/cards"
)

type Variant string

const (
	VariantHoldem Variant = "holdem"
	VariantOmaha  Variant = "omaha"
	VariantBounty Variant = "bounty"
)

type Format string

const (
	FormatCash      Format = "cash"
	FormatFreezeout Format = "freezeout"
)

type TableStatus string

const (
	TableOpen      TableStatus = "open"
	TableSuspended TableStatus = "suspended"
	TableClosed    TableStatus = "closed"
)

type PlayingState string

const (
	SittingIn            PlayingState = "SITTING_IN"
	SittingOut           PlayingState = "SITTING_OUT"
	SitInPending         PlayingState = "SIT_IN_PENDING"
	SitOutPending        PlayingState = "SIT_OUT_PENDING"
	SitInAtBlindsPending PlayingState = "SIT_IN_AT_BLINDS_PENDING"
	LeaveSeatPending     PlayingState = "LEAVE_SEAT_PENDING"
	TourneySittingOut    PlayingState = "TOURNEY_SITTING_OUT"
)

type Street string

const (
	StreetPredeal      Street = "predeal"
	StreetPreflop      Street = "preflop"
	StreetFlop         Street = "flop"
	StreetTurn         Street = "turn"
	StreetRiver        Street = "river"
	StreetHandComplete Street = "hand_complete"
)

// Table is the aggregate root mutated by the controller.
type Table struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	NumSeats int         `json:"num_seats"`
	Variant  Variant     `json:"variant"`
	Format   Format      `json:"format"`
	Status   TableStatus `json:"status"`

	SB   int64 `json:"sb"`
	BB   int64 `json:"bb"`
	Ante int64 `json:"ante"`

	MinBuyin int64 `json:"min_buyin"`
	MaxBuyin int64 `json:"max_buyin"`

	// nil means the position is not locked yet
	BtnIdx *int `json:"btn_idx"`
	SBIdx  *int `json:"sb_idx"`
	BBIdx  *int `json:"bb_idx"`

	Board        []cards.Card `json:"board"`
	HandNumber   int64        `json:"hand_number"`
	Precision    int          `json:"precision"`
	LastActorPos *int         `json:"last_actor_pos"`

	SecondsPerActionBase      int           `json:"seconds_per_action_base"`
	SecondsPerActionIncrement int           `json:"seconds_per_action_increment"`
	MinTimebank               time.Duration `json:"min_timebank"`
	MaxTimebank               time.Duration `json:"max_timebank"`
	LastActionTimestamp       time.Time     `json:"last_action_timestamp"`

	TournamentID string      `json:"tournament_id,omitempty"`
	Deck         *cards.Deck `json:"-"`
	IsTutorial   bool        `json:"is_tutorial"`
	Sidebets     []Sidebet   `json:"sidebets,omitempty"`

	// EventSeq numbers hand-history rows for this table.
	EventSeq   int64     `json:"event_seq"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Player is one user's row at a table; it outlives the seat.
type Player struct {
	ID       string `json:"id"`
	TableID  string `json:"table_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsRobot  bool   `json:"is_robot"`

	Stack           int64 `json:"stack"`
	Wagers          int64 `json:"wagers"`
	UncollectedBets int64 `json:"uncollected_bets"`
	DeadMoney       int64 `json:"dead_money"`

	Seated       bool          `json:"seated"`
	Position     *int          `json:"position"`
	PlayingState *PlayingState `json:"playing_state"`

	LastAction          ActionName `json:"last_action,omitempty"`
	LastActionTimestamp time.Time  `json:"last_action_timestamp"`

	PendingRebuy int64 `json:"pending_rebuy"`
	AutoRebuy    int64 `json:"auto_rebuy"`

	PresetCheckfold bool  `json:"preset_checkfold"`
	PresetCheck     bool  `json:"preset_check"`
	PresetCall      int64 `json:"preset_call"`

	OwesSB           bool `json:"owes_sb"`
	OwesBB           bool `json:"owes_bb"`
	SitOutAtBlinds   bool `json:"sit_out_at_blinds"`
	OrbitsSittingOut int  `json:"orbits_sitting_out"`

	Cards             []cards.Card  `json:"-"`
	HasShown          bool          `json:"has_shown"`
	HandsPlayed       int64         `json:"hands_played"`
	TimebankRemaining time.Duration `json:"timebank_remaining"`
}

type TournamentStatus string

const (
	TournamentPending  TournamentStatus = "pending"
	TournamentStarted  TournamentStatus = "started"
	TournamentFinished TournamentStatus = "finished"
	TournamentCanceled TournamentStatus = "canceled"
)

type BlindLevel struct {
	SB   int64 `json:"sb"`
	BB   int64 `json:"bb"`
	Ante int64 `json:"ante"`
}

type Tournament struct {
	ID            string           `json:"id"`
	TableID       string           `json:"table_id"`
	Buyin         int64            `json:"buyin"`
	StartingStack int64            `json:"starting_stack"`
	Status        TournamentStatus `json:"status"`
	Entrants      []string         `json:"entrants"`
	Placements    map[string]int   `json:"placements"`
	HandsPerLevel int64            `json:"hands_per_level"`
	BlindSchedule []BlindLevel     `json:"blind_schedule"`
}

// Level is the blind-schedule index for a hand number.
func (t *Tournament) Level(handNumber int64) int {
	if t == nil || t.HandsPerLevel <= 0 || len(t.BlindSchedule) == 0 {
		return 0
	}
	lvl := int(handNumber / t.HandsPerLevel)
	if lvl >= len(t.BlindSchedule) {
		lvl = len(t.BlindSchedule) - 1
	}
	return lvl
}

type SidebetStatus string

const (
	SidebetOpen   SidebetStatus = "open"
	SidebetClosed SidebetStatus = "closed"
)

type Sidebet struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	PlayerID      string        `json:"player_id"`
	Amount        int64         `json:"amount"`
	StartingStack int64         `json:"starting_stack"`
	Status        SidebetStatus `json:"status"`
	Payout        int64         `json:"payout,omitempty"`
}

// Snapshot is everything the controller needs for one table.
type Snapshot struct {
	Table      *Table
	Players    []*Player
	Tournament *Tournament
}

// Clone deep-copies the snapshot so a failed dispatch can be discarded
// without touching the worker's last committed state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{}
	if s.Table != nil {
		t := *s.Table
		t.BtnIdx = copyInt(s.Table.BtnIdx)
		t.SBIdx = copyInt(s.Table.SBIdx)
		t.BBIdx = copyInt(s.Table.BBIdx)
		t.LastActorPos = copyInt(s.Table.LastActorPos)
		t.Board = append([]cards.Card(nil), s.Table.Board...)
		t.Sidebets = append([]Sidebet(nil), s.Table.Sidebets...)
		if s.Table.Deck != nil {
			d, err := cards.ParseDeck(s.Table.Deck.String())
			if err == nil {
				t.Deck = d
			}
		}
		out.Table = &t
	}
	out.Players = make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		cp := *p
		cp.Position = copyInt(p.Position)
		if p.PlayingState != nil {
			st := *p.PlayingState
			cp.PlayingState = &st
		}
		cp.Cards = append([]cards.Card(nil), p.Cards...)
		out.Players = append(out.Players, &cp)
	}
	if s.Tournament != nil {
		tr := *s.Tournament
		tr.Entrants = append([]string(nil), s.Tournament.Entrants...)
		tr.BlindSchedule = append([]BlindLevel(nil), s.Tournament.BlindSchedule...)
		tr.Placements = make(map[string]int, len(s.Tournament.Placements))
		for k, v := range s.Tournament.Placements {
			tr.Placements[k] = v
		}
		out.Tournament = &tr
	}
	return out
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func intPtr(v int) *int { return &v }

func statePtr(s PlayingState) *PlayingState { return &s }

func (p *Player) State() PlayingState {
	if p == nil || p.PlayingState == nil {
		return ""
	}
	return *p.PlayingState
}

func (p *Player) Seat() int {
	if p == nil || p.Position == nil {
		return -1
	}
	return *p.Position
}

// InHand reports whether the player holds cards in the current hand.
func (p *Player) InHand() bool { return len(p.Cards) > 0 }

func (p *Player) IsAllIn() bool { return p.InHand() && p.Stack == 0 }

func (p *Player) CanAct() bool { return p.InHand() && p.Stack > 0 }

func (p *Player) TotalContributed() int64 { return p.Wagers + p.UncollectedBets }

func (p *Player) hasPreset() bool {
	return p.PresetCheckfold || p.PresetCheck || p.PresetCall > 0
}
