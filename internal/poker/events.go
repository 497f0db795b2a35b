package poker

import (
	"time"

	"pokerbeat/internal/cards"
)

type SubjectKind string

const (
	SubjectTable      SubjectKind = "table"
	SubjectPlayer     SubjectKind = "player"
	SubjectDealer     SubjectKind = "dealer"
	SubjectTournament SubjectKind = "tournament"
)

type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
}

type EventKind string

// Table events.
const (
	EvNewHand       EventKind = "NEW_HAND"
	EvSetBlindPos   EventKind = "SET_BLIND_POS"
	EvSetBlinds     EventKind = "SET_BLINDS"
	EvDealBoard     EventKind = "DEAL_BOARD"
	EvResetBoard    EventKind = "RESET_BOARD"
	EvNewStreet     EventKind = "NEW_STREET"
	EvRecordAction  EventKind = "RECORD_ACTION"
	EvEndHand       EventKind = "END_HAND"
	EvSetStatus     EventKind = "SET_STATUS"
	EvCreateSidebet EventKind = "CREATE_SIDEBET"
	EvCloseSidebet  EventKind = "CLOSE_SIDEBET"
)

// Player events.
const (
	EvJoinTable       EventKind = "JOIN_TABLE"
	EvTakeSeat        EventKind = "TAKE_SEAT"
	EvLeaveSeat       EventKind = "LEAVE_SEAT"
	EvSetPlayingState EventKind = "SET_PLAYING_STATE"
	EvSetSitOutBlinds EventKind = "SET_SIT_OUT_AT_BLINDS"
	EvBuy             EventKind = "BUY"
	EvRebuy           EventKind = "REBUY"
	EvCashout         EventKind = "CASHOUT"
	EvSetAutoRebuy    EventKind = "SET_AUTO_REBUY"
	EvSetPreset       EventKind = "SET_PRESET"
	EvClearPresets    EventKind = "CLEAR_PRESETS"
	EvPlayerNewHand   EventKind = "PLAYER_NEW_HAND"
	EvAnte            EventKind = "ANTE"
	EvPostBlind       EventKind = "POST"
	EvPostDead        EventKind = "POST_DEAD"
	EvOweBlinds       EventKind = "OWE_BLINDS"
	EvSkipOrbit       EventKind = "SKIP_ORBIT"
	EvDealHole        EventKind = "DEAL"
	EvBet             EventKind = "BET"
	EvRaiseTo         EventKind = "RAISE_TO"
	EvCall            EventKind = "CALL"
	EvCheck           EventKind = "CHECK"
	EvFold            EventKind = "FOLD"
	EvUseTimebank     EventKind = "USE_TIMEBANK"
	EvReturnChips     EventKind = "RETURN_CHIPS"
	EvSweep           EventKind = "SWEEP"
	EvReveal          EventKind = "REVEAL_HAND"
	EvWin             EventKind = "WIN"
	EvSettle          EventKind = "SETTLE"
	EvPlayerEndHand   EventKind = "PLAYER_END_HAND"
	EvBountyCall      EventKind = "BOUNTY_CALL"
	EvEliminate       EventKind = "ELIMINATE"
)

// Dealer events are log markers; the deck itself lives on the table.
const (
	EvShuffle    EventKind = "SHUFFLE"
	EvBountyFlip EventKind = "BOUNTY_FLIP"
	EvShowdown   EventKind = "SHOWDOWN"
)

// Tournament events.
const (
	EvTournamentJoin   EventKind = "TOURNAMENT_JOIN"
	EvTournamentLeave  EventKind = "TOURNAMENT_LEAVE"
	EvTournamentStart  EventKind = "TOURNAMENT_START"
	EvTournamentPlace  EventKind = "TOURNAMENT_PLACE"
	EvTournamentFinish EventKind = "TOURNAMENT_FINISH"
)

// Args is the union of every event's arguments. Each kind reads only the
// fields it needs.
type Args struct {
	Amount     int64         `json:"amount,omitempty"`
	Blind      string        `json:"blind,omitempty"`
	Cards      []cards.Card  `json:"cards,omitempty"`
	Position   *int          `json:"position,omitempty"`
	Btn        *int          `json:"btn,omitempty"`
	SB         *int          `json:"sb,omitempty"`
	BB         *int          `json:"bb,omitempty"`
	State      PlayingState  `json:"state,omitempty"`
	Street     Street        `json:"street,omitempty"`
	Seed       string        `json:"seed,omitempty"`
	HandNumber int64         `json:"hand_number,omitempty"`
	Blinds     *BlindLevel   `json:"blinds,omitempty"`
	Preset     ActionName    `json:"preset,omitempty"`
	Enabled    bool          `json:"enabled,omitempty"`
	ShowCards  bool          `json:"show_cards,omitempty"`
	SitOut     bool          `json:"sit_out,omitempty"`
	Pending    bool          `json:"pending,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Pot        int           `json:"pot,omitempty"`
	HandName   string        `json:"hand_name,omitempty"`
	Placement  int           `json:"placement,omitempty"`
	UserID     string        `json:"user_id,omitempty"`
	Username   string        `json:"username,omitempty"`
	IsRobot    bool          `json:"is_robot,omitempty"`
	Status     string        `json:"status,omitempty"`
	Sidebet    *Sidebet      `json:"sidebet,omitempty"`
	SidebetID  string        `json:"sidebet_id,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	At         time.Time     `json:"at,omitempty"`
}

type Event struct {
	Subject Subject   `json:"subject"`
	Kind    EventKind `json:"kind"`
	Args    Args      `json:"args"`
}

// Change is one field-level mutation produced by applying an event.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// AppliedEvent is what subscribers observe.
type AppliedEvent struct {
	Event
	Changes    []Change  `json:"changes,omitempty"`
	HandNumber int64     `json:"hand_number"`
	Seq        int64     `json:"seq"`
	At         time.Time `json:"at"`
}

// HistoryEvent is one append-only hand-history row.
type HistoryEvent struct {
	TableID    string    `json:"table_id"`
	HandNumber int64     `json:"hand_number"`
	Seq        int64     `json:"seq"`
	Subject    Subject   `json:"subject"`
	Kind       EventKind `json:"kind"`
	Args       Args      `json:"args"`
	At         time.Time `json:"at"`
}
