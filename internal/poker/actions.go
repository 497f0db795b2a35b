package poker

import "fmt"

type ActionName string

const (
	ActionBet                ActionName = "BET"
	ActionRaiseTo            ActionName = "RAISE_TO"
	ActionCall               ActionName = "CALL"
	ActionCheck              ActionName = "CHECK"
	ActionFold               ActionName = "FOLD"
	ActionBuy                ActionName = "BUY"
	ActionTakeSeat           ActionName = "TAKE_SEAT"
	ActionLeaveSeat          ActionName = "LEAVE_SEAT"
	ActionSitIn              ActionName = "SIT_IN"
	ActionSitOut             ActionName = "SIT_OUT"
	ActionSitInAtBlinds      ActionName = "SIT_IN_AT_BLINDS"
	ActionSitOutAtBlinds     ActionName = "SIT_OUT_AT_BLINDS"
	ActionSetAutoRebuy       ActionName = "SET_AUTO_REBUY"
	ActionSetPresetCheckfold ActionName = "SET_PRESET_CHECKFOLD"
	ActionSetPresetCheck     ActionName = "SET_PRESET_CHECK"
	ActionSetPresetCall      ActionName = "SET_PRESET_CALL"
	ActionJoinTable          ActionName = "JOIN_TABLE"
	ActionCreateSidebet      ActionName = "CREATE_SIDEBET"
	ActionCloseSidebet       ActionName = "CLOSE_SIDEBET"

	ActionNoop             ActionName = "NOOP"
	ActionForceAction      ActionName = "FORCE_ACTION"
	ActionPlayerCloseTable ActionName = "PLAYER_CLOSE_TABLE"
)

var knownActions = map[ActionName]bool{
	ActionBet: true, ActionRaiseTo: true, ActionCall: true, ActionCheck: true, ActionFold: true,
	ActionBuy: true, ActionTakeSeat: true, ActionLeaveSeat: true, ActionSitIn: true, ActionSitOut: true,
	ActionSitInAtBlinds: true, ActionSitOutAtBlinds: true, ActionSetAutoRebuy: true,
	ActionSetPresetCheckfold: true, ActionSetPresetCheck: true, ActionSetPresetCall: true,
	ActionJoinTable: true, ActionCreateSidebet: true, ActionCloseSidebet: true,
	ActionNoop: true, ActionForceAction: true, ActionPlayerCloseTable: true,
}

func (a ActionName) Valid() bool { return knownActions[a] }

// IsBetting reports whether the action is a voluntary in-hand move.
func (a ActionName) IsBetting() bool {
	switch a {
	case ActionBet, ActionRaiseTo, ActionCall, ActionCheck, ActionFold:
		return true
	}
	return false
}

// Action is one queue entry payload.
type Action struct {
	Type     ActionName `json:"type"`
	PlayerID string     `json:"player_id,omitempty"`
	UserID   string     `json:"user_id,omitempty"`
	Username string     `json:"username,omitempty"`
	IsRobot  bool       `json:"is_robot,omitempty"`

	Amount    int64  `json:"amount,omitempty"`
	Position  *int   `json:"position,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
	ShowCards bool   `json:"show_cards,omitempty"`
	SitOut    bool   `json:"sit_out,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
	SidebetID string `json:"sidebet_id,omitempty"`

	// HandNumber pins a betting action to the hand it was decided in, and
	// Street to the betting round within it.
	HandNumber *int64 `json:"hand_number,omitempty"`
	Street     Street `json:"street,omitempty"`
}

func (a Action) String() string {
	if a.Amount != 0 {
		return fmt.Sprintf("%s(%s, %d)", a.Type, a.PlayerID, a.Amount)
	}
	return fmt.Sprintf("%s(%s)", a.Type, a.PlayerID)
}

func (a Action) enabled() bool {
	if a.Enabled == nil {
		return true
	}
	return *a.Enabled
}

// ValidateShape checks fields that do not depend on table state.
func (a Action) ValidateShape() error {
	if !a.Type.Valid() {
		return invalid(a.Type, "unknown action")
	}
	if a.Amount < 0 {
		return invalid(a.Type, "negative amount")
	}
	switch a.Type {
	case ActionNoop, ActionForceAction, ActionPlayerCloseTable:
		return nil
	case ActionJoinTable:
		if a.UserID == "" {
			return invalid(a.Type, "user_id required")
		}
		return nil
	}
	if a.PlayerID == "" && a.UserID == "" {
		return invalid(a.Type, "player_id or user_id required")
	}
	switch a.Type {
	case ActionBet, ActionRaiseTo, ActionBuy, ActionCreateSidebet:
		if a.Amount <= 0 {
			return invalid(a.Type, "amount must be positive")
		}
	}
	switch a.Type {
	case ActionCreateSidebet:
		if a.TargetID == "" {
			return invalid(a.Type, "target_id required")
		}
	case ActionCloseSidebet:
		if a.SidebetID == "" {
			return invalid(a.Type, "sidebet_id required")
		}
	}
	return nil
}
