package subscribers

import "pokerbeat/internal/poker"

// Frame is one animation step. Changes carry the field-level diff the
// client interpolates between the before and after states.
type Frame struct {
	Seq     int64           `json:"seq"`
	Subject poker.Subject   `json:"subject"`
	Kind    poker.EventKind `json:"kind"`
	Args    poker.Args      `json:"args"`
	Changes []poker.Change  `json:"changes,omitempty"`
}

type AnimationUpdate struct {
	Before *poker.GameState `json:"before"`
	After  *poker.GameState `json:"after"`
	Frames []Frame          `json:"frames"`
}

// Animations records the event stream of a cycle together with the public
// table state before the first and after the last event.
type Animations struct {
	acc    *poker.Accessor
	last   poker.GameState
	before *poker.GameState
	after  *poker.GameState
	frames []Frame
}

func NewAnimations(acc *poker.Accessor) *Animations {
	return &Animations{acc: acc, last: poker.GameStateFor(acc, "")}
}

func (a *Animations) Name() string { return "animations" }

func (a *Animations) Stage() poker.Stage { return poker.StageState }

func (a *Animations) Dispatch(acc *poker.Accessor, ev poker.AppliedEvent) {
	a.acc = acc
	if a.before == nil {
		b := a.last
		a.before = &b
	}
	a.frames = append(a.frames, Frame{
		Seq:     ev.Seq,
		Subject: ev.Subject,
		Kind:    ev.Kind,
		Args:    ev.Args,
		Changes: ev.Changes,
	})
}

func (a *Animations) Commit(*poker.Batch) {
	if a.before == nil || a.acc == nil {
		return
	}
	gs := poker.GameStateFor(a.acc, "")
	a.after = &gs
	a.last = gs
}

// UpdatesForBroadcast hides hole cards dealt to anyone but playerID.
func (a *Animations) UpdatesForBroadcast(playerID string) any {
	if len(a.frames) == 0 || a.after == nil {
		return nil
	}
	frames := make([]Frame, 0, len(a.frames))
	for _, f := range a.frames {
		hidden := f.Kind == poker.EvDealHole || f.Kind == poker.EvShuffle
		if hidden && f.Subject.ID != playerID {
			f.Args.Cards = nil
			f.Args.Seed = ""
			f.Changes = nil
		}
		frames = append(frames, f)
	}
	return AnimationUpdate{Before: a.before, After: a.after, Frames: frames}
}

func (a *Animations) Reset() {
	a.before, a.after, a.frames = nil, nil, nil
}
