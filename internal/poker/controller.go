package poker

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"pokerbeat/internal/cards"
)

// Config carries every behaviour switch the engine needs. Nothing here is
// read from globals.
type Config struct {
	HandStartDelay       time.Duration
	MaxOrbitsSittingOut  int
	DeckSeed             string
	BountyTournamentCap  int64
	TimebankRefill       time.Duration
	MaxStepIterations    int
	BigPotNotificationBB int64
}

func DefaultConfig() Config {
	return Config{
		HandStartDelay:       2 * time.Second,
		MaxOrbitsSittingOut:  3,
		BountyTournamentCap:  10,
		TimebankRefill:       time.Second,
		MaxStepIterations:    64,
		BigPotNotificationBB: 100,
	}
}

// Balances answers ledger balance queries for buy-in validation.
type Balances interface {
	Balance(ctx context.Context, userID string) (int64, error)
}

// Committer persists one batch all-or-nothing.
type Committer interface {
	CommitSnapshot(ctx context.Context, b *Batch) error
}

type Deps struct {
	Now         func() time.Time
	NewID       func() string
	Balances    Balances
	Subscribers []Subscriber
}

// Controller owns every mutation of one table during a dispatch cycle.
type Controller struct {
	cfg  Config
	snap Snapshot
	acc  *Accessor
	subs []Subscriber

	now      func() time.Time
	newID    func() string
	balances Balances

	ctx       context.Context
	cycle     []AppliedEvent
	err       error
	loadedAt  time.Time
	stackDeck []cards.Card
	idCounter int
	stepLimit int
}

func NewController(snap Snapshot, cfg Config, deps Deps) *Controller {
	c := &Controller{
		cfg:      cfg,
		snap:     snap,
		acc:      NewAccessor(snap),
		subs:     sortSubscribers(deps.Subscribers),
		now:      deps.Now,
		newID:    deps.NewID,
		balances: deps.Balances,
		loadedAt: snap.Table.ModifiedAt,
		ctx:      context.Background(),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = func() string {
			c.idCounter++
			return snap.Table.ID + "-" + strconv.Itoa(c.idCounter)
		}
	}
	c.stepLimit = cfg.MaxStepIterations
	if c.stepLimit <= 0 {
		c.stepLimit = 64
	}
	return c
}

func (c *Controller) Accessor() *Accessor { return c.acc }

func (c *Controller) Snapshot() Snapshot { return c.snap }

func (c *Controller) table() *Table { return c.snap.Table }

// Cycle returns the events applied since the last commit.
func (c *Controller) Cycle() []AppliedEvent { return c.cycle }

// Dispatch validates the action, emits its events and advances the hand
// until someone has to act. On a validation error no event was applied.
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	if err := c.dispatchAction(ctx, a); err != nil {
		return err
	}
	return c.step()
}

func (c *Controller) dispatchAction(ctx context.Context, a Action) error {
	if c.err != nil {
		return c.err
	}
	c.ctx = ctx
	if err := a.ValidateShape(); err != nil {
		return err
	}
	t := c.table()
	if t.Status != TableOpen && a.Type != ActionNoop {
		return rejected(a.Type, "table is %s", t.Status)
	}
	if a.HandNumber != nil && *a.HandNumber != t.HandNumber {
		return rejected(a.Type, "action for hand %d, table is on hand %d", *a.HandNumber, t.HandNumber)
	}
	if a.Street != "" && a.Street != c.acc.Street() {
		return rejected(a.Type, "action for %s, hand is on %s", a.Street, c.acc.Street())
	}

	switch a.Type {
	case ActionNoop:
		return nil
	case ActionJoinTable:
		return c.joinTable(a)
	case ActionForceAction:
		return c.forceAction()
	case ActionPlayerCloseTable:
		return c.closeTable()
	}

	p := c.findPlayer(a)
	if p == nil {
		return invalid(a.Type, "player not at table")
	}
	if !c.acc.HasAction(p, a.Type) {
		return rejected(a.Type, "not available for %s", p.ID)
	}

	var err error
	switch a.Type {
	case ActionBet:
		err = c.bet(p, a.Amount)
	case ActionRaiseTo:
		err = c.raiseTo(p, a.Amount)
	case ActionCall:
		err = c.call(p, true)
	case ActionCheck:
		err = c.check(p, true)
	case ActionFold:
		err = c.fold(p, a.ShowCards, a.SitOut, true)
	case ActionSetPresetCheckfold, ActionSetPresetCheck:
		c.playerEv(p, EvSetPreset, Args{Preset: a.Type, Enabled: a.enabled()})
	case ActionSetPresetCall:
		c.playerEv(p, EvSetPreset, Args{Preset: a.Type, Amount: a.Amount})
	case ActionTakeSeat:
		err = c.takeSeat(p, a)
	case ActionLeaveSeat:
		err = c.leaveSeat(p)
	case ActionBuy:
		err = c.buy(p, a.Amount)
	case ActionSetAutoRebuy:
		err = c.setAutoRebuy(p, a.Amount)
	case ActionSitIn:
		c.sitIn(p)
	case ActionSitOut:
		c.sitOut(p)
	case ActionSitInAtBlinds:
		c.sitInAtBlinds(p)
	case ActionSitOutAtBlinds:
		c.sitOutAtBlinds(p, a.enabled())
	case ActionCreateSidebet:
		err = c.createSidebet(p, a)
	case ActionCloseSidebet:
		err = c.closeSidebet(p, a.SidebetID)
	default:
		err = invalid(a.Type, "unhandled")
	}
	if err != nil {
		return err
	}
	return c.err
}

func (c *Controller) findPlayer(a Action) *Player {
	if a.PlayerID != "" {
		return c.acc.Player(a.PlayerID)
	}
	return c.acc.PlayerByUser(a.UserID)
}

// Commit flushes the cycle and every subscriber's side effects to store in
// one call. Nothing is written when the cycle is empty.
func (c *Controller) Commit(ctx context.Context, store Committer, entryID string) (*Batch, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.cycle) == 0 {
		return nil, nil
	}
	t := c.table()
	modified := c.now().UTC().Truncate(time.Microsecond)
	if !modified.After(c.loadedAt) {
		modified = c.loadedAt.Add(time.Microsecond)
	}
	t.ModifiedAt = modified

	b := &Batch{
		TableID:            t.ID,
		EntryID:            entryID,
		Snapshot:           c.snap,
		ExpectedModifiedAt: c.loadedAt,
		Events:             make([]HistoryEvent, 0, len(c.cycle)),
	}
	for _, ev := range c.cycle {
		b.Events = append(b.Events, HistoryEvent{
			TableID:    t.ID,
			HandNumber: ev.HandNumber,
			Seq:        ev.Seq,
			Subject:    ev.Subject,
			Kind:       ev.Kind,
			Args:       ev.Args,
			At:         ev.At,
		})
	}
	for _, s := range c.subs {
		s.Commit(b)
	}
	if err := store.CommitSnapshot(ctx, b); err != nil {
		return nil, err
	}
	c.loadedAt = modified
	c.cycle = nil
	return b, nil
}

// Updates collects broadcast payloads from every subscriber.
func (c *Controller) Updates(playerID string) map[string]any {
	out := make(map[string]any, len(c.subs))
	for _, s := range c.subs {
		if u := s.UpdatesForBroadcast(playerID); u != nil {
			out[s.Name()] = u
		}
	}
	return out
}

func (c *Controller) ResetSubscribers() {
	for _, s := range c.subs {
		s.Reset()
	}
}

func (c *Controller) fail(err error) {
	if c.err == nil {
		c.err = err
		log.Error().Err(err).Str("table_id", c.table().ID).Msg("controller invariant violated")
	}
}

func (c *Controller) invariant(format string, args ...any) error {
	err := &InvariantViolation{TableID: c.table().ID, Reason: fmt.Sprintf(format, args...)}
	c.fail(err)
	return c.err
}

func (c *Controller) emit(subj Subject, kind EventKind, args Args) {
	if c.err != nil {
		return
	}
	t := c.table()
	ev := Event{Subject: subj, Kind: kind, Args: args}
	hand := t.HandNumber

	var (
		changes []Change
		err     error
	)
	switch subj.Kind {
	case SubjectTable:
		changes, err = applyTable(t, ev)
	case SubjectPlayer:
		p := c.acc.Player(subj.ID)
		if p == nil {
			err = fmt.Errorf("event %s for unknown player %s", kind, subj.ID)
			break
		}
		changes, err = applyPlayer(p, ev)
	case SubjectDealer:
		changes, err = applyDealer(t, ev)
	case SubjectTournament:
		if c.snap.Tournament == nil {
			err = fmt.Errorf("event %s without tournament", kind)
			break
		}
		changes, err = applyTournament(c.snap.Tournament, ev)
	default:
		err = fmt.Errorf("unknown subject %s", subj.Kind)
	}
	if err != nil {
		c.fail(&InvariantViolation{TableID: t.ID, Reason: "apply " + string(kind), Err: err})
		return
	}

	t.EventSeq++
	applied := AppliedEvent{Event: ev, Changes: changes, HandNumber: hand, Seq: t.EventSeq, At: c.now()}
	c.cycle = append(c.cycle, applied)
	for _, s := range c.subs {
		s.Dispatch(c.acc, applied)
	}
}

func (c *Controller) tableEv(kind EventKind, args Args) {
	c.emit(Subject{Kind: SubjectTable, ID: c.table().ID}, kind, args)
}

func (c *Controller) playerEv(p *Player, kind EventKind, args Args) {
	c.emit(Subject{Kind: SubjectPlayer, ID: p.ID}, kind, args)
}

func (c *Controller) dealerEv(kind EventKind, args Args) {
	c.emit(Subject{Kind: SubjectDealer, ID: c.table().ID}, kind, args)
}

func (c *Controller) tournamentEv(kind EventKind, args Args) {
	if c.snap.Tournament == nil {
		return
	}
	c.emit(Subject{Kind: SubjectTournament, ID: c.snap.Tournament.ID}, kind, args)
}

// deal pops n cards; running out is an invariant violation.
func (c *Controller) deal(n int) []cards.Card {
	t := c.table()
	if t.Deck == nil {
		c.invariant("deal without a shuffled deck")
		return nil
	}
	cs, err := t.Deck.DealN(n)
	if err != nil {
		c.fail(&InvariantViolation{TableID: t.ID, Reason: "deal", Err: err})
		return nil
	}
	return cs
}

func (c *Controller) handSeed() string {
	if c.cfg.DeckSeed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%d", c.cfg.DeckSeed, c.table().ID, c.table().HandNumber)
}

// randIntn is seeded from the deck seed when one is configured.
func (c *Controller) randIntn(n int) int {
	if n <= 1 {
		return 0
	}
	if c.cfg.DeckSeed == "" {
		return rand.IntN(n)
	}
	h := fnv.New64a()
	h.Write([]byte(c.handSeed() + ":button"))
	r := rand.New(rand.NewPCG(h.Sum64(), uint64(n)))
	return r.IntN(n)
}

// recordAction stamps the table after a voluntary action by p.
func (c *Controller) recordAction(p *Player) {
	c.tableEv(EvRecordAction, Args{Position: copyInt(p.Position), At: c.now()})
}
