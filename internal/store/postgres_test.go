package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pokerbeat/internal/cards"
	"pokerbeat/internal/ledger"
	"pokerbeat/internal/poker"
	"pokerbeat/internal/store"
	"pokerbeat/internal/testutil"
)

func TestStoreBootstrapPing(t *testing.T) {
	st := testutil.OpenTestStore(t)
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestPostgresSnapshotKeepsHiddenCards(t *testing.T) {
	st := testutil.OpenTestStore(t)
	ctx := context.Background()
	snap := testutil.CashTable("t1", 6, 1, 2)
	p := testutil.Seat(&snap, "p1", "u1", 200, false)
	p.Cards = cards.MustParse("As Kd")
	snap.Table.Deck = cards.NewDeck()
	if err := st.CreateTable(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}
	loaded, err := st.LoadSnapshot(ctx, "t1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Players) != 1 || loaded.Players[0].Stack != 200 || loaded.Table.BB != 2 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if cards.Join(loaded.Players[0].Cards) != "AsKd" {
		t.Fatalf("cards = %v", loaded.Players[0].Cards)
	}
	if loaded.Table.Deck == nil || loaded.Table.Deck.Len() != 52 {
		t.Fatalf("deck not restored")
	}
	if _, err := st.LoadSnapshot(ctx, "missing"); !errors.Is(err, poker.ErrTableNotFound) {
		t.Fatalf("load missing = %v", err)
	}
}

func TestPostgresCommitChecksModifiedAt(t *testing.T) {
	st := testutil.OpenTestStore(t)
	ctx := context.Background()
	snap := testutil.CashTable("t1", 6, 1, 2)
	testutil.Seat(&snap, "p1", "u1", 200, false)
	if err := st.CreateTable(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.Fund(ctx, ledger.UserAccount("u2"), 500, "grant"); err != nil {
		t.Fatalf("fund: %v", err)
	}
	loaded, _ := st.LoadSnapshot(ctx, "t1")
	next := loaded.Clone()
	next.Table.ModifiedAt = loaded.Table.ModifiedAt.Add(time.Millisecond)
	b := &poker.Batch{
		TableID:            "t1",
		EntryID:            "e1",
		Snapshot:           next,
		ExpectedModifiedAt: loaded.Table.ModifiedAt,
		Events:             []poker.HistoryEvent{{TableID: "t1", HandNumber: 0, Seq: 1, Kind: poker.EvJoinTable, Subject: poker.Subject{Kind: poker.SubjectPlayer, ID: "p2"}, At: next.Table.ModifiedAt}},
		ChatLines:          []poker.ChatLine{{ID: store.NewID(), TableID: "t1", Message: "user-u2 joins", At: next.Table.ModifiedAt}},
		Transfers:          []poker.TransferRequest{{ID: "x1", Src: ledger.UserAccount("u2"), Dst: ledger.TableAccount("t1"), Amount: 100}},
	}
	if err := st.CommitSnapshot(ctx, b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if bal, _ := st.AccountBalance(ctx, ledger.TableAccount("t1")); bal != 100 {
		t.Fatalf("escrow = %d, want 100", bal)
	}
	if ok, _ := st.IsProcessed(ctx, "t1", "e1"); !ok {
		t.Fatal("entry not marked processed")
	}
	log, _ := st.HandLog(ctx, "t1", 0)
	if len(log) != 1 || log[0].Kind != poker.EvJoinTable {
		t.Fatalf("hand log = %+v", log)
	}

	b.EntryID = "e2"
	err := st.CommitSnapshot(ctx, b)
	if !errors.Is(err, poker.ErrConcurrentModification) {
		t.Fatalf("replayed commit = %v, want concurrent modification", err)
	}
}

func TestPGQueueDeliversInOrder(t *testing.T) {
	st := testutil.OpenTestStore(t)
	ctx := context.Background()
	snap := testutil.CashTable("t1", 6, 1, 2)
	if err := st.CreateTable(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}
	q := store.NewPGQueue(st)
	first, err := q.Push(ctx, "t1", poker.Action{Type: poker.ActionNoop})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := q.Push(ctx, "t1", poker.Action{Type: poker.ActionForceAction}); err != nil {
		t.Fatalf("push: %v", err)
	}
	e, err := q.Peek(ctx, "t1", time.Second)
	if err != nil || e == nil || e.ID != first.ID || e.Attempts != 1 {
		t.Fatalf("peek = %+v, %v", e, err)
	}
	if err := q.Ack(ctx, "t1", e.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	e, _ = q.Peek(ctx, "t1", time.Second)
	if e == nil || e.Action.Type != poker.ActionForceAction {
		t.Fatalf("second = %+v", e)
	}
	if e, _ := q.Peek(ctx, "t2", 50*time.Millisecond); e != nil {
		t.Fatalf("t2 = %+v, want empty", e)
	}
}
