package ledger

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"pokerbeat/internal/poker"
)

type mapBook struct {
	balances map[string]int64
	entries  []Entry
}

func (m *mapBook) LockBalance(_ context.Context, account string) (int64, error) {
	return m.balances[account], nil
}

func (m *mapBook) SetBalance(_ context.Context, account string, balance int64) error {
	m.balances[account] = balance
	return nil
}

func (m *mapBook) RecordEntry(_ context.Context, e Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newTestLedger() *Ledger {
	n := 0
	return New(func() string {
		n++
		return "e" + strconv.Itoa(n)
	}, nil)
}

func TestApplyMovesFunds(t *testing.T) {
	book := &mapBook{balances: map[string]int64{UserAccount("u1"): 500}}
	l := newTestLedger()
	err := l.Apply(context.Background(), book, []poker.TransferRequest{
		{ID: "t1", Src: UserAccount("u1"), Dst: TableAccount("tb"), Amount: 200, Notes: "buyin"},
		{ID: "t2", Src: TableAccount("tb"), Dst: UserAccount("u1"), Amount: 50, Notes: "cashout"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if book.balances[UserAccount("u1")] != 350 || book.balances[TableAccount("tb")] != 150 {
		t.Fatalf("balances = %v", book.balances)
	}
	if len(book.entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(book.entries))
	}
	if book.entries[0].Amount != -200 || book.entries[0].TransferID != "t1" {
		t.Fatalf("first entry = %+v", book.entries[0])
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	book := &mapBook{balances: map[string]int64{UserAccount("u1"): 10}}
	l := newTestLedger()
	_, err := l.Debit(context.Background(), book, UserAccount("u1"), 20, "t", "")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want insufficient balance", err)
	}
	if _, err := l.Debit(context.Background(), book, UserAccount("u1"), -1, "t", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative debit err = %v", err)
	}
}

func TestHouseAccountMayGoNegative(t *testing.T) {
	book := &mapBook{balances: map[string]int64{}}
	l := newTestLedger()
	bal, err := l.Debit(context.Background(), book, SidebetAccount("tb"), 75, "t", "sidebet payout")
	if err != nil {
		t.Fatalf("house debit: %v", err)
	}
	if bal != -75 {
		t.Fatalf("house balance = %d", bal)
	}
}

type staticReader map[string]int64

func (s staticReader) AccountBalance(_ context.Context, account string) (int64, error) {
	return s[account], nil
}

func TestUserBalances(t *testing.T) {
	ub := UserBalances{Reader: staticReader{"user:u7": 42}}
	got, err := ub.Balance(context.Background(), "u7")
	if err != nil || got != 42 {
		t.Fatalf("balance = %d, %v", got, err)
	}
}
