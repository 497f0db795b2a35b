package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pokerbeat/internal/poker"
)

var (
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidAmount       = errors.New("invalid_amount")
)

const housePrefix = "house:"

func UserAccount(userID string) string { return "user:" + userID }

// TableAccount escrows cash-game chips while they are on the table.
func TableAccount(tableID string) string { return "table:" + tableID }

func TournamentAccount(tournamentID string) string { return "tournament:" + tournamentID }

// SidebetAccount is the house side of sidebets; it may go negative.
func SidebetAccount(tableID string) string { return housePrefix + "sidebets:" + tableID }

func IsHouse(account string) bool { return strings.HasPrefix(account, housePrefix) }

type Entry struct {
	ID         string
	Account    string
	Amount     int64
	Balance    int64
	TransferID string
	Notes      string
	CreatedAt  time.Time
}

// Book is the ledger's view of one storage transaction. LockBalance must
// hold the account row until the transaction ends and treats missing
// accounts as empty.
type Book interface {
	LockBalance(ctx context.Context, account string) (int64, error)
	SetBalance(ctx context.Context, account string, balance int64) error
	RecordEntry(ctx context.Context, e Entry) error
}

type Ledger struct {
	newID func() string
	now   func() time.Time
}

func New(newID func() string, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{newID: newID, now: now}
}

func (l *Ledger) Debit(ctx context.Context, b Book, account string, amount int64, transferID, notes string) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	bal, err := b.LockBalance(ctx, account)
	if err != nil {
		return 0, err
	}
	if bal < amount && !IsHouse(account) {
		return 0, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, account, bal, amount)
	}
	return l.adjust(ctx, b, account, bal, -amount, transferID, notes)
}

func (l *Ledger) Credit(ctx context.Context, b Book, account string, amount int64, transferID, notes string) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	bal, err := b.LockBalance(ctx, account)
	if err != nil {
		return 0, err
	}
	return l.adjust(ctx, b, account, bal, amount, transferID, notes)
}

func (l *Ledger) adjust(ctx context.Context, b Book, account string, bal, delta int64, transferID, notes string) (int64, error) {
	next := bal + delta
	if err := b.SetBalance(ctx, account, next); err != nil {
		return 0, err
	}
	err := b.RecordEntry(ctx, Entry{
		ID:         l.newID(),
		Account:    account,
		Amount:     delta,
		Balance:    next,
		TransferID: transferID,
		Notes:      notes,
		CreatedAt:  l.now(),
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Apply executes transfers in order. The caller owns the transaction: any
// error means the whole batch must be rolled back.
func (l *Ledger) Apply(ctx context.Context, b Book, transfers []poker.TransferRequest) error {
	for _, t := range transfers {
		if t.Amount == 0 {
			continue
		}
		if t.Src == t.Dst {
			return fmt.Errorf("transfer %s: source and destination are both %s", t.ID, t.Src)
		}
		if _, err := l.Debit(ctx, b, t.Src, t.Amount, t.ID, t.Notes); err != nil {
			return fmt.Errorf("transfer %s: %w", t.ID, err)
		}
		if _, err := l.Credit(ctx, b, t.Dst, t.Amount, t.ID, t.Notes); err != nil {
			return fmt.Errorf("transfer %s: %w", t.ID, err)
		}
	}
	return nil
}

// BalanceReader reads committed account balances.
type BalanceReader interface {
	AccountBalance(ctx context.Context, account string) (int64, error)
}

// UserBalances answers poker buy-in checks from user accounts.
type UserBalances struct {
	Reader BalanceReader
}

func (u UserBalances) Balance(ctx context.Context, userID string) (int64, error) {
	return u.Reader.AccountBalance(ctx, UserAccount(userID))
}
