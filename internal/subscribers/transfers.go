package subscribers

import (
	"fmt"
	"time"

	"pokerbeat/internal/ledger"
	"pokerbeat/internal/poker"
)

// Transfers turns chip movements across the table boundary into ledger
// transfer requests. Cash games escrow chips in the table account, tournaments
// in the tournament account.
type Transfers struct {
	newID func() string
	now   func() time.Time

	pending []poker.TransferRequest
}

func NewTransfers(newID func() string, now func() time.Time) *Transfers {
	return &Transfers{newID: newID, now: now}
}

func (t *Transfers) Name() string { return "transfers" }

func (t *Transfers) Stage() poker.Stage { return poker.StageState }

func (t *Transfers) Dispatch(acc *poker.Accessor, ev poker.AppliedEvent) {
	tbl := acc.Table
	a := ev.Args
	table := ledger.TableAccount(tbl.ID)
	tournament := ""
	if acc.Tournament != nil {
		tournament = ledger.TournamentAccount(acc.Tournament.ID)
	}
	cash := tbl.Format == poker.FormatCash

	switch ev.Kind {
	case poker.EvBuy:
		if cash {
			t.add(ledger.UserAccount(a.UserID), table, a.Amount, notes("buyin", tbl.ID, a.Reason))
		}
	case poker.EvCashout:
		if cash {
			t.add(table, ledger.UserAccount(a.UserID), a.Amount, notes("cashout", tbl.ID, ""))
		}
	case poker.EvTournamentJoin:
		t.add(ledger.UserAccount(a.UserID), tournament, a.Amount, notes("tournament_buyin", tbl.ID, ""))
	case poker.EvTournamentLeave:
		t.add(tournament, ledger.UserAccount(a.UserID), a.Amount, notes("tournament_refund", tbl.ID, ""))
	case poker.EvTournamentFinish:
		t.add(tournament, ledger.UserAccount(a.UserID), a.Amount, notes("tournament_prize", tbl.ID, ""))
	case poker.EvCreateSidebet:
		t.add(ledger.UserAccount(a.UserID), ledger.SidebetAccount(tbl.ID), a.Amount, notes("sidebet_open", tbl.ID, a.Sidebet.ID))
	case poker.EvCloseSidebet:
		t.add(ledger.SidebetAccount(tbl.ID), ledger.UserAccount(a.UserID), a.Amount, notes("sidebet_close", tbl.ID, a.SidebetID))
	}
}

func (t *Transfers) add(src, dst string, amount int64, note string) {
	if amount <= 0 || src == "" || dst == "" {
		return
	}
	t.pending = append(t.pending, poker.TransferRequest{
		ID:     t.newID(),
		Src:    src,
		Dst:    dst,
		Amount: amount,
		Notes:  note,
		At:     t.now(),
	})
}

func notes(kind, tableID, detail string) string {
	if detail == "" {
		return fmt.Sprintf("%s table=%s", kind, tableID)
	}
	return fmt.Sprintf("%s table=%s %s", kind, tableID, detail)
}

func (t *Transfers) Commit(b *poker.Batch) {
	b.Transfers = append(b.Transfers, t.pending...)
	t.pending = nil
}

func (t *Transfers) UpdatesForBroadcast(string) any { return nil }

func (t *Transfers) Reset() { t.pending = nil }
