package subscribers

import (
	"fmt"
	"time"

	"pokerbeat/internal/poker"
)

const (
	NoticeBigPot        = "big_pot"
	NoticeFirstWin      = "first_win"
	NoticeTournamentWon = "tournament_won"
)

// Notifications queues analytics notices. Each notice points at the chat
// line the log stage produced for the same event.
type Notifications struct {
	chat     *ChatLog
	newID    func() string
	now      func() time.Time
	bigPotBB int64

	pending []poker.Notification
}

func NewNotifications(chat *ChatLog, bigPotBB int64, newID func() string, now func() time.Time) *Notifications {
	return &Notifications{chat: chat, bigPotBB: bigPotBB, newID: newID, now: now}
}

func (n *Notifications) Name() string { return "notifications" }

func (n *Notifications) Stage() poker.Stage { return poker.StageDerived }

func (n *Notifications) Dispatch(acc *poker.Accessor, ev poker.AppliedEvent) {
	tbl := acc.Table
	switch ev.Kind {
	case poker.EvWin:
		p := acc.Player(ev.Subject.ID)
		if p == nil || p.IsRobot {
			return
		}
		if n.bigPotBB > 0 && tbl.BB > 0 && ev.Args.Amount >= n.bigPotBB*tbl.BB {
			n.add(tbl.ID, p.UserID, NoticeBigPot, fmt.Sprintf("%s won a %d big blind pot", p.Username, ev.Args.Amount/tbl.BB))
		}
		if p.HandsPlayed == 0 {
			n.add(tbl.ID, p.UserID, NoticeFirstWin, p.Username+" won their first pot")
		}
	case poker.EvTournamentFinish:
		n.add(tbl.ID, ev.Args.UserID, NoticeTournamentWon, "tournament won")
	}
}

func (n *Notifications) add(tableID, userID, kind, msg string) {
	note := poker.Notification{
		ID:      n.newID(),
		TableID: tableID,
		UserID:  userID,
		Kind:    kind,
		Message: msg,
		At:      n.now(),
	}
	if n.chat != nil {
		if line := n.chat.Last(); line != nil {
			note.ChatLineID = line.ID
		}
	}
	n.pending = append(n.pending, note)
}

func (n *Notifications) Commit(b *poker.Batch) {
	b.Notifications = append(b.Notifications, n.pending...)
	n.pending = nil
}

func (n *Notifications) UpdatesForBroadcast(string) any { return nil }

func (n *Notifications) Reset() { n.pending = nil }
