package subscribers

import (
	"time"

	"pokerbeat/internal/poker"
)

// statsWindow bounds how many hands the rolling averages remember.
const statsWindow = 100

type TableStats struct {
	now func() time.Time

	stats   poker.TableStats
	pot     int64
	flopped int
	dirty   bool
}

// NewTableStats continues from the last persisted stats row, if any.
func NewTableStats(prev *poker.TableStats, now func() time.Time) *TableStats {
	s := &TableStats{now: now}
	if prev != nil {
		s.stats = *prev
	}
	return s
}

func (s *TableStats) Name() string { return "stats" }

func (s *TableStats) Stage() poker.Stage { return poker.StageDerived }

func (s *TableStats) Dispatch(acc *poker.Accessor, ev poker.AppliedEvent) {
	switch ev.Kind {
	case poker.EvNewHand:
		s.pot, s.flopped = 0, 0
	case poker.EvWin:
		s.pot += ev.Args.Amount
	case poker.EvDealBoard:
		if ev.Args.Street == poker.StreetFlop && len(ev.Args.Cards) == 3 {
			s.flopped = len(acc.Active())
		}
	case poker.EvEndHand:
		s.record(acc.Table.ID)
	}
}

func (s *TableStats) record(tableID string) {
	st := &s.stats
	st.TableID = tableID
	st.HandsPlayed++
	n := st.HandsPlayed
	if n > statsWindow {
		n = statsWindow
	}
	st.AvgPot += (s.pot - st.AvgPot) / n
	st.PlayersPerFlop += (float64(s.flopped) - st.PlayersPerFlop) / float64(n)
	if s.pot > st.BiggestPot {
		st.BiggestPot = s.pot
	}
	st.UpdatedAt = s.now()
	s.dirty = true
}

func (s *TableStats) Stats() poker.TableStats { return s.stats }

func (s *TableStats) Commit(b *poker.Batch) {
	if !s.dirty {
		return
	}
	cp := s.stats
	b.Stats = &cp
	s.dirty = false
}

func (s *TableStats) UpdatesForBroadcast(string) any { return nil }

func (s *TableStats) Reset() {}
