package poker

import (
	"fmt"
	"time"
)

// TableParams describes a new cash table. Zero buy-in limits default to
// 10 and 500 big blinds.
type TableParams struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	NumSeats int     `json:"num_seats"`
	Variant  Variant `json:"variant"`
	SB       int64   `json:"sb"`
	BB       int64   `json:"bb"`
	Ante     int64   `json:"ante"`
	MinBuyin int64   `json:"min_buyin"`
	MaxBuyin int64   `json:"max_buyin"`
	Tutorial bool    `json:"tutorial"`
}

func NewCashTable(p TableParams) (Snapshot, error) {
	switch {
	case p.ID == "":
		return Snapshot{}, invalid(ActionNoop, "table id required")
	case p.NumSeats < 2 || p.NumSeats > 10:
		return Snapshot{}, invalid(ActionNoop, "num_seats %d out of range", p.NumSeats)
	case p.SB <= 0 || p.BB < p.SB:
		return Snapshot{}, invalid(ActionNoop, "blinds %d/%d", p.SB, p.BB)
	case p.Ante < 0:
		return Snapshot{}, invalid(ActionNoop, "negative ante")
	}
	if p.Variant == "" {
		p.Variant = VariantHoldem
	}
	if p.Variant != VariantHoldem && p.Variant != VariantOmaha && p.Variant != VariantBounty {
		return Snapshot{}, invalid(ActionNoop, "unknown variant %q", p.Variant)
	}
	if p.MinBuyin == 0 {
		p.MinBuyin = p.BB * 10
	}
	if p.MaxBuyin == 0 {
		p.MaxBuyin = p.BB * 500
	}
	if p.MaxBuyin < p.MinBuyin {
		return Snapshot{}, invalid(ActionNoop, "max buyin %d below min %d", p.MaxBuyin, p.MinBuyin)
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("%s %d/%d", p.Variant, p.SB, p.BB)
	}
	return Snapshot{Table: &Table{
		ID:                        p.ID,
		Name:                      p.Name,
		NumSeats:                  p.NumSeats,
		Variant:                   p.Variant,
		Format:                    FormatCash,
		Status:                    TableOpen,
		SB:                        p.SB,
		BB:                        p.BB,
		Ante:                      p.Ante,
		MinBuyin:                  p.MinBuyin,
		MaxBuyin:                  p.MaxBuyin,
		SecondsPerActionBase:      20,
		SecondsPerActionIncrement: 5,
		MaxTimebank:               30 * time.Second,
		IsTutorial:                p.Tutorial,
	}}, nil
}
