package cards

import "testing"

func TestEvaluateHoldemOrdersCategories(t *testing.T) {
	board := MustParse("Qs Js Ts 2h 2d")
	straightFlush, err := EvaluateHoldem(MustParse("As Ks"), board)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	quads, _ := EvaluateHoldem(MustParse("2s 2c"), board)
	highCard, _ := EvaluateHoldem(MustParse("3c 5d"), board)
	if !straightFlush.Beats(quads) {
		t.Fatalf("straight flush (%d) should beat quads (%d)", straightFlush.Score, quads.Score)
	}
	if !quads.Beats(highCard) {
		t.Fatalf("quads (%d) should beat pair board (%d)", quads.Score, highCard.Score)
	}
}

func TestEvaluateHoldemTieOnBoard(t *testing.T) {
	board := MustParse("Ah Kh Qd Jc Ts")
	a, _ := EvaluateHoldem(MustParse("2c 3d"), board)
	b, _ := EvaluateHoldem(MustParse("4s 5s"), board)
	if !a.Ties(b) {
		t.Fatalf("expected board straight to split: %d vs %d", a.Score, b.Score)
	}
}

func TestEvaluateOmahaUsesExactlyTwoHoleCards(t *testing.T) {
	// four hearts on board, one heart in hand: no flush in omaha
	board := MustParse("2h 5h 9h Kh 3c")
	oneHeart, err := EvaluateOmaha(MustParse("Ah As Ac Ad"), board)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	twoHearts, _ := EvaluateOmaha(MustParse("Qh Jh 4s 4d"), board)
	if !twoHearts.Beats(oneHeart) {
		t.Fatalf("two-heart flush should beat aces: %d vs %d", twoHearts.Score, oneHeart.Score)
	}
	holdemView, _ := EvaluateHoldem(MustParse("Ah As"), board)
	if !holdemView.Beats(oneHeart) {
		t.Fatal("holdem evaluation should see the one-card flush")
	}
}

func TestEvaluateNeedsFiveCards(t *testing.T) {
	if _, err := EvaluateHoldem(MustParse("As Ks"), MustParse("2c")); err != ErrNotEnoughCards {
		t.Fatalf("expected ErrNotEnoughCards, got %v", err)
	}
}
