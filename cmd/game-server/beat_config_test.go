package main

import (
	"testing"
	"time"

	"pokerbeat/internal/config"
)

func TestBeatConfigDefaults(t *testing.T) {
	cfg, err := config.LoadBeat()
	if err != nil {
		t.Fatalf("LoadBeat() error = %v", err)
	}
	bc := beatConfig(cfg)
	if bc.PollTimeout != time.Second || bc.IdleCooldown != 5*time.Minute || bc.MaxAttempts != 5 {
		t.Fatalf("unexpected beat config: %+v", bc)
	}
	if bc.Poker.HandStartDelay != 2*time.Second || bc.Poker.MaxStepIterations != 64 {
		t.Fatalf("unexpected poker config: %+v", bc.Poker)
	}
	if bc.Bot.MinThink != 800*time.Millisecond || bc.Bot.Stupid {
		t.Fatalf("unexpected bot policy: %+v", bc.Bot)
	}
}

func TestBeatConfigKeepsEngineDefaultsForZeroKnobs(t *testing.T) {
	bc := beatConfig(config.BeatConfig{DeckSeed: "replay-7", StupidBots: true, BountyTournamentCap: 4})
	if bc.Poker.DeckSeed != "replay-7" || !bc.Bot.Stupid || bc.Poker.BountyTournamentCap != 4 {
		t.Fatalf("overrides not applied: %+v", bc)
	}
	if bc.Poker.MaxOrbitsSittingOut != 3 || bc.Poker.TimebankRefill != time.Second {
		t.Fatalf("zero knobs replaced defaults: %+v", bc.Poker)
	}
}
