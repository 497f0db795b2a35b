package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// BeatConfig holds the heartbeat and engine knobs. Zero-valued engine
// fields fall back to the engine defaults.
type BeatConfig struct {
	PollTimeout   time.Duration `env:"BEAT_POLL_TIMEOUT" envDefault:"1s"`
	SweepInterval time.Duration `env:"BEAT_SWEEP_INTERVAL" envDefault:"1s"`
	IdleCooldown  time.Duration `env:"BEAT_IDLE_COOLDOWN" envDefault:"5m"`
	ErrorBackoff  time.Duration `env:"BEAT_ERROR_BACKOFF" envDefault:"500ms"`
	BotPoll       time.Duration `env:"BEAT_BOT_POLL" envDefault:"250ms"`
	MaxAttempts   int           `env:"BEAT_MAX_ATTEMPTS" envDefault:"5"`

	HandStartDelay      time.Duration `env:"HAND_START_DELAY" envDefault:"2s"`
	MaxOrbitsSittingOut int           `env:"MAX_ORBITS_SITTING_OUT" envDefault:"3"`
	// DeckSeed makes every shuffle deterministic; only for mock tables.
	DeckSeed            string        `env:"DECK_SEED"`
	BountyTournamentCap int64         `env:"BOUNTY_TOURNAMENT_CAP" envDefault:"10"`
	TimebankRefill      time.Duration `env:"TIMEBANK_REFILL" envDefault:"1s"`
	BigPotBB            int64         `env:"BIG_POT_BB" envDefault:"100"`

	BotMinThink time.Duration `env:"BOT_MIN_THINK" envDefault:"800ms"`
	BotMaxThink time.Duration `env:"BOT_MAX_THINK" envDefault:"3s"`
	StupidBots  bool          `env:"STUPID_BOTS" envDefault:"false"`
}

func LoadBeat() (BeatConfig, error) {
	var cfg BeatConfig
	err := env.Parse(&cfg)
	return cfg, err
}
