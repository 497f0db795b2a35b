package main

import (
	"pokerbeat/internal/beat"
	"pokerbeat/internal/bot"
	"pokerbeat/internal/config"
)

// beatConfig layers env overrides on the worker defaults. Zero-valued
// engine knobs keep the defaults.
func beatConfig(c config.BeatConfig) beat.Config {
	out := beat.DefaultConfig()
	out.PollTimeout = c.PollTimeout
	out.SweepInterval = c.SweepInterval
	out.IdleCooldown = c.IdleCooldown
	out.ErrorBackoff = c.ErrorBackoff
	out.BotPoll = c.BotPoll
	if c.MaxAttempts > 0 {
		out.MaxAttempts = c.MaxAttempts
	}

	out.Poker.HandStartDelay = c.HandStartDelay
	out.Poker.DeckSeed = c.DeckSeed
	if c.MaxOrbitsSittingOut > 0 {
		out.Poker.MaxOrbitsSittingOut = c.MaxOrbitsSittingOut
	}
	if c.BountyTournamentCap > 0 {
		out.Poker.BountyTournamentCap = c.BountyTournamentCap
	}
	if c.TimebankRefill > 0 {
		out.Poker.TimebankRefill = c.TimebankRefill
	}
	if c.BigPotBB > 0 {
		out.Poker.BigPotNotificationBB = c.BigPotBB
	}

	out.Bot = bot.Policy{MinThink: c.BotMinThink, MaxThink: c.BotMaxThink, Stupid: c.StupidBots}
	return out
}
