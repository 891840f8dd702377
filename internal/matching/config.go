package matching

import "github.com/shopspring/decimal"

const (
	// ScoreCombination is the fixed score of a combination match.
	ScoreCombination = 100
	// ScoreChargeAmount is the score of a subscription or declaration matched on amount.
	ScoreChargeAmount = 90
	// ScoreChargeKeyword is the score of a subscription or declaration matched on keywords alone.
	ScoreChargeKeyword = 75

	baseScore      = 40
	maxCombination = 4
)

type Config struct {
	Tolerance            decimal.Decimal
	DeclarationTolerance decimal.Decimal
	MatchedThreshold     int
}

func DefaultConfig() Config {
	return Config{
		Tolerance:            decimal.RequireFromString("0.01"),
		DeclarationTolerance: decimal.RequireFromString("0.01"),
		MatchedThreshold:     70,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if !c.Tolerance.IsPositive() {
		c.Tolerance = d.Tolerance
	}

	if !c.DeclarationTolerance.IsPositive() {
		c.DeclarationTolerance = c.Tolerance
	}

	if c.MatchedThreshold <= 0 {
		c.MatchedThreshold = d.MatchedThreshold
	}

	return c
}
