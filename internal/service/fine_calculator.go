package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sudo-mko/Libsys/internal/config"
)

type fineTier struct {
	upToDay int // 0 means open-ended
	rate    decimal.Decimal
}

// FineCalculator computes fine amounts from the tiered rate table. It holds
// no dependencies and performs no I/O.
type FineCalculator struct {
	cfg           config.FineConfig
	tiers         []fineTier
	processingFee decimal.Decimal
}

// NewFineCalculator parses the configured tiers. Tiers must be ordered by
// ascending day boundary with at most one open-ended final tier.
func NewFineCalculator(cfg config.FineConfig) (*FineCalculator, error) {
	if len(cfg.Tiers) == 0 {
		return nil, fmt.Errorf("at least one fine tier is required")
	}

	tiers := make([]fineTier, 0, len(cfg.Tiers))
	prevBoundary := 0
	for i, t := range cfg.Tiers {
		rate, err := decimal.NewFromString(t.Rate)
		if err != nil {
			return nil, fmt.Errorf("invalid fine tier rate %q: %w", t.Rate, err)
		}
		if t.UpToDay == 0 && i != len(cfg.Tiers)-1 {
			return nil, fmt.Errorf("open-ended fine tier must be last")
		}
		if t.UpToDay != 0 && t.UpToDay <= prevBoundary {
			return nil, fmt.Errorf("fine tier boundaries must be ascending")
		}
		prevBoundary = t.UpToDay
		tiers = append(tiers, fineTier{upToDay: t.UpToDay, rate: rate})
	}

	fee, err := decimal.NewFromString(cfg.ProcessingFee)
	if err != nil {
		return nil, fmt.Errorf("invalid processing fee %q: %w", cfg.ProcessingFee, err)
	}

	return &FineCalculator{cfg: cfg, tiers: tiers, processingFee: fee}, nil
}

// Config returns a copy of the validated configuration this calculator was
// built from, safe for callers to modify and rebuild with overrides.
func (c *FineCalculator) Config() config.FineConfig {
	out := c.cfg
	out.Tiers = make([]config.FineTier, len(c.cfg.Tiers))
	copy(out.Tiers, c.cfg.Tiers)
	return out
}

// Overdue returns the fine for the given number of overdue days, summing each
// tier's daily rate across the days that fall inside its band.
func (c *FineCalculator) Overdue(daysOverdue int) decimal.Decimal {
	if daysOverdue <= 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	prevBoundary := 0
	for _, tier := range c.tiers {
		upper := tier.upToDay
		if upper == 0 || upper > daysOverdue {
			upper = daysOverdue
		}
		if upper <= prevBoundary {
			break
		}
		days := decimal.NewFromInt(int64(upper - prevBoundary))
		total = total.Add(tier.rate.Mul(days))
		prevBoundary = upper
		if prevBoundary >= daysOverdue {
			break
		}
	}
	return total
}

// Damaged returns the fine for a damaged or lost book: replacement cost plus
// the flat processing fee.
func (c *FineCalculator) Damaged(bookPrice decimal.Decimal) decimal.Decimal {
	return bookPrice.Add(c.processingFee)
}
