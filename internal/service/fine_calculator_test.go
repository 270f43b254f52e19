package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-mko/Libsys/internal/config"
)

func testFineConfig() config.FineConfig {
	return config.FineConfig{
		Tiers: []config.FineTier{
			{UpToDay: 3, Rate: "2.00"},
			{UpToDay: 7, Rate: "5.00"},
			{UpToDay: 0, Rate: "10.00"},
		},
		ProcessingFee: "50.00",
	}
}

func TestFineCalculator_Overdue(t *testing.T) {
	calc, err := NewFineCalculator(testFineConfig())
	require.NoError(t, err)

	cases := []struct {
		days int
		want string
	}{
		{0, "0"},
		{-2, "0"},
		{1, "2.00"},    // 1 day in tier one
		{3, "6.00"},    // full first tier
		{4, "11.00"},   // 3*2 + 1*5
		{7, "26.00"},   // 3*2 + 4*5
		{8, "36.00"},   // 26 + 1*10
		{10, "56.00"},  // 26 + 3*10
		{30, "256.00"}, // 26 + 23*10
	}
	for _, tc := range cases {
		got := calc.Overdue(tc.days)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"days=%d: want %s, got %s", tc.days, tc.want, got)
	}
}

func TestFineCalculator_Damaged(t *testing.T) {
	calc, err := NewFineCalculator(testFineConfig())
	require.NoError(t, err)

	got := calc.Damaged(decimal.RequireFromString("25.00"))
	assert.True(t, got.Equal(decimal.RequireFromString("75.00")), "got %s", got)

	free := calc.Damaged(decimal.Zero)
	assert.True(t, free.Equal(decimal.RequireFromString("50.00")),
		"a zero-priced book still carries the processing fee, got %s", free)
}

func TestNewFineCalculator_RejectsBadConfig(t *testing.T) {
	_, err := NewFineCalculator(config.FineConfig{ProcessingFee: "50.00"})
	assert.Error(t, err, "empty tier table")

	_, err = NewFineCalculator(config.FineConfig{
		Tiers:         []config.FineTier{{UpToDay: 3, Rate: "two"}},
		ProcessingFee: "50.00",
	})
	assert.Error(t, err, "unparseable rate")

	_, err = NewFineCalculator(config.FineConfig{
		Tiers: []config.FineTier{
			{UpToDay: 0, Rate: "10.00"},
			{UpToDay: 3, Rate: "2.00"},
		},
		ProcessingFee: "50.00",
	})
	assert.Error(t, err, "open-ended tier must be last")

	_, err = NewFineCalculator(config.FineConfig{
		Tiers: []config.FineTier{
			{UpToDay: 7, Rate: "2.00"},
			{UpToDay: 3, Rate: "5.00"},
		},
		ProcessingFee: "50.00",
	})
	assert.Error(t, err, "descending boundaries")

	_, err = NewFineCalculator(config.FineConfig{
		Tiers:         []config.FineTier{{UpToDay: 3, Rate: "2.00"}},
		ProcessingFee: "fifty",
	})
	assert.Error(t, err, "unparseable processing fee")
}

func TestFineCalculator_SingleOpenEndedTier(t *testing.T) {
	calc, err := NewFineCalculator(config.FineConfig{
		Tiers:         []config.FineTier{{UpToDay: 0, Rate: "1.50"}},
		ProcessingFee: "0",
	})
	require.NoError(t, err)

	got := calc.Overdue(4)
	assert.True(t, got.Equal(decimal.RequireFromString("6.00")), "got %s", got)
}
