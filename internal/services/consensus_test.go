package services

import (
	"testing"

	"truth-market/internal/models"
)

func TestDecideOutcome(t *testing.T) {
	yes := models.OutcomeYes
	no := models.OutcomeNo
	invalid := models.OutcomeInvalid

	cases := []struct {
		name         string
		yesVotes     int64
		noVotes      int64
		invalidVotes int64
		want         *models.Outcome
	}{
		{"seventy percent yes", 7, 2, 1, &yes},
		{"sixty percent is not consensus", 6, 4, 0, nil},
		{"two of three floors to 66", 2, 1, 0, nil},
		{"exactly at threshold", 67, 33, 0, &yes},
		{"no supermajority", 1, 8, 1, &no},
		{"invalid supermajority", 0, 1, 7, &invalid},
		{"unanimous single vote", 1, 0, 0, &yes},
		{"no votes", 0, 0, 0, nil},
	}

	for _, tc := range cases {
		got := DecideOutcome(tc.yesVotes, tc.noVotes, tc.invalidVotes)
		if tc.want == nil {
			if got != nil {
				t.Errorf("%s: expected no consensus, got %s", tc.name, *got)
			}
			continue
		}
		if got == nil {
			t.Errorf("%s: expected %s, got no consensus", tc.name, *tc.want)
			continue
		}
		if *got != *tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, *tc.want, *got)
		}
	}
}

func TestConsensusStrength(t *testing.T) {
	if got := ConsensusStrength(7, 2, 1); got != 70 {
		t.Errorf("expected strength 70, got %d", got)
	}

	// Strength reports the leading bucket even below the threshold
	if got := ConsensusStrength(5, 5, 0); got != 50 {
		t.Errorf("expected strength 50, got %d", got)
	}

	if got := ConsensusStrength(1, 1, 1); got != 33 {
		t.Errorf("expected strength 33, got %d", got)
	}

	if got := ConsensusStrength(0, 0, 0); got != 0 {
		t.Errorf("expected strength 0 for empty tally, got %d", got)
	}
}

func TestRewardPool(t *testing.T) {
	// 5% of volume
	if got := RewardPool(1_000_000); got != 50_000 {
		t.Errorf("expected pool 50000, got %d", got)
	}

	// Small volumes floor to zero
	if got := RewardPool(19); got != 0 {
		t.Errorf("expected pool 0 for tiny volume, got %d", got)
	}

	if got := RewardPool(0); got != 0 {
		t.Errorf("expected pool 0 for zero volume, got %d", got)
	}
}

func TestOracleReward(t *testing.T) {
	pool := int64(50_000)

	if got := OracleReward(pool, 1000, 6000); got != 8333 {
		t.Errorf("expected reward 8333, got %d", got)
	}

	// Empty winning cohort pays nothing
	if got := OracleReward(pool, 1000, 0); got != 0 {
		t.Errorf("expected reward 0 for empty cohort, got %d", got)
	}

	// Individual flooring keeps the cohort total within the pool
	stakes := []int64{1000, 2000, 3000}
	var cohort, paid int64
	for _, s := range stakes {
		cohort += s
	}
	for _, s := range stakes {
		paid += OracleReward(pool, s, cohort)
	}
	if paid > pool {
		t.Errorf("cohort rewards %d exceed pool %d", paid, pool)
	}
	if paid != 49_999 {
		t.Errorf("expected cohort total 49999, got %d", paid)
	}
}

func TestSlashAmount(t *testing.T) {
	// 20% of registered stake
	if got := SlashAmount(1_000_000_000); got != 200_000_000 {
		t.Errorf("expected slash 200000000, got %d", got)
	}

	if got := SlashAmount(9); got != 1 {
		t.Errorf("expected slash 1, got %d", got)
	}

	if got := SlashAmount(4); got != 0 {
		t.Errorf("expected slash 0 for dust stake, got %d", got)
	}
}
