package services

import (
	"truth-market/internal/models"
)

// Engine constants. Rates are basis points over BpsDivisor, amounts are
// lamports, and all settlement arithmetic is integer with flooring.
const (
	ConsensusThresholdPct = 67
	RewardPoolBps         = 500
	SlashBps              = 2000
	BpsDivisor            = 10000
	InitialReputation     = 500
	ReputationReward      = 10
	ReputationPenalty     = 20
)

// DecideOutcome applies the supermajority rule to a vote tally. A bucket
// wins when its share of all votes reaches ConsensusThresholdPct under
// integer division; buckets are checked in YES, NO, INVALID order. Returns
// nil when no bucket reaches the threshold or when no votes were cast.
func DecideOutcome(yesVotes, noVotes, invalidVotes int64) *models.Outcome {
	total := yesVotes + noVotes + invalidVotes
	if total == 0 {
		return nil
	}

	buckets := []struct {
		outcome models.Outcome
		votes   int64
	}{
		{models.OutcomeYes, yesVotes},
		{models.OutcomeNo, noVotes},
		{models.OutcomeInvalid, invalidVotes},
	}

	for _, bucket := range buckets {
		if bucket.votes*100/total >= ConsensusThresholdPct {
			outcome := bucket.outcome
			return &outcome
		}
	}

	return nil
}

// ConsensusStrength reports the largest bucket's share of all votes in
// percent, whether or not that share reaches the consensus threshold.
func ConsensusStrength(yesVotes, noVotes, invalidVotes int64) int64 {
	total := yesVotes + noVotes + invalidVotes
	if total == 0 {
		return 0
	}

	largest := yesVotes
	if noVotes > largest {
		largest = noVotes
	}
	if invalidVotes > largest {
		largest = invalidVotes
	}

	return largest * 100 / total
}

// RewardPool sizes the settlement pool from the market's reported volume
func RewardPool(volume int64) int64 {
	return volume * RewardPoolBps / BpsDivisor
}

// OracleReward computes one oracle's stake-weighted share of the pool.
// Shares floor individually, so the cohort total never exceeds the pool.
func OracleReward(pool, stakeAtVote, cohortStake int64) int64 {
	if cohortStake <= 0 {
		return 0
	}
	return pool * stakeAtVote / cohortStake
}

// SlashAmount computes the stake penalty for voting against consensus,
// taken from the oracle's currently registered stake.
func SlashAmount(totalStaked int64) int64 {
	return totalStaked * SlashBps / BpsDivisor
}
