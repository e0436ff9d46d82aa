package market

import "math"

// Trust score policy. The score is a single blended field: transaction
// outcomes nudge it by fixed amounts and reviews fold into it as a running
// mean. Every write clamps into [TrustMin, TrustMax].
const (
	TrustMin          = 0.0
	TrustMax          = 500.0
	TrustDefault      = 50.0

	// Completion rewards the seller more than the buyer; the seller performs
	// the handover.
	SellerCompletionBonus = 10.0
	BuyerCompletionBonus  = 5.0

	// Cancellation penalises both participants equally.
	CancelPenalty = 5.0
)

// ClampTrust bounds a score into the valid range.
func ClampTrust(score float64) float64 {
	if score < TrustMin {
		return TrustMin
	}
	if score > TrustMax {
		return TrustMax
	}
	return score
}

// CompletionBonus returns the trust increment a participant earns when a
// transaction completes.
func CompletionBonus(role Role) float64 {
	if role == RoleSeller {
		return SellerCompletionBonus
	}
	return BuyerCompletionBonus
}

// ReviewAdjustedTrust folds a new rating into the current score as a running
// mean over totalRatingsReceived+1 samples, rounded to two decimals and
// clamped. The pre-review score is treated as the mean of the prior ratings.
func ReviewAdjustedTrust(trustScore float64, totalRatingsReceived, rating int) float64 {
	total := trustScore*float64(totalRatingsReceived) + float64(rating)
	mean := total / float64(totalRatingsReceived+1)
	return ClampTrust(round2(mean))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
