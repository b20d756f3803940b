package performance

import "math"

// NeutralScore is assigned when there is no history to evaluate. Absence
// of data is not poor performance.
const NeutralScore = 50

// Expense score weights. These coefficients define the scoring model and
// are not user-configurable; changing them changes every score in the
// system.
const (
	expenseWeightPaymentRate    = 0.5
	expenseWeightContribution   = 0.3
	expenseWeightInitiation     = 0.2
	paymentRateWeightPaid       = 0.7
	paymentRateWeightPromptness = 0.3

	pointsPerContribution        = 10.0
	pointsPerInitiatedSettlement = 20.0
)

// Task score weights. Penalties subtract from the weighted positive
// components before clamping.
const (
	taskWeightCompletion   = 0.40
	taskWeightOnTime       = 0.25
	taskWeightHelpfulness  = 0.15
	taskWeightMissPenalty  = 0.10
	taskWeightIssuePenalty = 0.10
	taskWeightSwapPenalty  = 0.05

	pointsPerAcceptedSwap = 25.0

	// The first 20% of swaps are free; the penalty engages only beyond
	// that ratio, at 50 points per unit of excess.
	freeSwapRatio    = 0.20
	swapPenaltyScale = 50.0
)

// Subscore names as they appear in Score.Subscores.
const (
	SubscorePaymentRate  = "paymentRate"
	SubscorePromptness   = "promptness"
	SubscoreContribution = "contribution"
	SubscoreInitiation   = "settlementInitiation"
	SubscoreCompletion   = "completion"
	SubscoreOnTime       = "onTime"
	SubscoreHelpfulness  = "helpfulness"
	SubscoreMissPenalty  = "missPenalty"
	SubscoreIssuePenalty = "issuePenalty"
	SubscoreSwapPenalty  = "swapPenalty"
)

// Score is an immutable scoring snapshot: the clamped integer composite and
// the named sub-scores it was built from. Neutral is set when the user had
// no history and the composite defaulted to NeutralScore.
type Score struct {
	Value     int
	Neutral   bool
	Subscores map[string]float64
}

// ExpenseScore computes the payment-reliability composite:
//
//	0.5*paymentRateScore + 0.3*contributionScore + 0.2*initiationScore
//
// where paymentRateScore blends the payment rate (70%) with the promptness
// rate (30%). A user with no shares and no contributed expenses gets the
// neutral score.
func ExpenseScore(m ExpenseMetrics) Score {
	if m.TotalShares == 0 && m.ContributedExpenses == 0 {
		return neutral()
	}

	paymentRate := 100.0
	if m.TotalShares > 0 {
		paymentRate = float64(m.PaidShares) / float64(m.TotalShares) * 100
	}
	promptnessRate := 100.0
	if m.PaidShares > 0 {
		promptnessRate = float64(m.PromptShares) / float64(m.PaidShares) * 100
	}

	paymentRateScore := paymentRateWeightPaid*math.Min(100, paymentRate) +
		paymentRateWeightPromptness*math.Min(100, promptnessRate)
	contributionScore := math.Min(100, pointsPerContribution*float64(m.ContributedExpenses))
	initiationScore := math.Min(100, pointsPerInitiatedSettlement*float64(m.InitiatedSettlements))

	composite := expenseWeightPaymentRate*paymentRateScore +
		expenseWeightContribution*contributionScore +
		expenseWeightInitiation*initiationScore

	return Score{
		Value: clampRound(composite),
		Subscores: map[string]float64{
			SubscorePaymentRate:  paymentRateScore,
			SubscorePromptness:   promptnessRate,
			SubscoreContribution: contributionScore,
			SubscoreInitiation:   initiationScore,
		},
	}
}

// TaskScore computes the chore-reliability composite:
//
//	0.40*completion + 0.25*onTime + 0.15*helpfulness
//	- 0.10*missPenalty - 0.10*issuePenalty - 0.05*swapPenalty
//
// Verified issues discount completions from counting as clean, so the
// completion score uses max(0, completed-issues). A user with no tasks gets
// the neutral score.
func TaskScore(m TaskMetrics) Score {
	if m.Total == 0 {
		return neutral()
	}
	total := float64(m.Total)

	completionScore := math.Max(0, float64(m.Completed-m.Issues)) / total * 100
	onTimeScore := 100.0
	if m.Completed > 0 {
		onTimeScore = float64(m.OnTime) / float64(m.Completed) * 100
	}
	helpfulnessScore := math.Min(100, pointsPerAcceptedSwap*float64(m.AcceptedSwaps))

	missPenalty := float64(m.Missed) / total * 100
	issuePenalty := 0.0
	if m.Completed > 0 {
		issuePenalty = float64(m.Issues) / float64(m.Completed) * 100
	}
	excessSwapRatio := math.Max(0, float64(m.InitiatedSwaps)/total-freeSwapRatio)
	swapPenalty := excessSwapRatio * swapPenaltyScale

	composite := taskWeightCompletion*completionScore +
		taskWeightOnTime*onTimeScore +
		taskWeightHelpfulness*helpfulnessScore -
		taskWeightMissPenalty*missPenalty -
		taskWeightIssuePenalty*issuePenalty -
		taskWeightSwapPenalty*swapPenalty

	return Score{
		Value: clampRound(composite),
		Subscores: map[string]float64{
			SubscoreCompletion:   completionScore,
			SubscoreOnTime:       onTimeScore,
			SubscoreHelpfulness:  helpfulnessScore,
			SubscoreMissPenalty:  missPenalty,
			SubscoreIssuePenalty: issuePenalty,
			SubscoreSwapPenalty:  swapPenalty,
		},
	}
}

func neutral() Score {
	return Score{Value: NeutralScore, Neutral: true, Subscores: map[string]float64{}}
}

// clampRound clamps to [0,100] and rounds to the nearest integer.
func clampRound(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
