// Package performance computes normalized 0-100 reliability scores from a
// user's payment and task history. Metric extraction and scoring are pure
// functions over already-fetched records; persistence and caching belong to
// the caller.
package performance

import "time"

// Domain selects which scoring model applies.
type Domain string

const (
	// DomainExpense scores payment reliability on expense shares.
	DomainExpense Domain = "expense"

	// DomainTask scores chore completion reliability.
	DomainTask Domain = "task"
)

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	return d == DomainExpense || d == DomainTask
}

// PromptnessWindow is the grace period after the due date within which a
// payment or completion still counts as prompt.
const PromptnessWindow = 72 * time.Hour

// SwapAccepted is the swap-request status that counts toward metrics;
// pending and rejected requests are ignored.
const SwapAccepted = "accepted"

// ExpenseRecord is one expense share assigned to a user.
type ExpenseRecord struct {
	ShareAmount float64
	Paid        bool
	AssignedAt  time.Time
	DueAt       time.Time
	PaidAt      time.Time // zero when unpaid
}

// TaskRecord is one task assigned to a user. VerifiedIssues counts
// complaints against the task that were upheld after review.
type TaskRecord struct {
	Completed      bool
	Missed         bool
	AssignedAt     time.Time
	DueAt          time.Time
	CompletedAt    time.Time // zero when open or missed
	VerifiedIssues int
}

// SwapRecord is one task-swap request between two users.
type SwapRecord struct {
	RequesterID string
	RequestedID string
	Status      string
}

// ExpenseMetrics aggregates a user's expense history within a group.
// ContributedExpenses and InitiatedSettlements come from separate queries
// (expenses the user paid for, settlements the user sent).
type ExpenseMetrics struct {
	TotalShares          int
	PaidShares           int
	PromptShares         int
	ContributedExpenses  int
	InitiatedSettlements int
	OutstandingAmount    float64
}

// ExtractExpenseMetrics folds a user's share records into metrics. A share
// is prompt when it was paid no later than PromptnessWindow after its due
// date; paying early always counts.
func ExtractExpenseMetrics(records []ExpenseRecord, contributed, initiatedSettlements int) ExpenseMetrics {
	m := ExpenseMetrics{
		TotalShares:          len(records),
		ContributedExpenses:  contributed,
		InitiatedSettlements: initiatedSettlements,
	}
	for _, r := range records {
		if !r.Paid {
			m.OutstandingAmount += r.ShareAmount
			continue
		}
		m.PaidShares++
		if !r.PaidAt.After(r.DueAt.Add(PromptnessWindow)) {
			m.PromptShares++
		}
	}
	return m
}

// TaskMetrics aggregates a user's task history within a group.
type TaskMetrics struct {
	Total          int
	Completed      int
	Missed         int
	OnTime         int
	Issues         int
	InitiatedSwaps int
	AcceptedSwaps  int
}

// ExtractTaskMetrics folds a user's task and swap records into metrics.
// Issues are only counted on completed tasks: a complaint about work never
// done is already covered by the miss count. AcceptedSwaps counts swaps the
// user took over for someone else.
func ExtractTaskMetrics(userID string, records []TaskRecord, swaps []SwapRecord) TaskMetrics {
	m := TaskMetrics{Total: len(records)}
	for _, r := range records {
		switch {
		case r.Completed:
			m.Completed++
			m.Issues += r.VerifiedIssues
			if !r.CompletedAt.After(r.DueAt) {
				m.OnTime++
			}
		case r.Missed:
			m.Missed++
		}
	}
	for _, s := range swaps {
		if s.Status != SwapAccepted {
			continue
		}
		switch userID {
		case s.RequesterID:
			m.InitiatedSwaps++
		case s.RequestedID:
			m.AcceptedSwaps++
		}
	}
	return m
}
