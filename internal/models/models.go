package models

import "time"

// User represents a household member's account.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	AvatarURL string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UserProfile is the display subset of a user, used to enrich results.
type UserProfile struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	AvatarURL string `db:"avatar_url" json:"avatarUrl,omitempty"`
}

// Group represents a household.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// GroupMember links a user to a household.
type GroupMember struct {
	GroupID  string    `db:"group_id" json:"groupId"`
	UserID   string    `db:"user_id" json:"userId"`
	Role     string    `db:"role" json:"role"` // "owner" or "member"
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// Debt is one recorded directional obligation between two members.
type Debt struct {
	ID         string    `db:"id" json:"id"`
	GroupID    string    `db:"group_id" json:"groupId"`
	FromUserID string    `db:"from_user_id" json:"fromUserId"`
	ToUserID   string    `db:"to_user_id" json:"toUserId"`
	Amount     float64   `db:"amount" json:"amount"`
	Currency   string    `db:"currency" json:"currency"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Settlement is a recorded payment between members. Optimized marks
// settlements produced by the debt simplifier rather than entered by hand.
type Settlement struct {
	ID         string    `db:"id" json:"id"`
	GroupID    string    `db:"group_id" json:"groupId"`
	FromUserID string    `db:"from_user_id" json:"fromUserId"`
	ToUserID   string    `db:"to_user_id" json:"toUserId"`
	Amount     float64   `db:"amount" json:"amount"`
	Currency   string    `db:"currency" json:"currency"`
	Optimized  bool      `db:"optimized" json:"optimized"`
	CreatedBy  string    `db:"created_by" json:"createdBy"`
	Note       string    `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Expense is a shared purchase paid by one member and split into shares.
type Expense struct {
	ID          string    `db:"id" json:"id"`
	GroupID     string    `db:"group_id" json:"groupId"`
	PaidBy      string    `db:"paid_by" json:"paidBy"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	Currency    string    `db:"currency" json:"currency"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ExpenseShare is one member's slice of an expense.
type ExpenseShare struct {
	ExpenseID  string     `db:"expense_id" json:"expenseId"`
	UserID     string     `db:"user_id" json:"userId"`
	Amount     float64    `db:"amount" json:"amount"`
	Paid       bool       `db:"paid" json:"paid"`
	AssignedAt time.Time  `db:"assigned_at" json:"assignedAt"`
	DueAt      time.Time  `db:"due_at" json:"dueAt"`
	PaidAt     *time.Time `db:"paid_at" json:"paidAt,omitempty"`
}

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusMissed    = "missed"
)

// Task is a chore assigned to one member. VerifiedIssues counts upheld
// complaints about how the task was done.
type Task struct {
	ID             string     `db:"id" json:"id"`
	GroupID        string     `db:"group_id" json:"groupId"`
	AssignedTo     string     `db:"assigned_to" json:"assignedTo"`
	Title          string     `db:"title" json:"title"`
	Status         string     `db:"status" json:"status"`
	AssignedAt     time.Time  `db:"assigned_at" json:"assignedAt"`
	DueAt          time.Time  `db:"due_at" json:"dueAt"`
	CompletedAt    *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	VerifiedIssues int        `db:"verified_issues" json:"verifiedIssues"`
}

// TaskSwap is a request to hand a task over to another member.
type TaskSwap struct {
	ID          string    `db:"id" json:"id"`
	TaskID      string    `db:"task_id" json:"taskId"`
	GroupID     string    `db:"group_id" json:"groupId"`
	RequesterID string    `db:"requester_id" json:"requesterId"`
	RequestedID string    `db:"requested_id" json:"requestedId"`
	Status      string    `db:"status" json:"status"` // "pending", "accepted", "rejected"
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
