package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

type RecordDebtRequest struct {
	ToUserID string  `json:"toUserId" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
}

type RecordSettlementRequest struct {
	ToUserID string  `json:"toUserId" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
	Note     string  `json:"note"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type GroupResponse struct {
	Status    string `json:"status"`
	GroupID   string `json:"groupId,omitempty"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type GroupMembersResponse struct {
	Status  string        `json:"status"`
	GroupID string        `json:"groupId"`
	Members []UserProfile `json:"members"`
}

type DebtResponse struct {
	Status string `json:"status"`
	Debt   *Debt  `json:"debt,omitempty"`
}

type SettlementResponse struct {
	Status     string      `json:"status"`
	Settlement *Settlement `json:"settlement,omitempty"`
}

// ProposedSettlement is one entry of a settlement plan, enriched with
// display names for both endpoints.
type ProposedSettlement struct {
	FromUserID   string  `json:"fromUserId"`
	FromUserName string  `json:"fromUserName,omitempty"`
	ToUserID     string  `json:"toUserId"`
	ToUserName   string  `json:"toUserName,omitempty"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

type SimplifyStats struct {
	OriginalCount    int     `json:"originalCount"`
	OptimizedCount   int     `json:"optimizedCount"`
	ReductionPercent float64 `json:"reductionPercent"`
}

type SimplifyDebtsResponse struct {
	Status      string               `json:"status"`
	GroupID     string               `json:"groupId"`
	Settlements []ProposedSettlement `json:"settlements"`
	Optimized   bool                 `json:"optimized"`
	Stats       SimplifyStats        `json:"stats"`
}

type SettleUpResponse struct {
	Status      string       `json:"status"`
	GroupID     string       `json:"groupId"`
	Settlements []Settlement `json:"settlements"`
	Optimized   bool         `json:"optimized"`
}

type ScoreResponse struct {
	Status            string             `json:"status"`
	UserID            string             `json:"userId"`
	GroupID           string             `json:"groupId"`
	Domain            string             `json:"domain"`
	Score             int                `json:"score"`
	Neutral           bool               `json:"neutral"`
	Subscores         map[string]float64 `json:"subscores"`
	OutstandingAmount float64            `json:"outstandingAmount"`
}

// LeaderboardEntry is one member's row in the group performance ranking.
type LeaderboardEntry struct {
	UserID    string             `json:"userId"`
	Name      string             `json:"name"`
	AvatarURL string             `json:"avatarUrl,omitempty"`
	Rank      int                `json:"rank"`
	Score     int                `json:"score"`
	Neutral   bool               `json:"neutral"`
	Subscores map[string]float64 `json:"subscores"`
}

type LeaderboardResponse struct {
	Status  string             `json:"status"`
	GroupID string             `json:"groupId"`
	Domain  string             `json:"domain"`
	Entries []LeaderboardEntry `json:"entries"`
}

type SettlementListResponse struct {
	Status      string       `json:"status"`
	GroupID     string       `json:"groupId"`
	Settlements []Settlement `json:"settlements"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
