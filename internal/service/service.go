package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/homemates/homemates-server/internal/models"
	"github.com/homemates/homemates-server/internal/performance"
	"github.com/homemates/homemates-server/internal/repository"
	"github.com/homemates/homemates-server/internal/settlement"
)

// scoreConcurrency bounds the number of members scored in parallel; each
// score costs a handful of storage reads.
const scoreConcurrency = 8

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Group operations
	CreateGroup(ctx context.Context, userID string, req models.CreateGroupRequest) (*models.GroupResponse, error)
	JoinGroup(ctx context.Context, userID, groupID string) (*models.GroupResponse, error)
	GetGroupMembers(ctx context.Context, userID, groupID string) (*models.GroupMembersResponse, error)

	// Debt and settlement operations
	RecordDebt(ctx context.Context, userID, groupID string, req models.RecordDebtRequest) (*models.DebtResponse, error)
	RecordSettlement(ctx context.Context, userID, groupID string, req models.RecordSettlementRequest) (*models.SettlementResponse, error)
	ListSettlements(ctx context.Context, userID, groupID string) (*models.SettlementListResponse, error)
	SimplifyDebts(ctx context.Context, userID, groupID string) (*models.SimplifyDebtsResponse, error)
	SettleUp(ctx context.Context, userID, groupID string) (*models.SettleUpResponse, error)

	// Performance scoring
	ComputeUserScore(ctx context.Context, callerID, userID, groupID string, domain performance.Domain) (*models.ScoreResponse, error)
	ComputeGroupPerformance(ctx context.Context, callerID, groupID string, domain performance.Domain) (*models.LeaderboardResponse, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// Create the user
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Group operations
func (s *DefaultService) CreateGroup(ctx context.Context, userID string, req models.CreateGroupRequest) (*models.GroupResponse, error) {
	group := &models.Group{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CreatedBy: userID,
	}

	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("error creating group: %w", err)
	}

	return &models.GroupResponse{
		Status:    "success",
		GroupID:   group.ID,
		Name:      group.Name,
		CreatedAt: group.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *DefaultService) JoinGroup(ctx context.Context, userID, groupID string) (*models.GroupResponse, error) {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("error getting group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}

	member := &models.GroupMember{GroupID: groupID, UserID: userID}
	if err := s.repo.AddGroupMember(ctx, member); err != nil {
		return nil, fmt.Errorf("error adding group member: %w", err)
	}

	return &models.GroupResponse{
		Status:  "success",
		GroupID: group.ID,
		Name:    group.Name,
	}, nil
}

func (s *DefaultService) GetGroupMembers(ctx context.Context, userID, groupID string) (*models.GroupMembersResponse, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	members, err := s.repo.GetGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("error getting group members: %w", err)
	}

	return &models.GroupMembersResponse{
		Status:  "success",
		GroupID: groupID,
		Members: members,
	}, nil
}

// Debt and settlement operations
func (s *DefaultService) RecordDebt(ctx context.Context, userID, groupID string, req models.RecordDebtRequest) (*models.DebtResponse, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if err := s.requireMemberOf(ctx, groupID, req.ToUserID); err != nil {
		return nil, err
	}

	// Validate through the engine's constructor so the API and the
	// optimizer agree on what a well-formed debt is.
	if _, err := settlement.NewDebt(userID, req.ToUserID, req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	debt := &models.Debt{
		GroupID:    groupID,
		FromUserID: userID,
		ToUserID:   req.ToUserID,
		Amount:     settlement.RoundCents(req.Amount),
		Currency:   req.Currency,
	}
	if err := s.repo.CreateDebt(ctx, debt); err != nil {
		return nil, fmt.Errorf("error creating debt: %w", err)
	}

	return &models.DebtResponse{Status: "success", Debt: debt}, nil
}

func (s *DefaultService) RecordSettlement(ctx context.Context, userID, groupID string, req models.RecordSettlementRequest) (*models.SettlementResponse, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if err := s.requireMemberOf(ctx, groupID, req.ToUserID); err != nil {
		return nil, err
	}
	if req.Amount < settlement.MinTransfer {
		return nil, fmt.Errorf("%w: settlement amount below %.2f", ErrInvalidInput, settlement.MinTransfer)
	}

	stl := &models.Settlement{
		GroupID:    groupID,
		FromUserID: userID,
		ToUserID:   req.ToUserID,
		Amount:     settlement.RoundCents(req.Amount),
		Currency:   req.Currency,
		Optimized:  false,
		CreatedBy:  userID,
		Note:       req.Note,
	}
	if err := s.repo.CreateSettlement(ctx, stl); err != nil {
		return nil, fmt.Errorf("error creating settlement: %w", err)
	}

	return &models.SettlementResponse{Status: "success", Settlement: stl}, nil
}

func (s *DefaultService) ListSettlements(ctx context.Context, userID, groupID string) (*models.SettlementListResponse, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	settlements, err := s.repo.ListGroupSettlements(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("error listing settlements: %w", err)
	}

	return &models.SettlementListResponse{
		Status:      "success",
		GroupID:     groupID,
		Settlements: settlements,
	}, nil
}

// SimplifyDebts fetches the group's raw debts, runs the min-cash-flow
// optimizer, and returns the proposed plan enriched with member names.
// Nothing is persisted; SettleUp records the plan.
func (s *DefaultService) SimplifyDebts(ctx context.Context, userID, groupID string) (*models.SimplifyDebtsResponse, error) {
	plan, err := s.planForGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	proposed, err := s.enrichTransfers(ctx, plan.Transfers)
	if err != nil {
		return nil, err
	}

	return &models.SimplifyDebtsResponse{
		Status:      "success",
		GroupID:     groupID,
		Settlements: proposed,
		Optimized:   plan.Optimized,
		Stats: models.SimplifyStats{
			OriginalCount:    plan.Stats.OriginalCount,
			OptimizedCount:   plan.Stats.OptimizedCount,
			ReductionPercent: plan.Stats.ReductionPercent,
		},
	}, nil
}

// SettleUp runs the optimizer and records the resulting settlements
// atomically.
func (s *DefaultService) SettleUp(ctx context.Context, userID, groupID string) (*models.SettleUpResponse, error) {
	plan, err := s.planForGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	settlements := make([]models.Settlement, len(plan.Transfers))
	for i, tr := range plan.Transfers {
		settlements[i] = models.Settlement{
			GroupID:    groupID,
			FromUserID: tr.FromUserID,
			ToUserID:   tr.ToUserID,
			Amount:     tr.Amount,
			Currency:   tr.Currency,
			Optimized:  plan.Optimized,
			CreatedBy:  userID,
			Note:       "settle up",
		}
	}

	if err := s.repo.CreateSettlements(ctx, settlements); err != nil {
		return nil, fmt.Errorf("error recording settlements: %w", err)
	}

	return &models.SettleUpResponse{
		Status:      "success",
		GroupID:     groupID,
		Settlements: settlements,
		Optimized:   plan.Optimized,
	}, nil
}

// Performance scoring
func (s *DefaultService) ComputeUserScore(ctx context.Context, callerID, userID, groupID string, domain performance.Domain) (*models.ScoreResponse, error) {
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: unknown domain %q", ErrInvalidInput, domain)
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	if err := s.requireMemberOf(ctx, groupID, userID); err != nil {
		return nil, err
	}

	score, outstanding, err := s.scoreFor(ctx, groupID, userID, domain)
	if err != nil {
		return nil, err
	}

	return &models.ScoreResponse{
		Status:            "success",
		UserID:            userID,
		GroupID:           groupID,
		Domain:            string(domain),
		Score:             score.Value,
		Neutral:           score.Neutral,
		Subscores:         score.Subscores,
		OutstandingAmount: settlement.RoundCents(outstanding),
	}, nil
}

// ComputeGroupPerformance scores every member and returns them ranked by
// score, descending. Members are scored concurrently: each score is a pure
// computation over that member's own history, so the only shared resource
// is the database pool.
func (s *DefaultService) ComputeGroupPerformance(ctx context.Context, callerID, groupID string, domain performance.Domain) (*models.LeaderboardResponse, error) {
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: unknown domain %q", ErrInvalidInput, domain)
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	members, err := s.repo.GetGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("error getting group members: %w", err)
	}

	entries := make([]models.LeaderboardEntry, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for i, member := range members {
		i, member := i, member
		g.Go(func() error {
			score, _, err := s.scoreFor(gctx, groupID, member.ID, domain)
			if err != nil {
				return err
			}
			entries[i] = models.LeaderboardEntry{
				UserID:    member.ID,
				Name:      member.Name,
				AvatarURL: member.AvatarURL,
				Score:     score.Value,
				Neutral:   score.Neutral,
				Subscores: score.Subscores,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &models.LeaderboardResponse{
		Status:  "success",
		GroupID: groupID,
		Domain:  string(domain),
		Entries: entries,
	}, nil
}

// Helper methods

// planForGroup checks membership, fetches the group's debts and runs the
// optimizer. An empty debt set yields an empty plan, not an error.
func (s *DefaultService) planForGroup(ctx context.Context, userID, groupID string) (settlement.Plan, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return settlement.Plan{}, err
	}

	rows, err := s.repo.GetGroupDebts(ctx, groupID)
	if err != nil {
		return settlement.Plan{}, fmt.Errorf("error getting group debts: %w", err)
	}

	debts := make([]settlement.Debt, len(rows))
	for i, row := range rows {
		debts[i] = settlement.Debt{
			FromUserID: row.FromUserID,
			ToUserID:   row.ToUserID,
			Amount:     row.Amount,
			Currency:   row.Currency,
		}
	}

	plan, err := settlement.Optimize(debts)
	if err != nil {
		// Stored debts that fail engine validation are bad data, not a
		// storage failure.
		return settlement.Plan{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return plan, nil
}

// enrichTransfers attaches display names to both endpoints of each
// transfer. Enrichment is display-only; a missing profile leaves the name
// empty rather than failing the plan.
func (s *DefaultService) enrichTransfers(ctx context.Context, transfers []settlement.Transfer) ([]models.ProposedSettlement, error) {
	idSet := make(map[string]struct{}, len(transfers)*2)
	for _, tr := range transfers {
		idSet[tr.FromUserID] = struct{}{}
		idSet[tr.ToUserID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	profiles, err := s.repo.GetUserProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error getting user profiles: %w", err)
	}

	proposed := make([]models.ProposedSettlement, len(transfers))
	for i, tr := range transfers {
		proposed[i] = models.ProposedSettlement{
			FromUserID:   tr.FromUserID,
			FromUserName: profiles[tr.FromUserID].Name,
			ToUserID:     tr.ToUserID,
			ToUserName:   profiles[tr.ToUserID].Name,
			Amount:       tr.Amount,
			Currency:     tr.Currency,
		}
	}
	return proposed, nil
}

// scoreFor computes one member's score in one domain. Expense scores also
// report the member's outstanding (unpaid) share total.
func (s *DefaultService) scoreFor(ctx context.Context, groupID, userID string, domain performance.Domain) (performance.Score, float64, error) {
	switch domain {
	case performance.DomainExpense:
		shares, err := s.repo.GetExpenseShares(ctx, groupID, userID)
		if err != nil {
			return performance.Score{}, 0, fmt.Errorf("error getting expense shares: %w", err)
		}
		contributed, err := s.repo.CountContributedExpenses(ctx, groupID, userID)
		if err != nil {
			return performance.Score{}, 0, fmt.Errorf("error counting contributed expenses: %w", err)
		}
		initiated, err := s.repo.CountInitiatedSettlements(ctx, groupID, userID)
		if err != nil {
			return performance.Score{}, 0, fmt.Errorf("error counting initiated settlements: %w", err)
		}

		records := make([]performance.ExpenseRecord, len(shares))
		for i, sh := range shares {
			records[i] = performance.ExpenseRecord{
				ShareAmount: sh.Amount,
				Paid:        sh.Paid,
				AssignedAt:  sh.AssignedAt,
				DueAt:       sh.DueAt,
			}
			if sh.PaidAt != nil {
				records[i].PaidAt = *sh.PaidAt
			}
		}

		metrics := performance.ExtractExpenseMetrics(records, contributed, initiated)
		return performance.ExpenseScore(metrics), metrics.OutstandingAmount, nil

	case performance.DomainTask:
		tasks, err := s.repo.GetGroupTasks(ctx, groupID, userID)
		if err != nil {
			return performance.Score{}, 0, fmt.Errorf("error getting tasks: %w", err)
		}
		swaps, err := s.repo.GetSwapHistory(ctx, groupID, userID)
		if err != nil {
			return performance.Score{}, 0, fmt.Errorf("error getting swap history: %w", err)
		}

		records := make([]performance.TaskRecord, len(tasks))
		for i, t := range tasks {
			records[i] = performance.TaskRecord{
				Completed:      t.Status == models.TaskStatusCompleted,
				Missed:         t.Status == models.TaskStatusMissed,
				AssignedAt:     t.AssignedAt,
				DueAt:          t.DueAt,
				VerifiedIssues: t.VerifiedIssues,
			}
			if t.CompletedAt != nil {
				records[i].CompletedAt = *t.CompletedAt
			}
		}
		swapRecords := make([]performance.SwapRecord, len(swaps))
		for i, sw := range swaps {
			swapRecords[i] = performance.SwapRecord{
				RequesterID: sw.RequesterID,
				RequestedID: sw.RequestedID,
				Status:      sw.Status,
			}
		}

		metrics := performance.ExtractTaskMetrics(userID, records, swapRecords)
		return performance.TaskScore(metrics), 0, nil

	default:
		return performance.Score{}, 0, fmt.Errorf("%w: unknown domain %q", ErrInvalidInput, domain)
	}
}

// requireMember fails with ErrForbidden when the caller is not in the
// group, or ErrNotFound when the group does not exist.
func (s *DefaultService) requireMember(ctx context.Context, groupID, userID string) error {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("error getting group: %w", err)
	}
	if group == nil {
		return fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}

	isMember, err := s.repo.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("error checking group membership: %w", err)
	}
	if !isMember {
		return fmt.Errorf("%w: not a member of group %s", ErrForbidden, groupID)
	}
	return nil
}

// requireMemberOf is like requireMember but flags the counterparty as bad
// input rather than a permissions failure.
func (s *DefaultService) requireMemberOf(ctx context.Context, groupID, userID string) error {
	isMember, err := s.repo.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("error checking group membership: %w", err)
	}
	if !isMember {
		return fmt.Errorf("%w: user %s is not a member of group %s", ErrInvalidInput, userID, groupID)
	}
	return nil
}

func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
