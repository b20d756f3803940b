package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/homemates/homemates-server/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserProfiles(ctx context.Context, ids []string) (map[string]models.UserProfile, error)

	// Group operations
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	AddGroupMember(ctx context.Context, member *models.GroupMember) error
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)
	GetGroupMembers(ctx context.Context, groupID string) ([]models.UserProfile, error)

	// Debt operations
	CreateDebt(ctx context.Context, debt *models.Debt) error
	GetGroupDebts(ctx context.Context, groupID string) ([]models.Debt, error)

	// Expense operations
	CreateExpense(ctx context.Context, expense *models.Expense, shares []models.ExpenseShare) error
	GetExpenseShares(ctx context.Context, groupID, userID string) ([]models.ExpenseShare, error)
	CountContributedExpenses(ctx context.Context, groupID, userID string) (int, error)
	CountInitiatedSettlements(ctx context.Context, groupID, userID string) (int, error)

	// Task operations
	CreateTask(ctx context.Context, task *models.Task) error
	CreateTaskSwap(ctx context.Context, swap *models.TaskSwap) error
	GetGroupTasks(ctx context.Context, groupID, userID string) ([]models.Task, error)
	GetSwapHistory(ctx context.Context, groupID, userID string) ([]models.TaskSwap, error)

	// Settlement operations
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	CreateSettlements(ctx context.Context, settlements []models.Settlement) error
	ListGroupSettlements(ctx context.Context, groupID string) ([]models.Settlement, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.AvatarURL, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserProfiles(ctx context.Context, ids []string) (map[string]models.UserProfile, error) {
	profiles := make(map[string]models.UserProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query := `SELECT id, name, avatar_url FROM users WHERE id = ANY($1)`

	var rows []models.UserProfile
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, err
	}

	for _, p := range rows {
		profiles[p.ID] = p
	}
	return profiles, nil
}

// Group repository methods
func (r *PostgresRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	group.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)`,
		group.ID, group.Name, group.CreatedBy, group.CreatedAt)
	if err != nil {
		return err
	}

	// The creator joins as owner in the same transaction.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
		group.ID, group.CreatedBy, "owner", group.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	query := `SELECT * FROM groups WHERE id = $1`

	var group models.Group
	err := r.db.GetContext(ctx, &group, query, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *PostgresRepository) AddGroupMember(ctx context.Context, member *models.GroupMember) error {
	if member.Role == "" {
		member.Role = "member"
	}
	member.JoinedAt = time.Now().UTC()

	query := `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		member.GroupID, member.UserID, member.Role, member.JoinedAt)

	return err
}

func (r *PostgresRepository) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, groupID, userID); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepository) GetGroupMembers(ctx context.Context, groupID string) ([]models.UserProfile, error) {
	query := `
		SELECT u.id, u.name, u.avatar_url
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, u.id
	`

	members := []models.UserProfile{}
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, err
	}
	return members, nil
}

// Debt repository methods
func (r *PostgresRepository) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	debt.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO debts (id, group_id, from_user_id, to_user_id, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		debt.ID, debt.GroupID, debt.FromUserID, debt.ToUserID, debt.Amount, debt.Currency, debt.CreatedAt)

	return err
}

func (r *PostgresRepository) GetGroupDebts(ctx context.Context, groupID string) ([]models.Debt, error) {
	query := `
		SELECT * FROM debts
		WHERE group_id = $1
		ORDER BY created_at, id
	`

	debts := []models.Debt{}
	if err := r.db.SelectContext(ctx, &debts, query, groupID); err != nil {
		return nil, err
	}
	return debts, nil
}

// Expense repository methods
func (r *PostgresRepository) CreateExpense(ctx context.Context, expense *models.Expense, shares []models.ExpenseShare) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	expense.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, paid_by, description, amount, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		expense.ID, expense.GroupID, expense.PaidBy, expense.Description, expense.Amount, expense.Currency, expense.CreatedAt)
	if err != nil {
		return err
	}

	for i := range shares {
		shares[i].ExpenseID = expense.ID
		if shares[i].AssignedAt.IsZero() {
			shares[i].AssignedAt = expense.CreatedAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_shares (expense_id, user_id, amount, paid, assigned_at, due_at, paid_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			shares[i].ExpenseID, shares[i].UserID, shares[i].Amount, shares[i].Paid,
			shares[i].AssignedAt, shares[i].DueAt, shares[i].PaidAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetExpenseShares(ctx context.Context, groupID, userID string) ([]models.ExpenseShare, error) {
	query := `
		SELECT es.expense_id, es.user_id, es.amount, es.paid, es.assigned_at, es.due_at, es.paid_at
		FROM expense_shares es
		JOIN expenses e ON e.id = es.expense_id
		WHERE e.group_id = $1 AND es.user_id = $2
		ORDER BY es.assigned_at
	`

	shares := []models.ExpenseShare{}
	if err := r.db.SelectContext(ctx, &shares, query, groupID, userID); err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *PostgresRepository) CountContributedExpenses(ctx context.Context, groupID, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM expenses WHERE group_id = $1 AND paid_by = $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, groupID, userID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) CountInitiatedSettlements(ctx context.Context, groupID, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM settlements WHERE group_id = $1 AND from_user_id = $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, groupID, userID); err != nil {
		return 0, err
	}
	return count, nil
}

// Task repository methods
func (r *PostgresRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.AssignedAt.IsZero() {
		task.AssignedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tasks (id, group_id, assigned_to, title, status, assigned_at, due_at, completed_at, verified_issues)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.GroupID, task.AssignedTo, task.Title, task.Status,
		task.AssignedAt, task.DueAt, task.CompletedAt, task.VerifiedIssues)

	return err
}

func (r *PostgresRepository) CreateTaskSwap(ctx context.Context, swap *models.TaskSwap) error {
	if swap.ID == "" {
		swap.ID = uuid.New().String()
	}
	swap.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO task_swaps (id, task_id, group_id, requester_id, requested_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		swap.ID, swap.TaskID, swap.GroupID, swap.RequesterID, swap.RequestedID, swap.Status, swap.CreatedAt)

	return err
}

func (r *PostgresRepository) GetGroupTasks(ctx context.Context, groupID, userID string) ([]models.Task, error) {
	query := `
		SELECT * FROM tasks
		WHERE group_id = $1 AND assigned_to = $2
		ORDER BY assigned_at, id
	`

	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, groupID, userID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *PostgresRepository) GetSwapHistory(ctx context.Context, groupID, userID string) ([]models.TaskSwap, error) {
	query := `
		SELECT * FROM task_swaps
		WHERE group_id = $1 AND (requester_id = $2 OR requested_id = $2)
		ORDER BY created_at, id
	`

	swaps := []models.TaskSwap{}
	if err := r.db.SelectContext(ctx, &swaps, query, groupID, userID); err != nil {
		return nil, err
	}
	return swaps, nil
}

// Settlement repository methods
func (r *PostgresRepository) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	settlement.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, currency, optimized, created_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.Currency, settlement.Optimized,
		settlement.CreatedBy, settlement.Note, settlement.CreatedAt)

	return err
}

// CreateSettlements records a whole settlement plan atomically: either
// every transfer lands or none do.
func (r *PostgresRepository) CreateSettlements(ctx context.Context, settlements []models.Settlement) error {
	if len(settlements) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	query := `
		INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, currency, optimized, created_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i := range settlements {
		if settlements[i].ID == "" {
			settlements[i].ID = uuid.New().String()
		}
		settlements[i].CreatedAt = now

		_, err = tx.ExecContext(ctx, query,
			settlements[i].ID, settlements[i].GroupID, settlements[i].FromUserID, settlements[i].ToUserID,
			settlements[i].Amount, settlements[i].Currency, settlements[i].Optimized,
			settlements[i].CreatedBy, settlements[i].Note, settlements[i].CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) ListGroupSettlements(ctx context.Context, groupID string) ([]models.Settlement, error) {
	query := `
		SELECT * FROM settlements
		WHERE group_id = $1
		ORDER BY created_at DESC, id
	`

	settlements := []models.Settlement{}
	if err := r.db.SelectContext(ctx, &settlements, query, groupID); err != nil {
		return nil, err
	}
	return settlements, nil
}
