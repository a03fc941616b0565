package categorization

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRuleNotFound is returned when a rule id does not exist for the user.
var ErrRuleNotFound = errors.New("category rule not found")

// CategoryRule is a user-defined categorization rule. Categories are plain
// names ("Groceries", "Transport"); there is no separate category table.
type CategoryRule struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	MatchPattern string
	CleanName    *string
	Category     string
	IsRecurring  bool
	Priority     int
	CreatedAt    time.Time
}

// Merchant is a known merchant pattern. System merchants (user_id NULL,
// is_system true) ship with the schema; users can add their own on top.
type Merchant struct {
	ID              uuid.UUID
	UserID          *uuid.UUID
	RawPattern      string
	CleanName       string
	DefaultCategory string
	IsSystem        bool
	CreatedAt       time.Time
}

// CategorizationResult is what the service hands back per description.
// Category is empty when neither a rule nor a merchant matched.
type CategorizationResult struct {
	CleanMerchantName string
	Category          string
	IsRecurring       bool
	RuleID            *uuid.UUID
	MerchantID        *uuid.UUID
}

// DB is the slice of pgx the repository needs. Both *pgxpool.Pool and the
// pgxmock pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles database access for rules and merchants.
type Repository struct {
	db DB
}

// NewRepository creates a categorization repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// GetUserRules fetches all rules for a user, highest priority first.
func (r *Repository) GetUserRules(ctx context.Context, userID uuid.UUID) ([]CategoryRule, error) {
	query := `
		SELECT id, user_id, match_pattern, clean_name, category, is_recurring, priority, created_at
		FROM category_rules
		WHERE user_id = $1
		ORDER BY priority DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []CategoryRule
	for rows.Next() {
		var rule CategoryRule
		if err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&rule.MatchPattern,
			&rule.CleanName,
			&rule.Category,
			&rule.IsRecurring,
			&rule.Priority,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// GetMerchants fetches the user's merchants plus the system set.
func (r *Repository) GetMerchants(ctx context.Context, userID *uuid.UUID) ([]Merchant, error) {
	query := `
		SELECT id, user_id, raw_pattern, clean_name, COALESCE(default_category, ''), is_system, created_at
		FROM merchants
		WHERE user_id = $1 OR user_id IS NULL OR is_system = true
		ORDER BY
			CASE WHEN user_id = $1 THEN 0 ELSE 1 END,
			is_system ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var merchants []Merchant
	for rows.Next() {
		var m Merchant
		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.RawPattern,
			&m.CleanName,
			&m.DefaultCategory,
			&m.IsSystem,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}

	return merchants, rows.Err()
}

// CreateRule inserts a rule and fills in its generated id and timestamp.
func (r *Repository) CreateRule(ctx context.Context, rule *CategoryRule) error {
	query := `
		INSERT INTO category_rules (user_id, match_pattern, clean_name, category, is_recurring, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.db.QueryRow(ctx, query,
		rule.UserID,
		rule.MatchPattern,
		rule.CleanName,
		rule.Category,
		rule.IsRecurring,
		rule.Priority,
	).Scan(&rule.ID, &rule.CreatedAt)
}

// DeleteRule removes one of the user's rules.
func (r *Repository) DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM category_rules WHERE id = $1 AND user_id = $2`,
		ruleID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// FindRuleByPattern checks whether a rule with this exact pattern exists.
// Returns nil, nil when there is none.
func (r *Repository) FindRuleByPattern(ctx context.Context, userID uuid.UUID, pattern string) (*CategoryRule, error) {
	query := `
		SELECT id, user_id, match_pattern, clean_name, category, is_recurring, priority, created_at
		FROM category_rules
		WHERE user_id = $1 AND match_pattern = $2
	`

	var rule CategoryRule
	err := r.db.QueryRow(ctx, query, userID, pattern).Scan(
		&rule.ID,
		&rule.UserID,
		&rule.MatchPattern,
		&rule.CleanName,
		&rule.Category,
		&rule.IsRecurring,
		&rule.Priority,
		&rule.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

// UpdateTransactionsMerchant backfills merchant name and category onto
// ledger rows whose description matches the rule pattern.
func (r *Repository) UpdateTransactionsMerchant(ctx context.Context, userID uuid.UUID, pattern, cleanName, category string) (int64, error) {
	query := `
		UPDATE ledger_transactions
		SET merchant_name = $3, category = $4
		WHERE user_id = $1 AND description ILIKE $2
	`

	tag, err := r.db.Exec(ctx, query, userID, pattern, cleanName, category)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
