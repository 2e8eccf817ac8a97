package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/google/uuid"
)

var (
	ErrBudgetNotFound  = errors.New("budget not found")
	ErrVersionConflict = errors.New("budget was modified concurrently")
)

// BudgetStore persists submitted budgets. Update expects b.Version to be the
// new version and succeeds only if the stored one is b.Version-1.
type BudgetStore interface {
	Create(ctx context.Context, b *models.Budget) error
	Get(ctx context.Context, id string) (*models.Budget, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Budget, error)
	Update(ctx context.Context, b *models.Budget) error
	Delete(ctx context.Context, id string) error
}

// ============================================================================
// POSTGRES
// ============================================================================

// encryptedTasks wraps an encrypted task list so the JSONB column accepts it.
type encryptedTasks struct {
	Encrypted string `json:"encrypted"`
}

type PostgresBudgetStore struct {
	db     *sql.DB
	sealer *utils.Sealer
}

// NewPostgresBudgetStore stores task lists as JSONB, encrypted with
// encryptionKey when it is non-empty.
func NewPostgresBudgetStore(db *sql.DB, encryptionKey string) (*PostgresBudgetStore, error) {
	s := &PostgresBudgetStore{db: db}
	if encryptionKey != "" {
		sealer, err := utils.NewSealer(encryptionKey)
		if err != nil {
			return nil, err
		}
		s.sealer = sealer
	}
	return s, nil
}

func (s *PostgresBudgetStore) Create(ctx context.Context, b *models.Budget) error {
	tasksJSON, err := s.encodeTasks(b.Tasks)
	if err != nil {
		return err
	}

	return utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO budgets (id, name, owner_id, tasks, total_cost_cents, total_revenue_cents, total_value_cents, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		if _, err := tx.ExecContext(ctx, query,
			b.ID, b.Name, b.OwnerID, tasksJSON,
			b.Totals.TotalCost.Cents, b.Totals.TotalRevenue.Cents, b.Totals.TotalValue.Cents,
			b.Version, b.CreatedAt, b.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		return s.audit(ctx, tx, b.ID, b.OwnerID, "create")
	})
}

func (s *PostgresBudgetStore) Get(ctx context.Context, id string) (*models.Budget, error) {
	query := `
		SELECT id, name, owner_id, tasks, total_cost_cents, total_revenue_cents, total_value_cents, version, created_at, updated_at
		FROM budgets
		WHERE id = $1
	`
	b, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PostgresBudgetStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Budget, error) {
	query := `
		SELECT id, name, owner_id, tasks, total_cost_cents, total_revenue_cents, total_value_cents, version, created_at, updated_at
		FROM budgets
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		b, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (s *PostgresBudgetStore) Update(ctx context.Context, b *models.Budget) error {
	tasksJSON, err := s.encodeTasks(b.Tasks)
	if err != nil {
		return err
	}

	return utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		query := `
			UPDATE budgets
			SET name = $1, tasks = $2, total_cost_cents = $3, total_revenue_cents = $4, total_value_cents = $5,
			    version = $6, updated_at = $7
			WHERE id = $8 AND version = $9
		`
		res, err := tx.ExecContext(ctx, query,
			b.Name, tasksJSON,
			b.Totals.TotalCost.Cents, b.Totals.TotalRevenue.Cents, b.Totals.TotalValue.Cents,
			b.Version, b.UpdatedAt, b.ID, b.Version-1,
		)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrVersionConflict
		}
		return s.audit(ctx, tx, b.ID, b.OwnerID, "update")
	})
}

func (s *PostgresBudgetStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

func (s *PostgresBudgetStore) audit(ctx context.Context, tx *sql.Tx, budgetID, userID, action string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, budget_id, user_id, action, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), budgetID, userID, action, time.Now())
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresBudgetStore) scan(row rowScanner) (*models.Budget, error) {
	var b models.Budget
	var raw []byte
	if err := row.Scan(
		&b.ID, &b.Name, &b.OwnerID, &raw,
		&b.Totals.TotalCost.Cents, &b.Totals.TotalRevenue.Cents, &b.Totals.TotalValue.Cents,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tasks, err := s.decodeTasks(raw)
	if err != nil {
		return nil, fmt.Errorf("decode tasks of budget %s: %w", b.ID, err)
	}
	b.Tasks = tasks
	return &b, nil
}

// encodeTasks returns a string because lib/pq sends []byte as bytea.
func (s *PostgresBudgetStore) encodeTasks(tasks []models.TaskEntry) (string, error) {
	if tasks == nil {
		tasks = []models.TaskEntry{}
	}
	plain, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	if s.sealer == nil {
		return string(plain), nil
	}

	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return "", fmt.Errorf("encrypt tasks: %w", err)
	}
	wrapped, err := json.Marshal(encryptedTasks{Encrypted: sealed})
	if err != nil {
		return "", err
	}
	return string(wrapped), nil
}

// decodeTasks accepts both encrypted and plain rows so that enabling the
// key does not break budgets saved before.
func (s *PostgresBudgetStore) decodeTasks(raw []byte) ([]models.TaskEntry, error) {
	if len(raw) == 0 {
		return []models.TaskEntry{}, nil
	}

	var wrapper encryptedTasks
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Encrypted != "" {
		if s.sealer == nil {
			return nil, fmt.Errorf("tasks are encrypted but no encryption key is configured")
		}
		plain, err := s.sealer.Open(wrapper.Encrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt data: %w", err)
		}
		raw = plain
	}

	var tasks []models.TaskEntry
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ============================================================================
// MEMORY
// ============================================================================

type MemoryBudgetStore struct {
	mu      sync.RWMutex
	budgets map[string]models.Budget
}

func NewMemoryBudgetStore() *MemoryBudgetStore {
	return &MemoryBudgetStore{budgets: make(map[string]models.Budget)}
}

func (s *MemoryBudgetStore) Create(_ context.Context, b *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.budgets[b.ID]; exists {
		return fmt.Errorf("budget %s already exists", b.ID)
	}
	s.budgets[b.ID] = cloneBudget(*b)
	return nil
}

func (s *MemoryBudgetStore) Get(_ context.Context, id string) (*models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return nil, ErrBudgetNotFound
	}
	out := cloneBudget(b)
	return &out, nil
}

func (s *MemoryBudgetStore) ListByOwner(_ context.Context, ownerID string) ([]models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Budget{}
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			out = append(out, cloneBudget(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryBudgetStore) Update(_ context.Context, b *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.budgets[b.ID]
	if !ok {
		return ErrBudgetNotFound
	}
	if cur.Version != b.Version-1 {
		return ErrVersionConflict
	}
	s.budgets[b.ID] = cloneBudget(*b)
	return nil
}

func (s *MemoryBudgetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return ErrBudgetNotFound
	}
	delete(s.budgets, id)
	return nil
}

func cloneBudget(b models.Budget) models.Budget {
	tasks := make([]models.TaskEntry, len(b.Tasks))
	for i, t := range b.Tasks {
		t.HourlyRate = cloneMoney(t.HourlyRate)
		t.Cost = cloneMoney(t.Cost)
		t.Revenue = cloneMoney(t.Revenue)
		tasks[i] = t
	}
	b.Tasks = tasks
	return b
}

func cloneMoney(m *models.Money) *models.Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
