package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/google/uuid"
)

var (
	ErrForbidden   = errors.New("access denied")
	ErrEmptyName   = errors.New("budget name is required")
	ErrNameTooLong = errors.New("budget name too long (max 255 characters)")
)

type BudgetService struct {
	store  BudgetStore
	events EventPublisher
	now    func() time.Time
}

func NewBudgetService(store BudgetStore, events EventPublisher) *BudgetService {
	if events == nil {
		events = NopPublisher{}
	}
	return &BudgetService{store: store, events: events, now: time.Now}
}

// Preview computes live totals for a task list that may still be incomplete.
// It never fails: problems are returned as issues and mark the result as
// provisional.
func (s *BudgetService) Preview(inputs []models.TaskEntryInput) models.TotalsResponse {
	tasks, parseErr := ParseTaskInputs(inputs)
	totals := ComputeTotals(tasks)

	issues := &ValidationError{}
	issues.merge(parseErr)
	issues.merge(ValidateTasks(tasks))

	resp := models.TotalsResponse{
		Totals:  totals,
		Display: DisplayTotals(totals),
	}
	if verr := issues.orNil(); verr != nil {
		resp.Provisional = true
		resp.Issues = verr.Fields
	}
	return resp
}

// Submit validates and stores a new budget.
func (s *BudgetService) Submit(ctx context.Context, ownerID, name string, inputs []models.TaskEntryInput) (*models.Budget, error) {
	name, tasks, err := s.validated(name, inputs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &models.Budget{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   ownerID,
		Tasks:     tasks,
		Totals:    ComputeTotals(tasks),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	utils.LogBudgetAction(ctx, "submitted", b.ID, ownerID, b.Totals.TotalValue)

	s.publish(ctx, EventBudgetSubmitted, b)
	return b, nil
}

// Update replaces the name and tasks of a budget owned by userID.
func (s *BudgetService) Update(ctx context.Context, id, userID, name string, inputs []models.TaskEntryInput) (*models.Budget, error) {
	b, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	name, tasks, err := s.validated(name, inputs)
	if err != nil {
		return nil, err
	}

	b.Name = name
	b.Tasks = tasks
	b.Totals = ComputeTotals(tasks)
	b.Version++
	b.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	utils.LogBudgetAction(ctx, "updated", b.ID, userID, b.Totals.TotalValue)

	s.publish(ctx, EventBudgetUpdated, b)
	return b, nil
}

// Get returns a budget if userID owns it. Stored totals are re-derived from
// the tasks so they always match the current calculation rules.
func (s *BudgetService) Get(ctx context.Context, id, userID string) (*models.Budget, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBudgetNotFound
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != userID {
		return nil, ErrForbidden
	}
	b.Totals = ComputeTotals(b.Tasks)
	return b, nil
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]models.Budget, error) {
	budgets, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	for i := range budgets {
		budgets[i].Totals = ComputeTotals(budgets[i].Tasks)
	}
	return budgets, nil
}

func (s *BudgetService) Delete(ctx context.Context, id, userID string) error {
	b, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogBudgetAction(ctx, "deleted", id, userID, b.Totals.TotalValue)

	s.publish(ctx, EventBudgetDeleted, b)
	return nil
}

// validated applies the submission rules: any parse or validation problem
// blocks the save.
func (s *BudgetService) validated(name string, inputs []models.TaskEntryInput) (string, []models.TaskEntry, error) {
	verr := &ValidationError{}

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		verr.add("name", ErrEmptyName.Error())
	case len(name) > 255:
		verr.add("name", ErrNameTooLong.Error())
	}

	tasks, parseErr := ParseTaskInputs(inputs)
	verr.merge(parseErr)
	verr.merge(ValidateTasks(tasks))

	if e := verr.orNil(); e != nil {
		return "", nil, e
	}
	return name, tasks, nil
}

// publish never fails the caller: the budget is already stored.
func (s *BudgetService) publish(ctx context.Context, eventType string, b *models.Budget) {
	if err := s.events.Publish(ctx, NewBudgetEvent(eventType, b)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget event",
			"type", eventType,
			"budget_id", utils.MaskID(b.ID),
			"error", err)
	}
}
