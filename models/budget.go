package models

import (
	"math"
	"time"
)

// TaskKind tells whether a task is billed by time or as a flat amount.
type TaskKind string

const (
	TaskActivity TaskKind = "activity"
	TaskExpense  TaskKind = "expense"
)

func (k TaskKind) Valid() bool {
	return k == TaskActivity || k == TaskExpense
}

// Money is an amount in integer minor units (cents).
type Money struct {
	Cents int64 `json:"cents"`
}

// AddChecked returns m+o and whether the sum fits in int64 cents. A sum out
// of range is clamped to the bound it crossed.
func (m Money) AddChecked(o Money) (Money, bool) {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}, false
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}, false
	}
	return Money{Cents: sum}, true
}

// TimesChecked returns m*n and whether the product fits in int64 cents. A
// product out of range is clamped like AddChecked.
func (m Money) TimesChecked(n int64) (Money, bool) {
	if m.Cents == 0 || n == 0 {
		return Money{}, true
	}
	p := m.Cents * n
	if p/n == m.Cents && !(m.Cents == math.MinInt64 && n == -1) {
		return Money{Cents: p}, true
	}
	if (m.Cents < 0) != (n < 0) {
		return Money{Cents: math.MinInt64}, false
	}
	return Money{Cents: math.MaxInt64}, false
}

// Add saturates at the int64 bounds.
func (m Money) Add(o Money) Money {
	sum, _ := m.AddChecked(o)
	return sum
}

// Times saturates at the int64 bounds.
func (m Money) Times(n int64) Money {
	p, _ := m.TimesChecked(n)
	return p
}

// Value returns the amount behind a nullable field, zero when absent.
func (m *Money) Value() Money {
	if m == nil {
		return Money{}
	}
	return *m
}

// TaskEntry is one line item of a budget.
type TaskEntry struct {
	Kind        TaskKind  `json:"kind"`
	Description string    `json:"description,omitempty"`
	BeginDate   time.Time `json:"begin_date"`
	EndDate     time.Time `json:"end_date"`
	HourlyRate  *Money    `json:"hourly_rate,omitempty"`
	Cost        *Money    `json:"cost,omitempty"`
	Revenue     *Money    `json:"revenue,omitempty"`
}

// Totals are the three derived amounts of a task list.
type Totals struct {
	TotalCost    Money `json:"total_cost"`
	TotalRevenue Money `json:"total_revenue"`
	TotalValue   Money `json:"total_value"`
}

// Add combines two totals component-wise.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		TotalCost:    t.TotalCost.Add(o.TotalCost),
		TotalRevenue: t.TotalRevenue.Add(o.TotalRevenue),
		TotalValue:   t.TotalValue.Add(o.TotalValue),
	}
}

type Budget struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	OwnerID   string      `json:"owner_id"`
	Tasks     []TaskEntry `json:"tasks"`
	Totals    Totals      `json:"totals"`
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ============================================================================
// REQUESTS & RESPONSES
// ============================================================================

// TaskEntryInput is a task as the budget form sends it: currency fields are
// localized display strings and may be empty while the user is typing.
type TaskEntryInput struct {
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	BeginDate   string `json:"begin_date"`
	EndDate     string `json:"end_date"`
	HourlyRate  string `json:"hourly_rate,omitempty"`
	Cost        string `json:"cost,omitempty"`
	Revenue     string `json:"revenue"`
}

type TotalsRequest struct {
	Tasks []TaskEntryInput `json:"tasks"`
}

type SubmitBudgetRequest struct {
	Name  string           `json:"name" binding:"required"`
	Tasks []TaskEntryInput `json:"tasks"`
}

// DisplayTotals carries the totals both as cents and as localized strings.
type DisplayTotals struct {
	TotalCost    string `json:"total_cost"`
	TotalRevenue string `json:"total_revenue"`
	TotalValue   string `json:"total_value"`
}

type TotalsResponse struct {
	Totals      Totals            `json:"totals"`
	Display     DisplayTotals     `json:"display"`
	Provisional bool              `json:"provisional"`
	Issues      map[string]string `json:"issues,omitempty"`
}

type BudgetResponse struct {
	Budget  Budget        `json:"budget"`
	Display DisplayTotals `json:"display"`
}
