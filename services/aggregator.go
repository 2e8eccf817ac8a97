package services

import (
	"strings"
	"time"

	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/utils"
)

// Accepted task date layouts, tried in order. Layouts without a zone are
// read as UTC.
var taskDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// WholeHours returns the number of complete hours between begin and end.
// Partial hours are dropped and negative spans count as zero.
func WholeHours(begin, end time.Time) int64 {
	h := int64(end.Sub(begin) / time.Hour)
	if h < 0 {
		return 0
	}
	return h
}

// ComputeTotals derives cost, revenue and value for a task list.
//
// Expense tasks add their cost and revenue as they are. Activity tasks add
// rate and revenue multiplied by the whole hours between their dates. Missing
// amounts and tasks of unknown kind contribute nothing. Totals that do not
// fit in int64 cents are clamped; ValidateTasks reports them.
func ComputeTotals(tasks []models.TaskEntry) models.Totals {
	totals, _ := sumTotals(tasks)
	return totals
}

// sumTotals is ComputeTotals that also reports whether every product and
// sum stayed in range.
func sumTotals(tasks []models.TaskEntry) (models.Totals, bool) {
	var cost, revenue models.Money
	exact := true
	add := func(acc *models.Money, m models.Money, ok bool) {
		sum, sumOK := acc.AddChecked(m)
		*acc = sum
		exact = exact && ok && sumOK
	}

	for _, t := range tasks {
		switch t.Kind {
		case models.TaskExpense:
			add(&cost, t.Cost.Value(), true)
			add(&revenue, t.Revenue.Value(), true)
		case models.TaskActivity:
			hours := WholeHours(t.BeginDate, t.EndDate)
			c, ok := t.HourlyRate.Value().TimesChecked(hours)
			add(&cost, c, ok)
			r, ok := t.Revenue.Value().TimesChecked(hours)
			add(&revenue, r, ok)
		}
	}

	value, ok := cost.AddChecked(revenue)
	return models.Totals{
		TotalCost:    cost,
		TotalRevenue: revenue,
		TotalValue:   value,
	}, exact && ok
}

// DisplayTotals renders totals in the localized currency format.
func DisplayTotals(t models.Totals) models.DisplayTotals {
	return models.DisplayTotals{
		TotalCost:    utils.FormatCurrency(t.TotalCost),
		TotalRevenue: utils.FormatCurrency(t.TotalRevenue),
		TotalValue:   utils.FormatCurrency(t.TotalValue),
	}
}

// ValidateTasks checks the rules a budget must satisfy before it is saved.
// It returns nil when every task is valid.
func ValidateTasks(tasks []models.TaskEntry) *ValidationError {
	verr := &ValidationError{}
	for i, t := range tasks {
		if !t.Kind.Valid() {
			verr.add(taskField(i, "kind"), "must be activity or expense")
		}

		if t.BeginDate.IsZero() {
			verr.add(taskField(i, "begin_date"), "is required")
		}
		if t.EndDate.IsZero() {
			verr.add(taskField(i, "end_date"), "is required")
		}
		if !t.BeginDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.BeginDate) {
			verr.add(taskField(i, "end_date"), "must not precede begin date")
		}

		switch t.Kind {
		case models.TaskActivity:
			checkAmount(verr, i, "hourly_rate", t.HourlyRate, "is required for activity tasks")
		case models.TaskExpense:
			checkAmount(verr, i, "cost", t.Cost, "is required for expense tasks")
		}
		checkAmount(verr, i, "revenue", t.Revenue, "is required")
	}

	if _, exact := sumTotals(tasks); !exact {
		verr.add("totals", "exceed the supported amount range")
	}
	return verr.orNil()
}

func checkAmount(verr *ValidationError, i int, field string, m *models.Money, missing string) {
	if m == nil {
		verr.add(taskField(i, field), missing)
		return
	}
	if m.Cents < 0 {
		verr.add(taskField(i, field), "must not be negative")
	}
}

// ParseTaskInputs converts form input into task entries. Malformed values
// never abort the conversion: they degrade to zero (amounts) or an unset
// date, and each one is reported in the returned error.
func ParseTaskInputs(inputs []models.TaskEntryInput) ([]models.TaskEntry, *ValidationError) {
	verr := &ValidationError{}
	tasks := make([]models.TaskEntry, 0, len(inputs))

	for i, in := range inputs {
		t := models.TaskEntry{
			Kind:        models.TaskKind(strings.ToLower(strings.TrimSpace(in.Kind))),
			Description: strings.TrimSpace(in.Description),
		}
		t.BeginDate = parseTaskDate(verr, i, "begin_date", in.BeginDate)
		t.EndDate = parseTaskDate(verr, i, "end_date", in.EndDate)

		// Only the amount matching the kind is kept.
		switch t.Kind {
		case models.TaskActivity:
			t.HourlyRate = parseAmount(verr, i, "hourly_rate", in.HourlyRate)
		case models.TaskExpense:
			t.Cost = parseAmount(verr, i, "cost", in.Cost)
		}
		t.Revenue = parseAmount(verr, i, "revenue", in.Revenue)

		tasks = append(tasks, t)
	}
	return tasks, verr.orNil()
}

func parseTaskDate(verr *ValidationError, i int, field, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range taskDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	verr.add(taskField(i, field), "invalid date")
	return time.Time{}
}

// parseAmount returns nil for an empty field and zero for a malformed one.
func parseAmount(verr *ValidationError, i int, field, raw string) *models.Money {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	m, err := utils.ParseCurrency(raw)
	if err != nil {
		verr.add(taskField(i, field), "invalid amount")
		return &models.Money{}
	}
	return &m
}
