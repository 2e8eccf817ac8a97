package services

import (
	"math"
	"testing"
	"time"

	"github.com/LovationAdmin/bizpanel/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(cents int64) *models.Money {
	return &models.Money{Cents: cents}
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", s)
	require.NoError(t, err)
	return ts
}

func activity(t *testing.T, begin, end string, rate, revenue int64) models.TaskEntry {
	return models.TaskEntry{
		Kind:       models.TaskActivity,
		BeginDate:  at(t, begin),
		EndDate:    at(t, end),
		HourlyRate: money(rate),
		Revenue:    money(revenue),
	}
}

func expense(cost, revenue int64) models.TaskEntry {
	return models.TaskEntry{
		Kind:    models.TaskExpense,
		Cost:    money(cost),
		Revenue: money(revenue),
	}
}

func totals(cost, revenue int64) models.Totals {
	return models.Totals{
		TotalCost:    models.Money{Cents: cost},
		TotalRevenue: models.Money{Cents: revenue},
		TotalValue:   models.Money{Cents: cost + revenue},
	}
}

func TestWholeHours(t *testing.T) {
	tests := []struct {
		name       string
		begin, end string
		want       int64
	}{
		{"exact hours", "2024-01-01T10:00", "2024-01-01T13:00", 3},
		{"partial hour truncated", "2024-01-01T10:00", "2024-01-01T12:59", 2},
		{"under an hour", "2024-01-01T10:00", "2024-01-01T10:45", 0},
		{"zero span", "2024-01-01T10:00", "2024-01-01T10:00", 0},
		{"negative span", "2024-01-01T13:00", "2024-01-01T10:00", 0},
		{"across days", "2024-01-01T22:00", "2024-01-02T01:30", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WholeHours(at(t, tt.begin), at(t, tt.end)))
		})
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.TaskEntry
		want  models.Totals
	}{
		{
			name:  "empty list",
			tasks: nil,
			want:  totals(0, 0),
		},
		{
			name:  "activity scales by whole hours",
			tasks: []models.TaskEntry{activity(t, "2024-01-01T10:00", "2024-01-01T13:00", 5000, 2000)},
			want:  totals(15000, 6000),
		},
		{
			name:  "expense adds amounts as they are",
			tasks: []models.TaskEntry{expense(7500, 1000)},
			want:  totals(7500, 1000),
		},
		{
			name: "mixed list",
			tasks: []models.TaskEntry{
				activity(t, "2024-01-01T10:00", "2024-01-01T13:00", 5000, 2000),
				expense(7500, 1000),
			},
			want: totals(22500, 7000),
		},
		{
			name:  "partial hour is dropped",
			tasks: []models.TaskEntry{activity(t, "2024-01-01T10:00", "2024-01-01T11:59", 5000, 2000)},
			want:  totals(5000, 2000),
		},
		{
			name:  "zero span activity contributes nothing",
			tasks: []models.TaskEntry{activity(t, "2024-01-01T10:00", "2024-01-01T10:00", 5000, 2000)},
			want:  totals(0, 0),
		},
		{
			name:  "reversed dates contribute nothing",
			tasks: []models.TaskEntry{activity(t, "2024-01-01T13:00", "2024-01-01T10:00", 5000, 2000)},
			want:  totals(0, 0),
		},
		{
			name: "expense ignores its dates",
			tasks: []models.TaskEntry{{
				Kind:      models.TaskExpense,
				BeginDate: at(t, "2024-01-01T10:00"),
				EndDate:   at(t, "2024-01-05T10:00"),
				Cost:      money(7500),
				Revenue:   money(1000),
			}},
			want: totals(7500, 1000),
		},
		{
			name:  "missing amounts count as zero",
			tasks: []models.TaskEntry{{Kind: models.TaskActivity, BeginDate: at(t, "2024-01-01T10:00"), EndDate: at(t, "2024-01-01T12:00")}},
			want:  totals(0, 0),
		},
		{
			name:  "unknown kind is ignored",
			tasks: []models.TaskEntry{{Kind: "travel", Cost: money(100), Revenue: money(100)}},
			want:  totals(0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.tasks)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ComputeTotals() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeTotals_ValueIsCostPlusRevenue(t *testing.T) {
	got := ComputeTotals([]models.TaskEntry{
		activity(t, "2024-03-01T08:00", "2024-03-01T17:30", 12345, 678),
		expense(99, 1),
		expense(0, 250000),
	})
	assert.Equal(t, got.TotalCost.Add(got.TotalRevenue), got.TotalValue)
}

func TestComputeTotals_Additive(t *testing.T) {
	a := []models.TaskEntry{
		activity(t, "2024-01-01T09:00", "2024-01-01T17:00", 4500, 1500),
		expense(3000, 0),
	}
	b := []models.TaskEntry{
		expense(120000, 20000),
		activity(t, "2024-01-02T09:00", "2024-01-02T10:30", 10000, 500),
	}

	combined := ComputeTotals(append(append([]models.TaskEntry{}, a...), b...))
	assert.Equal(t, ComputeTotals(a).Add(ComputeTotals(b)), combined)
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	tasks := []models.TaskEntry{
		activity(t, "2024-01-01T09:00", "2024-01-01T17:00", 4500, 1500),
		expense(3000, 10),
		activity(t, "2024-01-03T09:00", "2024-01-03T11:00", 100, 100),
	}
	reversed := []models.TaskEntry{tasks[2], tasks[1], tasks[0]}

	assert.Equal(t, ComputeTotals(tasks), ComputeTotals(reversed))
}

func TestComputeTotals_OutOfRangeClamps(t *testing.T) {
	t.Run("activity product", func(t *testing.T) {
		tasks := []models.TaskEntry{activity(t, "2000-01-01T00:00", "2100-01-01T00:00", 10_000_000_000_000_000, 0)}

		got := ComputeTotals(tasks)
		assert.Equal(t, int64(math.MaxInt64), got.TotalCost.Cents)
		assert.Equal(t, int64(math.MaxInt64), got.TotalValue.Cents)

		verr := ValidateTasks(tasks)
		require.NotNil(t, verr)
		assert.Equal(t, "exceed the supported amount range", verr.Fields["totals"])
	})

	t.Run("running sum", func(t *testing.T) {
		half := int64(math.MaxInt64/2 + 1)
		tasks := []models.TaskEntry{expense(half, 0), expense(half, 0)}

		assert.Equal(t, int64(math.MaxInt64), ComputeTotals(tasks).TotalCost.Cents)
		verr := ValidateTasks(tasks)
		require.NotNil(t, verr)
		assert.Contains(t, verr.Fields, "totals")
	})

	t.Run("value only", func(t *testing.T) {
		tasks := []models.TaskEntry{expense(math.MaxInt64, 1)}

		got := ComputeTotals(tasks)
		assert.Equal(t, int64(math.MaxInt64), got.TotalCost.Cents)
		assert.Equal(t, int64(math.MaxInt64), got.TotalValue.Cents)
		verr := ValidateTasks(tasks)
		require.NotNil(t, verr)
		assert.Contains(t, verr.Fields, "totals")
	})

	t.Run("largest exact total", func(t *testing.T) {
		tasks := []models.TaskEntry{expense(math.MaxInt64-1, 1)}
		assert.Equal(t, int64(math.MaxInt64), ComputeTotals(tasks).TotalValue.Cents)
		if verr := ValidateTasks(tasks); verr != nil {
			assert.NotContains(t, verr.Fields, "totals")
		}
	})
}

func TestDisplayTotals(t *testing.T) {
	got := DisplayTotals(totals(22500, 7000))
	want := models.DisplayTotals{
		TotalCost:    "R$ 225,00",
		TotalRevenue: "R$ 70,00",
		TotalValue:   "R$ 295,00",
	}
	assert.Equal(t, want, got)
}

func TestValidateTasks(t *testing.T) {
	t.Run("valid tasks", func(t *testing.T) {
		tasks := []models.TaskEntry{
			activity(t, "2024-01-01T10:00", "2024-01-01T13:00", 5000, 2000),
			{
				Kind:      models.TaskExpense,
				BeginDate: at(t, "2024-01-01T10:00"),
				EndDate:   at(t, "2024-01-01T10:00"),
				Cost:      money(7500),
				Revenue:   money(0),
			},
		}
		assert.Nil(t, ValidateTasks(tasks))
	})

	t.Run("empty list", func(t *testing.T) {
		assert.Nil(t, ValidateTasks(nil))
	})

	t.Run("field problems", func(t *testing.T) {
		tasks := []models.TaskEntry{
			{Kind: "travel"},
			{
				Kind:      models.TaskActivity,
				BeginDate: at(t, "2024-01-01T13:00"),
				EndDate:   at(t, "2024-01-01T10:00"),
				Revenue:   money(-100),
			},
			{
				Kind:      models.TaskExpense,
				BeginDate: at(t, "2024-01-01T10:00"),
				EndDate:   at(t, "2024-01-01T10:00"),
				Cost:      money(-1),
				Revenue:   money(0),
			},
		}

		verr := ValidateTasks(tasks)
		require.NotNil(t, verr)

		want := map[string]string{
			"tasks[0].kind":        "must be activity or expense",
			"tasks[0].begin_date":  "is required",
			"tasks[0].end_date":    "is required",
			"tasks[0].revenue":     "is required",
			"tasks[1].end_date":    "must not precede begin date",
			"tasks[1].hourly_rate": "is required for activity tasks",
			"tasks[1].revenue":     "must not be negative",
			"tasks[2].cost":        "must not be negative",
		}
		if diff := cmp.Diff(want, verr.Fields); diff != "" {
			t.Errorf("ValidateTasks() fields mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParseTaskInputs(t *testing.T) {
	inputs := []models.TaskEntryInput{
		{
			Kind:        " Activity ",
			Description: " Design ",
			BeginDate:   "2024-01-01T10:00",
			EndDate:     "2024-01-01T13:00",
			HourlyRate:  "R$ 50,00",
			Cost:        "999,00",
			Revenue:     "20,00",
		},
		{
			Kind:      "expense",
			BeginDate: "2024-01-01",
			EndDate:   "2024-01-01",
			Cost:      "R$ 75,00",
			Revenue:   "10,00",
		},
	}

	tasks, verr := ParseTaskInputs(inputs)
	require.Nil(t, verr)
	require.Len(t, tasks, 2)

	assert.Equal(t, models.TaskActivity, tasks[0].Kind)
	assert.Equal(t, "Design", tasks[0].Description)
	assert.Equal(t, money(5000), tasks[0].HourlyRate)
	assert.Nil(t, tasks[0].Cost, "cost of an activity is not kept")
	assert.Equal(t, money(2000), tasks[0].Revenue)

	assert.Equal(t, models.TaskExpense, tasks[1].Kind)
	assert.Nil(t, tasks[1].HourlyRate)
	assert.Equal(t, money(7500), tasks[1].Cost)

	assert.Equal(t, totals(22500, 7000), ComputeTotals(tasks))
}

func TestParseTaskInputs_DateLayouts(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)
	for _, raw := range []string{
		"2024-05-06T07:08:00Z",
		"2024-05-06T07:08:00",
		"2024-05-06T07:08",
		"2024-05-06 07:08",
	} {
		t.Run(raw, func(t *testing.T) {
			tasks, verr := ParseTaskInputs([]models.TaskEntryInput{{Kind: "expense", BeginDate: raw}})
			require.Nil(t, verr)
			assert.True(t, want.Equal(tasks[0].BeginDate), "got %v", tasks[0].BeginDate)
		})
	}
}

func TestParseTaskInputs_MalformedValuesDegrade(t *testing.T) {
	inputs := []models.TaskEntryInput{{
		Kind:       "activity",
		BeginDate:  "yesterday",
		EndDate:    "2024-01-01T13:00",
		HourlyRate: "fifty",
		Revenue:    "",
	}}

	tasks, verr := ParseTaskInputs(inputs)
	require.Len(t, tasks, 1)
	require.NotNil(t, verr)

	assert.True(t, tasks[0].BeginDate.IsZero())
	assert.Equal(t, money(0), tasks[0].HourlyRate)
	assert.Nil(t, tasks[0].Revenue)

	want := map[string]string{
		"tasks[0].begin_date":  "invalid date",
		"tasks[0].hourly_rate": "invalid amount",
	}
	if diff := cmp.Diff(want, verr.Fields); diff != "" {
		t.Errorf("ParseTaskInputs() issues mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, totals(0, 0), ComputeTotals(tasks))
}
