package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []BudgetEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev BudgetEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestService(t *testing.T) (*BudgetService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewBudgetService(NewMemoryBudgetStore(), pub)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, pub
}

func sampleInputs() []models.TaskEntryInput {
	return []models.TaskEntryInput{
		{Kind: "activity", BeginDate: "2024-01-01T10:00", EndDate: "2024-01-01T13:00", HourlyRate: "R$ 50,00", Revenue: "R$ 20,00"},
		{Kind: "expense", BeginDate: "2024-01-01", EndDate: "2024-01-01", Cost: "R$ 75,00", Revenue: "R$ 10,00"},
	}
}

func TestBudgetService_Preview(t *testing.T) {
	svc, _ := newTestService(t)

	got := svc.Preview(sampleInputs())
	assert.False(t, got.Provisional)
	assert.Empty(t, got.Issues)
	assert.Equal(t, totals(22500, 7000), got.Totals)
	assert.Equal(t, "R$ 295,00", got.Display.TotalValue)
}

func TestBudgetService_PreviewIncompleteForm(t *testing.T) {
	svc, _ := newTestService(t)

	inputs := sampleInputs()
	inputs[1].Cost = "75,0x"
	inputs = append(inputs, models.TaskEntryInput{Kind: "activity", BeginDate: "2024-01-01T10:00"})

	got := svc.Preview(inputs)
	assert.True(t, got.Provisional)
	assert.Equal(t, "invalid amount", got.Issues["tasks[1].cost"])
	assert.Equal(t, "is required", got.Issues["tasks[2].end_date"])
	assert.Equal(t, totals(15000, 7000), got.Totals, "malformed cost counts as zero")
}

func TestBudgetService_Submit(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	b, err := svc.Submit(ctx, "user-1", "  Website redesign ", sampleInputs())
	require.NoError(t, err)

	_, err = uuid.Parse(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Website redesign", b.Name)
	assert.Equal(t, "user-1", b.OwnerID)
	assert.Equal(t, 1, b.Version)
	assert.Equal(t, totals(22500, 7000), b.Totals)
	assert.Equal(t, svc.now(), b.CreatedAt)

	stored, err := svc.Get(ctx, b.ID, "user-1")
	require.NoError(t, err)
	if diff := cmp.Diff(b, stored); diff != "" {
		t.Errorf("stored budget mismatch (-submitted +stored):\n%s", diff)
	}

	assert.Equal(t, []string{EventBudgetSubmitted}, pub.types())
}

func TestBudgetService_SubmitBlockedByValidation(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	inputs := sampleInputs()
	inputs[0].HourlyRate = "abc"
	inputs[1].EndDate = ""

	_, err := svc.Submit(ctx, "user-1", "", inputs)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"name":                 ErrEmptyName.Error(),
		"tasks[0].hourly_rate": "invalid amount",
		"tasks[1].end_date":    "is required",
	}, verr.Fields)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, pub.types())
}

func TestBudgetService_OutOfRangeTotals(t *testing.T) {
	svc, pub := newTestService(t)
	inputs := []models.TaskEntryInput{{
		Kind:       "activity",
		BeginDate:  "2000-01-01T00:00",
		EndDate:    "2100-01-01T00:00",
		HourlyRate: "R$ 100.000.000.000.000,00",
		Revenue:    "R$ 0,00",
	}}

	preview := svc.Preview(inputs)
	assert.True(t, preview.Provisional)
	assert.Contains(t, preview.Issues, "totals")
	assert.Equal(t, "R$ 92.233.720.368.547.758,07", preview.Display.TotalCost)

	_, err := svc.Submit(context.Background(), "user-1", "Century", inputs)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "totals")
	assert.Empty(t, pub.types())
}

func TestBudgetService_SubmitNameTooLong(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), "user-1", strings.Repeat("a", 256), sampleInputs())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrNameTooLong.Error(), verr.Fields["name"])
}

func TestBudgetService_SubmitSurvivesPublishFailure(t *testing.T) {
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	b, err := svc.Submit(context.Background(), "user-1", "Q3", sampleInputs())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), b.ID, "user-1")
	assert.NoError(t, err)
}

func TestBudgetService_Update(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	b, err := svc.Submit(ctx, "user-1", "Q3", sampleInputs())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, b.ID, "user-1", "Q3 revised", sampleInputs()[1:])
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Q3 revised", updated.Name)
	assert.Equal(t, totals(7500, 1000), updated.Totals)

	assert.Equal(t, []string{EventBudgetSubmitted, EventBudgetUpdated}, pub.types())
}

func TestBudgetService_UpdateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Submit(ctx, "user-1", "Q3", sampleInputs())
	require.NoError(t, err)

	_, err = svc.Update(ctx, b.ID, "user-1", "Q3", []models.TaskEntryInput{{Kind: "other"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	stored, err := svc.Get(ctx, b.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
}

func TestBudgetService_Ownership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Submit(ctx, "user-1", "Q3", sampleInputs())
	require.NoError(t, err)

	_, err = svc.Get(ctx, b.ID, "user-2")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, b.ID, "user-2", "mine now", sampleInputs())
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, b.ID, "user-2"), ErrForbidden)

	list, err := svc.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBudgetService_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid", "user-1")
	assert.ErrorIs(t, err, ErrBudgetNotFound)

	_, err = svc.Get(ctx, uuid.NewString(), "user-1")
	assert.ErrorIs(t, err, ErrBudgetNotFound)
}

func TestBudgetService_Delete(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	b, err := svc.Submit(ctx, "user-1", "Q3", sampleInputs())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, b.ID, "user-1"))

	_, err = svc.Get(ctx, b.ID, "user-1")
	assert.ErrorIs(t, err, ErrBudgetNotFound)
	assert.Equal(t, []string{EventBudgetSubmitted, EventBudgetDeleted}, pub.types())
}

func TestBudgetService_ListNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	first, err := svc.Submit(ctx, "user-1", "first", sampleInputs())
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	second, err := svc.Submit(ctx, "user-1", "second", sampleInputs())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "user-2", "other", sampleInputs())
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestMemoryBudgetStore_VersionConflict(t *testing.T) {
	store := NewMemoryBudgetStore()
	ctx := context.Background()

	b := &models.Budget{ID: uuid.NewString(), OwnerID: "user-1", Version: 1}
	require.NoError(t, store.Create(ctx, b))
	require.Error(t, store.Create(ctx, b), "duplicate id")

	stale := *b
	stale.Version = 3
	assert.ErrorIs(t, store.Update(ctx, &stale), ErrVersionConflict)

	next := *b
	next.Version = 2
	require.NoError(t, store.Update(ctx, &next))
	assert.ErrorIs(t, store.Update(ctx, &next), ErrVersionConflict)

	missing := models.Budget{ID: uuid.NewString(), Version: 2}
	assert.ErrorIs(t, store.Update(ctx, &missing), ErrBudgetNotFound)
	assert.ErrorIs(t, store.Delete(ctx, missing.ID), ErrBudgetNotFound)
}

func TestMemoryBudgetStore_IsolatesAmounts(t *testing.T) {
	store := NewMemoryBudgetStore()
	ctx := context.Background()

	b := &models.Budget{
		ID:      uuid.NewString(),
		OwnerID: "user-1",
		Version: 1,
		Tasks:   []models.TaskEntry{activity(t, "2024-01-01T10:00", "2024-01-01T13:00", 5000, 2000)},
	}
	require.NoError(t, store.Create(ctx, b))
	b.Tasks[0].HourlyRate.Cents = 1

	got, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Tasks[0].HourlyRate.Cents)

	got.Tasks[0].Revenue.Cents = 1
	again, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), again.Tasks[0].Revenue.Cents)
}

func TestPostgresBudgetStore_TaskEncoding(t *testing.T) {
	tasks := []models.TaskEntry{
		activity(t, "2024-01-01T10:00", "2024-01-01T13:00", 5000, 2000),
		expense(7500, 1000),
	}

	newStore := func(t *testing.T, key string) *PostgresBudgetStore {
		t.Helper()
		s, err := NewPostgresBudgetStore(nil, key)
		require.NoError(t, err)
		return s
	}
	const key = "0123456789abcdef0123456789abcdef"

	t.Run("plain", func(t *testing.T) {
		s := newStore(t, "")
		raw, err := s.encodeTasks(tasks)
		require.NoError(t, err)
		assert.Contains(t, raw, `"kind":"activity"`)

		got, err := s.decodeTasks([]byte(raw))
		require.NoError(t, err)
		if diff := cmp.Diff(tasks, got); diff != "" {
			t.Errorf("decodeTasks() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("encrypted", func(t *testing.T) {
		s := newStore(t, key)
		raw, err := s.encodeTasks(tasks)
		require.NoError(t, err)
		assert.Contains(t, raw, `"encrypted"`)
		assert.NotContains(t, raw, "activity")

		got, err := s.decodeTasks([]byte(raw))
		require.NoError(t, err)
		if diff := cmp.Diff(tasks, got); diff != "" {
			t.Errorf("decodeTasks() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("plain rows still readable with a key", func(t *testing.T) {
		plain, err := newStore(t, "").encodeTasks(tasks)
		require.NoError(t, err)

		got, err := newStore(t, key).decodeTasks([]byte(plain))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("encrypted rows need the key", func(t *testing.T) {
		sealed, err := newStore(t, key).encodeTasks(tasks)
		require.NoError(t, err)

		_, err = newStore(t, "").decodeTasks([]byte(sealed))
		assert.Error(t, err)
	})

	t.Run("bad key", func(t *testing.T) {
		_, err := NewPostgresBudgetStore(nil, "short")
		assert.ErrorIs(t, err, utils.ErrInvalidEncryptionKey)
	})

	t.Run("nil list", func(t *testing.T) {
		raw, err := newStore(t, "").encodeTasks(nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", raw)
	})
}
