package slot

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory Repository with the same transition
// semantics as the SQL one: conditional reserve, idempotent release,
// unique (date, time).
type fakeRepository struct {
	mu     sync.Mutex
	slots  map[string]*Slot
	nextID int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{slots: make(map[string]*Slot)}
}

func (r *fakeRepository) add(date time.Time, clock string, status Status) *Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s := &Slot{ID: strconv.Itoa(r.nextID), Date: date, Time: clock, Status: status}
	r.slots[s.ID] = s
	return s
}

func (r *fakeRepository) Create(_ context.Context, s *Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.slots {
		if existing.Date.Equal(s.Date) && existing.Time == s.Time {
			return ErrDuplicate
		}
	}
	r.nextID++
	s.ID = strconv.Itoa(r.nextID)
	cp := *s
	r.slots[s.ID] = &cp
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepository) Reserve(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return ErrNotFound
	}
	if s.Status != StatusFree {
		return ErrConflict
	}
	s.Status = StatusBusy
	return nil
}

func (r *fakeRepository) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = StatusFree
	return nil
}

func (r *fakeRepository) SetStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	return nil
}

func (r *fakeRepository) FreeDates(_ context.Context, from time.Time, days int) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]time.Time)
	until := from.AddDate(0, 0, days)
	for _, s := range r.slots {
		if s.Status == StatusFree && !s.Date.Before(from) && s.Date.Before(until) {
			seen[s.Date.Format(DateLayout)] = s.Date
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (r *fakeRepository) FreeTimes(_ context.Context, date time.Time) ([]*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Slot
	for _, s := range r.slots {
		if s.Status == StatusFree && s.Date.Equal(date) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	date := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)
	s := repo.add(date, "09:00", StatusFree)

	const callers = 16
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Reserve(context.Background(), s.ID)
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, lost)
}

func TestReserveNotFound(t *testing.T) {
	svc := NewService(newFakeRepository())
	err := svc.Reserve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReleaseIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	date := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)
	s := repo.add(date, "10:00", StatusBusy)

	require.NoError(t, svc.Release(context.Background(), s.ID))
	require.NoError(t, svc.Release(context.Background(), s.ID))

	got, err := svc.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFree, got.Status)
}

func TestProvisionSkipsDuplicates(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	date := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)
	repo.add(date, "09:00", StatusFree)

	res, err := svc.Provision(context.Background(), date, []string{"9:00", "11:00", "09:00"})
	require.NoError(t, err)

	// "11:00" is new; both spellings of 09:00 collide with the existing slot
	// (the second against the first within the batch).
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []string{"09:00", "09:00"}, res.Skipped)
}

func TestProvisionValidatesBeforeWriting(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	date := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)

	_, err := svc.Provision(context.Background(), date, []string{"10:00", "25:00"})
	assert.ErrorIs(t, err, ErrInvalidTime)
	assert.Empty(t, repo.slots, "no slot may be created when any time in the batch is invalid")
}

func TestFreeListingsExcludeReservedSlot(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	day := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)
	s := repo.add(day, "10:00", StatusFree)
	repo.add(nextDay, "09:00", StatusFree)

	require.NoError(t, svc.Reserve(context.Background(), s.ID))

	// The only slot on the 25th is now busy: the time list is empty and
	// the date itself drops out of the free-dates window.
	times, err := svc.FreeTimes(context.Background(), day)
	require.NoError(t, err)
	assert.Empty(t, times)

	dates, err := svc.FreeDates(context.Background(), day, 7)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{nextDay}, dates)
}

func TestFreeDatesWindowBoundsAndOrdering(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	from := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)

	repo.add(from.AddDate(0, 0, 3), "09:00", StatusFree)
	repo.add(from.AddDate(0, 0, 3), "11:00", StatusFree) // same date listed once
	repo.add(from, "09:00", StatusFree)
	repo.add(from.AddDate(0, 0, -1), "09:00", StatusFree) // before the window
	repo.add(from.AddDate(0, 0, 7), "09:00", StatusFree)  // first day past [from, from+7)
	repo.add(from.AddDate(0, 0, 1), "09:00", StatusBusy)  // busy dates do not count

	dates, err := svc.FreeDates(context.Background(), from, 7)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{from, from.AddDate(0, 0, 3)}, dates)
}

func TestFreeTimesAscendingForDate(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	day := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)

	repo.add(day, "11:00", StatusFree)
	repo.add(day, "09:00", StatusFree)
	repo.add(day, "10:00", StatusFree)
	repo.add(day, "08:00", StatusBusy)
	repo.add(day.AddDate(0, 0, 1), "07:00", StatusFree) // other dates excluded

	slots, err := svc.FreeTimes(context.Background(), day)
	require.NoError(t, err)

	got := make([]string, len(slots))
	for i, s := range slots {
		got[i] = s.Time
	}
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, got)
}

func TestMarkBusyOverridesFreeSlot(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	date := time.Date(2025, 9, 26, 0, 0, 0, 0, time.UTC)
	s := repo.add(date, "12:00", StatusFree)

	require.NoError(t, svc.MarkBusy(context.Background(), s.ID))
	got, err := svc.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusBusy, got.Status)

	require.NoError(t, svc.MarkFree(context.Background(), s.ID))
	got, err = svc.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFree, got.Status)
}
