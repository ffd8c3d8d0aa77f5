package appointment

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetcare/internal/driver"
	"fleetcare/internal/event"
	"fleetcare/internal/slot"
)

// fakeRepository mirrors the SQL repository's contract, including the
// one-active-appointment-per-slot constraint.
type fakeRepository struct {
	mu        sync.Mutex
	items     map[string]*Appointment
	phones    map[string]string // driver id -> phone
	nextID    int
	createErr error
	getErr    error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items:  make(map[string]*Appointment),
		phones: make(map[string]string),
	}
}

func (r *fakeRepository) Create(_ context.Context, ap *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.items {
		if existing.SlotID == ap.SlotID && existing.Status == StatusActive {
			return ErrSlotTaken
		}
	}
	r.nextID++
	ap.ID = strconv.Itoa(r.nextID)
	ap.CreatedAt = time.Now()
	cp := *ap
	r.items[ap.ID] = &cp
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	ap, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ap
	return &cp, nil
}

func (r *fakeRepository) MarkCancelled(_ context.Context, id string, status Status) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap, ok := r.items[id]
	if !ok {
		return "", ErrNotFound
	}
	if ap.Status != StatusActive {
		return "", ErrAlreadyCancelled
	}
	ap.Status = status
	return ap.SlotID, nil
}

func (r *fakeRepository) ActiveByDriver(_ context.Context, driverID string) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for _, ap := range r.items {
		if ap.DriverID == driverID && ap.Status == StatusActive {
			cp := *ap
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepository) ActiveByPhone(_ context.Context, phone string) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for _, ap := range r.items {
		if r.phones[ap.DriverID] == phone && ap.Status == StatusActive {
			cp := *ap
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepository) ReleaseOrphanSlots(_ context.Context) (int64, error) {
	return 0, nil
}

// fakeSlots implements slot.Service over an in-memory status map and
// counts release calls, so tests can assert compensation behavior.
type fakeSlots struct {
	mu         sync.Mutex
	statuses   map[string]slot.Status
	releases   int
	reserveErr error
}

func newFakeSlots() *fakeSlots {
	return &fakeSlots{statuses: make(map[string]slot.Status)}
}

func (f *fakeSlots) GetByID(_ context.Context, id string) (*slot.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.statuses[id]
	if !ok {
		return nil, slot.ErrNotFound
	}
	return &slot.Slot{ID: id, Status: st}, nil
}

func (f *fakeSlots) Reserve(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return f.reserveErr
	}
	st, ok := f.statuses[id]
	if !ok {
		return slot.ErrNotFound
	}
	if st != slot.StatusFree {
		return slot.ErrConflict
	}
	f.statuses[id] = slot.StatusBusy
	return nil
}

func (f *fakeSlots) Release(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.statuses[id]; !ok {
		return slot.ErrNotFound
	}
	f.statuses[id] = slot.StatusFree
	f.releases++
	return nil
}

func (f *fakeSlots) FreeDates(context.Context, time.Time, int) ([]time.Time, error) {
	return nil, nil
}

func (f *fakeSlots) FreeTimes(context.Context, time.Time) ([]*slot.Slot, error) {
	return nil, nil
}

func (f *fakeSlots) Provision(context.Context, time.Time, []string) (*slot.ProvisionResult, error) {
	return &slot.ProvisionResult{}, nil
}

func (f *fakeSlots) MarkFree(ctx context.Context, id string) error { return f.Release(ctx, id) }

func (f *fakeSlots) MarkBusy(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = slot.StatusBusy
	return nil
}

type fakeDrivers struct {
	byID map[string]*driver.Driver
}

func (f *fakeDrivers) Create(context.Context, driver.CreateRequest) (*driver.Driver, error) {
	return nil, nil
}

func (f *fakeDrivers) GetByID(_ context.Context, id string) (*driver.Driver, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, driver.ErrNotFound
	}
	return d, nil
}

func (f *fakeDrivers) GetByPhone(_ context.Context, phone string) (*driver.Driver, error) {
	for _, d := range f.byID {
		if d.Phone == phone {
			return d, nil
		}
	}
	return nil, driver.ErrNotFound
}

func (f *fakeDrivers) BindChat(context.Context, string, int64) error { return nil }

func (f *fakeDrivers) AssignCar(context.Context, string, string) error { return nil }

type recordedEvent struct {
	queue string
	ev    event.AppointmentEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, queue string, ev event.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{queue: queue, ev: ev})
	return nil
}

type fixture struct {
	repo      *fakeRepository
	slots     *fakeSlots
	drivers   *fakeDrivers
	publisher *recordingPublisher
	svc       Service
}

func newFixture() *fixture {
	carID := "car-1"
	repo := newFakeRepository()
	slots := newFakeSlots()
	drivers := &fakeDrivers{byID: map[string]*driver.Driver{
		"drv-1": {ID: "drv-1", Phone: "79991234567", CarID: &carID},
		"drv-2": {ID: "drv-2", Phone: "79990000000"},
	}}
	repo.phones["drv-1"] = "79991234567"
	repo.phones["drv-2"] = "79990000000"
	publisher := &recordingPublisher{}
	return &fixture{
		repo:      repo,
		slots:     slots,
		drivers:   drivers,
		publisher: publisher,
		svc:       NewService(repo, slots, drivers, publisher),
	}
}

func TestBookReservesSlotAndPublishes(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	ap, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, ap.Status)
	assert.Equal(t, "slot-1", ap.SlotID)
	assert.Equal(t, slot.StatusBusy, f.slots.statuses["slot-1"])

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, event.QueueAppointmentBooked, f.publisher.events[0].queue)
	assert.Equal(t, ap.ID, f.publisher.events[0].ev.AppointmentID)
}

func TestBookRejectsDriverWithoutCar(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	_, err := f.svc.Book(context.Background(), "drv-2", "car-1", "slot-1")
	assert.ErrorIs(t, err, ErrNoCar)
	assert.Equal(t, slot.StatusFree, f.slots.statuses["slot-1"], "slot must stay free")
}

func TestBookRejectsForeignCar(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	_, err := f.svc.Book(context.Background(), "drv-1", "car-2", "slot-1")
	assert.ErrorIs(t, err, ErrCarMismatch)
}

func TestBookLosesRaceOnBusySlot(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusBusy

	_, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	assert.ErrorIs(t, err, slot.ErrConflict)
	assert.Empty(t, f.repo.items, "no appointment row on a lost race")
	assert.Empty(t, f.publisher.events)
}

func TestBookCompensatesWhenInsertFails(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree
	f.repo.createErr = ErrSlotTaken

	_, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	assert.ErrorIs(t, err, slot.ErrConflict)
	assert.Equal(t, slot.StatusFree, f.slots.statuses["slot-1"], "reservation must be rolled back")
	assert.Equal(t, 1, f.slots.releases)
}

func TestBookSurvivesReadBackFailure(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree
	f.repo.getErr = errors.New("read timeout")

	ap, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err, "a committed booking must not surface a read-back error")
	assert.NotEmpty(t, ap.ID)
	assert.Equal(t, StatusActive, ap.Status)
	assert.Equal(t, slot.StatusBusy, f.slots.statuses["slot-1"])
	require.Len(t, f.publisher.events, 1)
}

func TestCancelSurvivesReadBackFailure(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	ap, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)

	f.repo.getErr = errors.New("read timeout")
	cancelled, err := f.svc.Cancel(context.Background(), ap.ID, ActorUser)
	require.NoError(t, err, "a committed cancellation must not surface a read-back error")
	assert.Equal(t, ap.ID, cancelled.ID)
	assert.Equal(t, StatusCancelledUser, cancelled.Status)
	assert.Equal(t, slot.StatusFree, f.slots.statuses["slot-1"])
	assert.Equal(t, 1, f.slots.releases)
}

func TestCancelReleasesSlotOnce(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	ap, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), ap.ID, ActorUser)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelledUser, cancelled.Status)
	assert.Equal(t, slot.StatusFree, f.slots.statuses["slot-1"])
	assert.Equal(t, 1, f.slots.releases)

	// Second cancellation is rejected and must not touch the slot again.
	_, err = f.svc.Cancel(context.Background(), ap.ID, ActorUser)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 1, f.slots.releases)
}

func TestCancelByManagerUsesManagerStatus(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	ap, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), ap.ID, ActorManager)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelledManager, cancelled.Status)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, event.QueueAppointmentCancelled, f.publisher.events[1].queue)
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Cancel(context.Background(), "missing", ActorUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlotFreedByCancelCanBeRebooked(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	first, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), first.ID, ActorUser)
	require.NoError(t, err)

	second, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, slot.StatusBusy, f.slots.statuses["slot-1"])
}

func TestActiveByPhoneNormalizesInput(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	_, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)

	items, err := f.svc.ActiveByPhone(context.Background(), "+7 (999) 123-45-67")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.ActiveByPhone(context.Background(), "---")
	assert.ErrorIs(t, err, driver.ErrInvalidPhone)
}

func TestActiveForDriverExcludesCancelled(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree
	f.slots.statuses["slot-2"] = slot.StatusFree

	first, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)
	second, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-2")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), first.ID, ActorUser)
	require.NoError(t, err)

	items, err := f.svc.ActiveForDriver(context.Background(), "drv-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)
}

func TestFindActiveHidesCancelled(t *testing.T) {
	f := newFixture()
	f.slots.statuses["slot-1"] = slot.StatusFree

	ap, err := f.svc.Book(context.Background(), "drv-1", "car-1", "slot-1")
	require.NoError(t, err)

	found, err := f.svc.FindActive(context.Background(), ap.ID)
	require.NoError(t, err)
	assert.Equal(t, ap.ID, found.ID)

	_, err = f.svc.Cancel(context.Background(), ap.ID, ActorUser)
	require.NoError(t, err)

	_, err = f.svc.FindActive(context.Background(), ap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
