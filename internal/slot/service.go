package slot

import (
	"context"
	"errors"
	"time"
)

// ProvisionResult reports the outcome of a bulk slot creation. Partial
// success is the expected outcome: every time that collided with an
// existing (date, time) pair is named back to the caller.
type ProvisionResult struct {
	Created int
	Skipped []string
}

type Service interface {
	GetByID(ctx context.Context, id string) (*Slot, error)

	// Reserve and Release are the only sanctioned free<->busy transitions
	// on the booking path. Both delegate to a single conditional update.
	Reserve(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error

	FreeDates(ctx context.Context, from time.Time, windowDays int) ([]time.Time, error)
	FreeTimes(ctx context.Context, date time.Time) ([]*Slot, error)

	// Provision creates one slot per requested time, skipping times that
	// already exist for the date.
	Provision(ctx context.Context, date time.Time, times []string) (*ProvisionResult, error)

	// MarkFree and MarkBusy are administrative overrides outside the
	// normal reserve/release path.
	MarkFree(ctx context.Context, id string) error
	MarkBusy(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Slot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Reserve(ctx context.Context, id string) error {
	return s.repo.Reserve(ctx, id)
}

func (s *service) Release(ctx context.Context, id string) error {
	return s.repo.Release(ctx, id)
}

func (s *service) FreeDates(ctx context.Context, from time.Time, windowDays int) ([]time.Time, error) {
	if windowDays < 1 {
		windowDays = 1
	}
	return s.repo.FreeDates(ctx, from, windowDays)
}

func (s *service) FreeTimes(ctx context.Context, date time.Time) ([]*Slot, error) {
	return s.repo.FreeTimes(ctx, date)
}

func (s *service) Provision(ctx context.Context, date time.Time, times []string) (*ProvisionResult, error) {
	// Validate the whole batch before any write.
	clocks := make([]string, 0, len(times))
	for _, t := range times {
		clock, err := ParseClock(t)
		if err != nil {
			return nil, err
		}
		clocks = append(clocks, clock)
	}

	res := &ProvisionResult{}
	for _, clock := range clocks {
		err := s.repo.Create(ctx, &Slot{Date: date, Time: clock, Status: StatusFree})
		if err != nil {
			// The uniqueness constraint is the source of truth: an existing
			// (date, time) pair, including a duplicate earlier in this same
			// batch, is skipped rather than failing the whole request.
			if errors.Is(err, ErrDuplicate) {
				res.Skipped = append(res.Skipped, clock)
				continue
			}
			return nil, err
		}
		res.Created++
	}
	return res, nil
}

func (s *service) MarkFree(ctx context.Context, id string) error {
	return s.repo.SetStatus(ctx, id, StatusFree)
}

func (s *service) MarkBusy(ctx context.Context, id string) error {
	return s.repo.SetStatus(ctx, id, StatusBusy)
}
