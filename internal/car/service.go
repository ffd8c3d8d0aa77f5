package car

import "context"

type CreateRequest struct {
	PlateNumber        string
	Make               string
	Model              string
	LastServiceMileage int
	ServiceIntervalKm  int
}

// UpdateRequest carries optional field updates. NextServiceMileage is not
// settable: it is recomputed from the stored fields on every read.
type UpdateRequest struct {
	PlateNumber        *string
	Make               *string
	Model              *string
	LastServiceMileage *int
	ServiceIntervalKm  *int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Car, error)
	GetByID(ctx context.Context, id string) (*Car, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Car, error)
	ListAvailable(ctx context.Context) ([]*Car, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Car, error) {
	c := &Car{
		PlateNumber:        req.PlateNumber,
		Make:               req.Make,
		Model:              req.Model,
		LastServiceMileage: req.LastServiceMileage,
		ServiceIntervalKm:  req.ServiceIntervalKm,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Car, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Car, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PlateNumber != nil {
		c.PlateNumber = *req.PlateNumber
	}
	if req.Make != nil {
		c.Make = *req.Make
	}
	if req.Model != nil {
		c.Model = *req.Model
	}
	if req.LastServiceMileage != nil {
		c.LastServiceMileage = *req.LastServiceMileage
	}
	if req.ServiceIntervalKm != nil {
		c.ServiceIntervalKm = *req.ServiceIntervalKm
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListAvailable(ctx context.Context) ([]*Car, error) {
	return s.repo.ListAvailable(ctx)
}
