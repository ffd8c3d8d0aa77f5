package driver

import "context"

type CreateRequest struct {
	FirstName string
	LastName  string
	Phone     string
	CarID     *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Driver, error)
	GetByID(ctx context.Context, id string) (*Driver, error)

	// GetByPhone resolves a driver by any phone spelling; the input is
	// normalized to digits before lookup.
	GetByPhone(ctx context.Context, rawPhone string) (*Driver, error)

	BindChat(ctx context.Context, id string, chatID int64) error
	AssignCar(ctx context.Context, id string, carID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Driver, error) {
	phone := NormalizePhone(req.Phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	d := &Driver{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     phone,
		CarID:     req.CarID,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Driver, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByPhone(ctx context.Context, rawPhone string) (*Driver, error) {
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	return s.repo.GetByPhone(ctx, phone)
}

func (s *service) BindChat(ctx context.Context, id string, chatID int64) error {
	return s.repo.UpdateChatID(ctx, id, chatID)
}

func (s *service) AssignCar(ctx context.Context, id string, carID string) error {
	return s.repo.AssignCar(ctx, id, carID)
}
