package http

import (
	"fleetcare/internal/car"
)

// CarResponse includes next_service_mileage, which is derived from the
// two stored mileage fields on every response rather than persisted.
type CarResponse struct {
	ID                 string `json:"id"`
	PlateNumber        string `json:"plate_number"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	LastServiceMileage int    `json:"last_service_mileage"`
	ServiceIntervalKm  int    `json:"service_interval_km"`
	NextServiceMileage int    `json:"next_service_mileage"`
}

func NewCarResponse(c *car.Car) CarResponse {
	return CarResponse{
		ID:                 c.ID,
		PlateNumber:        c.PlateNumber,
		Make:               c.Make,
		Model:              c.Model,
		LastServiceMileage: c.LastServiceMileage,
		ServiceIntervalKm:  c.ServiceIntervalKm,
		NextServiceMileage: c.NextServiceMileage(),
	}
}

type CreateCarBody struct {
	PlateNumber        string `json:"plate_number" binding:"required"`
	Make               string `json:"make" binding:"required"`
	Model              string `json:"model" binding:"required"`
	LastServiceMileage int    `json:"last_service_mileage" binding:"min=0"`
	ServiceIntervalKm  int    `json:"service_interval_km" binding:"required,min=1"`
}

type UpdateCarBody struct {
	PlateNumber        *string `json:"plate_number"`
	Make               *string `json:"make"`
	Model              *string `json:"model"`
	LastServiceMileage *int    `json:"last_service_mileage" binding:"omitempty,min=0"`
	ServiceIntervalKm  *int    `json:"service_interval_km" binding:"omitempty,min=1"`
}
