package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetcare/internal/car"
	"fleetcare/internal/pkg/response"
)

type Handler struct {
	service car.Service
}

func NewHandler(service car.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateCarBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), car.CreateRequest{
		PlateNumber:        body.PlateNumber,
		Make:               body.Make,
		Model:              body.Model,
		LastServiceMileage: body.LastServiceMileage,
		ServiceIntervalKm:  body.ServiceIntervalKm,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCarResponse(created))
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateCarBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, car.UpdateRequest{
		PlateNumber:        body.PlateNumber,
		Make:               body.Make,
		Model:              body.Model,
		LastServiceMileage: body.LastServiceMileage,
		ServiceIntervalKm:  body.ServiceIntervalKm,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCarResponse(updated))
}

// ListAvailable returns cars not yet assigned to any driver, for the
// admin to pick from when linking a car to a driver.
func (h *Handler) ListAvailable(c *gin.Context) {
	cars, err := h.service.ListAvailable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]CarResponse, len(cars))
	for i, cr := range cars {
		items[i] = NewCarResponse(cr)
	}
	c.JSON(http.StatusOK, items)
}
