package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetcare/internal/driver"
	"fleetcare/internal/pkg/response"
)

type Handler struct {
	service driver.Service
}

func NewHandler(service driver.Service) *Handler {
	return &Handler{service: service}
}

// GetByPhone resolves a driver by phone in any spelling; the service
// normalizes the input to digits before lookup.
func (h *Handler) GetByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone parameter is required"})
		return
	}

	d, err := h.service.GetByPhone(c.Request.Context(), phone)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewDriverResponse(d))
}

// BindChat persists the chat id on the driver record. Callers treat a
// failure here as non-fatal; authentication does not depend on it.
func (h *Handler) BindChat(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body BindChatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.BindChat(c.Request.Context(), id, body.ChatID); err != nil {
		response.Error(c, err)
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDriverResponse(d))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateDriverBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	d, err := h.service.Create(c.Request.Context(), driver.CreateRequest{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		CarID:     body.CarID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewDriverResponse(d))
}

func (h *Handler) AssignCar(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body AssignCarBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.AssignCar(c.Request.Context(), id, body.CarID); err != nil {
		response.Error(c, err)
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDriverResponse(d))
}
