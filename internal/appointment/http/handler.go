package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetcare/internal/appointment"
	"fleetcare/internal/auth"
	"fleetcare/internal/pkg/response"
)

type Handler struct {
	service appointment.Service
}

func NewHandler(service appointment.Service) *Handler {
	return &Handler{service: service}
}

// Create books a slot. A lost race against a concurrent booking comes
// back as 409; the caller is expected to re-list free slots, not retry.
func (h *Handler) Create(c *gin.Context) {
	var body CreateAppointmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ap, err := h.service.Book(c.Request.Context(), body.DriverID, body.CarID, body.SlotID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewAppointmentResponse(ap))
}

// Active lists a driver's active appointments ordered by slot date and
// time, filtered by phone or by driver id.
func (h *Handler) Active(c *gin.Context) {
	var (
		items []*appointment.Appointment
		err   error
	)
	switch {
	case c.Query("phone") != "":
		items, err = h.service.ActiveByPhone(c.Request.Context(), c.Query("phone"))
	case c.Query("driver_id") != "":
		driverID := c.Query("driver_id")
		if _, uuidErr := uuid.Parse(driverID); uuidErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
			return
		}
		items, err = h.service.ActiveForDriver(c.Request.Context(), driverID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone or driver_id parameter is required"})
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]AppointmentResponse, len(items))
	for i, ap := range items {
		out[i] = NewAppointmentResponse(ap)
	}
	c.JSON(http.StatusOK, out)
}

// GetActive returns a single appointment, only while it is active.
func (h *Handler) GetActive(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	ap, err := h.service.FindActive(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(ap))
}

func (h *Handler) CancelUser(c *gin.Context) {
	h.cancel(c, appointment.ActorUser)
}

func (h *Handler) CancelManager(c *gin.Context) {
	if admin := auth.GetAdminEmail(c); admin != "" {
		log.Printf("manager %s cancelling appointment %s", admin, c.Param("id"))
	}
	h.cancel(c, appointment.ActorManager)
}

func (h *Handler) cancel(c *gin.Context, actor appointment.Actor) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	ap, err := h.service.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAppointmentResponse(ap))
}
