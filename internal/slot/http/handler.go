package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetcare/internal/pkg/response"
	"fleetcare/internal/slot"
)

type Handler struct {
	service    slot.Service
	windowDays int
}

func NewHandler(service slot.Service, windowDays int) *Handler {
	return &Handler{service: service, windowDays: windowDays}
}

// FreeDates returns the distinct upcoming dates that still have at least
// one free slot. The same endpoint doubles as the liveness probe target.
func (h *Handler) FreeDates(c *gin.Context) {
	days := h.windowDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
			return
		}
		days = n
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	dates, err := h.service.FreeDates(c.Request.Context(), today, days)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(slot.DateLayout)
	}
	c.JSON(http.StatusOK, out)
}

// ListForDate returns the free slots for a date, ascending by time.
func (h *Handler) ListForDate(c *gin.Context) {
	date, err := slot.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	slots, err := h.service.FreeTimes(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SlotResponse, len(slots))
	for i, s := range slots {
		items[i] = NewSlotResponse(s)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Provision(c *gin.Context) {
	var body ProvisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := slot.ParseDate(body.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	times := []string{body.Time}
	for _, part := range strings.Split(body.BulkTimes, ",") {
		if t := strings.TrimSpace(part); t != "" {
			times = append(times, t)
		}
	}

	res, err := h.service.Provision(c.Request.Context(), date, times)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewProvisionResponse(res))
}

func (h *Handler) MarkFree(c *gin.Context) {
	h.setStatus(c, h.service.MarkFree)
}

func (h *Handler) MarkBusy(c *gin.Context) {
	h.setStatus(c, h.service.MarkBusy)
}

func (h *Handler) setStatus(c *gin.Context, fn func(context.Context, string) error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSlotResponse(s))
}
