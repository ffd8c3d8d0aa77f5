// Package botapi is the bot's HTTP client for the fleetcare API server.
// It mirrors the server's public endpoints and maps HTTP statuses to
// typed errors so handlers never inspect status codes themselves.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type Car struct {
	ID                 string `json:"id"`
	PlateNumber        string `json:"plate_number"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	LastServiceMileage int    `json:"last_service_mileage"`
	ServiceIntervalKm  int    `json:"service_interval_km"`
	NextServiceMileage int    `json:"next_service_mileage"`
}

type Driver struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	ChatID    *int64 `json:"chat_id"`
	Car       *Car   `json:"car"`
}

type Slot struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

type SlotTag struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type Appointment struct {
	ID       string  `json:"id"`
	Slot     SlotTag `json:"slot"`
	DriverID string  `json:"driver_id"`
	CarID    string  `json:"car_id"`
	CarPlate string  `json:"car_plate"`
	Status   string  `json:"status"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) DriverByPhone(ctx context.Context, phone string) (*Driver, error) {
	q := url.Values{"phone": {phone}}
	var d Driver
	if err := c.do(ctx, http.MethodGet, "/v1/drivers/by-phone?"+q.Encode(), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// BindChat persists the chat id on the driver record. Best-effort for
// callers: an error here must not fail authentication.
func (c *Client) BindChat(ctx context.Context, driverID string, chatID int64) error {
	body := map[string]int64{"chat_id": chatID}
	return c.do(ctx, http.MethodPatch, "/v1/drivers/"+driverID, body, nil)
}

func (c *Client) FreeDates(ctx context.Context, days int) ([]string, error) {
	var dates []string
	path := "/v1/slots/free-dates?days=" + strconv.Itoa(days)
	if err := c.do(ctx, http.MethodGet, path, nil, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

func (c *Client) SlotsForDate(ctx context.Context, date string) ([]Slot, error) {
	q := url.Values{"date": {date}}
	var slots []Slot
	if err := c.do(ctx, http.MethodGet, "/v1/slots?"+q.Encode(), nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *Client) CreateAppointment(ctx context.Context, slotID, driverID, carID string) (*Appointment, error) {
	body := map[string]string{
		"slot_id":   slotID,
		"driver_id": driverID,
		"car_id":    carID,
	}
	var ap Appointment
	if err := c.do(ctx, http.MethodPost, "/v1/appointments", body, &ap); err != nil {
		return nil, err
	}
	return &ap, nil
}

func (c *Client) ActiveAppointments(ctx context.Context, phone string) ([]Appointment, error) {
	q := url.Values{"phone": {phone}}
	var items []Appointment
	if err := c.do(ctx, http.MethodGet, "/v1/appointments/active?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CancelUser(ctx context.Context, appointmentID string) (*Appointment, error) {
	var ap Appointment
	if err := c.do(ctx, http.MethodPost, "/v1/appointments/"+appointmentID+"/cancel-user", struct{}{}, &ap); err != nil {
		return nil, err
	}
	return &ap, nil
}

// Ping checks the API is reachable using a minimal free-dates window.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FreeDates(ctx, 1)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d from %s %s: %s", resp.StatusCode, method, path, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response from %s %s: %w", method, path, err)
		}
	}
	return nil
}
