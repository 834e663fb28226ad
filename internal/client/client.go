// Package client talks to the rooms service: the full-list fetch, the
// creation request and the change-event stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"roomfeed/internal/createroom"
	"roomfeed/internal/rooms"
)

// APIError is a response the service answered but rejected.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rooms service: %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

// New builds a client for the service at baseURL (scheme + host, no
// trailing slash). No timeouts or retries of its own; cancellation is the
// caller's context.
func New(baseURL string, log logrus.FieldLogger) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}, log: log}
}

// envelope mirrors api.Response with the payload left raw so each call
// can decode its own shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FetchRooms returns the full room collection in server order.
func (c *Client) FetchRooms(ctx context.Context) ([]rooms.Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rooms", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	var list []rooms.Room
	if err := c.do(req, &list); err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	if list == nil {
		list = []rooms.Room{}
	}
	return list, nil
}

// CreateRoom submits a creation request and returns the new room's id and
// name. The input is assumed to have passed validation already; the
// service revalidates and rejects anyway.
func (c *Client) CreateRoom(ctx context.Context, in createroom.Input) (rooms.CreatedRoom, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return rooms.CreatedRoom{}, fmt.Errorf("create room: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms/add", bytes.NewReader(body))
	if err != nil {
		return rooms.CreatedRoom{}, fmt.Errorf("create room: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var created rooms.CreatedRoom
	if err := c.do(req, &created); err != nil {
		return rooms.CreatedRoom{}, fmt.Errorf("create room: %w", err)
	}
	return created, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
