//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"
)

// Envelope is the success body with the payload left raw.
type Envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// APIError is the error body.
type APIError struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Errors    []string  `json:"errors"`
}

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// DecodeData unwraps the success envelope into dst and returns it.
func DecodeData(t *testing.T, resp *http.Response, dst interface{}) Envelope {
	t.Helper()
	var env Envelope
	DecodeJSON(t, resp, &env)
	if !env.Success {
		t.Fatalf("DecodeData: envelope not successful (message: %s)", env.Message)
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("DecodeData: data: %v", err)
		}
	}
	return env
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertError checks the status and decodes the error body.
func AssertError(t *testing.T, resp *http.Response, expected int) APIError {
	t.Helper()
	AssertStatus(t, resp, expected)
	var e APIError
	DecodeJSON(t, resp, &e)
	if e.Status != expected {
		t.Errorf("error body status: expected %d, got %d (message: %s)", expected, e.Status, e.Message)
	}
	return e
}

// CountOutboxEvents returns the number of pending outbox events of eventType for a player.
func CountOutboxEvents(t *testing.T, env *TestEnv, playerID int64, eventType string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_outbox WHERE aggregate_id = $1 AND event_type = $2`,
		strconv.FormatInt(playerID, 10), eventType).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}
