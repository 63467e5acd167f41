//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/spscricket/player-service/internal/domain"
)

// GET performs a GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with a JSON body.
func (env *TestEnv) POST(path string, body interface{}) *http.Response {
	env.t.Helper()
	return env.do(http.MethodPost, path, body)
}

// PUT performs a PUT request with a JSON body.
func (env *TestEnv) PUT(path string, body interface{}) *http.Response {
	env.t.Helper()
	return env.do(http.MethodPut, path, body)
}

// DELETE performs a DELETE request.
func (env *TestEnv) DELETE(path string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodDelete, path, nil)
}

// OPTIONS performs an OPTIONS request.
func (env *TestEnv) OPTIONS(path string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodOptions, path, nil)
}

func (env *TestEnv) do(method, path string, body interface{}) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// PlayerPath is the resource path for one player.
func PlayerPath(id int64) string {
	return "/api/players/" + strconv.FormatInt(id, 10)
}

// CreatePlayer posts a player and returns the stored representation.
func (env *TestEnv) CreatePlayer(name, birthday, status string) domain.PlayerResponse {
	env.t.Helper()
	body := map[string]interface{}{
		"name":     name,
		"birthday": birthday,
	}
	if status != "" {
		body["status"] = status
	}

	resp := env.POST("/api/players", body)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		env.t.Fatalf("CreatePlayer %q: expected 201, got %d", name, resp.StatusCode)
	}

	var p domain.PlayerResponse
	DecodeData(env.t, resp, &p)
	return p
}
