package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellstack/cellstack"
	adapter "github.com/cellstack/cellstack/pkg/adapters/http"
	"github.com/cellstack/cellstack/pkg/cells"
	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	simple, err := cells.NewSimple(cells.SimpleConfig{Units: 4, Seed: 1})
	require.NoError(t, err)
	lstm, err := cells.NewLSTM(cells.LSTMConfig{Units: 8, OutputUnits: 16, Seed: 3})
	require.NoError(t, err)
	stack, err := cellstack.New([]domain.Cell{simple, lstm}, cellstack.WithName("api"))
	require.NoError(t, err)

	srv := httptest.NewServer(adapter.NewHandler(stack, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandler_Health(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestHandler_Spec(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/v1/spec")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	spec := decode[map[string]any](t, resp)
	assert.Equal(t, "stack", spec["type"])

	config, ok := spec["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "api", config["name"])
	assert.Len(t, config["cells"], 2)
}

func TestHandler_StateAndStep(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/v1/state", map[string]any{"batch_size": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stateResp := decode[struct {
		State domain.State `json:"state"`
	}](t, resp)
	require.Equal(t, 2, stateResp.State.Len())

	input, err := tensor.FromRows([][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}, tensor.Float32)
	require.NoError(t, err)

	resp = postJSON(t, srv.URL+"/v1/step", map[string]any{
		"input": input,
		"state": stateResp.State,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stepResp := decode[struct {
		Output *tensor.Tensor `json:"output"`
		State  domain.State   `json:"state"`
	}](t, resp)
	assert.Equal(t, 2, stepResp.Output.Rows())
	assert.Equal(t, 16, stepResp.Output.Cols())
	assert.Equal(t, 2, stepResp.State.Len())

	// The returned state feeds the next step.
	resp = postJSON(t, srv.URL+"/v1/step", map[string]any{
		"input": input,
		"state": stepResp.State,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestHandler_BadRequests(t *testing.T) {
	srv := newServer(t)

	t.Run("Invalid Body", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/step", "application/json", bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing Input", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/v1/step", map[string]any{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Bad Batch Size", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/v1/state", map[string]any{"batch_size": 0})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("State Arity Mismatch", func(t *testing.T) {
		input, err := tensor.FromRows([][]float64{{1, 2}}, tensor.Float32)
		require.NoError(t, err)

		resp := postJSON(t, srv.URL+"/v1/step", map[string]any{
			"input": input,
			"state": domain.Nested(domain.Leaf(tensor.Zeros(1, 4, tensor.Float32))),
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		body := decode[map[string]string](t, resp)
		assert.Contains(t, body["error"], "state")
	})
}
