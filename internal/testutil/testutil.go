package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// HubModel builds one model entry as the hub listing returns it. Extra
// fields are merged over the minimal {"modelId": id} object; a nil value
// is encoded as JSON null.
func HubModel(id string, fields map[string]any) json.RawMessage {
	m := map[string]any{"modelId": id}
	for k, v := range fields {
		m[k] = v
	}
	b, _ := json.Marshal(m)
	return b
}

// HubServer is a fake model listing endpoint.
type HubServer struct {
	*httptest.Server
	hits  atomic.Int32
	limit atomic.Value
}

// NewHubServer serves models as a JSON array and records the limit query
// parameter of every request. The server is closed when the test ends.
func NewHubServer(t testing.TB, models ...json.RawMessage) *HubServer {
	t.Helper()
	body, err := json.Marshal(models)
	if err != nil {
		t.Fatalf("marshal models: %v", err)
	}
	if models == nil {
		body = []byte("[]")
	}

	hs := &HubServer{}
	hs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hs.hits.Add(1)
		hs.limit.Store(r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(hs.Close)
	return hs
}

func (h *HubServer) Hits() int { return int(h.hits.Load()) }

// LastLimit returns the limit query parameter of the most recent request.
func (h *HubServer) LastLimit() string {
	v, _ := h.limit.Load().(string)
	return v
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewRequestWithSecret creates a request carrying the internal trigger secret.
func NewRequestWithSecret(method, path, secret string) *http.Request {
	r := NewRequest(method, path, nil)
	if secret != "" {
		r.Header.Set("X-Internal-Secret", secret)
	}
	return r
}

type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// Data returns the "data" object of a success envelope.
func (r RecordResponse) Data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

// ErrorCode returns error.code of an error envelope, or "".
func (r RecordResponse) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}
