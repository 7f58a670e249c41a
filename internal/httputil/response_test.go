package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "test error")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "test error" {
		t.Errorf("error = %s, want 'test error'", resp["error"])
	}
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fn   func(http.ResponseWriter)
		want int
	}{
		{"method", MethodNotAllowed, http.StatusMethodNotAllowed},
		{"bad", func(w http.ResponseWriter) { BadRequest(w, "x") }, http.StatusBadRequest},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "x") }, http.StatusInternalServerError},
		{"notfound", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound},
		{"ok", func(w http.ResponseWriter) { WriteJSONOK(w, 1) }, http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.fn(rec)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type notes struct {
		Notes string `json:"notes"`
	}
	cases := []struct {
		body    string
		wantErr bool
	}{
		{`{"notes":"left side weak"}`, false},
		{`{"notes":1}`, true},
		{`{"other":"x"}`, true},
		{`{"notes":"a"} {"notes":"b"}`, true},
		{``, true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tc.body))
		var v notes
		err := DecodeJSON(httptest.NewRecorder(), req, &v)
		if (err != nil) != tc.wantErr {
			t.Errorf("body %q: err = %v, wantErr %v", tc.body, err, tc.wantErr)
		}
	}
}

func TestReadJSONResponse(t *testing.T) {
	t.Parallel()

	ok := &http.Response{StatusCode: 200, Status: "200 OK", Body: io.NopCloser(strings.NewReader(`{"n":3}`))}
	var v struct{ N int }
	if err := ReadJSONResponse(ok, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.N != 3 {
		t.Errorf("n = %d, want 3", v.N)
	}

	bad := &http.Response{StatusCode: 404, Status: "404 Not Found", Body: io.NopCloser(strings.NewReader(`{"error":"session not found"}`))}
	err := ReadJSONResponse(bad, &v)
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("err = %v, want server message", err)
	}

	plain := &http.Response{StatusCode: 502, Status: "502 Bad Gateway", Body: io.NopCloser(strings.NewReader(`upstream`))}
	if err := ReadJSONResponse(plain, nil); err == nil || err.Error() != "502 Bad Gateway" {
		t.Errorf("err = %v, want status text", err)
	}
}
