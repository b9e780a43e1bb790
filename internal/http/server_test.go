package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rajdeepm07/expensechart/internal/ledger"
)

const testOwner = "alice"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	l, err := ledger.New(context.Background(), testOwner, nil, nil)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	return NewServer(":0", l)
}

func doRequest(s *Server, method, target, owner, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleAddExpense(t *testing.T) {
	tests := []struct {
		name       string
		owner      string
		body       string
		wantStatus int
	}{
		{
			name:       "owner can add",
			owner:      testOwner,
			body:       `{"title":"lunch","amount_cents":500}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "non-owner rejected",
			owner:      "mallory",
			body:       `{"title":"lunch","amount_cents":500}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing identity rejected",
			owner:      "",
			body:       `{"title":"lunch","amount_cents":500}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "negative amount rejected",
			owner:      testOwner,
			body:       `{"title":"refund","amount_cents":-5}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed body rejected",
			owner:      testOwner,
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := doRequest(s, http.MethodPost, "/expenses", tt.owner, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	t.Run("returns the assigned id", func(t *testing.T) {
		s := newTestServer(t)
		rec := doRequest(s, http.MethodPost, "/expenses", testOwner, `{"title":"lunch","amount_cents":500}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		var resp map[string]int64
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["id"] != 1 {
			t.Errorf("id = %d, want 1", resp["id"])
		}
	})
}

func TestHandleGetExpense(t *testing.T) {
	s := newTestServer(t)
	doRequest(s, http.MethodPost, "/expenses", testOwner, `{"title":"rent","amount_cents":10000}`)

	t.Run("public read", func(t *testing.T) {
		// No owner header; reads are not gated.
		rec := doRequest(s, http.MethodGet, "/expenses?id=1", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
		var resp struct {
			ID          int64  `json:"id"`
			Title       string `json:"title"`
			AmountCents int64  `json:"amount_cents"`
			CreatedAt   int64  `json:"created_at"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != 1 || resp.Title != "rent" || resp.AmountCents != 10000 {
			t.Errorf("response = %+v", resp)
		}
		if resp.CreatedAt == 0 {
			t.Error("created_at not set")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/expenses?id=42", "", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("missing id parameter", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/expenses", "", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleRemoveExpense(t *testing.T) {
	s := newTestServer(t)
	doRequest(s, http.MethodPost, "/expenses", testOwner, `{"title":"lunch","amount_cents":500}`)

	t.Run("non-owner rejected", func(t *testing.T) {
		rec := doRequest(s, http.MethodDelete, "/expenses?id=1", "mallory", "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("owner removes", func(t *testing.T) {
		rec := doRequest(s, http.MethodDelete, "/expenses?id=1", testOwner, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("second removal not found", func(t *testing.T) {
		rec := doRequest(s, http.MethodDelete, "/expenses?id=1", testOwner, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandleExpenseIDsAndTotal(t *testing.T) {
	s := newTestServer(t)

	t.Run("empty ledger", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/expenses/ids", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("ids status = %d, want 200", rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"ids":[]}` {
			t.Errorf("ids body = %s", got)
		}

		rec = doRequest(s, http.MethodGet, "/expenses/total", "", "")
		if got := strings.TrimSpace(rec.Body.String()); got != `{"total_cents":0}` {
			t.Errorf("total body = %s", got)
		}
	})

	t.Run("tombstones stay enumerated but not totaled", func(t *testing.T) {
		doRequest(s, http.MethodPost, "/expenses", testOwner, `{"title":"lunch","amount_cents":500}`)
		doRequest(s, http.MethodPost, "/expenses", testOwner, `{"title":"rent","amount_cents":10000}`)
		doRequest(s, http.MethodDelete, "/expenses?id=1", testOwner, "")

		rec := doRequest(s, http.MethodGet, "/expenses/ids", "", "")
		if got := strings.TrimSpace(rec.Body.String()); got != `{"ids":[1,2]}` {
			t.Errorf("ids body = %s, want {\"ids\":[1,2]}", got)
		}

		rec = doRequest(s, http.MethodGet, "/expenses/total", "", "")
		if got := strings.TrimSpace(rec.Body.String()); got != `{"total_cents":10000}` {
			t.Errorf("total body = %s, want {\"total_cents\":10000}", got)
		}
	})
}

func TestHandleTransferOwnership(t *testing.T) {
	s := newTestServer(t)

	t.Run("null identity rejected", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/owner", testOwner, `{"new_owner":""}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("transfer regates mutations", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/owner", testOwner, `{"new_owner":"bob"}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204 (body %s)", rec.Code, rec.Body.String())
		}

		rec = doRequest(s, http.MethodPost, "/expenses", testOwner, `{"title":"stale","amount_cents":1}`)
		if rec.Code != http.StatusForbidden {
			t.Errorf("previous owner status = %d, want 403", rec.Code)
		}

		rec = doRequest(s, http.MethodPost, "/expenses", "bob", `{"title":"fresh","amount_cents":1}`)
		if rec.Code != http.StatusCreated {
			t.Errorf("new owner status = %d, want 201", rec.Code)
		}
	})
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodPut, "/expenses"},
		{http.MethodPost, "/expenses/ids"},
		{http.MethodPost, "/expenses/total"},
		{http.MethodGet, "/owner"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := doRequest(s, tt.method, tt.target, testOwner, "")
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
