package customer

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newAccountsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/customers/7":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"id": 7, "name": "Ana"}`))
		case "/customers/500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExists(t *testing.T) {
	srv := newAccountsServer(t)
	client := NewClient(srv.URL, zaptest.NewLogger(t))
	defer client.Close()

	ok, err := client.Exists(7)
	if err != nil {
		t.Fatalf("Exists(7) failed: %v", err)
	}
	if !ok {
		t.Error("Exists(7) = false, want true")
	}

	ok, err = client.Exists(42)
	if err != nil {
		t.Fatalf("Exists(42) failed: %v", err)
	}
	if ok {
		t.Error("Exists(42) = true, want false")
	}
}

func TestExistsUnexpectedStatus(t *testing.T) {
	srv := newAccountsServer(t)
	client := NewClient(srv.URL, zaptest.NewLogger(t))
	defer client.Close()

	if _, err := client.Exists(500); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

func TestExistsUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", zaptest.NewLogger(t))
	defer client.Close()

	if _, err := client.Exists(7); err == nil {
		t.Error("expected an error for an unreachable accounts service")
	}
}
