package handle

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2328/100":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewChecker(srv.URL)
	if err := c.Verify("2328/100"); err != nil {
		t.Errorf("want resolvable handle, got %v", err)
	}
	if err := c.Verify("2328/999"); err == nil {
		t.Error("want error for unresolvable handle")
	}
}

func TestURL(t *testing.T) {
	c := NewChecker("https://hdl.handle.net")
	if got := c.URL("2328/100"); got != "https://hdl.handle.net/2328/100" {
		t.Errorf("unexpected url: %s", got)
	}
}
