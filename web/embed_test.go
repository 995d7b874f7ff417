package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSPAHandler(t *testing.T) {
	h := SPAHandler()

	for _, path := range []string{"/", "/hall-of-fame"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<title>Wizard Trials</title>") {
			t.Errorf("%s: expected index.html, got %d", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown API path, got %d", rr.Code)
	}
}

func TestClientDrawsTimedChallenges(t *testing.T) {
	rr := httptest.NewRecorder()
	SPAHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	page := rr.Body.String()

	for _, want := range []string{
		"a.highlight === i",
		`"pattern_highlight"`,
		`"pattern_clear"`,
		"a.seconds_left",
		`"speed_tick"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("Expected the client to handle %s", want)
		}
	}
}
