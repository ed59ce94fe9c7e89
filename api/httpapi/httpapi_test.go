package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mem "missionctl/adapters/memory"
	"missionctl/core"
	"missionctl/engine"
)

func newTestService() *engine.MissionService {
	store := mem.New([]core.Intern{
		{ID: "intern001", Name: "Arjun", JoinDate: core.NewDate(2024, time.January, 1), Badge: core.BadgeRookie},
		{ID: "intern002", Name: "Priya", JoinDate: core.NewDate(2024, time.February, 1), Badge: core.BadgeBronze, TotalDonations: 1500, Level: 1},
	})
	return engine.NewMissionService(store, engine.NewEventBus(engine.DispatchSync))
}

func do(t *testing.T, handler http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestHealth(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})
	rec, resp := do(t, handler, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp["version"] != Version {
		t.Fatalf("unexpected health payload: %v", resp)
	}
}

func TestGetIntern(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	rec, resp := do(t, handler, http.MethodGet, "/api/intern/intern001", "")
	if rec.Code != http.StatusOK || resp["success"] != true {
		t.Fatalf("expected success, got %d %v", rec.Code, resp)
	}
	data := resp["data"].(map[string]any)
	if data["name"] != "Arjun" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestGetInternNotFound(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	rec, resp := do(t, handler, http.MethodGet, "/api/intern/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp["success"] != false || resp["error"] != "Intern not found in mission database" {
		t.Fatalf("unexpected payload: %v", resp)
	}
}

func TestDonateSuccess(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	rec, resp := do(t, handler, http.MethodPost, "/api/intern/intern001/donate", `{"amount":1200}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, resp)
	}
	data := resp["data"].(map[string]any)
	if data["newTotal"] != float64(1200) || data["badge"] != "bronze" {
		t.Fatalf("unexpected data: %v", data)
	}
	if data["newAchievement"] != "Impact Maker" {
		t.Fatalf("unexpected achievement: %v", data)
	}
	if resp["message"] == nil {
		t.Fatal("success message missing")
	}
}

func TestDonateInvalidAmount(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	for _, body := range []string{`{"amount":0}`, `{"amount":-5}`, `{}`, `not json`, `{"amount":"ten"}`} {
		rec, resp := do(t, handler, http.MethodPost, "/api/intern/intern001/donate", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		if resp["error"] != "Invalid donation amount" {
			t.Fatalf("body %q: unexpected payload %v", body, resp)
		}
	}
}

func TestDonateUnknownIntern(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	rec, resp := do(t, handler, http.MethodPost, "/api/intern/ghost/donate", `{"amount":100}`)
	if rec.Code != http.StatusNotFound || resp["error"] != "Intern not found" {
		t.Fatalf("got %d %v", rec.Code, resp)
	}
}

func TestLeaderboard(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	rec, resp := do(t, handler, http.MethodGet, "/api/leaderboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	entries := resp["data"].([]any)
	first := entries[0].(map[string]any)
	if first["id"] != "intern002" || first["rank"] != float64(1) {
		t.Fatalf("unexpected first entry: %v", first)
	}
	if resp["totalAgents"] != float64(2) || resp["totalRaised"] != float64(1500) {
		t.Fatalf("unexpected totals: %v", resp)
	}
}

func TestStats(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	rec, resp := do(t, handler, http.MethodGet, "/api/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := resp["data"].(map[string]any)
	if data["totalAgents"] != float64(2) || data["topContributor"] != "Priya" {
		t.Fatalf("unexpected stats: %v", data)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{PathPrefix: "/api"})

	rec, resp := do(t, handler, http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound || resp["error"] != "Mission endpoint not found" {
		t.Fatalf("got %d %v", rec.Code, resp)
	}

	// wrong method on a known route
	rec, _ = do(t, handler, http.MethodDelete, "/api/leaderboard", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for wrong method, got %d", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{
		PathPrefix:      "/api",
		APIKeys:         []string{"secret"},
		AllowCORSOrigin: "*",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req2.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}
}

func TestRateLimit(t *testing.T) {
	handler := NewMux(newTestService(), nil, Options{
		PathPrefix:       "/api",
		APIKeys:          []string{"k"},
		RateLimitEnabled: true,
		RateLimitRPM:     1,
		RateLimitBurst:   1,
	})

	req1 := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req1.Header.Set("X-API-Key", "k")
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200 first request, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req2.Header.Set("X-API-Key", "k")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec2.Code)
	}
}
