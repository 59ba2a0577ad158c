package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"jobboard/recommendation-service/internal/handlers"
	"jobboard/recommendation-service/internal/pkg/clock"
	"jobboard/recommendation-service/internal/pkg/logger"
	"jobboard/recommendation-service/internal/pkg/testdb"
	"jobboard/recommendation-service/internal/repositories"
	"jobboard/recommendation-service/internal/services"
)

var start = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *clock.Fixed) {
	t.Helper()
	db := testdb.Open(t)
	clk := clock.NewFixed(start)
	log := logger.NewNop()

	recService := services.NewRecommendationService(
		repositories.NewRecommendationRepository(db), clk, services.ListLimits{Default: 20, Max: 100}, log)
	searchService := services.NewSavedSearchService(repositories.NewSavedSearchRepository(db), clk, log)

	app := New(Handlers{
		Recommendations: handlers.NewRecommendationHandler(recService, clk, log),
		SavedSearches:   handlers.NewSavedSearchHandler(searchService, log),
	}, Options{AppName: "test"})
	return app, clk
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func jsonTime(t *testing.T, v interface{}) time.Time {
	t.Helper()
	s, _ := v.(string)
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("parse time %v: %v", v, err)
	}
	return ts
}

func recommendationBody(requester string) map[string]interface{} {
	return map[string]interface{}{
		"requester_id":            requester,
		"requester_role":          "candidate",
		"recommendation_kind":     "job_for_candidate",
		"recommended_entity_id":   uuid.NewString(),
		"recommended_entity_type": "Job",
		"score":                   0.7,
		"algorithm_version":       "v1",
		"reasons": []map[string]interface{}{
			{"factor": "skills_match", "weight": 1, "score": 0.8},
			{"factor": "salary_match", "weight": 1, "score": 0.6},
		},
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := doJSON(t, app, http.MethodGet, "/api/v1/health", nil)
	if status != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health: status=%d body=%v", status, body)
	}
}

func TestRecommendationLifecycle(t *testing.T) {
	app, clk := newTestApp(t)
	requester := uuid.NewString()

	status, created := doJSON(t, app, http.MethodPost, "/api/v1/recommendations", recommendationBody(requester))
	if status != http.StatusCreated {
		t.Fatalf("create: status=%d body=%v", status, created)
	}
	id, _ := created["id"].(string)
	if created["confidence"] != 0.5 {
		t.Fatalf("confidence: want=0.5 got=%v", created["confidence"])
	}
	if agg, _ := created["aggregate_score"].(float64); agg < 0.699 || agg > 0.701 {
		t.Fatalf("aggregate_score: want=0.7 got=%v", created["aggregate_score"])
	}
	if created["user_feedback"] != nil {
		t.Fatalf("user_feedback: want=null got=%v", created["user_feedback"])
	}

	status, viewed := doJSON(t, app, http.MethodPost, "/api/v1/recommendations/"+id+"/view", nil)
	if status != http.StatusOK || viewed["is_viewed"] != true {
		t.Fatalf("view: status=%d body=%v", status, viewed)
	}
	clk.Advance(time.Minute)
	_, viewedAgain := doJSON(t, app, http.MethodPost, "/api/v1/recommendations/"+id+"/view", nil)
	if got := jsonTime(t, viewedAgain["viewed_at"]); !got.Equal(start) {
		t.Fatalf("viewed_at moved: want=%v got=%v", start, got)
	}

	status, fb := doJSON(t, app, http.MethodPost, "/api/v1/recommendations/"+id+"/feedback", map[string]interface{}{
		"rating": 4, "is_helpful": nil, "feedback_text": "relevant",
	})
	if status != http.StatusOK {
		t.Fatalf("feedback: status=%d body=%v", status, fb)
	}
	feedback, _ := fb["user_feedback"].(map[string]interface{})
	if feedback["rating"] != float64(4) || feedback["is_helpful"] != nil {
		t.Fatalf("feedback body: %v", feedback)
	}

	status, list := doJSON(t, app, http.MethodGet, "/api/v1/requesters/"+requester+"/recommendations", nil)
	if status != http.StatusOK || list["count"] != float64(1) {
		t.Fatalf("list: status=%d body=%v", status, list)
	}

	clk.Advance(14 * 24 * time.Hour)
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/recommendations/"+id+"/click", nil)
	if status != http.StatusConflict {
		t.Fatalf("click expired: want=%d got=%d", http.StatusConflict, status)
	}
	_, list = doJSON(t, app, http.MethodGet, "/api/v1/requesters/"+requester+"/recommendations", nil)
	if list["count"] != float64(0) {
		t.Fatalf("expired listing: %v", list)
	}
}

func TestCreateRecommendationValidation(t *testing.T) {
	app, _ := newTestApp(t)

	body := recommendationBody(uuid.NewString())
	body["score"] = 1.2
	status, resp := doJSON(t, app, http.MethodPost, "/api/v1/recommendations", body)
	if status != http.StatusUnprocessableEntity || resp["field"] != "score" {
		t.Fatalf("score: status=%d body=%v", status, resp)
	}

	body = recommendationBody(uuid.NewString())
	body["recommended_entity_type"] = "Candidate"
	status, resp = doJSON(t, app, http.MethodPost, "/api/v1/recommendations", body)
	if status != http.StatusUnprocessableEntity || resp["field"] != "recommended_entity_type" {
		t.Fatalf("entity type: status=%d body=%v", status, resp)
	}

	body = recommendationBody("not-a-uuid")
	delete(body, "algorithm_version")
	status, resp = doJSON(t, app, http.MethodPost, "/api/v1/recommendations", body)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("shape: status=%d body=%v", status, resp)
	}
	fields, _ := resp["fields"].([]interface{})
	if len(fields) != 2 {
		t.Fatalf("shape fields: want=2 got=%v", fields)
	}
}

func TestRecommendationNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/recommendations/"+uuid.NewString(), nil)
	if status != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, status)
	}
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/recommendations/nope", nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("bad id: want=%d got=%d", http.StatusUnprocessableEntity, status)
	}
}

func TestSavedSearchAlertStatus(t *testing.T) {
	app, clk := newTestApp(t)
	user := uuid.NewString()

	status, created := doJSON(t, app, http.MethodPost, "/api/v1/saved-searches", map[string]interface{}{
		"user_id":                user,
		"name":                   "Senior Go",
		"keywords":               "go kubernetes",
		"filters":                map[string]interface{}{"remote": true},
		"color":                  "#00AAFF",
		"notification_frequency": "daily",
	})
	if status != http.StatusCreated {
		t.Fatalf("create: status=%d body=%v", status, created)
	}
	id, _ := created["id"].(string)

	_, alert := doJSON(t, app, http.MethodGet, "/api/v1/saved-searches/"+id+"/alert-status", nil)
	if alert["is_due"] != true {
		t.Fatalf("never notified search should be due: %v", alert)
	}

	status, updated := doJSON(t, app, http.MethodPatch, "/api/v1/saved-searches/"+id+"/alerts", map[string]interface{}{
		"enable_alerts": false,
	})
	if status != http.StatusOK || updated["enable_alerts"] != false {
		t.Fatalf("disable: status=%d body=%v", status, updated)
	}

	clk.Advance(time.Hour)
	_, alert = doJSON(t, app, http.MethodGet, "/api/v1/saved-searches/"+id+"/alert-status", nil)
	if alert["is_due"] != false {
		t.Fatalf("disabled search should not be due: %v", alert)
	}

	status, resp := doJSON(t, app, http.MethodPatch, "/api/v1/saved-searches/"+id+"/alerts", map[string]interface{}{
		"notification_frequency": "monthly",
	})
	if status != http.StatusUnprocessableEntity || resp["field"] != "notification_frequency" {
		t.Fatalf("bad frequency: status=%d body=%v", status, resp)
	}

	_, list := doJSON(t, app, http.MethodGet, "/api/v1/users/"+user+"/saved-searches", nil)
	if list["count"] != float64(1) {
		t.Fatalf("list: %v", list)
	}
}

func TestCreateSavedSearchBadColor(t *testing.T) {
	app, _ := newTestApp(t)
	status, resp := doJSON(t, app, http.MethodPost, "/api/v1/saved-searches", map[string]interface{}{
		"user_id": uuid.NewString(),
		"name":    "x",
		"color":   "blue",
	})
	if status != http.StatusUnprocessableEntity || resp["field"] != "color" {
		t.Fatalf("status=%d body=%v", status, resp)
	}
}
