package web

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crimson-sun/cropcast/internal/fixture"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAPIClasses(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/classes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp classesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Rice", "Wheat"}, resp.Classes["Crop"]); diff != "" {
		t.Errorf("Crop classes mismatch (-want +got):\n%s", diff)
	}
	wantFeatures := []string{"Crop_Year", "Area", "Crop", "Season", "State", "District"}
	if diff := cmp.Diff(wantFeatures, resp.Features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIPredict(t *testing.T) {
	env := newTestEnv(t)
	body := `{"year":2022,"area":150.5,"state":"Kerala","district":"Wayanad","crop":"Rice","season":"Kharif"}`
	rec := env.do(postJSON("/api/predict", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	var resp predictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Display != fixture.ScenarioPrediction {
		t.Errorf("Display = %q, want %q", resp.Display, fixture.ScenarioPrediction)
	}
	if math.Abs(resp.Prediction-308.95) > 1e-9 {
		t.Errorf("Prediction = %v, want 308.95", resp.Prediction)
	}
}

func TestAPIPredictErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"unknown crop", `{"year":2022,"area":1,"state":"Kerala","district":"Wayanad","crop":"Maize","season":"Kharif"}`, 422, "unknown_category"},
		{"missing year", `{"area":1,"state":"Kerala","district":"Wayanad","crop":"Rice","season":"Kharif"}`, 422, "invalid_input"},
		{"missing area", `{"year":2022,"state":"Kerala","district":"Wayanad","crop":"Rice","season":"Kharif"}`, 422, "invalid_input"},
		{"year out of range", `{"year":2050,"area":1,"state":"Kerala","district":"Wayanad","crop":"Rice","season":"Kharif"}`, 422, "invalid_input"},
		{"unknown field", `{"year":2022,"area":1,"rainfall":3}`, 422, "invalid_input"},
		{"malformed", `{"year":`, 422, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(postJSON("/api/predict", tt.body))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var v errorView
			if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
				t.Fatal(err)
			}
			if v.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", v.Kind, tt.kind)
			}
		})
	}
}

func TestAPIPredictUnknownChoices(t *testing.T) {
	env := newTestEnv(t)
	body := `{"year":2022,"area":1,"state":"Kerala","district":"Wayanad","crop":"Maize","season":"Kharif"}`
	rec := env.do(postJSON("/api/predict", body))
	var v errorView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Field != "Crop" || v.Value != "Maize" {
		t.Errorf("field/value = %q/%q", v.Field, v.Value)
	}
	if diff := cmp.Diff([]string{"Rice", "Wheat"}, v.Choices); diff != "" {
		t.Errorf("choices mismatch (-want +got):\n%s", diff)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.LoadedAt.IsZero() {
		t.Errorf("health = %+v", resp)
	}

	env.store.Close()
	rec = env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status after close = %d, want 503", rec.Code)
	}
}
