package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/model"
)

type classesResponse struct {
	Classes          map[string][]string `json:"classes"`
	Features         []string            `json:"features"`
	PredictionColumn string              `json:"prediction_column"`
}

type predictRequest struct {
	Year     *int     `json:"year"`
	Area     *float64 `json:"area"`
	State    string   `json:"state"`
	District string   `json:"district"`
	Crop     string   `json:"crop"`
	Season   string   `json:"season"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
	Display    string  `json:"display"`
	Unit       string  `json:"unit"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Artifacts string    `json:"artifacts,omitempty"`
	LoadedAt  time.Time `json:"loaded_at,omitzero"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logFailure(r, status, err)
	writeJSON(w, status, newErrorView(err))
}

func (s *Server) handleAPIClasses(w http.ResponseWriter, r *http.Request) {
	var resp classesResponse
	err := s.store.Use(func(b *artifacts.Bundle) error {
		resp.Classes = make(map[string][]string, len(model.Fields))
		for _, f := range b.Engine.Fields() {
			resp.Classes[f.String()] = b.Engine.Classes(f)
		}
		resp.Features = b.Engine.Layout().Columns()
		resp.PredictionColumn = b.Engine.PredictionColumn()
		return nil
	})
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBytes))
	dec.DisallowUnknownFields()
	var req predictRequest
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, r, &model.InputError{Name: "body", Reason: err.Error()})
		return
	}

	rec, err := req.record()
	if err != nil {
		writeJSONError(w, r, err)
		return
	}

	var pred model.Prediction
	err = s.store.Use(func(b *artifacts.Bundle) error {
		var err error
		pred, err = b.Engine.PredictOne(r.Context(), rec)
		return err
	})
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{
		Prediction: float64(pred),
		Display:    pred.Display(),
		Unit:       "tonnes",
	})
}

func (req predictRequest) record() (model.Record, error) {
	if req.Year == nil {
		return model.Record{}, &model.InputError{Name: "Year", Reason: "required"}
	}
	if req.Area == nil {
		return model.Record{}, &model.InputError{Name: "Area", Reason: "required"}
	}
	rec := model.Record{
		Year:     *req.Year,
		Area:     *req.Area,
		State:    req.State,
		District: req.District,
		Crop:     req.Crop,
		Season:   req.Season,
	}
	if err := rec.Validate(); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	b := s.store.Current()
	if b == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Artifacts: b.Dir, LoadedAt: b.LoadedAt})
}
