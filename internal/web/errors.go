package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/crimson-sun/cropcast/internal/model"
)

// maxChoices caps how many valid labels an unknown-category error lists.
const maxChoices = 20

// errorView is what the page and the API show for a failed request.
type errorView struct {
	Kind    string   `json:"kind"`
	Message string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Value   string   `json:"value,omitempty"`
	Row     int      `json:"row,omitempty"`
	Choices []string `json:"valid_choices,omitempty"`
	More    int      `json:"more_choices,omitempty"`
}

// statusFor maps an error's kind to an HTTP status.
func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindUnknownCategory, model.KindSchema, model.KindInvalidInput:
		return http.StatusUnprocessableEntity
	case model.KindArtifactLoad:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newErrorView(err error) *errorView {
	kind := model.KindOf(err)
	v := &errorView{Kind: kind.String(), Message: err.Error()}

	var uc *model.UnknownCategoryError
	if errors.As(err, &uc) {
		v.Message = uc.Error()
		v.Field = uc.Field.String()
		v.Value = uc.Value
		v.Row = uc.Row
		v.Choices = uc.ValidChoices
		if len(v.Choices) > maxChoices {
			v.More = len(v.Choices) - maxChoices
			v.Choices = v.Choices[:maxChoices]
		}
		return v
	}

	switch kind {
	case model.KindArtifactLoad:
		v.Message = "model artifacts are unavailable: " + err.Error()
	case model.KindUnknown:
		v.Message = "prediction failed: " + err.Error()
	}
	return v
}

// logFailure records a failed request; request errors at warn, the rest at error.
func logFailure(r *http.Request, status int, err error) {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"kind", model.KindOf(err).String(),
		"status", status,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
		return
	}
	slog.Warn("request rejected", attrs...)
}
