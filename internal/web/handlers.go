package web

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/engine"
	"github.com/crimson-sun/cropcast/internal/export"
	"github.com/crimson-sun/cropcast/internal/model"
	"github.com/crimson-sun/cropcast/internal/output"
	"github.com/crimson-sun/cropcast/internal/output/csvout"
	"github.com/crimson-sun/cropcast/internal/output/xlsx"
)

const (
	csvExportName  = "predictions.csv"
	xlsxExportName = "predictions.xlsx"
)

type fieldOptions struct {
	Name     string
	Input    string
	Options  []string
	Selected string
}

type formValues struct {
	Year string
	Area string
}

type download struct {
	Name string
	URL  string
}

type batchView struct {
	Header    []string
	Rows      [][]string
	Total     int
	Rejected  []string
	Downloads []download
}

type pageData struct {
	Fields  []fieldOptions
	YearMin int
	YearMax int
	Form    formValues
	Result  string
	Error   *errorView
	Batch   *batchView
}

// inputName is the form/JSON name of a categorical field.
func inputName(f model.Field) string {
	return strings.ToLower(f.String())
}

// newPage fills the dropdowns from the current bundle. selected preselects
// options; a failed lookup leaves the dropdowns empty and returns the error.
func (s *Server) newPage(form formValues, selected map[model.Field]string) (*pageData, error) {
	data := &pageData{YearMin: model.MinYear, YearMax: model.MaxYear, Form: form}
	err := s.store.Use(func(b *artifacts.Bundle) error {
		for _, f := range b.Engine.Fields() {
			data.Fields = append(data.Fields, fieldOptions{
				Name:     f.String(),
				Input:    inputName(f),
				Options:  b.Engine.Classes(f),
				Selected: selected[f],
			})
		}
		return nil
	})
	return data, err
}

func (s *Server) render(w http.ResponseWriter, status int, data *pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		slog.Error("render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, data *pageData, err error) {
	status := statusFor(err)
	logFailure(r, status, err)
	data.Error = newErrorView(err)
	s.render(w, status, data)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.newPage(formValues{Year: strconv.Itoa(model.MinYear), Area: "0"}, nil)
	if err != nil {
		s.renderError(w, r, data, err)
		return
	}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := r.ParseForm(); err != nil {
		data, _ := s.newPage(formValues{}, nil)
		s.renderError(w, r, data, &model.InputError{Name: "form", Reason: err.Error()})
		return
	}

	form := formValues{
		Year: strings.TrimSpace(r.PostForm.Get("year")),
		Area: strings.TrimSpace(r.PostForm.Get("area")),
	}
	selected := make(map[model.Field]string, len(model.Fields))
	for _, f := range model.Fields {
		selected[f] = r.PostForm.Get(inputName(f))
	}

	data, err := s.newPage(form, selected)
	if err != nil {
		s.renderError(w, r, data, err)
		return
	}

	rec, err := parseForm(r.PostForm)
	if err != nil {
		s.renderError(w, r, data, err)
		return
	}

	var pred model.Prediction
	err = s.store.Use(func(b *artifacts.Bundle) error {
		var err error
		pred, err = b.Engine.PredictOne(r.Context(), rec)
		return err
	})
	if err != nil {
		s.renderError(w, r, data, err)
		return
	}

	data.Result = fmt.Sprintf("Estimated Crop Production: %s tonnes", pred.Display())
	s.render(w, http.StatusOK, data)
}

// parseForm coerces the manual-entry form into a validated Record.
func parseForm(v url.Values) (model.Record, error) {
	year, err := strconv.Atoi(strings.TrimSpace(v.Get("year")))
	if err != nil {
		return model.Record{}, &model.InputError{Name: "Year", Reason: "must be a whole number"}
	}
	area, err := strconv.ParseFloat(strings.TrimSpace(v.Get("area")), 64)
	if err != nil {
		return model.Record{}, &model.InputError{Name: "Area", Reason: "must be a number"}
	}
	rec := model.Record{
		Year:     year,
		Area:     area,
		State:    v.Get(inputName(model.FieldState)),
		District: v.Get(inputName(model.FieldDistrict)),
		Crop:     v.Get(inputName(model.FieldCrop)),
		Season:   v.Get(inputName(model.FieldSeason)),
	}
	if err := rec.Validate(); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	data, err := s.newPage(formValues{Year: strconv.Itoa(model.MinYear), Area: "0"}, nil)
	if err != nil {
		s.renderError(w, r, data, err)
		return
	}

	if r.ContentLength > s.maxBytes {
		s.renderError(w, r, data, uploadError(&http.MaxBytesError{Limit: s.maxBytes}, s.maxBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, r, data, uploadError(err, s.maxBytes))
		return
	}
	defer f.Close()
	if err := checkUpload(hdr); err != nil {
		s.renderError(w, r, data, err)
		return
	}

	res, err := s.pipeline.Process(r.Context(), f)
	if err != nil {
		s.renderError(w, r, data, err)
		return
	}

	view, err := s.exportBatch(res)
	if err != nil {
		s.renderError(w, r, data, err)
		return
	}
	data.Batch = view
	slog.Info("batch predicted", "file", hdr.Filename, "rows", res.Table.Len(), "rejected", len(res.Rejected))
	s.render(w, http.StatusOK, data)
}

func uploadError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &model.InputError{Name: "file", Reason: fmt.Sprintf("upload exceeds %d bytes", limit)}
	case errors.Is(err, http.ErrMissingFile):
		return &model.InputError{Name: "file", Reason: "no file uploaded"}
	default:
		return &model.InputError{Name: "file", Reason: err.Error()}
	}
}

func checkUpload(hdr *multipart.FileHeader) error {
	if !strings.EqualFold(filepath.Ext(hdr.Filename), ".csv") {
		return &model.InputError{Name: "file", Reason: "expected a .csv file"}
	}
	return nil
}

// exportBatch renders res for download and builds the on-page view.
func (s *Server) exportBatch(res *engine.BatchResult) (*batchView, error) {
	var csvBuf, xlsxBuf bytes.Buffer
	if err := csvout.Encode(&csvBuf, res.Table); err != nil {
		return nil, err
	}
	if err := xlsx.Encode(&xlsxBuf, res.Table); err != nil {
		return nil, err
	}
	id := s.exports.Put(
		export.File{Name: csvExportName, ContentType: csvout.ContentType, Data: csvBuf.Bytes()},
		export.File{Name: xlsxExportName, ContentType: xlsx.ContentType, Data: xlsxBuf.Bytes()},
	)

	predCol := res.Table.Header[len(res.Table.Header)-1]
	shown := output.RoundColumn(res.Table, predCol, displayDecimals)
	view := &batchView{
		Header: shown.Header,
		Rows:   shown.Rows,
		Total:  shown.Len(),
	}
	for _, name := range s.exports.Names(id) {
		view.Downloads = append(view.Downloads, download{Name: name, URL: "/exports/" + id + "/" + name})
	}
	for _, re := range res.Rejected {
		view.Rejected = append(view.Rejected, fmt.Sprintf("row %d: %v", re.Row, re.Err))
	}
	return view, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	f, err := s.exports.Get(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		http.Error(w, "export not found or expired", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Write(f.Data)
}
