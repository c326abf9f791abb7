package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/anchorlay/pkg/buildinfo"
	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/observability"
	"github.com/matzehuels/anchorlay/pkg/pipeline"
	"github.com/matzehuels/anchorlay/pkg/scene"
)

// Response headers set by the resolve endpoint.
const (
	CacheHeader       = "X-Cache"
	PassIDHeader      = "X-Pass-ID"
	DiagnosticsHeader = "X-Diagnostics"
)

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatTree: "image/svg+xml",
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string         `json:"status"`
	Uptime  string         `json:"uptime"`
	Build   buildinfo.Info `json:"build"`
	Cache   string         `json:"cache"`
	Formats []string       `json:"formats"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Build:   buildinfo.Current(),
		Cache:   s.config.CacheBackend,
		Formats: []string{pipeline.FormatJSON, pipeline.FormatSVG, pipeline.FormatDOT, pipeline.FormatTree},
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
				"scene exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, r, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "read body: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, r, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "request body must contain a scene")
		return
	}

	opts, err := optionsFromRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Scene = data
	opts.Logger = s.logger.With("request_id", RequestID(ctx))

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := opts.Formats[0]
	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set(CacheHeader, cacheStatus(result.CacheInfo.FrameHit))
	h.Set(DiagnosticsHeader, strconv.Itoa(result.Stats.Diagnostics+result.Stats.Skipped))
	if result.Pass != nil {
		h.Set(PassIDHeader, result.Pass.PassID)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// optionsFromRequest reads pipeline options from the query string and the
// Content-Type header. Scene paths are never taken from a request.
func optionsFromRequest(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		SceneFormat: sceneFormat(r.Header.Get("Content-Type")),
		Measure:     q.Get("measure"),
	}

	format := q.Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, err
	}
	opts.Formats = []string{format}

	var err error
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"width", &opts.Width},
		{"height", &opts.Height},
		{"rem", &opts.Rem},
	} {
		if *f.dst, err = floatParam(q, f.name); err != nil {
			return opts, err
		}
	}
	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"wrap", &opts.Wrap},
		{"labels", &opts.Labels},
		{"hidden", &opts.Hidden},
		{"detailed", &opts.Detailed},
		{"refresh", &opts.Refresh},
	} {
		if *f.dst, err = boolParam(q, f.name); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func sceneFormat(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mt {
	case "application/toml", "text/toml", "text/x-toml":
		return scene.FormatTOML
	case "application/json", "text/json":
		return scene.FormatJSON
	}
	return ""
}

func floatParam(q url.Values, name string) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a number", name, v)
	}
	return f, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v)
	}
	return b, nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// fail writes err as an error response. Server errors are reported to the
// HTTP hooks and logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	msg := errors.UserMessage(err)
	var e *errors.Error
	if stderrors.As(err, &e) && e.Cause != nil {
		msg += ": " + errors.UserMessage(e.Cause)
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		code, msg = "TIMEOUT", "resolution timed out"
	case stderrors.Is(err, context.Canceled):
		code, msg = string(errors.ErrCodeCanceled), "request canceled"
	}
	if status >= http.StatusInternalServerError {
		observability.HTTP().OnError(r.Context(), RequestID(r.Context()), r.Method, r.URL.Path, err)
		s.logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
	}
	writeError(w, r, status, code, msg)
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidLength,
		errors.ErrCodeInvalidName, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidScene, errors.ErrCodeInvalidTree, errors.ErrCodeInvalidLayout:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   msg,
		RequestID: RequestID(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
