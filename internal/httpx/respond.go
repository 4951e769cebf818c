// Package httpx holds the JSON request/response helpers shared by handlers.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/logger"
)

// M is a shorthand for ad-hoc response bodies.
type M map[string]any

// OK writes body with status 200 and success=true.
func OK(w http.ResponseWriter, r *http.Request, body M) {
	JSON(w, r, http.StatusOK, body)
}

// JSON writes body with the given status. success is set from the status.
func JSON(w http.ResponseWriter, r *http.Request, code int, body M) {
	if body == nil {
		body = M{}
	}
	body["success"] = code < http.StatusBadRequest
	render.Status(r, code)
	render.JSON(w, r, body)
}

// Error maps err to an HTTP status and writes {success:false, message}.
// Server-side failures are logged with the request id.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := svcErr.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"req_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	JSON(w, r, code, M{"message": msg})
}

// Decode reads a JSON body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return svcErr.InvalidArgument(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// URLParamID parses a numeric chi URL parameter.
func URLParamID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument(name + " must be a positive integer")
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, svcErr.InvalidArgument(name + " must be a positive integer")
	}
	return n, nil
}

// QueryString returns a pointer to the query value, nil when absent.
func QueryString(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}
