// Package handler translates HTTP requests into service calls and service
// results into the JSON envelope.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/dukerupert/carewatch/internal/apperr"
	"github.com/dukerupert/carewatch/internal/risk"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.Validation("request body is required")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperr.Validation("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type.Kind()))
	case errors.As(err, &maxErr):
		return apperr.Validation("request body must be at most %d bytes", maxErr.Limit)
	}
	return apperr.Validation("invalid JSON: %v", err)
}

func jsonKind(k reflect.Kind) string {
	switch k {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	case reflect.Struct:
		return "timestamp"
	}
	return k.String()
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// Recorder counts record writes. *metrics.Metrics implements it.
type Recorder interface {
	VitalRecorded(level risk.Level)
	VisitLogged()
}

type nopRecorder struct{}

func (nopRecorder) VitalRecorded(risk.Level) {}
func (nopRecorder) VisitLogged()             {}
