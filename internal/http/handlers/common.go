package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/iago/briefcase/internal/http/middleware"
	"github.com/iago/briefcase/internal/service"
)

const maxRequestBodyBytes = 64 << 10

var errInvalidPayload = errors.New("invalid payload")

type API struct {
	jobsService *service.JobsService
	logger      *log.Logger
}

func NewAPI(jobsService *service.JobsService, logger *log.Logger) *API {
	return &API{
		jobsService: jobsService,
		logger:      logger,
	}
}

type errorPayload struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, statusCode, errorPayload{
		Error:     message,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}

func (api *API) logf(format string, args ...any) {
	if api.logger != nil {
		api.logger.Printf(format, args...)
	}
}
