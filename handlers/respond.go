package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/services"
)

const maxBodyBytes = 1 << 20

const (
	msgInvalidRequestBody = "Invalid request format"
	msgInvalidID          = "Invalid id"
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

// toAPIError maps a service error onto a status code. Anything that is not
// a classified service error is reported as a bare 500.
func toAPIError(err error) apiError {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch services.KindOf(err) {
	case services.KindValidation:
		return newAPIError(http.StatusBadRequest, err.Error())
	case services.KindConflict:
		return newAPIError(http.StatusConflict, err.Error())
	case services.KindUnauthorized:
		return newAPIError(http.StatusUnauthorized, err.Error())
	case services.KindForbidden:
		return newAPIError(http.StatusForbidden, err.Error())
	case services.KindNotFound:
		return newAPIError(http.StatusNotFound, err.Error())
	}
	return newAPIError(http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	apiErr := toAPIError(err)
	if apiErr.Code == http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Msg("request failed")
	}
	writeJSON(w, apiErr.Code, map[string]string{"error": apiErr.Message})
}

// decodeJSON reads one JSON object into dst. With strict set, unknown
// fields are rejected.
func decodeJSON(r *http.Request, dst any, strict bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return newBadRequestError(msgInvalidRequestBody)
	}
	return nil
}

func pathID(r *http.Request, name string) (database.ID, error) {
	id, err := database.ParseID(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, newBadRequestError(msgInvalidID)
	}
	return id, nil
}
