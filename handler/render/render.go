package render

import (
	"encoding/json"
	"net/http"

	"lendrisk/core"

	"github.com/sirupsen/logrus"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	Status(w, http.StatusOK, v)
}

// Status render v as json with the given status code
func Status(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Errorln("render json")
	}
}

// Text render with text
func Text(w http.ResponseWriter, t string) {
	w.Header().Set("Content-Type", "application/text")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(t)); err != nil {
		logrus.WithError(err).Errorln("render text")
	}
}

// Error write error
func Error(w http.ResponseWriter, statusCode, errCode int, err error) {
	Status(w, statusCode, errorResponse{Code: errCode, Msg: err.Error()})
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, int(core.ErrInvalidArgument), err)
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, int(core.CodeOf(err)), err)
}

// Fail write an engine error with its error code and matching http status
func Fail(w http.ResponseWriter, err error) {
	code := core.CodeOf(err)
	Error(w, StatusOf(code), int(code), err)
}

// StatusOf http status of an error code
func StatusOf(code core.ErrorCode) int {
	switch code {
	case core.ErrInvalidArgument, core.ErrCodeInvalidConfiguration:
		return http.StatusBadRequest
	case core.ErrCodeReserveNotFound, core.ErrCodeObligationNotFound:
		return http.StatusNotFound
	case core.ErrCodeStaleData:
		return http.StatusConflict
	case core.ErrCodeOverflow:
		return http.StatusUnprocessableEntity
	case core.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case core.ErrCodeNoSnapshot:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
