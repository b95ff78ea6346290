package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
	"github.com/TxnLab/gemfarm/internal/lib/store"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

func BadRequest(cause error) error {
	return &httpError{cause: cause, status: http.StatusBadRequest}
}

// HandlerFunc is like http.HandlerFunc but returns an error, which is mapped
// to a status code and JSON body by WrapHandlerFunc.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeError(w, err)
		}
	}
}

type errorBody struct {
	Code    int    `json:"code,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Message: err.Error()}

	var (
		he *httpError
		se *staking.Error
	)
	switch {
	case errors.As(err, &he):
		status = he.status
	case errors.Is(err, store.ErrNotFound), errors.Is(err, staking.ErrGemNotStaked):
		status = http.StatusNotFound
	}
	if errors.As(err, &se) {
		body.Code, body.Name = se.Code, se.Name
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
	}
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

const JSONContentType = "application/json; charset=utf-8"

func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}
