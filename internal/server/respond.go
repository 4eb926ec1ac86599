package server

import (
	"encoding/json"
	"errors"
	"net/http"

	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
)

// errorBody is the JSON body of every error response.
type errorBody struct {
	Code    ferrors.Code `json:"code"`
	Message string       `json:"message"`
}

// statusFor maps an error to an HTTP status by its code.
func statusFor(err error) int {
	if ferrors.IsInvalid(err) {
		return http.StatusBadRequest
	}
	switch ferrors.GetCode(err) {
	case ferrors.ErrCodeNotFound, ferrors.ErrCodeNodeNotFound, ferrors.ErrCodeEdgeNotFound:
		return http.StatusNotFound
	case ferrors.ErrCodeRender, ferrors.ErrCodeExport:
		return http.StatusUnprocessableEntity
	case ferrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := ferrors.GetCode(err)
	status := statusFor(err)
	msg := ferrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		code = ferrors.ErrCodeInternal
		s.logger.Error("internal error", "err", err)
		msg = "internal error"
	}
	s.writeJSON(w, status, errorBody{Code: code, Message: msg})
}

// decode reads a JSON request body into v, bounded by MaxBody.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooBig.Limit)
		}
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	if dec.More() {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "unexpected data after JSON body")
	}
	return nil
}
