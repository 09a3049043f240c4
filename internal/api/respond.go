package api

import (
	"encoding/json"
	"net/http"

	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
)

// Codes for routing failures, which never come out of the pipeline.
const (
	codeNotFound         verrors.Code = "NOT_FOUND"
	codeMethodNotAllowed verrors.Code = "METHOD_NOT_ALLOWED"
)

type errorResponse struct {
	Detail string       `json:"detail"`
	Code   verrors.Code `json:"code"`
}

// statusFor maps an error code onto an HTTP status. Every client-caused
// failure is a 400; only a bad token differs.
func statusFor(code verrors.Code) int {
	switch code {
	case verrors.ErrCodeInvalidImage,
		verrors.ErrCodeInvalidInput,
		verrors.ErrCodeTooLarge,
		verrors.ErrCodeFetch,
		verrors.ErrCodeTimeout,
		verrors.ErrCodeMalformedSVG:
		return http.StatusBadRequest
	case verrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := verrors.GetCode(err)
	if code == "" {
		code = verrors.ErrCodeInternal
	}
	status := statusFor(code)

	detail := verrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		detail = "internal error"
	}
	switch {
	case r.Context().Err() != nil:
		s.logger.Debug("client went away", "request_id", requestIDFrom(r.Context()), "err", err)
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed", "request_id", requestIDFrom(r.Context()), "err", err)
	default:
		s.logger.Debug("request rejected", "request_id", requestIDFrom(r.Context()), "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Detail: detail, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
