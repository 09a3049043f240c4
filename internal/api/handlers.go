package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sherafyk/vectorize-svc/pkg/buildinfo"
	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
)

const (
	uploadField = "image"
	// multipartOverhead is the allowance for boundaries and part headers on
	// top of the image size cap.
	multipartOverhead = 64 << 10

	downloadName = "vectorized.svg"
)

type vectorizeResponse struct {
	SVG string `json:"svg"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleVectorize(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.opts.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.readImage(w, r, req.imageURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), data, req.opts, req.style)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "MISS"
	if res.CacheHit {
		cacheStatus = "HIT"
	}
	w.Header().Set("X-Cache", cacheStatus)

	if req.download {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Content-Disposition", "attachment; filename="+downloadName)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, res.SVG)
		return
	}
	writeJSON(w, http.StatusOK, vectorizeResponse{SVG: res.SVG})
}

// readImage returns the image bytes. A POST upload wins over image_url;
// GET requires image_url.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request, imageURL string) ([]byte, error) {
	if r.Method == http.MethodPost {
		data, ok, err := s.readUpload(w, r)
		if err != nil {
			return nil, err
		}
		if ok {
			return data, nil
		}
	}
	if imageURL == "" {
		if r.Method == http.MethodGet {
			return nil, verrors.New(verrors.ErrCodeInvalidInput, "image_url is required")
		}
		return nil, verrors.New(verrors.ErrCodeInvalidInput, "an image upload or image_url is required")
	}
	return s.fetcher.Fetch(r.Context(), imageURL)
}

// readUpload streams the multipart body looking for the image field. ok is
// false when the request is not multipart or has no such field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, ok bool, err error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return nil, false, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, false, verrors.Wrap(verrors.ErrCodeInvalidInput, err, "invalid multipart body")
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, s.uploadError(err)
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}
		data, err := io.ReadAll(io.LimitReader(part, s.maxUpload+1))
		part.Close()
		if err != nil {
			return nil, false, s.uploadError(err)
		}
		if int64(len(data)) > s.maxUpload {
			return nil, false, fileTooLarge()
		}
		return data, true, nil
	}
}

func (s *Server) uploadError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fileTooLarge()
	}
	return verrors.Wrap(verrors.ErrCodeInvalidInput, err, "invalid multipart body")
}

func fileTooLarge() error {
	return verrors.New(verrors.ErrCodeTooLarge, "File too large")
}
