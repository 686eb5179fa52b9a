package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/okian/donorflow/internal/app"
)

// Multipart form fields of a pipeline upload.
const (
	FieldContacts        = "contacts"
	FieldActivistCodes   = "activist_codes"
	FieldDonations       = "donations"
	FieldAcquisitionCost = "acquisition_cost"
	FieldJoinKey         = "join_key"
	FieldJoinMode        = "join_mode"
)

// ErrTooLarge is returned when a body exceeds the configured limit.
var ErrTooLarge = errors.New("request body too large")

// decodeRequest reads a pipeline request either as JSON or as a multipart
// upload with one file per export.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (app.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return s.decodeMultipart(r)
	}

	var req app.Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		return app.Request{}, bodyError(err)
	}
	return req, nil
}

func (s *Server) decodeMultipart(r *http.Request) (app.Request, error) {
	if err := r.ParseMultipartForm(s.maxBodyBytes); err != nil {
		return app.Request{}, bodyError(err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var (
		req app.Request
		err error
	)
	if req.Contacts, err = formFile(r, FieldContacts, true); err != nil {
		return app.Request{}, err
	}
	if req.ActivistCodes, err = formFile(r, FieldActivistCodes, false); err != nil {
		return app.Request{}, err
	}
	if req.Donations, err = formFile(r, FieldDonations, true); err != nil {
		return app.Request{}, err
	}
	if v := strings.TrimSpace(r.FormValue(FieldAcquisitionCost)); v != "" {
		cost, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return app.Request{}, fmt.Errorf("%w: %s: %w", ErrBadRequest, FieldAcquisitionCost, err)
		}
		req.AcquisitionCost = cost
	}
	req.JoinKey = r.FormValue(FieldJoinKey)
	req.JoinMode = r.FormValue(FieldJoinMode)
	return req, nil
}

func formFile(r *http.Request, field string, required bool) (string, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return "", fmt.Errorf("%w: missing file %q", ErrBadRequest, field)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: file %q: %w", ErrBadRequest, field, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return "", bodyError(err)
	}
	return string(b), nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}
