package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"meetingroom/pkg/config"
	apperrors "meetingroom/pkg/errors"
)

const maxBodyBytes = 1 << 20

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// DecodeJSON rejects unknown fields and trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	if dec.More() {
		return apperrors.InvalidInput("invalid JSON body: unexpected trailing data")
	}
	return nil
}

// QueryTime parses an RFC 3339 query parameter. A missing value yields the
// zero time and ok=false.
func QueryTime(r *http.Request, name string) (t time.Time, ok bool, err error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, apperrors.InvalidInput("invalid " + name + " parameter: expected RFC 3339 timestamp")
	}
	return t, true, nil
}

// RequiredQueryTime is QueryTime with a missing value reported as an error.
func RequiredQueryTime(r *http.Request, name string) (time.Time, error) {
	t, ok, err := QueryTime(r, name)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, apperrors.InvalidInput("missing " + name + " parameter")
	}
	return t, nil
}

func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

func QueryBool(r *http.Request, name string, fallback bool) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}
