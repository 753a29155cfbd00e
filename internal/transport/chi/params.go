package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecnote/internal/domain"
)

func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", name, domain.ErrInvalidRequest)
	}
	return v, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", name, domain.ErrInvalidRequest)
	}
	return v, nil
}

// listParams reads the query parameters shared by listing, search and timeline.
type listParams struct {
	query            string
	page             int
	pageSize         int
	category         string
	folder           string
	tag              string
	timeStart        string
	timeEnd          string
	includeCompleted bool
}

func parseListParams(r *http.Request) (listParams, error) {
	q := r.URL.Query()
	p := listParams{
		query:     strings.TrimSpace(q.Get("q")),
		category:  strings.TrimSpace(q.Get("category")),
		folder:    strings.TrimSpace(q.Get("folder")),
		tag:       strings.TrimSpace(q.Get("tag")),
		timeStart: strings.TrimSpace(q.Get("time_start")),
		timeEnd:   strings.TrimSpace(q.Get("time_end")),
	}
	var err error
	if p.page, err = intParam(r, "page"); err != nil {
		return p, err
	}
	if p.pageSize, err = intParam(r, "page_size"); err != nil {
		return p, err
	}
	if p.includeCompleted, err = boolParam(r, "include_completed"); err != nil {
		return p, err
	}
	return p, nil
}

// decodeJSON decodes a JSON body. An empty body leaves dst untouched when
// allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes: %w", maxErr.Limit, domain.ErrInvalidRequest)
		}
		return fmt.Errorf("invalid request body: %w: %w", domain.ErrInvalidRequest, err)
	}
	return nil
}
