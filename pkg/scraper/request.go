package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	errs "socialscraper/pkg/errors"
)

// Filters are the parameters that identify a scrape request
type Filters map[string]interface{}

// Clone returns a shallow copy
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String renders a scalar filter, "" when absent or nil
func (f Filters) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Int reads a numeric filter given as a number or a numeric string
func (f Filters) Int(key string) (int, bool) {
	switch v := f[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// Request identifies one scrape: which API endpoint and with what filters
type Request struct {
	Network    string
	Repository string
	Method     string
	Filters    Filters
}

// Validate reports the identifying fields that are missing
func (r Request) Validate() error {
	var missing []string
	if r.Network == "" {
		missing = append(missing, "network")
	}
	if r.Repository == "" {
		missing = append(missing, "repository")
	}
	if r.Method == "" {
		missing = append(missing, "method")
	}
	if len(r.Filters) == 0 {
		missing = append(missing, "filters")
	}
	if len(missing) > 0 {
		return errs.NewMissingOptionsError(missing...)
	}
	return nil
}

// CanonicalFilters serializes the filters with sorted keys
func (r Request) CanonicalFilters() (string, error) {
	if len(r.Filters) == 0 {
		return "{}", nil
	}
	// encoding/json writes map keys in sorted order at every depth
	data, err := json.Marshal(r.Filters)
	if err != nil {
		return "", fmt.Errorf("failed to serialize filters: %w", err)
	}
	return string(data), nil
}

// Fingerprint is the lowercase network/repository/method/filters key
func (r Request) Fingerprint() (string, error) {
	filters, err := r.CanonicalFilters()
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.Join([]string{r.Network, r.Repository, r.Method, filters}, "/")), nil
}

// NormalizeTag strips whitespace and a leading '#'
func NormalizeTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}
