package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"mvdan.cc/xurls/v2"
)

const maxBodyBytes = 1 << 20

var errNoURL = errors.New("request contains no URL")

// A downloadRequest is one download attempt as the client described it,
// before any validation.
type downloadRequest struct {
	URL            string `json:"url"`
	CustomFilename string `json:"custom_filename"`
}

// requestFromPath recovers the target URL from a path-encoded route like
// GET /save/https%3A%2F%2Fexample.com%2Fvideo. The raw escaped path is used
// because decoding first would dissolve the target URL into path segments.
//
// Query parameters on the request are the client's, not the target's:
// custom_filename is consumed here and whatever remains is re-attached to the
// target URL, for clients that pass the target unencoded and lose its query
// string to ours.
func requestFromPath(r *http.Request, prefix string) (downloadRequest, error) {
	escaped := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	target, err := url.PathUnescape(escaped)
	if err != nil {
		return downloadRequest{}, fmt.Errorf("malformed URL encoding: %w", err)
	}
	if target == "" {
		return downloadRequest{}, errNoURL
	}

	custom, leftover := splitQuery(r.URL.RawQuery)
	if leftover != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + leftover
	}
	return downloadRequest{URL: target, CustomFilename: custom}, nil
}

// splitQuery pulls custom_filename out of a raw query string, returning its
// decoded value and the remaining pairs verbatim. The leftovers keep their
// original order and encoding: they are assumed to belong to the target URL,
// where reordering would break signed query strings.
func splitQuery(rawQuery string) (custom string, leftover string) {
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(key); err == nil && decoded == "custom_filename" {
			if v, err := url.QueryUnescape(value); err == nil {
				custom = v
			}
			continue
		}
		kept = append(kept, pair)
	}
	return custom, strings.Join(kept, "&")
}

// requestFromBody reads a JSON body {"url": ..., "custom_filename": ...}. As a
// concession to clients that paste a bare URL (or a URL buried in text), a
// body that is not such a JSON object is scanned for the first absolute URL.
func requestFromBody(r *http.Request) (downloadRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return downloadRequest{}, fmt.Errorf("failed to read request body: %w", err)
	}

	var req downloadRequest
	if err := json.Unmarshal(body, &req); err == nil && req.URL != "" {
		return req, nil
	}
	if found := xurls.Strict().FindString(string(body)); found != "" {
		return downloadRequest{URL: found}, nil
	}
	return downloadRequest{}, errNoURL
}
