// internal/app/system/csvutil/fetch.go
package csvutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrBadStatus is returned when a CSV export answers with a non-2xx status.
var ErrBadStatus = errors.New("csv export returned non-success status")

// Fetcher downloads published CSV exports.
type Fetcher struct {
	Client *http.Client
	// Now is used for the cache-busting parameter; defaults to time.Now.
	Now func() time.Time
}

// NewFetcher returns a Fetcher using client, or a client with a 30s
// timeout when client is nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{Client: client, Now: time.Now}
}

// Fetch GETs rawURL with a cb=<unix millis> query parameter so published
// exports are not served from an intermediate cache, and parses the body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([][]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse csv url: %w", err)
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	q := u.Query()
	q.Set("cb", strconv.FormatInt(now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	return ReadCSV(io.LimitReader(resp.Body, MaxFeedSize))
}

// GvizURL is the public CSV export URL of one tab of a spreadsheet.
func GvizURL(spreadsheetID, gid string) string {
	if gid == "" {
		gid = "0"
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&gid=%s",
		url.PathEscape(spreadsheetID), url.QueryEscape(gid))
}

// EditURL is the browser URL operators use to edit one tab by hand.
func EditURL(spreadsheetID, gid string) string {
	if gid == "" {
		gid = "0"
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%s",
		url.PathEscape(spreadsheetID), url.QueryEscape(gid))
}
