// Package ics reads a gym schedule published as an iCalendar subscription
// URL, the format most booking systems export.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theakshaypant/opengym/internal/core"
)

// ICSAdapter fetches a feed over HTTP and expands it into events.
type ICSAdapter struct {
	id     string
	name   string
	url    string
	client *http.Client
	logger *zap.Logger
	loc    *time.Location

	// Conditional GET state, so an unchanged feed is not re-downloaded.
	mu           sync.Mutex
	etag         string
	lastModified string
	body         []byte
}

func NewICSAdapter(id, name, feedURL string, loc *time.Location, logger *zap.Logger) *ICSAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ICSAdapter{
		id:     id,
		name:   name,
		url:    feedURL,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger.Named("ics"),
		loc:    loc,
	}
}

func (a *ICSAdapter) ID() string   { return a.id }
func (a *ICSAdapter) Name() string { return a.name }

// Login checks the feed URL. The feed itself needs no authentication.
func (a *ICSAdapter) Login(ctx context.Context) error {
	u, err := url.Parse(a.url)
	if err != nil {
		return fmt.Errorf("invalid ics_url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return nil
	case "webcal":
		u.Scheme = "https"
		a.url = u.String()
		return nil
	default:
		return fmt.Errorf("unsupported ics_url scheme %q", u.Scheme)
	}
}

// Calendars lists the single feed.
func (a *ICSAdapter) Calendars() map[string]string {
	return map[string]string{a.url: a.name}
}

func (a *ICSAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.Event, error) {
	body, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := parseFeed(body, a.loc)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	for _, perr := range parsed.skipped {
		a.logger.Warn("skipping vevent", zap.Error(perr))
	}

	events := expand(parsed.events, opts.Start, opts.End, a.logger)
	for i := range events {
		events[i].ProviderID = a.id
	}
	return events, nil
}

// fetch downloads the feed honouring ETag and Last-Modified. When the
// server fails but an earlier body is known, that body is reused.
func (a *ICSAdapter) fetch(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, err
	}
	if a.etag != "" {
		req.Header.Set("If-None-Match", a.etag)
	}
	if a.lastModified != "" {
		req.Header.Set("If-Modified-Since", a.lastModified)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if len(a.body) > 0 {
			a.logger.Warn("feed unreachable, using previous body", zap.String("url", redactURL(a.url)), zap.Error(err))
			return a.body, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		a.body = body
		a.etag = resp.Header.Get("ETag")
		a.lastModified = resp.Header.Get("Last-Modified")
		a.logger.Debug("feed fetched", zap.String("url", redactURL(a.url)), zap.Int("bytes", len(body)))
		return body, nil

	case http.StatusNotModified:
		if len(a.body) == 0 {
			return nil, errors.New("304 Not Modified without a previous body")
		}
		a.logger.Debug("feed not modified", zap.String("url", redactURL(a.url)))
		return a.body, nil

	default:
		if len(a.body) > 0 {
			a.logger.Warn("feed returned an error, using previous body",
				zap.String("url", redactURL(a.url)),
				zap.Int("status", resp.StatusCode))
			return a.body, nil
		}
		return nil, fmt.Errorf("fetch %s: %s", redactURL(a.url), resp.Status)
	}
}

// redactURL keeps only scheme and host; private feed URLs carry secrets in
// the path or query.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
