// Package google wraps the Google Calendar API for the sync core: listing
// calendars, expanding events, and keeping rotated OAuth tokens persisted.
package google

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/xBwomp/famCalendar/internal/config"
	"github.com/xBwomp/famCalendar/internal/credentials"
	"github.com/xBwomp/famCalendar/internal/store"
)

const (
	// Google Calendar API max page size.
	maxResults = 250

	defaultCalendarColor = "#3B82F6"
	defaultEventWindow   = 30 * 24 * time.Hour

	// Token expiry is persisted alongside the tokens so a restart can
	// rebuild an accurate oauth2.Token. Not a token-like key: plaintext.
	keyTokenExpiry = "google_token_expiry"
)

// ConnectionStatus is the result of TestConnection. Expected failures
// (no credentials, auth errors) are reported in-band, not as errors.
type ConnectionStatus struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	UserEmail string `json:"userEmail,omitempty"`
}

// Client issues authenticated calls against the Google Calendar API. It is
// constructed explicitly by the composition root and handed to the sync
// orchestrator; there is no package-level instance.
type Client struct {
	oauth *oauth2.Config
	creds *credentials.Store

	mu sync.Mutex
	ts oauth2.TokenSource
}

func NewClient(cfg *config.Config, creds *credentials.Store) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes: []string{
				calendar.CalendarReadonlyScope,
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: googleoauth.Endpoint,
		},
		creds: creds,
	}
}

// OAuthConfig exposes the oauth2 config for the login flow.
func (c *Client) OAuthConfig() *oauth2.Config {
	return c.oauth
}

// Activate loads stored tokens and installs an auto-refreshing token source
// whose rotations are written back to the credential store. It implements
// credentials.Activator; the availability monitor calls it once tokens
// appear, and the OAuth callback calls it directly after a fresh login.
func (c *Client) Activate(ctx context.Context) error {
	stored, err := c.creds.GetMany(ctx, []string{
		credentials.KeyAccessToken,
		credentials.KeyRefreshToken,
		keyTokenExpiry,
	})
	if err != nil {
		return err
	}

	tok := &oauth2.Token{
		AccessToken:  stored[credentials.KeyAccessToken],
		RefreshToken: stored[credentials.KeyRefreshToken],
		TokenType:    "Bearer",
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return ErrNoCredentials
	}
	if expiry, parseErr := time.Parse(time.RFC3339, stored[keyTokenExpiry]); parseErr == nil {
		tok.Expiry = expiry
	} else if tok.RefreshToken != "" {
		// Unknown expiry with a refresh token available: treat the access
		// token as stale so the first call refreshes it.
		tok.Expiry = time.Now().Add(-time.Minute)
	}

	// The token source outlives the caller (it backs every future API
	// call), so it must not inherit a request-scoped context.
	src := c.oauth.TokenSource(context.Background(), tok)
	c.mu.Lock()
	c.ts = newPersistingTokenSource(src, tok, c.persistRotatedToken)
	c.mu.Unlock()
	return nil
}

func (c *Client) tokenSource() (oauth2.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts == nil {
		return nil, ErrNoCredentials
	}
	return c.ts, nil
}

// persistRotatedToken writes refreshed tokens back to the credential store.
// Failures are logged, never propagated: a persistence hiccup must not fail
// the API call that triggered the rotation.
func (c *Client) persistRotatedToken(tok *oauth2.Token) {
	values := map[string]string{
		credentials.KeyAccessToken: tok.AccessToken,
	}
	if tok.RefreshToken != "" {
		values[credentials.KeyRefreshToken] = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		values[keyTokenExpiry] = tok.Expiry.Format(time.RFC3339)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := c.creds.SetMany(ctx, values); err != nil {
		log.Printf("[ERROR] failed to persist rotated Google token: %v", err)
	}
}

// StoreNewToken persists a freshly exchanged token pair (first login) and
// activates the client with it.
func (c *Client) StoreNewToken(ctx context.Context, tok *oauth2.Token) error {
	values := map[string]string{
		credentials.KeyAccessToken: tok.AccessToken,
	}
	if tok.RefreshToken != "" {
		values[credentials.KeyRefreshToken] = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		values[keyTokenExpiry] = tok.Expiry.Format(time.RFC3339)
	}
	if _, err := c.creds.SetMany(ctx, values); err != nil {
		return err
	}
	return c.Activate(ctx)
}

// TestConnection verifies the current credentials with a minimal
// calendar-list call plus a user-info call. Expected failures come back as
// Success=false with a message rather than an error.
func (c *Client) TestConnection(ctx context.Context) *ConnectionStatus {
	ts, err := c.tokenSource()
	if err != nil {
		return &ConnectionStatus{
			Success: false,
			Message: "No Google credentials available. Please authenticate first.",
		}
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return &ConnectionStatus{Success: false, Message: "Connection failed: " + err.Error()}
	}
	if _, err := svc.CalendarList.List().MaxResults(1).Context(ctx).Do(); err != nil {
		return &ConnectionStatus{Success: false, Message: "Connection failed: " + err.Error()}
	}

	status := &ConnectionStatus{
		Success: true,
		Message: "Google Calendar API connection successful",
	}

	userInfoSvc, err := goauth2.NewService(ctx, option.WithTokenSource(ts))
	if err == nil {
		if info, err := userInfoSvc.Userinfo.Get().Context(ctx).Do(); err == nil {
			status.UserEmail = info.Email
		}
	}
	return status
}

// FetchCalendarList returns the user's calendars mapped to the local shape.
// Selected always defaults to false: selection is decided locally during
// reconciliation, never by the remote source.
func (c *Client) FetchCalendarList(ctx context.Context) ([]store.Calendar, error) {
	ts, err := c.tokenSource()
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, remoteErr("create calendar service", err)
	}

	var calendars []store.Calendar
	pageToken := ""
	for {
		call := svc.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, remoteErr("fetch calendar list", err)
		}
		for _, entry := range resp.Items {
			calendars = append(calendars, mapCalendar(entry))
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return calendars, nil
}

// FetchEvents returns events for one calendar with recurring events
// expanded into concrete instances, ordered by start time. The window
// defaults to now through +30 days when unspecified.
func (c *Client) FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]store.Event, error) {
	ts, err := c.tokenSource()
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, remoteErr("create calendar service", err)
	}

	now := time.Now()
	if timeMin.IsZero() {
		timeMin = now
	}
	if timeMax.IsZero() {
		timeMax = timeMin.Add(defaultEventWindow)
	}

	resp, err := svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, remoteErr("fetch events for calendar "+calendarID, err)
	}

	events := make([]store.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, mapEvent(calendarID, item))
	}
	return events, nil
}

func mapCalendar(entry *calendar.CalendarListEntry) store.Calendar {
	name := entry.Summary
	if name == "" {
		name = "Unnamed Calendar"
	}
	color := entry.BackgroundColor
	if color == "" {
		color = defaultCalendarColor
	}

	cal := store.Calendar{
		ID:       entry.Id,
		Name:     name,
		Color:    color,
		Selected: false,
	}
	if entry.Description != "" {
		desc := entry.Description
		cal.Description = &desc
	}
	return cal
}

func mapEvent(calendarID string, item *calendar.Event) store.Event {
	start, allDay := eventTime(item.Start)
	end, _ := eventTime(item.End)

	title := item.Summary
	if title == "" {
		title = "Untitled Event"
	}

	event := store.Event{
		ID:         item.Id,
		CalendarID: calendarID,
		Title:      title,
		StartTime:  start,
		EndTime:    end,
		AllDay:     allDay,
	}
	if item.Description != "" {
		desc := item.Description
		event.Description = &desc
	}
	if item.Location != "" {
		loc := item.Location
		event.Location = &loc
	}
	return event
}

// eventTime extracts an ISO-8601 value from an event boundary. A date-only
// value (no time-of-day component) marks an all-day event.
func eventTime(t *calendar.EventDateTime) (string, bool) {
	if t == nil {
		return time.Now().UTC().Format(time.RFC3339), false
	}
	if t.DateTime != "" {
		return normalizeUTC(t.DateTime), false
	}
	if t.Date != "" {
		return t.Date, true
	}
	return time.Now().UTC().Format(time.RFC3339), false
}

// normalizeUTC rewrites an RFC3339 timestamp to UTC. Google emits local
// offsets per calendar; stored times compare as strings, so they must all
// share one offset to order chronologically.
func normalizeUTC(value string) string {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return ts.UTC().Format(time.RFC3339)
}
