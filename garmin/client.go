// Package garmin is a lightweight read-only client for the Garmin Connect
// API: recent activities, the daily VO2max reading and sleep summaries.
package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const DefaultBaseURL = "https://connectapi.garmin.com"

// ErrRateLimited is returned on HTTP 429 so callers can back off and retry.
var ErrRateLimited = errors.New("rate limited (429)")

// Cache interface for HTTP response caching with ETag support
type Cache interface {
	Read(key string, ttl time.Duration) (body []byte, etag string, ok bool)
	Write(key string, body []byte, etag string)
	ETag(key string) string
}

type Client struct {
	http    *http.Client
	baseURL *url.URL

	cache Cache // optional; nil means no cache
	ttl   time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) { c.cache, c.ttl = cache, ttl }
}

// New builds a client that authenticates every request through ts. A custom
// HTTP client from WithHTTPClient takes over transport and auth entirely.
func New(ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{baseURL: u}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		if ts == nil {
			return nil, errors.New("token source required")
		}
		c.http = oauth2.NewClient(context.Background(), ts)
	}
	return c, nil
}

func (c *Client) newReq(ctx context.Context, p string, q map[string]string) (*http.Request, string, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	qq := u.Query()
	for k, v := range q {
		qq.Set(k, v)
	}
	u.RawQuery = qq.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	return req, u.String(), nil
}

func (c *Client) doJSON(ctx context.Context, p string, q map[string]string, out any) error {
	req, cacheKey, err := c.newReq(ctx, p, q)
	if err != nil {
		return err
	}

	// cache read (fresh)
	if c.cache != nil {
		if body, _, ok := c.cache.Read(cacheKey, c.ttl); ok {
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
		}
		// try revalidate via If-None-Match
		if etag := c.cache.ETag(cacheKey); etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified: // 304 revalidate
		if c.cache != nil {
			if body, _, ok := c.cache.Read(cacheKey, 0); ok {
				return json.Unmarshal(body, out)
			}
		}
		return fmt.Errorf("304 but no cached body for %s", cacheKey)
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return err
		}
		if c.cache != nil {
			c.cache.Write(cacheKey, body, resp.Header.Get("ETag"))
		}
		return nil
	case http.StatusTooManyRequests:
		return fmt.Errorf("GET %s: %w", p, ErrRateLimited)
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %s: %s", p, resp.Status, string(b))
	}
}

func (c *Client) graphql(ctx context.Context, query, cacheKey string, out any) error {
	if c.cache != nil {
		if body, _, ok := c.cache.Read(cacheKey, c.ttl); ok {
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
		}
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/graphql-gateway/graphql")
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return err
		}
		if c.cache != nil {
			c.cache.Write(cacheKey, body, "")
		}
		return nil
	case http.StatusTooManyRequests:
		return fmt.Errorf("POST graphql: %w", ErrRateLimited)
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST graphql: %s: %s", resp.Status, string(b))
	}
}

// RecentActivities returns the most recent activities, newest first.
func (c *Client) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 7
	}
	var raw []rawActivity
	err := c.doJSON(ctx, "/activitylist-service/activities/search/activities", map[string]string{
		"start": "0",
		"limit": strconv.Itoa(limit),
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}
	out := make([]Activity, 0, len(raw))
	for _, a := range raw {
		out = append(out, normalizeActivity(a))
	}
	return out, nil
}

func normalizeActivity(a rawActivity) Activity {
	act := Activity{
		ActivityID:     a.ActivityID,
		StartTimeLocal: a.StartTimeLocal,
		Type:           a.ActivityType.TypeKey,
		Name:           a.ActivityName,
		AvgHR:          a.AverageHR,
		MaxHR:          a.MaxHR,
		ElevationGainM: a.ElevationGain,
	}
	if a.Distance != nil {
		act.DistanceKm = ptr(round2(*a.Distance / 1000))
	}
	if a.Duration != nil {
		act.DurationMin = ptr(round1(*a.Duration / 60))
	}
	if a.AverageSpeed != nil {
		act.AvgSpeedKmh = ptr(round2(*a.AverageSpeed * 3.6))
	}
	return act
}

// VO2MaxToday returns today's VO2max, preferring the precise value. A nil
// result with nil error means Garmin has no reading for today.
func (c *Client) VO2MaxToday(ctx context.Context) (*float64, error) {
	today := time.Now().Format("2006-01-02")
	var metrics []maxMetric
	if err := c.doJSON(ctx, "/metrics-service/metrics/maxmet/daily/"+today+"/"+today, nil, &metrics); err != nil {
		return nil, fmt.Errorf("fetch max metrics: %w", err)
	}
	if len(metrics) == 0 {
		return nil, nil
	}
	g := metrics[0].Generic
	if g.VO2MaxPreciseValue != nil {
		return g.VO2MaxPreciseValue, nil
	}
	return g.VO2MaxValue, nil
}

// SleepLastNDays fetches the last n nights of sleep via the GraphQL gateway.
// Field names vary between Garmin accounts, so values are picked from the
// known variants; empty placeholder rows are dropped and the total is
// derived from stage sums when missing. The result is in date order.
func (c *Client) SleepLastNDays(ctx context.Context, ndays int) ([]SleepSummary, error) {
	if ndays <= 0 {
		return nil, nil
	}
	end := time.Now()
	start := end.AddDate(0, 0, -(ndays - 1))
	startISO := start.Format("2006-01-02")
	endISO := end.Format("2006-01-02")
	query := fmt.Sprintf("query{sleepSummariesScalar(startDate:%q, endDate:%q)}", startISO, endISO)

	var payload struct {
		Data struct {
			Items []map[string]any `json:"sleepSummariesScalar"`
		} `json:"data"`
	}
	cacheKey := c.baseURL.String() + "/graphql-gateway/graphql#sleep:" + startISO + ".." + endISO
	if err := c.graphql(ctx, query, cacheKey, &payload); err != nil {
		return nil, fmt.Errorf("fetch sleep: %w", err)
	}

	out := make([]SleepSummary, 0, len(payload.Data.Items))
	for _, item := range payload.Data.Items {
		scopes := []map[string]any{item}
		if sub := subMap(item, "summary", "sleepSummary"); sub != nil {
			scopes = []map[string]any{sub, item}
		}
		s := SleepSummary{
			Date:             pickString(scopes, "calendarDate", "date"),
			SleepDurationMin: asMinutes(pickNum(scopes, "durationInSeconds", "sleepDurationInSeconds")),
			SleepEfficiency:  pickNum(scopes, "sleepEfficiency"),
			DeepSleepMin:     asMinutes(pickNum(scopes, "deepSleepSeconds", "deepSleepDurationInSeconds")),
			LightSleepMin:    asMinutes(pickNum(scopes, "lightSleepSeconds", "lightSleepDurationInSeconds")),
			RemSleepMin:      asMinutes(pickNum(scopes, "remSleepSeconds", "remSleepDurationInSeconds")),
			Awakenings:       pickNum(scopes, "awakeningsCount", "numberOfAwakenings"),
			AvgHR:            pickNum(scopes, "averageHeartRate"),
		}
		if s.Date == "" && s.SleepDurationMin == nil && s.SleepEfficiency == nil &&
			s.DeepSleepMin == nil && s.LightSleepMin == nil && s.RemSleepMin == nil &&
			s.Awakenings == nil && s.AvgHR == nil {
			continue
		}
		if s.SleepDurationMin == nil {
			sum := 0.0
			for _, v := range []*float64{s.DeepSleepMin, s.LightSleepMin, s.RemSleepMin} {
				if v != nil {
					sum += *v
				}
			}
			if sum > 0 {
				s.SleepDurationMin = ptr(round1(sum))
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func subMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if sub, ok := m[k].(map[string]any); ok {
			return sub
		}
	}
	return nil
}

func pickNum(scopes []map[string]any, keys ...string) *float64 {
	for _, m := range scopes {
		for _, k := range keys {
			if f, ok := m[k].(float64); ok {
				return &f
			}
		}
	}
	return nil
}

func pickString(scopes []map[string]any, keys ...string) string {
	for _, m := range scopes {
		for _, k := range keys {
			if s, ok := m[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func asMinutes(seconds *float64) *float64 {
	if seconds == nil {
		return nil
	}
	return ptr(round1(*seconds / 60))
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }

func ptr[T any](v T) *T { return &v }
