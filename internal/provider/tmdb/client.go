// Package tmdb is a small client for the TMDB v3 API used to ingest movies and genres.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

var (
	ErrNotFound = errors.New("tmdb: resource not found")
	ErrNoAPIKey = errors.New("tmdb: api key is not configured")
)

// StatusError 非 200 且非 404 的上游响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: unexpected status %d", e.StatusCode)
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	Runtime          *int    `json:"runtime"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Genres           []Genre `json:"genres"`
}

// ParsedReleaseDate 空串或格式不对都视为未知
func (m *Movie) ParsedReleaseDate() *time.Time {
	if m.ReleaseDate == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", m.ReleaseDate)
	if err != nil {
		return nil
	}
	return &d
}

type Options struct {
	APIKey     string
	BaseURL    string
	Language   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	apiKey   string
	baseURL  string
	language string
	timeout  time.Duration
	http     *http.Client
	cb       *gobreaker.CircuitBreaker
	sf       singleflight.Group
	log      *zap.Logger
}

func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Language == "" {
		o.Language = "ko-KR"
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	c := &Client{
		apiKey:   o.APIKey,
		baseURL:  strings.TrimRight(o.BaseURL, "/"),
		language: o.Language,
		timeout:  o.Timeout,
		http:     hc,
		log:      o.Logger,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 3,                // half-open 放行数
		Interval:    60 * time.Second, // closed 状态计数窗口
		Timeout:     30 * time.Second, // open 持续时间
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		// 404 和调用方取消都不计入熔断；自身超时照常计数
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

func (c *Client) FetchMovie(ctx context.Context, id int64) (*Movie, error) {
	v, err := c.shared(ctx, fmt.Sprintf("movie:%d", id), func(ctx context.Context) (any, error) {
		var m Movie
		if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), &m); err != nil {
			return nil, err
		}
		return &m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Movie), nil
}

func (c *Client) FetchGenres(ctx context.Context) ([]Genre, error) {
	v, err := c.shared(ctx, "genres", func(ctx context.Context) (any, error) {
		var out struct {
			Genres []Genre `json:"genres"`
		}
		if err := c.get(ctx, "/genre/movie/list", &out); err != nil {
			return nil, err
		}
		return out.Genres, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Genre), nil
}

// shared 合并同 key 的并发请求。上游调用脱离发起者的取消，只受 client 超时约束；
// 每个等待者仍按自己的 ctx 提前返回。
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.sf.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.do(ctx, path, dst)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("tmdb: %w", err)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, dst any) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()
	c.log.Debug("tmdb request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb: decode response: %w", err)
	}
	return nil
}
