// Package service holds the business rules of the catalogue: accounts, ingestion, reviews and bookmarks.
package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/pkg/apperr"
)

// MetadataProvider 外部影片元数据来源（TMDB）
type MetadataProvider interface {
	FetchMovie(ctx context.Context, id int64) (*tmdb.Movie, error)
	FetchGenres(ctx context.Context) ([]tmdb.Genre, error)
}

const dayLayout = "2006-01-02"

func nowUTC() time.Time { return time.Now().UTC() }

func dbErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Database(err)
}

// writeErr 唯一冲突 → 409，其余 → 数据库错误
func writeErr(err error, dupMsg string) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return apperr.Duplicate(dupMsg)
	}
	return dbErr(err)
}

func providerErr(err error) error {
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		return apperr.NotFound("movie not found on metadata provider")
	case errors.Is(err, tmdb.ErrNoAPIKey):
		return apperr.Internal("metadata provider is not configured", err)
	}
	e := apperr.Upstream("metadata provider request failed", err)
	var se *tmdb.StatusError
	if errors.As(err, &se) {
		e.WithDetail("providerStatus", se.StatusCode)
	}
	return e
}

func parseDay(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dayLayout, v, time.UTC)
	if err != nil {
		return nil, apperr.InvalidQueryParam(field + " must be formatted as YYYY-MM-DD").WithDetail(field, v)
	}
	return &d, nil
}

// parseDayRange 返回 [from, to+1d)，to 按整天包含
func parseDayRange(fromField, from, toField, to string) (*time.Time, *time.Time, error) {
	f, err := parseDay(fromField, from)
	if err != nil {
		return nil, nil, err
	}
	t, err := parseDay(toField, to)
	if err != nil {
		return nil, nil, err
	}
	if t != nil {
		end := t.Add(24 * time.Hour)
		t = &end
	}
	if f != nil && t != nil && !f.Before(*t) {
		return nil, nil, apperr.InvalidQueryParam(fromField + " must not be after " + toField)
	}
	return f, t, nil
}

func parseSort(spec string, allowed map[string]string, def domain.SortSpec) (domain.SortSpec, error) {
	s, err := domain.ParseSort(spec, allowed, def)
	if err != nil {
		return domain.SortSpec{}, apperr.InvalidQueryParam(err.Error()).WithDetail("sort", spec)
	}
	return s, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
