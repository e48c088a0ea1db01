package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"movie-catalog/internal/core/cache"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
)

const (
	topRatedKeyPrefix = "top_rated:"
	maxTopRatedLimit  = 100
)

type ContentService struct {
	store       *repo.Store
	provider    MetadataProvider
	genres      *GenreService
	cache       *cache.Cache
	topRatedTTL time.Duration
	log         *zap.Logger
}

func NewContentService(store *repo.Store, provider MetadataProvider, genres *GenreService, c *cache.Cache, topRatedTTL time.Duration, log *zap.Logger) *ContentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContentService{
		store:       store,
		provider:    provider,
		genres:      genres,
		cache:       c,
		topRatedTTL: topRatedTTL,
		log:         log,
	}
}

// ProviderDetail 实时从提供方拉取，不落库也不缓存
type ProviderDetail struct {
	Title            string       `json:"title"`
	Overview         string       `json:"overview"`
	ReleaseDate      string       `json:"releaseDate"`
	Runtime          *int         `json:"runtime,omitempty"`
	PosterPath       string       `json:"posterPath"`
	BackdropPath     string       `json:"backdropPath"`
	OriginalLanguage string       `json:"originalLanguage"`
	Popularity       float64      `json:"popularity"`
	VoteAverage      float64      `json:"voteAverage"`
	VoteCount        int64        `json:"voteCount"`
	Genres           []tmdb.Genre `json:"genres"`
}

type ContentDetail struct {
	*domain.Content
	Provider *ProviderDetail `json:"tmdb"`
}

type ContentCreated struct {
	*domain.Content
	Restored bool `json:"restored"`
}

// Create 按外部 id 入库；已软删除的同 id 内容原地恢复
func (s *ContentService) Create(ctx context.Context, externalID int64) (*ContentCreated, error) {
	existing, err := s.store.Contents().FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, dbErr(err)
	}
	if existing != nil && !existing.IsDeleted() {
		return nil, duplicateContent(existing.ID)
	}

	// 外部调用放在事务外
	movie, err := s.provider.FetchMovie(ctx, externalID)
	if err != nil {
		return nil, providerErr(err)
	}

	out := &ContentCreated{}
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		genreIDs, err := s.genres.EnsureGenres(ctx, tx, movie.Genres)
		if err != nil {
			return err
		}
		c, err := tx.Contents().FindByExternalID(ctx, externalID)
		if err != nil {
			return dbErr(err)
		}
		switch {
		case c != nil && !c.IsDeleted():
			return duplicateContent(c.ID)
		case c != nil:
			applyMovie(c, movie)
			c.DeletedAt = nil
			if err := tx.Contents().Save(ctx, c); err != nil {
				return writeErr(err, "content already exists")
			}
			out.Restored = true
		default:
			c = &domain.Content{ExternalID: externalID}
			applyMovie(c, movie)
			if err := tx.Contents().Create(ctx, c); err != nil {
				return writeErr(err, "content already exists")
			}
		}
		if err := tx.Contents().ReplaceGenres(ctx, c.ID, genreIDs); err != nil {
			return dbErr(err)
		}
		fresh, err := tx.Contents().FindByID(ctx, c.ID)
		if err != nil {
			return dbErr(err)
		}
		out.Content = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateTopRated(ctx)
	s.log.Info("content ingested",
		zap.Int64("content_id", out.ID), zap.Int64("external_id", externalID), zap.Bool("restored", out.Restored))
	return out, nil
}

func duplicateContent(id int64) error {
	return apperr.Duplicate("content already exists").WithDetail("contentId", id)
}

func applyMovie(c *domain.Content, m *tmdb.Movie) {
	c.Title = strings.TrimSpace(m.Title)
	if c.Title == "" {
		c.Title = fmt.Sprintf("TMDB #%d", m.ID)
	}
	c.Description = nil
	if ov := strings.TrimSpace(m.Overview); ov != "" {
		c.Description = &ov
	}
	c.SetReleaseDate(m.ParsedReleaseDate())
	c.RuntimeMinutes = nil
	if m.Runtime != nil && *m.Runtime > 0 {
		rt := *m.Runtime
		c.RuntimeMinutes = &rt
	}
}

func (s *ContentService) activeByID(ctx context.Context, id int64) (*domain.Content, error) {
	c, err := s.store.Contents().FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if c == nil || c.IsDeleted() {
		return nil, apperr.NotFound("content not found").WithDetail("contentId", id)
	}
	return c, nil
}

// Get 提供方不可用时仍返回本地数据，tmdb 字段为 null
func (s *ContentService) Get(ctx context.Context, id int64) (*ContentDetail, error) {
	c, err := s.activeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &ContentDetail{Content: c}
	m, err := s.provider.FetchMovie(ctx, c.ExternalID)
	if err != nil {
		s.log.Warn("metadata provider detail unavailable",
			zap.Int64("content_id", c.ID), zap.Int64("external_id", c.ExternalID), zap.Error(err))
		return out, nil
	}
	out.Provider = &ProviderDetail{
		Title:            m.Title,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		Runtime:          m.Runtime,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		OriginalLanguage: m.OriginalLanguage,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Genres:           m.Genres,
	}
	return out, nil
}

type ContentListQuery struct {
	Query   string
	GenreID int64
	Sort    string
	domain.PageQuery
}

func (s *ContentService) List(ctx context.Context, q ContentListQuery) (domain.Page[domain.Content], error) {
	items, total, err := s.store.Contents().List(ctx, domain.ContentFilter{
		Query:     q.Query,
		GenreID:   q.GenreID,
		Sort:      domain.ContentSort(strings.ToLower(strings.TrimSpace(q.Sort))),
		PageQuery: q.PageQuery,
	})
	if err != nil {
		return domain.Page[domain.Content]{}, dbErr(err)
	}
	for i := range items {
		if items[i].Genres == nil {
			items[i].Genres = []domain.Genre{}
		}
	}
	return domain.NewPage(items, q.PageQuery, total), nil
}

func (s *ContentService) Delete(ctx context.Context, id int64) error {
	c, err := s.activeByID(ctx, id)
	if err != nil {
		return err
	}
	now := nowUTC()
	c.DeletedAt = &now
	if err := s.store.Contents().Save(ctx, c); err != nil {
		return dbErr(err)
	}
	s.invalidateTopRated(ctx)
	s.log.Info("content soft-deleted", zap.Int64("content_id", id))
	return nil
}

func (s *ContentService) TopRated(ctx context.Context, limit int) ([]domain.TopRatedContent, error) {
	if limit <= 0 {
		return nil, apperr.InvalidQueryParam("limit must be greater than 0").WithDetail("limit", limit)
	}
	if limit > maxTopRatedLimit {
		limit = maxTopRatedLimit
	}
	key := fmt.Sprintf("%s%d", topRatedKeyPrefix, limit)
	out, err := cache.GetOrLoadJSON(s.cache, ctx, key, s.topRatedTTL, func(ctx context.Context) ([]domain.TopRatedContent, error) {
		rows, err := s.store.Contents().TopRated(ctx, limit)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].AvgRating = math.Round(rows[i].AvgRating*100) / 100
		}
		return rows, nil
	})
	if err != nil {
		return nil, dbErr(err)
	}
	if out == nil {
		out = []domain.TopRatedContent{}
	}
	return out, nil
}

func (s *ContentService) invalidateTopRated(ctx context.Context) {
	invalidateTopRated(ctx, s.cache, s.log)
}

func invalidateTopRated(ctx context.Context, c *cache.Cache, log *zap.Logger) {
	if err := c.InvalidatePattern(ctx, topRatedKeyPrefix+"*"); err != nil {
		log.Warn("top-rated cache invalidation failed", zap.Error(err))
	}
}
