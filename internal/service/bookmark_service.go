package service

import (
	"context"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
)

var bookmarkSortFields = map[string]string{"createdAt": "b.created_at", "title": "c.title"}

type BookmarkService struct{ store *repo.Store }

func NewBookmarkService(store *repo.Store) *BookmarkService { return &BookmarkService{store: store} }

func (s *BookmarkService) Create(ctx context.Context, contentID, userID int64) (*domain.Bookmark, error) {
	ok, err := s.store.Contents().ExistsActive(ctx, contentID)
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		return nil, apperr.NotFound("content not found").WithDetail("contentId", contentID)
	}
	exists, err := s.store.Bookmarks().Exists(ctx, userID, contentID)
	if err != nil {
		return nil, dbErr(err)
	}
	if exists {
		return nil, apperr.Duplicate("content already bookmarked").WithDetail("contentId", contentID)
	}
	b := &domain.Bookmark{UserID: userID, ContentID: contentID}
	if err := s.store.Bookmarks().Create(ctx, b); err != nil {
		return nil, writeErr(err, "content already bookmarked")
	}
	return b, nil
}

type BookmarkListQuery struct {
	Keyword  string
	DateFrom string
	DateTo   string
	Sort     string
	domain.PageQuery
}

func (s *BookmarkService) List(ctx context.Context, userID int64, q BookmarkListQuery) (domain.Page[domain.BookmarkView], error) {
	var empty domain.Page[domain.BookmarkView]
	sort, err := parseSort(q.Sort, bookmarkSortFields, domain.SortSpec{Column: "b.created_at", Desc: true})
	if err != nil {
		return empty, err
	}
	from, to, err := parseDayRange("dateFrom", q.DateFrom, "dateTo", q.DateTo)
	if err != nil {
		return empty, err
	}
	items, total, err := s.store.Bookmarks().List(ctx, domain.BookmarkFilter{
		UserID:    userID,
		Keyword:   q.Keyword,
		DateFrom:  from,
		DateTo:    to,
		Sort:      sort,
		PageQuery: q.PageQuery,
	})
	if err != nil {
		return empty, dbErr(err)
	}
	return domain.NewPage(items, q.PageQuery, total), nil
}

func (s *BookmarkService) Delete(ctx context.Context, contentID, userID int64) error {
	removed, err := s.store.Bookmarks().Delete(ctx, userID, contentID)
	if err != nil {
		return dbErr(err)
	}
	if !removed {
		return apperr.NotFound("bookmark not found").WithDetail("contentId", contentID)
	}
	return nil
}
