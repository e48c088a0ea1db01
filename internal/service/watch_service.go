package service

import (
	"context"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
)

type WatchHistoryService struct{ store *repo.Store }

func NewWatchHistoryService(store *repo.Store) *WatchHistoryService {
	return &WatchHistoryService{store: store}
}

func (s *WatchHistoryService) Record(ctx context.Context, userID, contentID int64, watchedMinutes int) (*domain.WatchHistory, error) {
	if watchedMinutes < 0 {
		return nil, apperr.Validation("invalid input", map[string]string{"watchedMinutes": "must be 0 or greater"})
	}
	ok, err := s.store.Contents().ExistsActive(ctx, contentID)
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		return nil, apperr.NotFound("content not found").WithDetail("contentId", contentID)
	}
	w := &domain.WatchHistory{UserID: userID, ContentID: contentID, WatchedMinutes: watchedMinutes}
	if err := s.store.Watches().Create(ctx, w); err != nil {
		return nil, dbErr(err)
	}
	return w, nil
}

func (s *WatchHistoryService) List(ctx context.Context, userID int64, q domain.PageQuery) (domain.Page[domain.WatchHistoryView], error) {
	items, total, err := s.store.Watches().ListByUser(ctx, userID, q)
	if err != nil {
		return domain.Page[domain.WatchHistoryView]{}, dbErr(err)
	}
	return domain.NewPage(items, q, total), nil
}
