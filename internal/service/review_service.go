package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"movie-catalog/internal/core/cache"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
)

const popularReviewLimit = 10

var reviewSortFields = map[string]string{"createdAt": "r.created_at", "rating": "r.rating"}

type ReviewService struct {
	store *repo.Store
	cache *cache.Cache
	log   *zap.Logger
}

func NewReviewService(store *repo.Store, c *cache.Cache, log *zap.Logger) *ReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{store: store, cache: c, log: log}
}

func validateRating(rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperr.Validation("invalid input", map[string]string{"rating": "must be between 1 and 5"})
	}
	return nil
}

func normalizeComment(comment string) (string, error) {
	c := strings.TrimSpace(comment)
	if c == "" {
		return "", apperr.Validation("invalid input", map[string]string{"comment": "must not be blank"})
	}
	if utf8.RuneCountInString(c) > domain.MaxCommentLength {
		return "", apperr.Validation("invalid input", map[string]string{"comment": "must be at most 2000 characters"})
	}
	return c, nil
}

func (s *ReviewService) requireContent(ctx context.Context, contentID int64) error {
	ok, err := s.store.Contents().ExistsActive(ctx, contentID)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return apperr.NotFound("content not found").WithDetail("contentId", contentID)
	}
	return nil
}

// Create 同一用户可以对同一内容发多条评论
func (s *ReviewService) Create(ctx context.Context, contentID, userID int64, rating int, comment string) (*domain.Review, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	c, err := normalizeComment(comment)
	if err != nil {
		return nil, err
	}
	if err := s.requireContent(ctx, contentID); err != nil {
		return nil, err
	}
	r := &domain.Review{UserID: userID, ContentID: contentID, Rating: rating, Comment: c}
	if err := s.store.Reviews().Create(ctx, r); err != nil {
		return nil, dbErr(err)
	}
	invalidateTopRated(ctx, s.cache, s.log)
	return r, nil
}

type ReviewListQuery struct {
	Keyword   string
	RatingMin int
	RatingMax int
	DateFrom  string
	DateTo    string
	Sort      string
	domain.PageQuery
}

func (s *ReviewService) List(ctx context.Context, contentID int64, q ReviewListQuery) (domain.Page[domain.ReviewView], error) {
	var empty domain.Page[domain.ReviewView]
	if q.RatingMin > 0 && q.RatingMax > 0 && q.RatingMin > q.RatingMax {
		return empty, apperr.InvalidQueryParam("ratingMin must not be greater than ratingMax")
	}
	sort, err := parseSort(q.Sort, reviewSortFields, domain.SortSpec{Column: "r.created_at", Desc: true})
	if err != nil {
		return empty, err
	}
	from, to, err := parseDayRange("dateFrom", q.DateFrom, "dateTo", q.DateTo)
	if err != nil {
		return empty, err
	}
	if err := s.requireContent(ctx, contentID); err != nil {
		return empty, err
	}
	items, total, err := s.store.Reviews().List(ctx, domain.ReviewFilter{
		ContentID: contentID,
		Keyword:   q.Keyword,
		RatingMin: q.RatingMin,
		RatingMax: q.RatingMax,
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

func (s *ReviewService) ListByUser(ctx context.Context, userID int64, q domain.PageQuery) (domain.Page[domain.ReviewView], error) {
	items, total, err := s.store.Reviews().List(ctx, domain.ReviewFilter{UserID: userID, PageQuery: q})
	if err != nil {
		return domain.Page[domain.ReviewView]{}, dbErr(err)
	}
	return domain.NewPage(items, q, total), nil
}

func (s *ReviewService) Popular(ctx context.Context) ([]domain.ReviewView, error) {
	items, err := s.store.Reviews().Popular(ctx, popularReviewLimit)
	if err != nil {
		return nil, dbErr(err)
	}
	if items == nil {
		items = []domain.ReviewView{}
	}
	return items, nil
}

// ownReview 只有作者本人可以修改/删除
func ownReview(ctx context.Context, rr domain.ReviewRepository, reviewID, userID int64) (*domain.Review, error) {
	r, err := rr.FindByID(ctx, reviewID)
	if err != nil {
		return nil, dbErr(err)
	}
	if r == nil {
		return nil, apperr.NotFound("review not found").WithDetail("reviewId", reviewID)
	}
	if r.UserID != userID {
		return nil, apperr.Forbidden("only the author can modify this review")
	}
	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, reviewID, userID int64, rating *int, comment *string) (*domain.Review, error) {
	r, err := ownReview(ctx, s.store.Reviews(), reviewID, userID)
	if err != nil {
		return nil, err
	}
	if rating != nil {
		if err := validateRating(*rating); err != nil {
			return nil, err
		}
		r.Rating = *rating
	}
	if comment != nil {
		c, err := normalizeComment(*comment)
		if err != nil {
			return nil, err
		}
		r.Comment = c
	}
	if err := s.store.Reviews().Save(ctx, r); err != nil {
		return nil, dbErr(err)
	}
	if rating != nil {
		invalidateTopRated(ctx, s.cache, s.log)
	}
	return r, nil
}

func (s *ReviewService) Delete(ctx context.Context, reviewID, userID int64) error {
	err := s.store.Tx(ctx, func(tx *repo.Store) error {
		if _, err := ownReview(ctx, tx.Reviews(), reviewID, userID); err != nil {
			return err
		}
		return dbErr(tx.Reviews().Delete(ctx, reviewID))
	})
	if err != nil {
		return err
	}
	invalidateTopRated(ctx, s.cache, s.log)
	return nil
}

type LikeResult struct {
	ReviewID  int64 `json:"reviewId"`
	LikeCount int64 `json:"likeCount"`
	Liked     bool  `json:"liked"`
}

func (s *ReviewService) requireReview(ctx context.Context, reviewID int64) error {
	r, err := s.store.Reviews().FindByID(ctx, reviewID)
	if err != nil {
		return dbErr(err)
	}
	if r == nil {
		return apperr.NotFound("review not found").WithDetail("reviewId", reviewID)
	}
	return nil
}

func (s *ReviewService) Like(ctx context.Context, reviewID, userID int64) (*LikeResult, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return nil, err
	}
	liked, err := s.store.Reviews().HasLike(ctx, userID, reviewID)
	if err != nil {
		return nil, dbErr(err)
	}
	if liked {
		return nil, apperr.Duplicate("review already liked").WithDetail("reviewId", reviewID)
	}
	if err := s.store.Reviews().AddLike(ctx, &domain.ReviewLike{UserID: userID, ReviewID: reviewID}); err != nil {
		return nil, writeErr(err, "review already liked")
	}
	return s.likeResult(ctx, reviewID, true)
}

func (s *ReviewService) Unlike(ctx context.Context, reviewID, userID int64) (*LikeResult, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return nil, err
	}
	removed, err := s.store.Reviews().RemoveLike(ctx, userID, reviewID)
	if err != nil {
		return nil, dbErr(err)
	}
	if !removed {
		return nil, apperr.NotFound("like not found").WithDetail("reviewId", reviewID)
	}
	return s.likeResult(ctx, reviewID, false)
}

func (s *ReviewService) likeResult(ctx context.Context, reviewID int64, liked bool) (*LikeResult, error) {
	n, err := s.store.Reviews().CountLikes(ctx, reviewID)
	if err != nil {
		return nil, dbErr(err)
	}
	return &LikeResult{ReviewID: reviewID, LikeCount: n, Liked: liked}, nil
}
