package domain

import (
	"context"
	"time"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"userId"`
	ContentID int64     `gorm:"not null;index" json:"contentId"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Review) TableName() string { return "reviews" }

type ReviewLike struct {
	UserID    int64     `gorm:"primaryKey" json:"userId"`
	ReviewID  int64     `gorm:"primaryKey;index" json:"reviewId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (ReviewLike) TableName() string { return "review_likes" }

// ReviewView 是带点赞数和作者昵称的读模型
type ReviewView struct {
	ID           int64     `json:"id"`
	ContentID    int64     `json:"contentId"`
	ContentTitle string    `json:"contentTitle,omitempty"`
	UserID       int64     `json:"userId"`
	Nickname     string    `json:"nickname"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	LikeCount    int64     `json:"likeCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ReviewFilter struct {
	ContentID int64
	UserID    int64
	Keyword   string
	RatingMin int
	RatingMax int
	DateFrom  *time.Time
	DateTo    *time.Time // exclusive
	Sort      SortSpec
	PageQuery
}

type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	Save(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id int64) (*Review, error)
	// Delete removes the review and its likes.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ReviewFilter) ([]ReviewView, int64, error)
	Popular(ctx context.Context, limit int) ([]ReviewView, error)

	AddLike(ctx context.Context, l *ReviewLike) error
	RemoveLike(ctx context.Context, userID, reviewID int64) (bool, error)
	HasLike(ctx context.Context, userID, reviewID int64) (bool, error)
	CountLikes(ctx context.Context, reviewID int64) (int64, error)
}
