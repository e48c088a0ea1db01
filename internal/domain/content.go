package domain

import (
	"context"
	"time"
)

type Content struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID     int64      `gorm:"uniqueIndex;not null" json:"externalId"`
	Title          string     `gorm:"size:255;not null;index" json:"title"`
	Description    *string    `gorm:"type:text" json:"description,omitempty"`
	ReleaseDate    *time.Time `gorm:"type:date" json:"releaseDate,omitempty"`
	ReleaseYear    *int       `json:"releaseYear,omitempty"`
	RuntimeMinutes *int       `json:"runtimeMinutes,omitempty"`
	Genres         []Genre    `gorm:"many2many:content_genres;" json:"genres"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `gorm:"index" json:"-"`
}

func (Content) TableName() string { return "contents" }

func (c *Content) IsDeleted() bool { return c.DeletedAt != nil }

// SetReleaseDate 同步维护 release_year
func (c *Content) SetReleaseDate(d *time.Time) {
	c.ReleaseDate = d
	if d == nil {
		c.ReleaseYear = nil
		return
	}
	y := d.Year()
	c.ReleaseYear = &y
}

type ContentGenre struct {
	ContentID int64 `gorm:"primaryKey"`
	GenreID   int64 `gorm:"primaryKey;index"`
}

func (ContentGenre) TableName() string { return "content_genres" }

type ContentSort string

const (
	ContentSortLatest ContentSort = "latest"
	ContentSortOldest ContentSort = "oldest"
)

type ContentFilter struct {
	Query   string
	GenreID int64
	Sort    ContentSort
	PageQuery
}

type TopRatedContent struct {
	ContentID   int64   `json:"contentId"`
	Title       string  `json:"title"`
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int64   `json:"reviewCount"`
}

type ContentRepository interface {
	Create(ctx context.Context, c *Content) error
	Save(ctx context.Context, c *Content) error
	// FindByID 包含软删除行；Genres 只预加载未删除的类型
	FindByID(ctx context.Context, id int64) (*Content, error)
	FindByExternalID(ctx context.Context, externalID int64) (*Content, error)
	ReplaceGenres(ctx context.Context, contentID int64, genreIDs []int64) error
	List(ctx context.Context, f ContentFilter) ([]Content, int64, error)
	TopRated(ctx context.Context, limit int) ([]TopRatedContent, error)
	// ExistsActive 内容存在且未被软删除
	ExistsActive(ctx context.Context, id int64) (bool, error)
}
