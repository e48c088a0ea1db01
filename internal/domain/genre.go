package domain

import (
	"context"
	"time"
)

type Genre struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalGenreID *int64     `gorm:"uniqueIndex" json:"externalGenreId,omitempty"`
	Name            string     `gorm:"size:100;not null;index" json:"name"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `gorm:"index" json:"-"`
}

func (Genre) TableName() string { return "genres" }

func (g *Genre) IsDeleted() bool { return g.DeletedAt != nil }

type GenreFilter struct {
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time // exclusive
	Sort        SortSpec
	PageQuery
}

type GenreRepository interface {
	Create(ctx context.Context, g *Genre) error
	Save(ctx context.Context, g *Genre) error
	FindByID(ctx context.Context, id int64) (*Genre, error)
	FindByExternalID(ctx context.Context, externalID int64) (*Genre, error)
	// FindActiveByName excludeID > 0 时排除自身
	FindActiveByName(ctx context.Context, name string, excludeID int64) (*Genre, error)
	List(ctx context.Context, f GenreFilter) ([]Genre, int64, error)
	// SoftDeleteMissing soft-deletes active provider genres whose external id is not in keep.
	// An empty keep set is a no-op.
	SoftDeleteMissing(ctx context.Context, keep []int64, at time.Time) (int64, error)
}
