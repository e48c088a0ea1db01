package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageQuery 1-based 分页参数
type PageQuery struct {
	Page int `form:"page" json:"page" binding:"omitempty,min=1"`
	Size int `form:"size" json:"size" binding:"omitempty,min=1,max=100"`
}

func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

func (q PageQuery) Offset() int {
	n := q.Normalize()
	return (n.Page - 1) * n.Size
}

func (q PageQuery) Limit() int { return q.Normalize().Size }

type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPage[T any](items []T, q PageQuery, total int64) Page[T] {
	n := q.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(n.Size) - 1) / int64(n.Size))
	return Page[T]{Items: items, Page: n.Page, Size: n.Size, Total: total, TotalPages: pages}
}
