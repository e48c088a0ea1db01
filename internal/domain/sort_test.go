package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	allowed := map[string]string{"createdAt": "r.created_at", "rating": "r.rating"}
	def := SortSpec{Column: "r.created_at", Desc: true}

	tests := []struct {
		name    string
		spec    string
		want    SortSpec
		wantErr bool
	}{
		{name: "empty uses default", spec: "", want: def},
		{name: "field without direction", spec: "rating", wantErr: true},
		{name: "empty direction", spec: "rating,", wantErr: true},
		{name: "asc", spec: "rating,ASC", want: SortSpec{Column: "r.rating"}},
		{name: "lowercase direction", spec: "createdAt,desc", want: SortSpec{Column: "r.created_at", Desc: true}},
		{name: "unknown field", spec: "title,ASC", wantErr: true},
		{name: "unknown direction", spec: "rating,UP", wantErr: true},
		{name: "too many parts", spec: "rating,ASC,extra", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.spec, allowed, def)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortSpecClause(t *testing.T) {
	assert.Equal(t, "c.title ASC", SortSpec{Column: "c.title"}.Clause())
	assert.Equal(t, "c.title DESC", SortSpec{Column: "c.title", Desc: true}.Clause())
}

func TestNewPage(t *testing.T) {
	p := NewPage[int](nil, PageQuery{Page: 2, Size: 10}, 21)
	assert.Equal(t, []int{}, p.Items)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Size)
	assert.Equal(t, int64(21), p.Total)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPage([]int{1}, PageQuery{}, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, 0, p.TotalPages)
}

func TestPageQueryOffset(t *testing.T) {
	assert.Equal(t, 0, PageQuery{}.Offset())
	assert.Equal(t, 40, PageQuery{Page: 3, Size: 20}.Offset())
	assert.Equal(t, MaxPageSize, PageQuery{Size: 1000}.Limit())
}

func TestContentSetReleaseDate(t *testing.T) {
	var c Content
	d := mustDate(t, "1999-03-31")
	c.SetReleaseDate(&d)
	require.NotNil(t, c.ReleaseYear)
	assert.Equal(t, 1999, *c.ReleaseYear)

	c.SetReleaseDate(nil)
	assert.Nil(t, c.ReleaseYear)
}
