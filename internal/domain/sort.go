package domain

import (
	"fmt"
	"strings"
)

// SortSpec 由 "field,DIR" 解析而来，Column 已经过白名单映射
type SortSpec struct {
	Column string
	Desc   bool
}

func (s SortSpec) Clause() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// ParseSort parses "field,DIR" against an allow-list of field -> column.
// An empty spec yields def; anything else must carry both parts.
func ParseSort(spec string, allowed map[string]string, def SortSpec) (SortSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return def, nil
	}
	parts := strings.Split(spec, ",")
	if len(parts) != 2 {
		return SortSpec{}, fmt.Errorf("sort must be \"field,DIR\": %q", spec)
	}
	col, ok := allowed[strings.TrimSpace(parts[0])]
	if !ok {
		return SortSpec{}, fmt.Errorf("unsupported sort field %q", parts[0])
	}
	out := SortSpec{Column: col}
	switch strings.ToUpper(strings.TrimSpace(parts[1])) {
	case "ASC":
	case "DESC":
		out.Desc = true
	default:
		return SortSpec{}, fmt.Errorf("unsupported sort direction %q", parts[1])
	}
	return out, nil
}
