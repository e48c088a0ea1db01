package router

import (
	"sort"

	"movie-catalog/internal/transport/http/handler"
)

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry 收集业务模块，按优先级挂载；每个引擎一份
type Registry struct {
	mods []handler.Module
}

func (r *Registry) Register(mods ...handler.Module) {
	for _, m := range mods {
		if m != nil {
			r.mods = append(r.mods, m)
		}
	}
}

func (r *Registry) MountAll(routes handler.Routes) {
	mods := append([]handler.Module(nil), r.mods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.Mount(routes)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
