package handler

import "movie-catalog/internal/transport/http/ez"

// Routes 三个访问级别的分组；User/Admin 已挂好鉴权中间件
type Routes struct {
	Public ez.EZ
	User   ez.EZ
	Admin  ez.EZ
}

// Module 每个业务 handler 自己挂路由
type Module interface {
	Mount(r Routes)
}

// 通用出参
type idOut struct {
	ID int64 `json:"id"`
}
