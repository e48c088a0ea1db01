package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
	mdw "movie-catalog/internal/transport/http/middleware"
)

type BookmarkHandler struct{ svc *service.BookmarkService }

func NewBookmarkHandler(svc *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{svc: svc}
}

type bookmarkListIn struct {
	Keyword  string `form:"keyword"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	Sort     string `form:"sort"`
	domain.PageQuery
}

// listBookmarks /bookmarks 与 /users/me/bookmarks 共用
func listBookmarks(svc *service.BookmarkService) func(*gin.Context, *bookmarkListIn) (domain.Page[domain.BookmarkView], error) {
	return func(c *gin.Context, in *bookmarkListIn) (domain.Page[domain.BookmarkView], error) {
		return svc.List(c.Request.Context(), mdw.UserID(c), service.BookmarkListQuery{
			Keyword:   in.Keyword,
			DateFrom:  in.DateFrom,
			DateTo:    in.DateTo,
			Sort:      in.Sort,
			PageQuery: in.PageQuery,
		})
	}
}

func (h *BookmarkHandler) Mount(r Routes) {
	type createIn struct {
		ContentID int64 `json:"contentId" binding:"required,gt=0"`
	}
	ez.RegisterAction(r.User, ez.Action[createIn, *domain.Bookmark]{
		Method: http.MethodPost,
		Path:   "/bookmarks",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createIn) (*domain.Bookmark, error) {
			return h.svc.Create(c.Request.Context(), in.ContentID, mdw.UserID(c))
		},
	})

	ez.RegisterAction(r.User, ez.Action[bookmarkListIn, domain.Page[domain.BookmarkView]]{
		Method:  http.MethodGet,
		Path:    "/bookmarks",
		Binder:  ez.BindQuery,
		Auth:    true,
		Handler: listBookmarks(h.svc),
	})

	ez.RegisterAction(r.User, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/bookmarks/:contentId",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id, err := ez.PathID(c, "contentId")
			if err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, h.svc.Delete(c.Request.Context(), id, mdw.UserID(c))
		},
	})
}
