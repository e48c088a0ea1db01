package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
	mdw "movie-catalog/internal/transport/http/middleware"
)

// UserHandler /users/me 系列
type UserHandler struct {
	users     *service.UserService
	reviews   *service.ReviewService
	bookmarks *service.BookmarkService
	watches   *service.WatchHistoryService
}

func NewUserHandler(users *service.UserService, reviews *service.ReviewService, bookmarks *service.BookmarkService, watches *service.WatchHistoryService) *UserHandler {
	return &UserHandler{users: users, reviews: reviews, bookmarks: bookmarks, watches: watches}
}

func (h *UserHandler) Mount(r Routes) {
	ez.RegisterAction(r.User, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			// 鉴权时已回查过，不再查库
			if u := mdw.CurrentUser(c); u != nil {
				return u, nil
			}
			return h.users.Me(c.Request.Context(), mdw.UserID(c))
		},
	})

	type updateIn struct {
		Nickname *string `json:"nickname" binding:"omitempty,notblank,max=50"`
	}
	ez.RegisterAction(r.User, ez.Action[updateIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/me",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *updateIn) (*domain.User, error) {
			return h.users.UpdateMe(c.Request.Context(), mdw.UserID(c), in.Nickname)
		},
	})

	type passwordIn struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword"     binding:"required,min=8,max=72"`
	}
	ez.RegisterAction(r.User, ez.Action[passwordIn, idOut]{
		Method: http.MethodPatch,
		Path:   "/users/me/password",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *passwordIn) (idOut, error) {
			uid := mdw.UserID(c)
			return idOut{ID: uid}, h.users.ChangePassword(c.Request.Context(), uid, in.CurrentPassword, in.NewPassword)
		},
	})

	ez.RegisterAction(r.User, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/users/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			uid := mdw.UserID(c)
			return idOut{ID: uid}, h.users.DeleteMe(c.Request.Context(), uid)
		},
	})

	ez.RegisterAction(r.User, ez.Action[domain.PageQuery, domain.Page[domain.ReviewView]]{
		Method: http.MethodGet,
		Path:   "/users/me/reviews",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.PageQuery) (domain.Page[domain.ReviewView], error) {
			return h.reviews.ListByUser(c.Request.Context(), mdw.UserID(c), *in)
		},
	})

	ez.RegisterAction(r.User, ez.Action[bookmarkListIn, domain.Page[domain.BookmarkView]]{
		Method:  http.MethodGet,
		Path:    "/users/me/bookmarks",
		Binder:  ez.BindQuery,
		Auth:    true,
		Handler: listBookmarks(h.bookmarks),
	})

	ez.RegisterAction(r.User, ez.Action[domain.PageQuery, domain.Page[domain.WatchHistoryView]]{
		Method: http.MethodGet,
		Path:   "/users/me/watch-history",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.PageQuery) (domain.Page[domain.WatchHistoryView], error) {
			return h.watches.List(c.Request.Context(), mdw.UserID(c), *in)
		},
	})

	type watchIn struct {
		ContentID      int64 `json:"contentId"      binding:"required,gt=0"`
		WatchedMinutes *int  `json:"watchedMinutes" binding:"required,gte=0"`
	}
	ez.RegisterAction(r.User, ez.Action[watchIn, *domain.WatchHistory]{
		Method: http.MethodPost,
		Path:   "/users/me/watch-history",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *watchIn) (*domain.WatchHistory, error) {
			return h.watches.Record(c.Request.Context(), mdw.UserID(c), in.ContentID, *in.WatchedMinutes)
		},
	})
}
