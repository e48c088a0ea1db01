package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
)

type GenreHandler struct{ svc *service.GenreService }

func NewGenreHandler(svc *service.GenreService) *GenreHandler { return &GenreHandler{svc: svc} }

func (h *GenreHandler) Mount(r Routes) {
	type listQ struct {
		Keyword     string `form:"keyword"`
		CreatedFrom string `form:"createdFrom"`
		CreatedTo   string `form:"createdTo"`
		Sort        string `form:"sort"`
		domain.PageQuery
	}
	ez.RegisterAction(r.Public, ez.Action[listQ, domain.Page[domain.Genre]]{
		Method: http.MethodGet,
		Path:   "/genres",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (domain.Page[domain.Genre], error) {
			return h.svc.List(c.Request.Context(), service.GenreListQuery{
				Keyword:     in.Keyword,
				CreatedFrom: in.CreatedFrom,
				CreatedTo:   in.CreatedTo,
				Sort:        in.Sort,
				PageQuery:   in.PageQuery,
			})
		},
	})

	type createIn struct {
		Name            string `json:"name"            binding:"required,notblank,max=50"`
		ExternalGenreID *int64 `json:"externalGenreId" binding:"omitempty,gt=0"`
	}
	ez.RegisterAction(r.Admin, ez.Action[createIn, *domain.Genre]{
		Method: http.MethodPost,
		Path:   "/genres",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createIn) (*domain.Genre, error) {
			return h.svc.Create(c.Request.Context(), in.Name, in.ExternalGenreID)
		},
	})

	type updateIn struct {
		Name            *string `json:"name"            binding:"omitempty,notblank,max=50"`
		ExternalGenreID *int64  `json:"externalGenreId" binding:"omitempty,gt=0"`
	}
	ez.RegisterAction(r.Admin, ez.Action[updateIn, *domain.Genre]{
		Method: http.MethodPatch,
		Path:   "/genres/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *updateIn) (*domain.Genre, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.Update(c.Request.Context(), id, in.Name, in.ExternalGenreID)
		},
	})

	ez.RegisterAction(r.Admin, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/genres/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, h.svc.Delete(c.Request.Context(), id)
		},
	})

	// --- POST /genres/sync  从提供方全量同步 ---
	ez.RegisterAction(r.Admin, ez.Action[struct{}, service.SyncResult]{
		Method: http.MethodPost,
		Path:   "/genres/sync",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (service.SyncResult, error) {
			return h.svc.Sync(c.Request.Context())
		},
	})
}
