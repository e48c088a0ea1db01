package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
)

type ContentHandler struct{ svc *service.ContentService }

func NewContentHandler(svc *service.ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

func (h *ContentHandler) Mount(r Routes) {
	type listQ struct {
		Query   string `form:"query"`
		GenreID int64  `form:"genreId" binding:"omitempty,gt=0"`
		Sort    string `form:"sort"`
		domain.PageQuery
	}
	ez.RegisterAction(r.Public, ez.Action[listQ, domain.Page[domain.Content]]{
		Method: http.MethodGet,
		Path:   "/contents",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (domain.Page[domain.Content], error) {
			return h.svc.List(c.Request.Context(), service.ContentListQuery{
				Query:     in.Query,
				GenreID:   in.GenreID,
				Sort:      in.Sort,
				PageQuery: in.PageQuery,
			})
		},
	})

	// limit 校验放在 service，保持 INVALID_QUERY_PARAM 的语义一致
	type topQ struct {
		Limit int `form:"limit,default=10"`
	}
	ez.RegisterAction(r.Public, ez.Action[topQ, []domain.TopRatedContent]{
		Method: http.MethodGet,
		Path:   "/contents/top-rated",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *topQ) ([]domain.TopRatedContent, error) {
			return h.svc.TopRated(c.Request.Context(), in.Limit)
		},
	})

	ez.RegisterAction(r.Public, ez.Action[struct{}, *service.ContentDetail]{
		Method: http.MethodGet,
		Path:   "/contents/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.ContentDetail, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.Get(c.Request.Context(), id)
		},
	})

	// --- POST /contents  按外部 id 入库（管理员） ---
	type createIn struct {
		ExternalID int64 `json:"externalId" binding:"required,gt=0"`
	}
	ez.RegisterAction(r.Admin, ez.Action[createIn, *service.ContentCreated]{
		Method: http.MethodPost,
		Path:   "/contents",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createIn) (*service.ContentCreated, error) {
			return h.svc.Create(c.Request.Context(), in.ExternalID)
		},
	})

	ez.RegisterAction(r.Admin, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/contents/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, h.svc.Delete(c.Request.Context(), id)
		},
	})
}
