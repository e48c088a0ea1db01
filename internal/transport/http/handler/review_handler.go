package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/service"
	"movie-catalog/internal/transport/http/ez"
	mdw "movie-catalog/internal/transport/http/middleware"
)

type ReviewHandler struct{ svc *service.ReviewService }

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler { return &ReviewHandler{svc: svc} }

func (h *ReviewHandler) Mount(r Routes) {
	type listQ struct {
		Keyword   string `form:"keyword"`
		RatingMin int    `form:"ratingMin" binding:"omitempty,min=1,max=5"`
		RatingMax int    `form:"ratingMax" binding:"omitempty,min=1,max=5"`
		DateFrom  string `form:"dateFrom"`
		DateTo    string `form:"dateTo"`
		Sort      string `form:"sort"`
		domain.PageQuery
	}
	ez.RegisterAction(r.Public, ez.Action[listQ, domain.Page[domain.ReviewView]]{
		Method: http.MethodGet,
		Path:   "/contents/:id/reviews",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (domain.Page[domain.ReviewView], error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return domain.Page[domain.ReviewView]{}, err
			}
			return h.svc.List(c.Request.Context(), id, service.ReviewListQuery{
				Keyword:   in.Keyword,
				RatingMin: in.RatingMin,
				RatingMax: in.RatingMax,
				DateFrom:  in.DateFrom,
				DateTo:    in.DateTo,
				Sort:      in.Sort,
				PageQuery: in.PageQuery,
			})
		},
	})

	ez.RegisterAction(r.Public, ez.Action[struct{}, []domain.ReviewView]{
		Method: http.MethodGet,
		Path:   "/reviews/popular",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.ReviewView, error) {
			return h.svc.Popular(c.Request.Context())
		},
	})

	type createIn struct {
		Rating  *int   `json:"rating"  binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"required,notblank,max=2000"`
	}
	ez.RegisterAction(r.User, ez.Action[createIn, *domain.Review]{
		Method: http.MethodPost,
		Path:   "/contents/:id/reviews",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createIn) (*domain.Review, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.Create(c.Request.Context(), id, mdw.UserID(c), *in.Rating, in.Comment)
		},
	})

	type updateIn struct {
		Rating  *int    `json:"rating"  binding:"omitempty,min=1,max=5"`
		Comment *string `json:"comment" binding:"omitempty,notblank,max=2000"`
	}
	ez.RegisterAction(r.User, ez.Action[updateIn, *domain.Review]{
		Method: http.MethodPut,
		Path:   "/reviews/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *updateIn) (*domain.Review, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.Update(c.Request.Context(), id, mdw.UserID(c), in.Rating, in.Comment)
		},
	})

	ez.RegisterAction(r.User, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/reviews/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, h.svc.Delete(c.Request.Context(), id, mdw.UserID(c))
		},
	})

	ez.RegisterAction(r.User, ez.Action[struct{}, *service.LikeResult]{
		Method: http.MethodPost,
		Path:   "/reviews/:id/likes",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.LikeResult, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.Like(c.Request.Context(), id, mdw.UserID(c))
		},
	})

	ez.RegisterAction(r.User, ez.Action[struct{}, *service.LikeResult]{
		Method: http.MethodDelete,
		Path:   "/reviews/:id/likes",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.LikeResult, error) {
			id, err := ez.PathID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.Unlike(c.Request.Context(), id, mdw.UserID(c))
		},
	})
}
