package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/provider/tmdb"
	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
)

var genreSortFields = map[string]string{"createdAt": "created_at", "name": "name"}

type GenreService struct {
	store    *repo.Store
	provider MetadataProvider
	log      *zap.Logger
}

func NewGenreService(store *repo.Store, provider MetadataProvider, log *zap.Logger) *GenreService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenreService{store: store, provider: provider, log: log}
}

type SyncResult struct {
	Fetched   int  `json:"fetched"`
	Created   int  `json:"created"`
	Updated   int  `json:"updated"`
	Restored  int  `json:"restored"`
	Deleted   int  `json:"deleted"`
	Conflicts int  `json:"conflicts"`
	Skipped   bool `json:"skipped"`
}

type upsertOutcome int

const (
	upsertUnchanged upsertOutcome = iota
	upsertCreated
	upsertUpdated
	upsertRestored
	upsertConflict // 名字被手工类型占用，保持原状
)

// Sync 全量同步提供方的类型表；空列表视为异常，不做任何删除
func (s *GenreService) Sync(ctx context.Context) (SyncResult, error) {
	fetched, err := s.provider.FetchGenres(ctx)
	if err != nil {
		return SyncResult{}, providerErr(err)
	}
	res := SyncResult{Fetched: len(fetched)}
	if len(fetched) == 0 {
		s.log.Warn("genre sync skipped: provider returned an empty list")
		res.Skipped = true
		return res, nil
	}

	now := nowUTC()
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		keep := make([]int64, 0, len(fetched))
		for _, g := range fetched {
			keep = append(keep, g.ID)
		}
		// 先下线消失的类型，释放它们占用的名字
		n, err := tx.Genres().SoftDeleteMissing(ctx, keep, now)
		if err != nil {
			return dbErr(err)
		}
		res.Deleted = int(n)

		for _, g := range fetched {
			_, outcome, err := s.upsert(ctx, tx, g)
			if err != nil {
				return err
			}
			switch outcome {
			case upsertCreated:
				res.Created++
			case upsertUpdated:
				res.Updated++
			case upsertRestored:
				res.Restored++
			case upsertConflict:
				res.Conflicts++
			}
		}
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	s.log.Info("genre sync finished",
		zap.Int("fetched", res.Fetched), zap.Int("created", res.Created),
		zap.Int("updated", res.Updated), zap.Int("restored", res.Restored),
		zap.Int("deleted", res.Deleted), zap.Int("conflicts", res.Conflicts))
	return res, nil
}

// EnsureGenres 内容入库时使用：只做 upsert，不删除
func (s *GenreService) EnsureGenres(ctx context.Context, tx *repo.Store, genres []tmdb.Genre) ([]int64, error) {
	ids := make([]int64, 0, len(genres))
	for _, g := range genres {
		row, _, err := s.upsert(ctx, tx, g)
		if err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (s *GenreService) upsert(ctx context.Context, tx *repo.Store, pg tmdb.Genre) (*domain.Genre, upsertOutcome, error) {
	name := strings.TrimSpace(pg.Name)
	g, err := tx.Genres().FindByExternalID(ctx, pg.ID)
	if err != nil {
		return nil, upsertUnchanged, dbErr(err)
	}
	var selfID int64
	if g != nil {
		selfID = g.ID
	}
	holder, err := tx.Genres().FindActiveByName(ctx, name, selfID)
	if err != nil {
		return nil, upsertUnchanged, dbErr(err)
	}

	if g == nil {
		// 同名的手工类型直接认领
		if holder != nil && holder.ExternalGenreID == nil {
			ext := pg.ID
			holder.ExternalGenreID = &ext
			holder.Name = name
			if err := tx.Genres().Save(ctx, holder); err != nil {
				return nil, upsertUnchanged, writeErr(err, "genre already exists")
			}
			return holder, upsertUpdated, nil
		}
		if err := s.yieldName(ctx, tx, holder); err != nil {
			return nil, upsertUnchanged, err
		}
		ext := pg.ID
		g = &domain.Genre{ExternalGenreID: &ext, Name: name}
		if err := tx.Genres().Create(ctx, g); err != nil {
			return nil, upsertUnchanged, writeErr(err, "genre already exists")
		}
		return g, upsertCreated, nil
	}

	outcome := upsertUnchanged
	if g.IsDeleted() || g.Name != name {
		if holder != nil && holder.ExternalGenreID == nil {
			s.log.Warn("genre name held by a manual genre, keeping provider genre as is",
				zap.Int64("external_id", pg.ID), zap.String("name", name), zap.Int64("holder_id", holder.ID))
			return g, upsertConflict, nil
		}
		if err := s.yieldName(ctx, tx, holder); err != nil {
			return nil, upsertUnchanged, err
		}
	}
	if g.IsDeleted() {
		g.DeletedAt = nil
		outcome = upsertRestored
	}
	if g.Name != name {
		g.Name = name
		if outcome == upsertUnchanged {
			outcome = upsertUpdated
		}
	}
	if outcome != upsertUnchanged {
		if err := tx.Genres().Save(ctx, g); err != nil {
			return nil, upsertUnchanged, writeErr(err, "genre already exists")
		}
	}
	return g, outcome, nil
}

// yieldName 另一个提供方类型占着这个名字（互换改名等），先给它挂上 "名字 (外部ID)"；
// 它自己的新名字在同一次同步里随后写入
func (s *GenreService) yieldName(ctx context.Context, tx *repo.Store, holder *domain.Genre) error {
	if holder == nil || holder.ExternalGenreID == nil {
		return nil
	}
	holder.Name = fmt.Sprintf("%s (%d)", holder.Name, *holder.ExternalGenreID)
	if err := tx.Genres().Save(ctx, holder); err != nil {
		return writeErr(err, "genre already exists")
	}
	return nil
}

type GenreListQuery struct {
	Keyword     string
	CreatedFrom string
	CreatedTo   string
	Sort        string
	domain.PageQuery
}

func (s *GenreService) List(ctx context.Context, q GenreListQuery) (domain.Page[domain.Genre], error) {
	from, to, err := parseDayRange("createdFrom", q.CreatedFrom, "createdTo", q.CreatedTo)
	if err != nil {
		return domain.Page[domain.Genre]{}, err
	}
	sort, err := parseSort(q.Sort, genreSortFields, domain.SortSpec{Column: "created_at", Desc: true})
	if err != nil {
		return domain.Page[domain.Genre]{}, err
	}
	items, total, err := s.store.Genres().List(ctx, domain.GenreFilter{
		Keyword:     q.Keyword,
		CreatedFrom: from,
		CreatedTo:   to,
		Sort:        sort,
		PageQuery:   q.PageQuery,
	})
	if err != nil {
		return domain.Page[domain.Genre]{}, dbErr(err)
	}
	return domain.NewPage(items, q.PageQuery, total), nil
}

func (s *GenreService) Create(ctx context.Context, name string, externalID *int64) (*domain.Genre, error) {
	name = strings.TrimSpace(name)
	dup, err := s.store.Genres().FindActiveByName(ctx, name, 0)
	if err != nil {
		return nil, dbErr(err)
	}
	if dup != nil {
		return nil, apperr.Duplicate("genre name already exists").WithDetail("genreId", dup.ID)
	}
	if externalID != nil {
		g, err := s.store.Genres().FindByExternalID(ctx, *externalID)
		if err != nil {
			return nil, dbErr(err)
		}
		if g != nil {
			if !g.IsDeleted() {
				return nil, apperr.Duplicate("external genre id already exists").WithDetail("genreId", g.ID)
			}
			g.DeletedAt = nil
			g.Name = name
			if err := s.store.Genres().Save(ctx, g); err != nil {
				return nil, writeErr(err, "genre already exists")
			}
			s.log.Info("genre restored", zap.Int64("genre_id", g.ID))
			return g, nil
		}
	}
	g := &domain.Genre{Name: name, ExternalGenreID: externalID}
	if err := s.store.Genres().Create(ctx, g); err != nil {
		return nil, writeErr(err, "genre already exists")
	}
	return g, nil
}

func (s *GenreService) activeByID(ctx context.Context, id int64) (*domain.Genre, error) {
	g, err := s.store.Genres().FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if g == nil || g.IsDeleted() {
		return nil, apperr.NotFound("genre not found").WithDetail("genreId", id)
	}
	return g, nil
}

func (s *GenreService) Update(ctx context.Context, id int64, name *string, externalID *int64) (*domain.Genre, error) {
	g, err := s.activeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		dup, err := s.store.Genres().FindActiveByName(ctx, n, id)
		if err != nil {
			return nil, dbErr(err)
		}
		if dup != nil {
			return nil, apperr.Duplicate("genre name already exists").WithDetail("genreId", dup.ID)
		}
		g.Name = n
	}
	if externalID != nil {
		other, err := s.store.Genres().FindByExternalID(ctx, *externalID)
		if err != nil {
			return nil, dbErr(err)
		}
		if other != nil && other.ID != id {
			return nil, apperr.Duplicate("external genre id already exists").WithDetail("genreId", other.ID)
		}
		g.ExternalGenreID = externalID
	}
	if err := s.store.Genres().Save(ctx, g); err != nil {
		return nil, writeErr(err, "genre already exists")
	}
	return g, nil
}

func (s *GenreService) Delete(ctx context.Context, id int64) error {
	g, err := s.activeByID(ctx, id)
	if err != nil {
		return err
	}
	now := nowUTC()
	g.DeletedAt = &now
	return dbErr(s.store.Genres().Save(ctx, g))
}
