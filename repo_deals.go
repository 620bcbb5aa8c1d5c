package crm

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DealFilters are the optional list filters. Zero values mean no filter.
type DealFilters struct {
	StageID  uuid.UUID
	Outcome  string
	OpenOnly bool
}

func (f DealFilters) criteria() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if f.StageID != uuid.Nil {
			q = q.Where("?TableAlias.stage_id = ?", f.StageID)
		}
		if f.Outcome != "" {
			q = q.Where("?TableAlias.outcome = ?", f.Outcome)
		}
		if f.OpenOnly {
			q = q.Where("?TableAlias.outcome IS NULL")
		}
		return q
	}
}

type Deals interface {
	repository.Repository[*Deal]

	ListScoped(ctx context.Context, scope Scope, filters DealFilters) ([]*Deal, error)
	GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Deal, error)
	DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error
}

type deals struct {
	repository.Repository[*Deal]
	db *bun.DB
}

var _ Deals = (*deals)(nil)

func NewDealsRepository(db *bun.DB) Deals {
	repo := repository.NewRepository[*Deal](db, repository.ModelHandlers[*Deal]{
		NewRecord: func() *Deal { return &Deal{} },
		GetID: func(d *Deal) uuid.UUID {
			if d == nil {
				return uuid.Nil
			}
			return d.ID
		},
		SetID: func(d *Deal, id uuid.UUID) {
			if d != nil {
				d.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &deals{
		Repository: repo,
		db:         db,
	}
}

func (r *deals) Create(ctx context.Context, record *Deal, criteria ...repository.InsertCriteria) (*Deal, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *deals) CreateTx(ctx context.Context, tx bun.IDB, record *Deal, criteria ...repository.InsertCriteria) (*Deal, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListScoped returns the deals visible inside the scope. The owner filter in
// the scope is what keeps sales reps from listing each other's deals.
func (r *deals) ListScoped(ctx context.Context, scope Scope, filters DealFilters) ([]*Deal, error) {
	var records []*Deal
	err := r.db.NewSelect().
		Model(&records).
		Apply(scope.DealCriteria()).
		Apply(filters.criteria()).
		Order("dea.created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetScoped fetches a deal by id inside the account. The owner filter is not
// applied here: read denial for non-owned rows is an ownership decision the
// authorizer makes, not a scope decision.
func (r *deals) GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Deal, error) {
	record := &Deal{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", scope.AccountID).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *deals) DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Deal)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.account_id = ?", scope.AccountID).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrResourceNotFound
	}

	return nil
}
