package crm

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Stages interface {
	repository.Repository[*Stage]

	ListScoped(ctx context.Context, scope Scope) ([]*Stage, error)
	GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Stage, error)
	DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error
}

type stages struct {
	repository.Repository[*Stage]
	db *bun.DB
}

var _ Stages = (*stages)(nil)

func NewStagesRepository(db *bun.DB) Stages {
	repo := repository.NewRepository[*Stage](db, repository.ModelHandlers[*Stage]{
		NewRecord: func() *Stage { return &Stage{} },
		GetID: func(s *Stage) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Stage, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &stages{
		Repository: repo,
		db:         db,
	}
}

func (r *stages) Create(ctx context.Context, record *Stage, criteria ...repository.InsertCriteria) (*Stage, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *stages) CreateTx(ctx context.Context, tx bun.IDB, record *Stage, criteria ...repository.InsertCriteria) (*Stage, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListScoped returns the account's pipeline ordered by position
func (r *stages) ListScoped(ctx context.Context, scope Scope) ([]*Stage, error) {
	var records []*Stage
	err := r.db.NewSelect().
		Model(&records).
		Apply(scope.AccountCriteria()).
		Order("stg.order_index ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *stages) GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Stage, error) {
	record := &Stage{}
	err := r.db.NewSelect().
		Model(record).
		Apply(scope.AccountCriteria()).
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

func (r *stages) DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Stage)(nil)).
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
