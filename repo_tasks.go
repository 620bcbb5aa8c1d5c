package crm

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskFilters are the optional list filters for tasks
type TaskFilters struct {
	Status string
	DealID uuid.UUID
}

func (f TaskFilters) criteria() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if f.Status != "" {
			q = q.Where("?TableAlias.status = ?", f.Status)
		}
		if f.DealID != uuid.Nil {
			q = q.Where("?TableAlias.deal_id = ?", f.DealID)
		}
		return q
	}
}

type Tasks interface {
	repository.Repository[*Task]

	ListScoped(ctx context.Context, scope Scope, filters TaskFilters) ([]*Task, error)
	GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Task, error)
	DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var _ Tasks = (*tasks)(nil)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (r *tasks) Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *tasks) CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	if record != nil {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		if record.Status == "" {
			record.Status = "todo"
		}
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListScoped lists tasks visible inside the scope, joining through deals for
// the account boundary, ordered by due date with unscheduled tasks last
func (r *tasks) ListScoped(ctx context.Context, scope Scope, filters TaskFilters) ([]*Task, error) {
	var records []*Task
	err := r.db.NewSelect().
		Model(&records).
		Apply(scope.TaskCriteria()).
		Apply(filters.criteria()).
		OrderExpr("tsk.due_date ASC NULLS LAST").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetScoped fetches a task by id, constrained to the account through its deal
func (r *tasks) GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Task, error) {
	record := &Task{}
	err := r.db.NewSelect().
		Model(record).
		Join("JOIN deals AS dea ON dea.id = ?TableAlias.deal_id").
		Where("dea.account_id = ?", scope.AccountID).
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

// DeleteScoped removes a task only when its deal is inside the account
func (r *tasks) DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Task)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deal_id IN (SELECT id FROM deals WHERE account_id = ?)", scope.AccountID).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrResourceNotFound
	}

	return nil
}
