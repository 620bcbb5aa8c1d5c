package crm

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

type Customers interface {
	repository.Repository[*Customer]

	ListScoped(ctx context.Context, scope Scope) ([]*Customer, error)
	GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Customer, error)
	DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error
}

type customers struct {
	repository.Repository[*Customer]
	db *bun.DB
}

var _ Customers = (*customers)(nil)

func NewCustomersRepository(db *bun.DB) Customers {
	repo := repository.NewRepository[*Customer](db, repository.ModelHandlers[*Customer]{
		NewRecord: func() *Customer { return &Customer{} },
		GetID: func(c *Customer) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Customer, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &customers{
		Repository: repo,
		db:         db,
	}
}

func (r *customers) Create(ctx context.Context, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *customers) CreateTx(ctx context.Context, tx bun.IDB, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error) {
	prepareCustomerDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *customers) Update(ctx context.Context, record *Customer, criteria ...repository.UpdateCriteria) (*Customer, error) {
	return r.UpdateTx(ctx, r.db, record, criteria...)
}

func (r *customers) UpdateTx(ctx context.Context, tx bun.IDB, record *Customer, criteria ...repository.UpdateCriteria) (*Customer, error) {
	if record != nil && record.Phone != "" {
		record.Phone = NormalizePhone(record.Phone)
	}
	return r.Repository.UpdateTx(ctx, tx, record, criteria...)
}

func (r *customers) ListScoped(ctx context.Context, scope Scope) ([]*Customer, error) {
	var records []*Customer
	err := r.db.NewSelect().
		Model(&records).
		Apply(scope.AccountCriteria()).
		Order("cst.created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *customers) GetScoped(ctx context.Context, scope Scope, id uuid.UUID) (*Customer, error) {
	record := &Customer{}
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

// DeleteScoped removes a customer only when it belongs to the scope's
// account, the account filter is part of the statement
func (r *customers) DeleteScoped(ctx context.Context, scope Scope, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Customer)(nil)).
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

func prepareCustomerDefaults(record *Customer) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = strings.ToLower(strings.TrimSpace(record.Email))

	if record.Phone != "" {
		record.Phone = NormalizePhone(record.Phone)
	}
}

// NormalizePhone stores numbers in E.164 when they parse, keeping the raw
// input otherwise so sloppy legacy data is not lost
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, "US")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return trimmed
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}
