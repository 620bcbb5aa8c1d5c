package crm

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Scope is the visibility filter for collection reads: always the
// principal's account, optionally narrowed to rows owned by one user.
// It renders to repository select criteria so the engine and the list
// queries share one definition of "visible".
type Scope struct {
	AccountID uuid.UUID
	OwnerID   *uuid.UUID
}

// AccountCriteria filters kinds that carry account_id directly
// (customers, stages, users, deals).
func (s Scope) AccountCriteria() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.account_id = ?", s.AccountID)
	}
}

// DealCriteria narrows deals to the scope, including the owner restriction
// for non-admin principals
func (s Scope) DealCriteria() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("?TableAlias.account_id = ?", s.AccountID)
		if s.OwnerID != nil {
			q = q.Where("?TableAlias.user_id = ?", *s.OwnerID)
		}
		return q
	}
}

// TaskCriteria narrows tasks to the scope. Tasks have no account column;
// account membership is derived by joining the owning deal.
func (s Scope) TaskCriteria() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Join("JOIN deals AS dea ON dea.id = ?TableAlias.deal_id").
			Where("dea.account_id = ?", s.AccountID)
		if s.OwnerID != nil {
			q = q.Where("?TableAlias.user_id = ?", *s.OwnerID)
		}
		return q
	}
}
