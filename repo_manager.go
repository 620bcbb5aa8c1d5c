package crm

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories. It also implements the
// ResourceStore probes for the authorizer and the IdentityStore surface for
// the resolver, so the whole data layer hangs off one value.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	ResourceStore
	IdentityStore

	Accounts() Accounts
	Users() Users
	Customers() Customers
	Deals() Deals
	Stages() Stages
	Tasks() Tasks
}

type mngr struct {
	db        *bun.DB
	accounts  Accounts
	users     Users
	customers Customers
	deals     Deals
	stages    Stages
	tasks     Tasks
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:        db,
		accounts:  NewAccountsRepository(db),
		users:     NewUsersRepository(db),
		customers: NewCustomersRepository(db),
		deals:     NewDealsRepository(db),
		stages:    NewStagesRepository(db),
		tasks:     NewTasksRepository(db),
	}
}

func (m *mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.customers == nil {
		return errors.New("repository customers should be initialized")
	}

	if m.deals == nil {
		return errors.New("repository deals should be initialized")
	}

	if m.stages == nil {
		return errors.New("repository stages should be initialized")
	}

	if m.tasks == nil {
		return errors.New("repository tasks should be initialized")
	}

	return nil
}

func (m *mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *mngr) Accounts() Accounts   { return m.accounts }
func (m *mngr) Users() Users         { return m.users }
func (m *mngr) Customers() Customers { return m.customers }
func (m *mngr) Deals() Deals         { return m.deals }
func (m *mngr) Stages() Stages       { return m.stages }
func (m *mngr) Tasks() Tasks         { return m.tasks }

// Probe implements ResourceStore with one account-filtered lookup per kind.
// Tasks derive account membership by joining their deal; everything else
// carries account_id directly. A row outside the account reads as not found.
func (m *mngr) Probe(ctx context.Context, kind ResourceKind, accountID, id uuid.UUID) (ResourceProbe, error) {
	if id == uuid.Nil {
		return ResourceProbe{}, nil
	}

	switch kind {
	case KindDeal:
		var ownerID uuid.UUID
		err := m.db.NewSelect().
			Model((*Deal)(nil)).
			Column("dea.user_id").
			Where("dea.id = ?", id).
			Where("dea.account_id = ?", accountID).
			Limit(1).
			Scan(ctx, &ownerID)
		return probeResult(ownerID, err)

	case KindTask:
		var ownerID uuid.UUID
		err := m.db.NewSelect().
			Model((*Task)(nil)).
			Column("tsk.user_id").
			Join("JOIN deals AS dea ON dea.id = tsk.deal_id").
			Where("tsk.id = ?", id).
			Where("dea.account_id = ?", accountID).
			Limit(1).
			Scan(ctx, &ownerID)
		return probeResult(ownerID, err)

	case KindCustomer:
		return m.probeByAccount(ctx, (*Customer)(nil), "cst", accountID, id)

	case KindStage:
		return m.probeByAccount(ctx, (*Stage)(nil), "stg", accountID, id)

	case KindUser:
		return m.probeByAccount(ctx, (*User)(nil), "usr", accountID, id)

	default:
		return ResourceProbe{}, nil
	}
}

func (m *mngr) probeByAccount(ctx context.Context, model any, alias string, accountID, id uuid.UUID) (ResourceProbe, error) {
	exists, err := m.db.NewSelect().
		Model(model).
		Where(alias+".id = ?", id).
		Where(alias+".account_id = ?", accountID).
		Exists(ctx)

	if err != nil {
		return ResourceProbe{}, err
	}

	return ResourceProbe{Found: exists}, nil
}

func probeResult(ownerID uuid.UUID, err error) (ResourceProbe, error) {
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return ResourceProbe{}, nil
		}
		return ResourceProbe{}, err
	}
	return ResourceProbe{Found: true, OwnerID: ownerID}, nil
}

// GetUserByID implements IdentityStore
func (m *mngr) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return m.users.GetByID(ctx, id.String())
}

// GetUserByExternalID implements IdentityStore
func (m *mngr) GetUserByExternalID(ctx context.Context, externalID string) (*User, error) {
	return m.users.GetByExternalID(ctx, externalID)
}

// GetUserByEmail implements IdentityStore
func (m *mngr) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return m.users.GetByEmail(ctx, email)
}

// ProvisionSubject creates the account and its first user atomically
func (m *mngr) ProvisionSubject(ctx context.Context, account *Account, user *User) (*User, error) {
	var created *User

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	err := m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acct, err := m.accounts.CreateTx(ctx, tx, account)
		if err != nil {
			return err
		}

		user.AccountID = acct.ID
		created, err = m.users.CreateTx(ctx, tx, user)
		return err
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}
