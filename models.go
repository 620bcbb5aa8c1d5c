package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus tracks the invitation lifecycle of a user row
type UserStatus = string

const (
	// UserStatusInvited is a row created by an admin invite, it has no
	// credential yet and cannot authenticate
	UserStatusInvited UserStatus = "invited"
	// UserStatusActive is a user with a credential set (or provisioned from
	// an external identity provider)
	UserStatusActive UserStatus = "active"
	// UserStatusArchived is the soft-deleted terminal state
	UserStatusArchived UserStatus = "archived"
)

// Account is the tenant boundary. Every other row belongs to exactly one
// account and no row is ever shared across accounts.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// User is a member of one account. ExternalID links the row to an identity
// provider subject; PasswordHash empty means the user was invited but has not
// activated yet.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	ExternalID    *string    `bun:"external_id,unique,nullzero" json:"external_id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Status        UserStatus `bun:"status" json:"status,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus normalizes legacy rows that predate the status column
func (u *User) EnsureStatus() {
	if u.Status != "" {
		return
	}
	if u.PasswordHash == "" && u.ExternalID == nil {
		u.Status = UserStatusInvited
		return
	}
	u.Status = UserStatusActive
}

// IsActivated reports whether the user finished the invite flow
func (u *User) IsActivated() bool {
	u.EnsureStatus()
	return u.Status == UserStatusActive
}

// Principal returns the minimal authorization context for the user
func (u *User) Principal() Principal {
	return Principal{
		UserID:    u.ID,
		AccountID: u.AccountID,
		Role:      u.Role,
	}
}

// Customer belongs to the account as a whole, not to an individual rep
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:cst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	Phone         string     `bun:"phone" json:"phone,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// DealOutcome is the terminal result of a deal, open deals carry none
type DealOutcome = string

const (
	DealOutcomeWon  DealOutcome = "won"
	DealOutcomeLost DealOutcome = "lost"
)

// Deal is owned by the user that created it; StageID and CustomerID must
// reference rows in the same account.
type Deal struct {
	bun.BaseModel `bun:"table:deals,alias:dea"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CustomerID    uuid.UUID  `bun:"customer_id,notnull,type:uuid" json:"customer_id,omitempty"`
	StageID       uuid.UUID  `bun:"stage_id,notnull,type:uuid" json:"stage_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Amount        float64    `bun:"amount" json:"amount,omitempty"`
	Outcome       *string    `bun:"outcome,nullzero" json:"outcome,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Task has no account column on purpose: its account scope is derived through
// DealID so there is a single source of truth. Every account or ownership
// check on tasks joins through deals.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	DealID        uuid.UUID  `bun:"deal_id,notnull,type:uuid" json:"deal_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Status        string     `bun:"status,notnull,default:'todo'" json:"status,omitempty"`
	DueDate       *time.Time `bun:"due_date,nullzero" json:"due_date,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Stage is an admin-managed lookup table, scoped per account like every other
// entity
type Stage struct {
	bun.BaseModel `bun:"table:stages,alias:stg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	OrderIndex    int        `bun:"order_index" json:"order_index,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
