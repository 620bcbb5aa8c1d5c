package crm

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InviteUserMessage creates an invited user row inside the admin's account.
// The row carries no credential; the user activates it later with the
// matching email.
type InviteUserMessage struct {
	AccountID  uuid.UUID `json:"account_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	OnResponse func(*User)
}

func (e InviteUserMessage) Type() string { return "user.invite" }

// Validate will run validation rules
func (e InviteUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(
			&e.Role,
			validation.Required,
			validation.In(rolesAsAny()...),
		),
	)
}

type InviteUserHandler struct {
	repo RepositoryManager
}

func NewInviteUserHandler(repo RepositoryManager) *InviteUserHandler {
	return &InviteUserHandler{repo: repo}
}

func (h *InviteUserHandler) Execute(ctx context.Context, event InviteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user invite",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InviteUserHandler) execute(ctx context.Context, event InviteUserMessage) error {
	if err := event.Validate(); err != nil {
		return ValidationError(err)
	}

	if event.AccountID == uuid.Nil {
		return goerrors.New("invite requires an account", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	role, ok := ParseRole(event.Role)
	if !ok {
		return ErrInvalidRole
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var created *User
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return goerrors.New("email already in use", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithMetadata(map[string]any{"email": event.Email})
		} else if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing email")
		}

		user := &User{
			AccountID: event.AccountID,
			Email:     event.Email,
			Name:      event.Name,
			Role:      role,
			Status:    UserStatusInvited,
		}

		var err error
		if created, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create invited user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user invite transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(created)
	}

	return nil
}

func rolesAsAny() []any {
	roles := GetAllRoles()
	out := make([]any, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
