package crm

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RegisterUserMessage completes an invitation: it attaches a credential to an
// invited row and activates it. There is no open registration; an email
// without an invited row is rejected.
type RegisterUserMessage struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	OnResponse func(*User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(10, 100)),
	)
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		hasher: NewBcryptHasher(0),
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return ValidationError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var activated *User
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrUserNotInvited
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up invitation")
		}

		user.EnsureStatus()
		switch user.Status {
		case UserStatusActive:
			return ErrUserAlreadyActive
		case UserStatusArchived:
			return ErrUserNotInvited
		}

		hash, err := h.hasher.HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		record := &User{
			ID:           user.ID,
			PasswordHash: hash,
			Status:       UserStatusActive,
		}
		if event.Name != "" {
			record.Name = event.Name
		}

		activated, err = h.repo.Users().UpdateTx(ctx, tx, record, repository.UpdateByID(user.ID.String()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not activate user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(activated)
	}

	return nil
}
