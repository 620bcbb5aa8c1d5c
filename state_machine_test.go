package crm_test

import (
	"context"
	"testing"

	crm "github.com/goliatone/go-crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserStateMachineActivatesInvitedUser(t *testing.T) {
	repo := &MockUsers{}
	user := &crm.User{
		ID:     uuid.New(),
		Status: crm.UserStatusInvited,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, crm.UserStatusActive).
		Return(&crm.User{ID: user.ID, Status: crm.UserStatusActive}, nil).Once()

	sm := crm.NewUserStateMachine(repo, crm.WithStateMachineLogger(testLogger{}))

	result, err := sm.Transition(context.Background(), crm.ActorRef{ID: "system"}, user, crm.UserStatusActive)
	require.NoError(t, err)
	assert.Equal(t, crm.UserStatusActive, result.Status)
	repo.AssertExpectations(t)
}

func TestUserStateMachineArchivesActiveUser(t *testing.T) {
	repo := &MockUsers{}
	user := &crm.User{
		ID:     uuid.New(),
		Status: crm.UserStatusActive,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, crm.UserStatusArchived).
		Return(&crm.User{ID: user.ID, Status: crm.UserStatusArchived}, nil).Once()

	sm := crm.NewUserStateMachine(repo, crm.WithStateMachineLogger(testLogger{}))

	result, err := sm.Transition(
		context.Background(),
		crm.ActorRef{ID: "admin", Type: "user"},
		user,
		crm.UserStatusArchived,
		crm.WithTransitionReason("user removed by admin"),
	)
	require.NoError(t, err)
	assert.Equal(t, crm.UserStatusArchived, result.Status)
	repo.AssertExpectations(t)
}

func TestUserStateMachineRevokesInvitation(t *testing.T) {
	repo := &MockUsers{}
	user := &crm.User{
		ID:     uuid.New(),
		Status: crm.UserStatusInvited,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, crm.UserStatusArchived).
		Return(&crm.User{ID: user.ID, Status: crm.UserStatusArchived}, nil).Once()

	sm := crm.NewUserStateMachine(repo, crm.WithStateMachineLogger(testLogger{}))

	_, err := sm.Transition(context.Background(), crm.ActorRef{ID: "admin"}, user, crm.UserStatusArchived)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUserStateMachineArchivedIsTerminal(t *testing.T) {
	repo := &MockUsers{}
	user := &crm.User{
		ID:     uuid.New(),
		Status: crm.UserStatusArchived,
	}

	sm := crm.NewUserStateMachine(repo, crm.WithStateMachineLogger(testLogger{}))

	_, err := sm.Transition(context.Background(), crm.ActorRef{ID: "admin"}, user, crm.UserStatusActive)
	require.Error(t, err)
	assert.ErrorIs(t, err, crm.ErrTerminalState)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineRejectsInvalidTransition(t *testing.T) {
	repo := &MockUsers{}
	user := &crm.User{
		ID:     uuid.New(),
		Status: crm.UserStatusActive,
	}

	sm := crm.NewUserStateMachine(repo, crm.WithStateMachineLogger(testLogger{}))

	_, err := sm.Transition(context.Background(), crm.ActorRef{}, user, crm.UserStatusInvited)
	require.Error(t, err)
	assert.ErrorIs(t, err, crm.ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineForceTransitionBypassesValidation(t *testing.T) {
	repo := &MockUsers{}
	user := &crm.User{
		ID:     uuid.New(),
		Status: crm.UserStatusArchived,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, crm.UserStatusActive).
		Return(&crm.User{ID: user.ID, Status: crm.UserStatusActive}, nil).Once()

	sm := crm.NewUserStateMachine(repo, crm.WithStateMachineLogger(testLogger{}))

	result, err := sm.Transition(
		context.Background(),
		crm.ActorRef{ID: "admin"},
		user,
		crm.UserStatusActive,
		crm.WithForceTransition(),
	)
	require.NoError(t, err)
	assert.Equal(t, crm.UserStatusActive, result.Status)
	repo.AssertExpectations(t)
}

func TestUserStateMachineSameStatusIsNoOp(t *testing.T) {
	repo := &MockUsers{}
	user := &crm.User{
		ID:     uuid.New(),
		Status: crm.UserStatusActive,
	}

	sm := crm.NewUserStateMachine(repo, crm.WithStateMachineLogger(testLogger{}))

	result, err := sm.Transition(context.Background(), crm.ActorRef{}, user, crm.UserStatusActive)
	require.NoError(t, err)
	assert.Equal(t, crm.UserStatusActive, result.Status)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCurrentStatusNormalizesLegacyRows(t *testing.T) {
	sm := crm.NewUserStateMachine(&MockUsers{})

	t.Run("no credential reads as invited", func(t *testing.T) {
		status := sm.CurrentStatus(&crm.User{ID: uuid.New()})
		assert.Equal(t, crm.UserStatusInvited, status)
	})

	t.Run("credential reads as active", func(t *testing.T) {
		status := sm.CurrentStatus(&crm.User{ID: uuid.New(), PasswordHash: "hash"})
		assert.Equal(t, crm.UserStatusActive, status)
	})

	t.Run("nil user", func(t *testing.T) {
		assert.Equal(t, crm.UserStatus(""), sm.CurrentStatus(nil))
	})
}
