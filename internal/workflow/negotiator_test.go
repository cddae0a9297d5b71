package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nwestfall/bookforge/internal/api"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

func TestNegotiator_GenerateRejectsWrongFirstVersion(t *testing.T) {
	gw := &stubGateway{
		generateDraft: func(context.Context, string) (*domain.Draft, error) {
			return &domain.Draft{Text: "draft", Version: 4}, nil
		},
	}
	n := NewDraftNegotiator(gw)

	_, err := n.Generate(context.Background(), "sess-1")

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Contains(t, uerr.Err.Error(), "protocol violation")
}

func TestNegotiator_ModifyValidatesInput(t *testing.T) {
	n := NewDraftNegotiator(&stubGateway{})
	draft := &domain.Draft{Text: "draft", Version: 1}

	_, err := n.Modify(context.Background(), "sess-1", nil, "feedback")
	var perr *domain.PreconditionError
	require.ErrorAs(t, err, &perr)

	_, err = n.Modify(context.Background(), "sess-1", draft, "  \n ")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "feedback", verr.Field)
}

func TestNegotiator_ModifyRejectsFrozenDraft(t *testing.T) {
	var gatewayCalled bool
	gw := &stubGateway{
		modifyDraft: func(context.Context, string, string, int) (*domain.Draft, error) {
			gatewayCalled = true
			return nil, nil
		},
	}
	n := NewDraftNegotiator(gw)
	frozen := &domain.Draft{Text: "draft", Version: 3, Validated: true}

	_, err := n.Modify(context.Background(), "sess-1", frozen, "change it")

	require.ErrorIs(t, err, domain.ErrDraftFrozen)
	require.False(t, gatewayCalled, "a frozen draft must never reach the backend")
}

func TestNegotiator_ModifyRejectsVersionJump(t *testing.T) {
	gw := &stubGateway{
		modifyDraft: func(_ context.Context, _, _ string, currentVersion int) (*domain.Draft, error) {
			return &domain.Draft{Text: "draft", Version: currentVersion + 2}, nil
		},
	}
	n := NewDraftNegotiator(gw)

	_, err := n.Modify(context.Background(), "sess-1", &domain.Draft{Version: 1}, "feedback")

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Contains(t, uerr.Err.Error(), "version jumped")
}

func TestNegotiator_ModifyPassesConflictThrough(t *testing.T) {
	gw := &stubGateway{
		modifyDraft: func(_ context.Context, _, _ string, currentVersion int) (*domain.Draft, error) {
			return nil, &domain.ConflictError{SubmittedVersion: currentVersion}
		},
	}
	n := NewDraftNegotiator(gw)

	_, err := n.Modify(context.Background(), "sess-1", &domain.Draft{Version: 2}, "feedback")

	var cerr *domain.ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, 2, cerr.SubmittedVersion)
}

func TestNegotiator_ValidateIsIdempotent(t *testing.T) {
	var calls int
	gw := &stubGateway{
		validateDraft: func(context.Context, string) error {
			calls++
			return nil
		},
	}
	n := NewDraftNegotiator(gw)
	draft := &domain.Draft{Text: "draft", Version: 2}

	frozen, err := n.Validate(context.Background(), "sess-1", draft)
	require.NoError(t, err)
	require.True(t, frozen.Validated)
	require.False(t, draft.Validated, "the input draft must stay untouched")

	again, err := n.Validate(context.Background(), "sess-1", frozen)
	require.NoError(t, err)
	require.Same(t, frozen, again)
	require.Equal(t, 1, calls)
}

func TestNegotiator_ValidateFailureLeavesDraftMutable(t *testing.T) {
	gw := &stubGateway{
		validateDraft: func(context.Context, string) error {
			return &domain.UpstreamError{Op: "draft.validate", Err: errors.New("boom")}
		},
	}
	n := NewDraftNegotiator(gw)
	draft := &domain.Draft{Text: "draft", Version: 2}

	frozen, err := n.Validate(context.Background(), "sess-1", draft)

	require.Error(t, err)
	require.Nil(t, frozen)
	require.False(t, draft.Validated)
}

func TestNegotiator_RefreshReturnsServerDraft(t *testing.T) {
	gw := &stubGateway{
		restoreSession: func(_ context.Context, sessionID string) (*api.SessionSnapshot, error) {
			return &api.SessionSnapshot{
				SessionID:      sessionID,
				CurrentStep:    "draft",
				Draft:          &api.DraftResponse{Title: "T", DraftText: "server copy", Version: 7},
				DraftValidated: true,
			}, nil
		},
	}
	n := NewDraftNegotiator(gw)

	draft, err := n.Refresh(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, 7, draft.Version)
	require.Equal(t, "server copy", draft.Text)
	require.True(t, draft.Validated)
}

func TestNegotiator_RefreshWithoutServerDraft(t *testing.T) {
	gw := &stubGateway{
		restoreSession: func(_ context.Context, sessionID string) (*api.SessionSnapshot, error) {
			return &api.SessionSnapshot{SessionID: sessionID, CurrentStep: "questions"}, nil
		},
	}
	n := NewDraftNegotiator(gw)

	draft, err := n.Refresh(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Nil(t, draft)
}
