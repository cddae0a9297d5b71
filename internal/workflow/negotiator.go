package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nwestfall/bookforge/internal/api"
	"github.com/nwestfall/bookforge/internal/log"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// DraftNegotiator runs the iterative draft loop: generate a first
// version, fold user feedback into successive versions, and finally
// freeze the draft by validating it. Version numbers are the negotiation
// protocol; the negotiator rejects any server response that breaks the
// increment-by-one contract instead of silently accepting it.
type DraftNegotiator struct {
	gateway api.Gateway
}

// NewDraftNegotiator creates a negotiator over the given gateway.
func NewDraftNegotiator(gateway api.Gateway) *DraftNegotiator {
	return &DraftNegotiator{gateway: gateway}
}

// Generate produces the first draft for the session. The backend must
// answer with version 1.
func (n *DraftNegotiator) Generate(ctx context.Context, sessionID string) (*domain.Draft, error) {
	draft, err := n.gateway.GenerateDraft(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if draft.Version != 1 {
		return nil, &domain.UpstreamError{
			Op:  "draft.generate",
			Err: fmt.Errorf("protocol violation: first draft arrived as version %d, want 1", draft.Version),
		}
	}
	log.Debug(log.CatWorkflow, "Draft generated", "session", sessionID, "version", draft.Version)
	return draft, nil
}

// Modify submits feedback against the current draft and returns the next
// version. Feedback must be non-empty, the draft must exist and must not
// be validated, and the response version must be exactly current+1.
// A *domain.ConflictError passes through untouched so the caller can
// refresh and let the user retry.
func (n *DraftNegotiator) Modify(ctx context.Context, sessionID string, current *domain.Draft, feedback string) (*domain.Draft, error) {
	if current == nil {
		return nil, &domain.PreconditionError{Op: "draft.modify", Missing: "a generated draft"}
	}
	if current.Validated {
		return nil, domain.ErrDraftFrozen
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, &domain.ValidationError{Field: "feedback", Reason: "feedback must not be empty"}
	}

	next, err := n.gateway.ModifyDraft(ctx, sessionID, feedback, current.Version)
	if err != nil {
		return nil, err
	}
	if next.Version != current.Version+1 {
		return nil, &domain.UpstreamError{
			Op:  "draft.modify",
			Err: fmt.Errorf("protocol violation: version jumped from %d to %d", current.Version, next.Version),
		}
	}
	log.Debug(log.CatWorkflow, "Draft modified", "session", sessionID, "version", next.Version)
	return next, nil
}

// Validate freezes the draft and returns the frozen copy. The input is
// never mutated; the caller decides when to publish the frozen draft.
// Validating an already-validated draft is a no-op, which keeps the
// outline-retry path idempotent.
func (n *DraftNegotiator) Validate(ctx context.Context, sessionID string, draft *domain.Draft) (*domain.Draft, error) {
	if draft == nil {
		return nil, &domain.PreconditionError{Op: "draft.validate", Missing: "a generated draft"}
	}
	if draft.Validated {
		return draft, nil
	}
	if err := n.gateway.ValidateDraft(ctx, sessionID); err != nil {
		return nil, err
	}
	frozen := *draft
	frozen.Validated = true
	log.Info(log.CatWorkflow, "Draft validated", "session", sessionID, "version", frozen.Version)
	return &frozen, nil
}

// Refresh fetches the backend's authoritative draft after a version
// conflict. Returns nil if the backend holds no draft for the session.
func (n *DraftNegotiator) Refresh(ctx context.Context, sessionID string) (*domain.Draft, error) {
	snap, err := n.gateway.RestoreSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snap.Draft == nil {
		return nil, nil
	}
	return &domain.Draft{
		Title:     snap.Draft.Title,
		Text:      snap.Draft.DraftText,
		Version:   snap.Draft.Version,
		Validated: snap.DraftValidated,
	}, nil
}
