// Package api provides the typed HTTP client for the book-writing service.
// The orchestrator depends only on the Gateway interface and the domain
// error contract; everything wire-level stays inside this package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nwestfall/bookforge/internal/log"
	"github.com/nwestfall/bookforge/internal/workflow/domain"
)

// configCacheKey is the go-cache key for the /config response.
const configCacheKey = "service-config"

// configCacheTTL bounds how long a fetched /config is reused.
const configCacheTTL = 5 * time.Minute

// Gateway is the request/response surface the orchestrator consumes.
// One method per workflow phase call.
type Gateway interface {
	FetchConfig(ctx context.Context) (*ServiceConfig, error)
	SubmitForm(ctx context.Context, payload domain.FormPayload) error
	GenerateQuestions(ctx context.Context, payload domain.FormPayload) (string, []domain.Question, error)
	SubmitAnswers(ctx context.Context, sessionID string, answers []domain.QuestionAnswer) error
	GenerateDraft(ctx context.Context, sessionID string) (*domain.Draft, error)
	ModifyDraft(ctx context.Context, sessionID, feedback string, currentVersion int) (*domain.Draft, error)
	ValidateDraft(ctx context.Context, sessionID string) error
	GenerateOutline(ctx context.Context, sessionID string) (string, error)
	UpdateOutline(ctx context.Context, sessionID, outlineText string) (string, error)
	StartBookGeneration(ctx context.Context, sessionID string) error
	FetchProgress(ctx context.Context, sessionID string) (*domain.Progress, error)
	RestoreSession(ctx context.Context, sessionID string) (*SessionSnapshot, error)
}

// Client implements Gateway over net/http.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *gocache.Cache
	tracer  trace.Tracer
}

// Ensure Client implements Gateway.
var _ Gateway = (*Client)(nil)

// NewClient creates a gateway client for the given base URL. The supplied
// http.Client may carry its own transport-level timeout; per-phase
// deadlines are enforced by the caller through ctx.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		cache:   gocache.New(configCacheTTL, 10*time.Minute),
		tracer:  otel.Tracer("bookforge/api"),
	}
}

// FetchConfig returns the service configuration, serving from a TTL cache
// when a recent copy exists.
func (c *Client) FetchConfig(ctx context.Context) (*ServiceConfig, error) {
	if cached, ok := c.cache.Get(configCacheKey); ok {
		cfg := cached.(ServiceConfig)
		return &cfg, nil
	}

	var cfg ServiceConfig
	if err := c.do(ctx, "config.fetch", http.MethodPost, "/config", struct{}{}, &cfg); err != nil {
		return nil, err
	}
	c.cache.Set(configCacheKey, cfg, gocache.DefaultExpiration)
	return &cfg, nil
}

// SubmitForm validates the payload server-side via POST /submissions.
func (c *Client) SubmitForm(ctx context.Context, payload domain.FormPayload) error {
	req := SubmissionRequest{
		LLMModel:   payload.LLMModel,
		Plot:       payload.Plot,
		Attributes: payload.Attributes,
	}
	// The backend echoes the payload; nothing in it is needed locally.
	return c.do(ctx, "submissions.create", http.MethodPost, "/submissions", req, nil)
}

// GenerateQuestions asks the backend for clarifying questions. This is the
// sole issuer of the session id.
func (c *Client) GenerateQuestions(ctx context.Context, payload domain.FormPayload) (string, []domain.Question, error) {
	req := SubmissionRequest{
		LLMModel:   payload.LLMModel,
		Plot:       payload.Plot,
		Attributes: payload.Attributes,
	}
	var resp QuestionsResponse
	if err := c.do(ctx, "questions.generate", http.MethodPost, "/questions/generate", req, &resp); err != nil {
		return "", nil, err
	}
	questions := make([]domain.Question, len(resp.Questions))
	for i, q := range resp.Questions {
		questions[i] = domain.Question{ID: q.ID, Text: q.Text}
	}
	return resp.SessionID, questions, nil
}

// SubmitAnswers records the user's answers. Skipped questions are sent
// without an answer field.
func (c *Client) SubmitAnswers(ctx context.Context, sessionID string, answers []domain.QuestionAnswer) error {
	req := AnswersRequest{SessionID: sessionID, Answers: make([]Answer, len(answers))}
	for i, a := range answers {
		req.Answers[i] = Answer{QuestionID: a.QuestionID, Answer: a.Answer}
	}
	return c.do(ctx, "questions.answers", http.MethodPost, "/questions/answers", req, nil)
}

// GenerateDraft produces the first extended draft (version 1).
func (c *Client) GenerateDraft(ctx context.Context, sessionID string) (*domain.Draft, error) {
	var resp DraftResponse
	if err := c.do(ctx, "draft.generate", http.MethodPost, "/draft/generate", DraftRequest{SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	return &domain.Draft{Title: resp.Title, Text: resp.DraftText, Version: resp.Version}, nil
}

// ModifyDraft submits feedback against the current version. A 409 from the
// backend is mapped to domain.ConflictError.
func (c *Client) ModifyDraft(ctx context.Context, sessionID, feedback string, currentVersion int) (*domain.Draft, error) {
	req := DraftModifyRequest{SessionID: sessionID, UserFeedback: feedback, CurrentVersion: currentVersion}
	var resp DraftResponse
	if err := c.do(ctx, "draft.modify", http.MethodPost, "/draft/modify", req, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusConflict {
			return nil, &domain.ConflictError{SubmittedVersion: currentVersion}
		}
		return nil, err
	}
	return &domain.Draft{Title: resp.Title, Text: resp.DraftText, Version: resp.Version}, nil
}

// ValidateDraft freezes the draft server-side.
func (c *Client) ValidateDraft(ctx context.Context, sessionID string) error {
	return c.do(ctx, "draft.validate", http.MethodPost, "/draft/validate", DraftRequest{SessionID: sessionID}, nil)
}

// GenerateOutline produces the markdown outline for a validated draft.
func (c *Client) GenerateOutline(ctx context.Context, sessionID string) (string, error) {
	var resp OutlineResponse
	if err := c.do(ctx, "outline.generate", http.MethodPost, "/outline/generate", OutlineRequest{SessionID: sessionID}, &resp); err != nil {
		return "", err
	}
	return resp.OutlineText, nil
}

// UpdateOutline replaces the outline wholesale with edited text.
func (c *Client) UpdateOutline(ctx context.Context, sessionID, outlineText string) (string, error) {
	req := OutlineUpdateRequest{SessionID: sessionID, OutlineText: outlineText}
	var resp OutlineResponse
	if err := c.do(ctx, "outline.update", http.MethodPost, "/outline/update", req, &resp); err != nil {
		return "", err
	}
	return resp.OutlineText, nil
}

// StartBookGeneration kicks off the server-side writing job. The response
// is an acknowledgement only.
func (c *Client) StartBookGeneration(ctx context.Context, sessionID string) error {
	return c.do(ctx, "book.generate", http.MethodPost, "/book/generate", BookGenerateRequest{SessionID: sessionID}, nil)
}

// FetchProgress returns the current writing-job progress snapshot.
func (c *Client) FetchProgress(ctx context.Context, sessionID string) (*domain.Progress, error) {
	var resp ProgressResponse
	if err := c.do(ctx, "book.progress", http.MethodGet, "/book/progress/"+sessionID, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.Progress{
		Status:            domain.JobStatus(resp.Status),
		CurrentStep:       resp.CurrentStep,
		TotalSteps:        resp.TotalSteps,
		CompletedChapters: resp.CompletedChapters,
		IsComplete:        resp.IsComplete,
		Error:             resp.Error,
	}, nil
}

// RestoreSession fetches the backend's authoritative view of a session.
// A 404 is mapped to domain.SessionNotFoundError so restoration can
// distinguish an expired session from a transport failure.
func (c *Client) RestoreSession(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	var snap SessionSnapshot
	if err := c.do(ctx, "sessions.restore", http.MethodGet, "/sessions/"+sessionID, nil, &snap); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			return nil, &domain.SessionNotFoundError{SessionID: sessionID}
		}
		return nil, err
	}
	return &snap, nil
}

// statusError carries a non-2xx response through error mapping. It is
// always wrapped in a domain.UpstreamError before leaving this package;
// methods that need the status code unwrap it with errors.As.
type statusError struct {
	status int
	body   APIError
}

// Error implements the error interface.
func (e *statusError) Error() string {
	if e.body.Error != "" {
		return fmt.Sprintf("backend returned %d: %s", e.status, e.body.Error)
	}
	return fmt.Sprintf("backend returned %d", e.status)
}

// do executes one JSON request/response round trip. All failures are
// returned as *domain.UpstreamError; non-2xx statuses additionally wrap a
// *statusError so callers can branch on the code.
func (c *Client) do(ctx context.Context, op, method, path string, reqBody, respBody any) error {
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	defer span.End()

	var body *bytes.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return &domain.UpstreamError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return &domain.UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatAPI, "Backend call failed", "op", op, "timeout", timeout, "error", err)
		return &domain.UpstreamError{Op: op, Timeout: timeout, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &statusError{status: resp.StatusCode}
		// Error envelope decode is best-effort; some proxies return HTML.
		_ = json.NewDecoder(resp.Body).Decode(&se.body)
		span.SetStatus(codes.Error, se.Error())
		log.Warn(log.CatAPI, "Backend returned error status", "op", op, "status", resp.StatusCode, "message", se.body.Error)
		return &domain.UpstreamError{Op: op, Err: se}
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return &domain.UpstreamError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}

	log.Debug(log.CatAPI, "Backend call succeeded", "op", op, "status", resp.StatusCode)
	return nil
}
