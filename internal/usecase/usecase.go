package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

// Query reads records from the document store.
type Query interface {
	// GetURLByCode returns nil and no error when no URL uses the code.
	GetURLByCode(ctx context.Context, code string) (*entity.URL, error)
	GetURLsByOwner(ctx context.Context, owner string) ([]*entity.URL, error)
	GetVisitsByCode(ctx context.Context, code string) ([]*entity.Visit, error)
}

// Command writes records to the document store. Upsert returns an HTTP-style status code.
type Command interface {
	Upsert(ctx context.Context, doc entity.Document) (int, error)
}

type CodeGenerator interface {
	Generate(length int) (string, error)
}

// Settings configures how short codes are generated and published.
type Settings struct {
	Scheme     string
	Hostname   string
	CodeLength int
	// MaxRetries caps the number of generated codes tried per request. Zero means no cap.
	MaxRetries int
}

// ShortenedURL builds the public short link for code.
func (s Settings) ShortenedURL(code string) string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.Trim(s.Hostname, "/"), code)
}

type ShortenRequest struct {
	Original    string
	Owner       string
	Friendly    string
	Title       string
	Description string
	CoOwners    []string
}

// FriendlyCode returns the requested code with trailing slashes removed.
// A blank value yields an empty code.
func (r *ShortenRequest) FriendlyCode() string {
	if strings.TrimSpace(r.Friendly) == "" {
		return ""
	}
	return strings.TrimRight(r.Friendly, "/")
}

type ExpandRequest struct {
	ShortCode string
	Headers   map[string][]string
	Queries   map[string][]string
}

// ModifyRequest carries the fields to change on an existing URL. Empty or nil fields are kept.
type ModifyRequest struct {
	Original    string
	Title       *string
	Description *string
	CoOwners    []string
}

func invalidArgument(op, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", op, fmt.Sprintf(format, args...), entity.ErrInvalidArgument)
}

func checkAbsoluteURL(op, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return invalidArgument(op, "original url %q is not absolute", raw)
	}
	return nil
}

// persist upserts doc and turns a failed or non-2xx write into a PersistenceError.
func persist(ctx context.Context, command Command, doc entity.Document) error {
	const op = "usecase.persist"

	status, err := command.Upsert(ctx, doc)
	if err != nil {
		var (
			pErr *entity.PersistenceError
			sErr *entity.SerializationError
		)
		if errors.As(err, &pErr) || errors.As(err, &sErr) || errors.Is(err, entity.ErrInvalidArgument) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w", op, &entity.PersistenceError{StatusCode: http.StatusInternalServerError, Err: err})
	}

	if status < 200 || status > 299 {
		return fmt.Errorf("%s: %w", op, &entity.PersistenceError{StatusCode: status})
	}

	return nil
}

type stage func(ctx context.Context) error

// runPipeline runs stages in order and stops at the first failure.
func runPipeline(ctx context.Context, stages ...stage) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st(ctx); err != nil {
			return err
		}
	}
	return nil
}

type Option func(*URLUseCase)

func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(uc *URLUseCase) {
		uc.newID = newID
	}
}

// URLUseCase drives per-request sessions through the shorten, expand and modify pipelines.
type URLUseCase struct {
	settings  Settings
	query     Query
	shortener *Shortener
	expander  *Expander
	now       func() time.Time
	newID     func() uuid.UUID
}

func NewURLUseCase(settings Settings, query Query, command Command, codeGen CodeGenerator, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		settings:  settings,
		query:     query,
		shortener: NewShortener(settings, query, command, codeGen),
		expander:  NewExpander(settings, query, command),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) newSession() *Session {
	return NewSession(uc.shortener, uc.expander)
}

func (uc *URLUseCase) ShortenURL(ctx context.Context, req ShortenRequest) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	s := uc.newSession()

	err := runPipeline(ctx,
		func(context.Context) error { return s.SetShortenRequest(&req) },
		s.Validate,
		s.Shorten,
		func(ctx context.Context) error { return s.CreateRecord(ctx, uc.now(), uc.newID()) },
	)
	if err != nil {
		return nil, pkgerrors.WithStack(fmt.Errorf("%s: failed to shorten url: %w", op, err))
	}

	return s.URL(), nil
}

// ExpandURL resolves a short code, counts the hit and records the visit.
// It returns nil and no error when the code is unknown.
func (uc *URLUseCase) ExpandURL(ctx context.Context, req ExpandRequest) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ExpandURL"

	s := uc.newSession()

	err := runPipeline(ctx,
		func(context.Context) error { return s.SetExpandRequest(&req) },
		s.Expand,
		func(context.Context) error { return s.AddHitCount() },
		func(ctx context.Context) error {
			visitID := uc.newID()
			return s.UpdateRecord(ctx, UpdateVisit, uc.now(), &visitID)
		},
	)
	if err != nil {
		if errors.Is(err, errNotResolved) {
			return nil, nil
		}
		return nil, pkgerrors.WithStack(fmt.Errorf("%s: failed to expand short code: %w", op, err))
	}

	return s.URL(), nil
}

func (uc *URLUseCase) ModifyURL(ctx context.Context, shortCode string, req ModifyRequest) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ModifyURL"

	s := uc.newSession()

	err := runPipeline(ctx,
		func(ctx context.Context) error { return s.Load(ctx, shortCode) },
		func(context.Context) error { return s.Apply(req) },
		func(ctx context.Context) error { return s.UpdateRecord(ctx, UpdateURL, uc.now(), nil) },
	)
	if err != nil {
		if errors.Is(err, errNotResolved) {
			return nil, pkgerrors.WithStack(fmt.Errorf("%s: %w", op, entity.ErrURLNotFound))
		}
		return nil, pkgerrors.WithStack(fmt.Errorf("%s: failed to modify url: %w", op, err))
	}

	return s.URL(), nil
}

func (uc *URLUseCase) ListURLs(ctx context.Context, owner string) ([]*entity.URL, error) {
	const op = "usecase.URLUseCase.ListURLs"

	if strings.TrimSpace(owner) == "" {
		return nil, pkgerrors.WithStack(invalidArgument(op, "owner is empty"))
	}

	urls, err := uc.query.GetURLsByOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.WithStack(fmt.Errorf("%s: failed to list urls: %w", op, err))
	}

	for _, u := range urls {
		u.Shortened = uc.settings.ShortenedURL(u.ShortCode)
	}

	return urls, nil
}

func (uc *URLUseCase) ListVisits(ctx context.Context, shortCode string) ([]*entity.Visit, error) {
	const op = "usecase.URLUseCase.ListVisits"

	if shortCode == "" {
		return nil, pkgerrors.WithStack(invalidArgument(op, "short code is empty"))
	}

	visits, err := uc.query.GetVisitsByCode(ctx, shortCode)
	if err != nil {
		return nil, pkgerrors.WithStack(fmt.Errorf("%s: failed to list visits: %w", op, err))
	}

	return visits, nil
}
