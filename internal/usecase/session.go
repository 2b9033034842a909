package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// errNotResolved stops a pipeline when the short code does not resolve to a URL.
var errNotResolved = errors.New("short code not resolved")

type UpdateKind int

const (
	// UpdateURL persists only the URL record.
	UpdateURL UpdateKind = iota + 1
	// UpdateVisit persists the URL record and a new visit for it.
	UpdateVisit
)

// Session holds the state of a single request as it moves through a pipeline.
// A Session must not be shared between requests.
type Session struct {
	shortener *Shortener
	expander  *Expander

	shortenReq *ShortenRequest
	expandReq  *ExpandRequest
	url        *entity.URL
}

func NewSession(shortener *Shortener, expander *Expander) *Session {
	return &Session{
		shortener: shortener,
		expander:  expander,
	}
}

// URL returns the record the session currently works on, if any.
func (s *Session) URL() *entity.URL {
	return s.url
}

func (s *Session) SetShortenRequest(req *ShortenRequest) error {
	const op = "usecase.Session.SetShortenRequest"

	if req == nil {
		return invalidArgument(op, "request is nil")
	}
	s.shortenReq = req
	return nil
}

func (s *Session) SetExpandRequest(req *ExpandRequest) error {
	const op = "usecase.Session.SetExpandRequest"

	if req == nil {
		return invalidArgument(op, "request is nil")
	}
	s.expandReq = req
	return nil
}

func (s *Session) Validate(ctx context.Context) error {
	const op = "usecase.Session.Validate"

	if err := s.shortener.Validate(ctx, s.shortenReq); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Session) Shorten(ctx context.Context) error {
	const op = "usecase.Session.Shorten"

	u, err := s.shortener.Shorten(ctx, s.shortenReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.url = u
	return nil
}

// Expand resolves the request's short code. It returns errNotResolved when
// the code is unknown so that the remaining stages are skipped.
func (s *Session) Expand(ctx context.Context) error {
	const op = "usecase.Session.Expand"

	u, err := s.expander.Expand(ctx, s.expandReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if u == nil {
		return errNotResolved
	}
	s.url = u
	return nil
}

// Load resolves an existing URL by code without touching its hit counter.
func (s *Session) Load(ctx context.Context, shortCode string) error {
	if err := s.SetExpandRequest(&ExpandRequest{ShortCode: shortCode}); err != nil {
		return err
	}
	return s.Expand(ctx)
}

// Apply copies the non-empty fields of req onto the loaded URL.
func (s *Session) Apply(req ModifyRequest) error {
	const op = "usecase.Session.Apply"

	if s.url == nil {
		return invalidArgument(op, "no url in session")
	}

	if req.Original != "" {
		if err := checkAbsoluteURL(op, req.Original); err != nil {
			return err
		}
		s.url.OriginalURL = req.Original
	}
	if req.Title != nil {
		s.url.Title = *req.Title
	}
	if req.Description != nil {
		s.url.Description = *req.Description
	}
	if req.CoOwners != nil {
		s.url.CoOwners = append([]string(nil), req.CoOwners...)
	}

	return nil
}

// AddHitCount increments the in-memory hit counter. It does not persist.
func (s *Session) AddHitCount() error {
	const op = "usecase.Session.AddHitCount"

	if s.url == nil {
		return invalidArgument(op, "no url in session")
	}
	s.url.AddHit()
	return nil
}

// CreateRecord assigns id, stamps both dates with now and persists the new URL once.
func (s *Session) CreateRecord(ctx context.Context, now time.Time, id uuid.UUID) error {
	const op = "usecase.Session.CreateRecord"

	if s.url == nil {
		return invalidArgument(op, "no url in session")
	}

	if err := s.url.SetID(id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.url.SetDateGenerated(now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.url.SetDateUpdated(now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.shortener.Upsert(ctx, s.url); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateRecord stamps dateUpdated with now and persists the URL. With
// UpdateVisit it also persists a visit with id visitID built from the expand request.
func (s *Session) UpdateRecord(ctx context.Context, kind UpdateKind, now time.Time, visitID *uuid.UUID) error {
	const op = "usecase.Session.UpdateRecord"

	if s.url == nil {
		return invalidArgument(op, "no url in session")
	}

	switch kind {
	case UpdateURL:
		if err := s.url.SetDateUpdated(now); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.shortener.Upsert(ctx, s.url); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil

	case UpdateVisit:
		if visitID == nil {
			return invalidArgument(op, "visit id is required")
		}

		visit, err := s.newVisit(now, *visitID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.url.SetDateUpdated(now); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.expander.RecordVisit(ctx, s.url, visit); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil

	default:
		return invalidArgument(op, "unknown update kind %d", kind)
	}
}

func (s *Session) newVisit(now time.Time, id uuid.UUID) (*entity.Visit, error) {
	v := entity.NewVisit()
	if err := v.SetID(id); err != nil {
		return nil, err
	}
	if err := v.SetURLID(s.url.ID()); err != nil {
		return nil, err
	}
	if err := v.SetDateGenerated(now); err != nil {
		return nil, err
	}

	v.ShortCode = s.url.ShortCode
	if s.expandReq != nil {
		v.RequestHeaders = entity.Headers(s.expandReq.Headers)
		v.RequestQueries = s.expandReq.Queries
	}

	return v, nil
}
