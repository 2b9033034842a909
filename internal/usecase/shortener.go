package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// Shortener turns shorten requests into unsaved URL records with a free short code.
type Shortener struct {
	settings Settings
	query    Query
	command  Command
	codeGen  CodeGenerator
}

func NewShortener(settings Settings, query Query, command Command, codeGen CodeGenerator) *Shortener {
	return &Shortener{
		settings: settings,
		query:    query,
		command:  command,
		codeGen:  codeGen,
	}
}

// Shorten builds a URL record for req. A friendly code is used as is and is
// expected to have passed Validate; otherwise codes are generated until one is free.
// The record has no id or dates yet.
func (s *Shortener) Shorten(ctx context.Context, req *ShortenRequest) (*entity.URL, error) {
	const op = "usecase.Shortener.Shorten"

	if req == nil {
		return nil, invalidArgument(op, "request is nil")
	}
	if err := checkAbsoluteURL(op, req.Original); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Owner) == "" {
		return nil, invalidArgument(op, "owner is empty")
	}

	code, err := friendlyCode(op, req)
	if err != nil {
		return nil, err
	}
	if code == "" {
		if code, err = s.freeCode(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	u := entity.NewURL()
	u.ShortCode = code
	u.OriginalURL = req.Original
	u.Shortened = s.settings.ShortenedURL(code)
	u.Title = req.Title
	u.Description = req.Description
	u.Owner = req.Owner
	u.CoOwners = append([]string(nil), req.CoOwners...)

	return u, nil
}

// friendlyCode returns the requested friendly code, or an empty code when none
// was requested. A non-blank value that trims to nothing is rejected.
func friendlyCode(op string, req *ShortenRequest) (string, error) {
	code := req.FriendlyCode()
	if code == "" && strings.TrimSpace(req.Friendly) != "" {
		return "", invalidArgument(op, "friendly code %q is empty after trimming", req.Friendly)
	}
	return code, nil
}

func (s *Shortener) freeCode(ctx context.Context) (string, error) {
	const op = "usecase.Shortener.freeCode"

	for attempt := 0; s.settings.MaxRetries == 0 || attempt < s.settings.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		code, err := s.codeGen.Generate(s.settings.CodeLength)
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		exists, err := s.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// Exists reports whether a URL record already uses code.
func (s *Shortener) Exists(ctx context.Context, code string) (bool, error) {
	const op = "usecase.Shortener.Exists"

	if code == "" {
		return false, invalidArgument(op, "short code is empty")
	}

	u, err := s.query.GetURLByCode(ctx, code)
	if err != nil {
		return false, fmt.Errorf("%s: failed to look up short code: %w", op, err)
	}

	return u != nil, nil
}

// Validate rejects a friendly code that is already taken. Requests without a
// friendly code pass without touching the store.
func (s *Shortener) Validate(ctx context.Context, req *ShortenRequest) error {
	const op = "usecase.Shortener.Validate"

	if req == nil {
		return invalidArgument(op, "request is nil")
	}

	code, err := friendlyCode(op, req)
	if err != nil {
		return err
	}
	if code == "" {
		return nil
	}

	exists, err := s.Exists(ctx, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", op, &entity.CodeExistsError{ShortCode: code})
	}

	return nil
}

// Upsert persists u.
func (s *Shortener) Upsert(ctx context.Context, u *entity.URL) error {
	const op = "usecase.Shortener.Upsert"

	if u == nil {
		return invalidArgument(op, "url is nil")
	}
	if err := persist(ctx, s.command, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
