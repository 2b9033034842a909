package usecase

import (
	"context"
	"fmt"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// Expander resolves short codes and records the visits made through them.
type Expander struct {
	settings Settings
	query    Query
	command  Command
}

func NewExpander(settings Settings, query Query, command Command) *Expander {
	return &Expander{
		settings: settings,
		query:    query,
		command:  command,
	}
}

// Expand looks up the URL behind req.ShortCode. An unknown code yields nil and no error.
func (e *Expander) Expand(ctx context.Context, req *ExpandRequest) (*entity.URL, error) {
	const op = "usecase.Expander.Expand"

	if req == nil {
		return nil, invalidArgument(op, "request is nil")
	}
	if req.ShortCode == "" {
		return nil, invalidArgument(op, "short code is empty")
	}

	u, err := e.query.GetURLByCode(ctx, req.ShortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to look up short code: %w", op, err)
	}
	if u == nil {
		return nil, nil
	}

	u.Shortened = e.settings.ShortenedURL(u.ShortCode)

	return u, nil
}

// RecordVisit persists the updated URL and then the new visit.
func (e *Expander) RecordVisit(ctx context.Context, u *entity.URL, v *entity.Visit) error {
	const op = "usecase.Expander.RecordVisit"

	if u == nil || v == nil {
		return invalidArgument(op, "url and visit are required")
	}

	if err := persist(ctx, e.command, u); err != nil {
		return fmt.Errorf("%s: failed to save url: %w", op, err)
	}
	if err := persist(ctx, e.command, v); err != nil {
		return fmt.Errorf("%s: failed to save visit: %w", op, err)
	}

	return nil
}
