package http

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

const statusError = "error"

// shortenRequest represents the structure for a request to shorten a URL.
// The same fields are accepted as a JSON body or as query parameters.
type shortenRequest struct {
	Original    string   `json:"original" validate:"required,url"`
	Owner       string   `json:"owner" validate:"required,max=255"`
	Friendly    string   `json:"friendly" validate:"omitempty,max=255,shortcode"`
	Title       string   `json:"title" validate:"omitempty,max=255"`
	Description string   `json:"description" validate:"omitempty,max=1024"`
	CoOwners    []string `json:"coowners" validate:"omitempty,dive,required,max=255"`
}

func (r shortenRequest) toUseCase() usecase.ShortenRequest {
	return usecase.ShortenRequest{
		Original:    r.Original,
		Owner:       r.Owner,
		Friendly:    r.Friendly,
		Title:       r.Title,
		Description: r.Description,
		CoOwners:    r.CoOwners,
	}
}

// shortenRequestFromQuery reads a shortenRequest from query parameters.
// Co-owners may be repeated or comma separated.
func shortenRequestFromQuery(q map[string][]string) shortenRequest {
	first := func(key string) string {
		if v := q[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	var coOwners []string
	for _, v := range q["coowners"] {
		for _, owner := range strings.Split(v, ",") {
			if owner = strings.TrimSpace(owner); owner != "" {
				coOwners = append(coOwners, owner)
			}
		}
	}

	return shortenRequest{
		Original:    first("original"),
		Owner:       first("owner"),
		Friendly:    first("friendly"),
		Title:       first("title"),
		Description: first("description"),
		CoOwners:    coOwners,
	}
}

// modifyRequest represents the structure for a request to modify a URL.
// Omitted fields keep their current value.
type modifyRequest struct {
	Original    string   `json:"original" validate:"omitempty,url"`
	Title       *string  `json:"title" validate:"omitempty,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=1024"`
	CoOwners    []string `json:"coowners" validate:"omitempty,dive,required,max=255"`
}

func (r modifyRequest) toUseCase() usecase.ModifyRequest {
	return usecase.ModifyRequest{
		Original:    r.Original,
		Title:       r.Title,
		Description: r.Description,
		CoOwners:    r.CoOwners,
	}
}

// urlResponse represents the structure for a response containing shortened URL information.
type urlResponse struct {
	ID          string    `json:"id"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner"`
	CoOwners    []string  `json:"co_owners"`
	HitCount    int64     `json:"hit_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toURLResponse(url *entity.URL) urlResponse {
	coOwners := url.CoOwners
	if coOwners == nil {
		coOwners = []string{}
	}

	return urlResponse{
		ID:          url.ID().String(),
		ShortCode:   url.ShortCode,
		ShortURL:    url.Shortened,
		OriginalURL: url.OriginalURL,
		Title:       url.Title,
		Description: url.Description,
		Owner:       url.Owner,
		CoOwners:    coOwners,
		HitCount:    url.HitCount,
		CreatedAt:   url.DateGenerated(),
		UpdatedAt:   url.DateUpdated(),
	}
}

func toURLListResponse(urls []*entity.URL) []urlResponse {
	resp := make([]urlResponse, 0, len(urls))
	for _, url := range urls {
		resp = append(resp, toURLResponse(url))
	}
	return resp
}

// visitResponse represents a single recorded visit of a short link.
type visitResponse struct {
	ID        string              `json:"id"`
	URLID     string              `json:"url_id"`
	ShortCode string              `json:"short_code"`
	Headers   entity.Headers      `json:"headers"`
	Queries   map[string][]string `json:"queries"`
	VisitedAt time.Time           `json:"visited_at"`
}

func toVisitListResponse(visits []*entity.Visit) []visitResponse {
	resp := make([]visitResponse, 0, len(visits))
	for _, v := range visits {
		headers := v.RequestHeaders
		if headers == nil {
			headers = entity.Headers{}
		}
		queries := v.RequestQueries
		if queries == nil {
			queries = map[string][]string{}
		}

		resp = append(resp, visitResponse{
			ID:        v.ID().String(),
			URLID:     v.URLID().String(),
			ShortCode: v.ShortCode,
			Headers:   headers,
			Queries:   queries,
			VisitedAt: v.DateGenerated(),
		})
	}
	return resp
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	ShortCode  string            `json:"short_code,omitempty"`
	StackTrace string            `json:"stack_trace,omitempty"`
	Errors     []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	invalidArgumentResponse = errorResponse{
		Status:  statusError,
		Message: "invalid argument",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

func codeExistsResponse(code string) errorResponse {
	return errorResponse{
		Status:    statusError,
		Message:   "short code already exists",
		ShortCode: code,
	}
}

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	case "max":
		return "value is too long"
	case "shortcode":
		return "invalid short code"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
