package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, req usecase.ShortenRequest) (*entity.URL, error)
	ExpandURL(ctx context.Context, req usecase.ExpandRequest) (*entity.URL, error)
	ModifyURL(ctx context.Context, shortCode string, req usecase.ModifyRequest) (*entity.URL, error)
	ListURLs(ctx context.Context, owner string) ([]*entity.URL, error)
	ListVisits(ctx context.Context, shortCode string) ([]*entity.Visit, error)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

type urlHandler struct {
	useCase      urlUseCase
	validate     *validator.Validate
	ignoredPaths map[string]struct{}
	debugErrors  bool
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, opts routerOptions) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	ignored := make(map[string]struct{}, len(opts.ignoredPaths))
	for _, p := range opts.ignoredPaths {
		ignored[strings.Trim(p, "/")] = struct{}{}
	}

	// A friendly code must fit in one path segment and must not shadow an ignored path.
	validate.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if strings.TrimSpace(v) == "" {
			return true
		}

		code := strings.TrimRight(v, "/")
		if code == "" || strings.Contains(code, "/") {
			return false
		}

		_, shadowed := ignored[code]
		return !shadowed
	})

	return &urlHandler{
		useCase:      useCase,
		validate:     validate,
		ignoredPaths: ignored,
		debugErrors:  opts.debugErrors,
	}
}

// renderError maps use case errors to responses. Unexpected errors are logged
// and, outside production, returned with their message and stack trace.
func (h *urlHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ceErr *entity.CodeExistsError
		vErr  *entity.ValidationError
	)

	switch {
	case errors.As(err, &ceErr):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, codeExistsResponse(ceErr.ShortCode))
		return

	case errors.Is(err, entity.ErrInvalidArgument), errors.As(err, &vErr):
		resp := invalidArgumentResponse
		if h.debugErrors {
			resp.Message = err.Error()
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp)
		return

	case errors.Is(err, entity.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, urlNotFoundResponse)
		return
	}

	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	resp := serverErrorResponse
	if h.debugErrors {
		resp.Message = err.Error()

		var st stackTracer
		if errors.As(err, &st) {
			resp.StackTrace = fmt.Sprintf("%+v", st.StackTrace())
		}
	}

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, resp)
}

func (h *urlHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return false
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return false
	}

	return h.validateStruct(w, r, v)
}

func (h *urlHandler) validateStruct(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return false
	}
	return true
}

func (h *urlHandler) shorten(w http.ResponseWriter, r *http.Request, req shortenRequest) {
	url, err := h.useCase.ShortenURL(r.Context(), req.toUseCase())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if !h.decode(w, r, &req) {
		return
	}

	h.shorten(w, r, req)
}

func (h *urlHandler) shortenURLFromQuery(w http.ResponseWriter, r *http.Request) {
	req := shortenRequestFromQuery(r.URL.Query())

	if !h.validateStruct(w, r, req) {
		return
	}

	h.shorten(w, r, req)
}

func (h *urlHandler) modifyURL(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest

	if !h.decode(w, r, &req) {
		return
	}

	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ModifyURL(r.Context(), shortCode, req.toUseCase())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) listVisits(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	visits, err := h.useCase.ListVisits(r.Context(), shortCode)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toVisitListResponse(visits))
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	urls, err := h.useCase.ListURLs(r.Context(), owner)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLListResponse(urls))
}
