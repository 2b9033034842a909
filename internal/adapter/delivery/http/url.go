package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

// redirect resolves the short code in the path, records the visit and sends
// the client to the original URL. Ignored paths such as favicon.ico answer
// with an empty 200 and never reach the store.
func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	if _, ok := h.ignoredPaths[shortCode]; ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	url, err := h.useCase.ExpandURL(r.Context(), usecase.ExpandRequest{
		ShortCode: shortCode,
		Headers:   r.Header.Clone(),
		Queries:   r.URL.Query(),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if url == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, urlNotFoundResponse)
		return
	}

	httplog.LogEntrySetFields(r.Context(), map[string]interface{}{
		"short_code": url.ShortCode,
		"hit_count":  url.HitCount,
	})

	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}
