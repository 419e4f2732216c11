package httpapi

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"forumd/internal/meta"
	"forumd/pkg/types"
)

// UserHeader names the signed in user. Authentication happens in front of
// this service; requests without the header are anonymous.
const UserHeader = "X-Forum-User"

// Service defines the methods required by the HTTP API layer.
type Service interface {
	About() types.StaticPage
	Help() types.HelpPage
	FAQ() types.FAQPage
	Privacy() types.StaticPage
	ConfigVariable(name string) string
	FeedbackForm(user *types.User, next string) (types.FeedbackPage, error)
	Feedback(ctx context.Context, user *types.User, form types.FeedbackForm) (types.FeedbackResult, error)
	Badges(user *types.User) (types.BadgesPage, error)
	Badge(id int64) (types.BadgePage, error)
	Article(slug string) (types.ArticlePage, error)
	Articles(tag string, page int) (types.ArticleListPage, error)
	Search(ctx context.Context, q string) types.SearchResponse
	Signals() types.SignalsResponse
	CurrentUser(name string) (*types.User, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	h := &handlers{svc: svc}

	r.Get("/about", h.static(svc.About))
	r.Get("/privacy", h.static(svc.Privacy))
	r.Get("/help", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, svc.Help()) })
	r.Get("/faq", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, svc.FAQ()) })
	r.Get("/config/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(svc.ConfigVariable(chi.URLParam(r, "name"))))
	})

	r.Get("/feedback", h.feedbackForm)
	r.Post("/feedback", h.feedback)

	r.Get("/badges", h.badges)
	r.Get("/badges/{id}", h.badge)

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.articles)
		r.Get("/page/{page}", h.articles)
		r.Get("/tag/{tag}", h.articles)
		r.Get("/tag/{tag}/page/{page}", h.articles)
		r.Get("/{slug}", h.article)
	})

	r.Get("/search", h.search)
	r.Get("/admin/signals", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, svc.Signals()) })

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

func (h *handlers) static(page func() types.StaticPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, page()) }
}

// user resolves the signed in user. Unknown names are served as anonymous.
func (h *handlers) user(r *http.Request) *types.User {
	name := strings.TrimSpace(r.Header.Get(UserHeader))
	u, err := h.svc.CurrentUser(name)
	if err != nil {
		if zlog != nil {
			zlog.Warn().Str("user", name).Err(err).Msg("unknown user, serving as anonymous")
		}
		return nil
	}
	return u
}

func (h *handlers) feedbackForm(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.FeedbackForm(h.user(r), r.URL.Query().Get("next"))
	if err != nil {
		writeError(w, r, "feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// feedback accepts a JSON body or a urlencoded form. A form carrying
// "cancel" is acknowledged without being stored.
func (h *handlers) feedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var form types.FeedbackForm
	switch strings.ToLower(ct) {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		if r.PostForm.Get("cancel") != "" {
			writeJSON(w, http.StatusOK, types.FeedbackResult{Message: meta.FeedbackCancel, Next: meta.SafeNext(r.PostForm.Get("next"))})
			return
		}
		form = types.FeedbackForm{
			Name:    r.PostForm.Get("name"),
			Email:   r.PostForm.Get("email"),
			Message: r.PostForm.Get("message"),
			Next:    r.PostForm.Get("next"),
		}
	default:
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json or a form")
		return
	}

	user := h.user(r)
	// Join server base context with request context so shutdown cancels mailing too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	res, err := h.svc.Feedback(ctx, user, form)
	if fields, ok := meta.Fields(err); ok {
		writeJSON(w, http.StatusBadRequest, types.FeedbackPage{
			PageClass: "meta",
			Next:      meta.SafeNext(form.Next),
			EmailAsk:  user == nil,
			Errors:    fields,
		})
		return
	}
	if err != nil {
		writeError(w, r, "feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) badges(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Badges(h.user(r))
	if err != nil {
		writeError(w, r, "badges", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) badge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		IncrementLookupMiss("badge")
		writeJSONError(w, http.StatusNotFound, "badge not found: "+chi.URLParam(r, "id"))
		return
	}
	page, err := h.svc.Badge(id)
	if err != nil {
		writeError(w, r, "badge", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) articles(w http.ResponseWriter, r *http.Request) {
	n := 1
	if p := chi.URLParam(r, "page"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "page not found: "+p)
			return
		}
		n = v
	}
	page, err := h.svc.Articles(chi.URLParam(r, "tag"), n)
	if err != nil {
		writeError(w, r, "tag", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) article(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Article(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, "article", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	writeJSON(w, http.StatusOK, h.svc.Search(ctx, r.URL.Query().Get("q")))
}
