package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"forumd/internal/meta"
	"forumd/internal/store"
	"forumd/pkg/types"
)

type mockService struct {
	ready       bool
	users       map[string]types.User
	feedbackErr error
	lastForm    types.FeedbackForm
	lastUser    *types.User
	articleErr  error
	lastTag     string
	lastPage    int
	badgeErr    error
	searchCtx   context.Context
}

func (m *mockService) About() types.StaticPage   { return types.StaticPage{Title: "About Forum", PageClass: "meta"} }
func (m *mockService) Help() types.HelpPage      { return types.HelpPage{AppName: "Forum", PageClass: "meta"} }
func (m *mockService) FAQ() types.FAQPage        { return types.FAQPage{AskQuestionURL: "/questions/ask", PageClass: "meta"} }
func (m *mockService) Privacy() types.StaticPage { return types.StaticPage{Title: "Privacy policy"} }
func (m *mockService) ConfigVariable(name string) string {
	if name == "app_short_name" {
		return "Forum"
	}
	return ""
}
func (m *mockService) FeedbackForm(user *types.User, next string) (types.FeedbackPage, error) {
	return types.FeedbackPage{PageClass: "meta", Next: meta.SafeNext(next), EmailAsk: user == nil}, nil
}
func (m *mockService) Feedback(_ context.Context, user *types.User, form types.FeedbackForm) (types.FeedbackResult, error) {
	m.lastForm, m.lastUser = form, user
	if m.feedbackErr != nil {
		return types.FeedbackResult{}, m.feedbackErr
	}
	return types.FeedbackResult{Message: meta.FeedbackThanks, Next: meta.SafeNext(form.Next), ID: "fb-1"}, nil
}
func (m *mockService) Badges(user *types.User) (types.BadgesPage, error) {
	return types.BadgesPage{ActiveTab: "badges"}, nil
}
func (m *mockService) Badge(id int64) (types.BadgePage, error) {
	if m.badgeErr != nil {
		return types.BadgePage{}, m.badgeErr
	}
	return types.BadgePage{Badge: types.Badge{ID: id}}, nil
}
func (m *mockService) Article(slug string) (types.ArticlePage, error) {
	if m.articleErr != nil {
		return types.ArticlePage{}, m.articleErr
	}
	return types.ArticlePage{Article: types.Article{Slug: slug}}, nil
}
func (m *mockService) Articles(tag string, page int) (types.ArticleListPage, error) {
	m.lastTag, m.lastPage = tag, page
	return types.ArticleListPage{Paginator: types.Paginator{Page: page}}, nil
}
func (m *mockService) Search(ctx context.Context, q string) types.SearchResponse {
	m.searchCtx = ctx
	return types.SearchResponse{Query: q}
}
func (m *mockService) Signals() types.SignalsResponse {
	return types.SignalsResponse{Channels: []types.ChannelStatus{{Name: "post_save", DB: true}}}
}
func (m *mockService) CurrentUser(name string) (*types.User, error) {
	if name == "" {
		return nil, nil
	}
	u, ok := m.users[name]
	if !ok {
		return nil, store.NotFound(store.KindUser, name)
	}
	return &u, nil
}
func (m *mockService) Ready() bool { return m.ready }

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStaticPages(t *testing.T) {
	h := NewMux(&mockService{})
	for _, path := range []string{"/about", "/help", "/faq", "/privacy"} {
		w := serve(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
			t.Fatalf("%s content-type=%s", path, ct)
		}
	}
	w := serve(t, h, httptest.NewRequest(http.MethodGet, "/about", nil))
	var page types.StaticPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	if page.Title != "About Forum" {
		t.Fatalf("page=%+v", page)
	}
}

func TestConfigVariableIsPlainText(t *testing.T) {
	w := serve(t, NewMux(&mockService{}), httptest.NewRequest(http.MethodGet, "/config/app_short_name", nil))
	if w.Code != http.StatusOK || w.Body.String() != "Forum" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%s", ct)
	}
}

func TestFeedbackJSON(t *testing.T) {
	svc := &mockService{users: map[string]types.User{"ann": {ID: 1, Username: "ann"}}}
	req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewBufferString(`{"message":"hi","next":"/q/1"}`))
	req.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	req.Header.Set(UserHeader, "ann")
	w := serve(t, NewMux(svc), req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res types.FeedbackResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.Next != "/q/1" || svc.lastUser == nil || svc.lastUser.Username != "ann" {
		t.Fatalf("res=%+v user=%v", res, svc.lastUser)
	}
}

func TestFeedbackForm_Cancel(t *testing.T) {
	svc := &mockService{}
	body := url.Values{"cancel": {"1"}, "next": {"/questions"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(t, NewMux(svc), req)
	var res types.FeedbackResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if w.Code != http.StatusOK || res.Message != meta.FeedbackCancel || res.Next != "/questions" {
		t.Fatalf("status=%d res=%+v", w.Code, res)
	}
	if svc.lastForm.Message != "" {
		t.Fatalf("cancelled feedback reached the service")
	}
}

func TestFeedbackForm_URLEncoded(t *testing.T) {
	svc := &mockService{}
	body := url.Values{"email": {"a@example.com"}, "message": {"hello"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(t, NewMux(svc), req)
	if w.Code != http.StatusOK || svc.lastForm.Email != "a@example.com" || svc.lastForm.Message != "hello" {
		t.Fatalf("status=%d form=%+v", w.Code, svc.lastForm)
	}
}

func TestFeedback_UnsupportedMediaType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader("hi"))
	req.Header.Set("Content-Type", "text/plain")
	if w := serve(t, NewMux(&mockService{}), req); w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestFeedback_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader("not-json"))
	req.Header.Set("Content-Type", "application/json")
	if w := serve(t, NewMux(&mockService{}), req); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestFeedback_BodyTooLarge(t *testing.T) {
	big := make([]byte, (1<<20)+10)
	for i := range big {
		big[i] = 'a'
	}
	req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	if w := serve(t, NewMux(&mockService{}), req); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
}

func TestFeedback_UnknownUserIsAnonymous(t *testing.T) {
	svc := &mockService{}
	req := httptest.NewRequest(http.MethodGet, "/feedback?next=//evil.example", nil)
	req.Header.Set(UserHeader, "ghost")
	w := serve(t, NewMux(svc), req)
	var page types.FeedbackPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !page.EmailAsk || page.Next != "/" {
		t.Fatalf("page=%+v", page)
	}
}

func TestArticlesRoutes(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc)
	cases := []struct {
		path string
		tag  string
		page int
	}{
		{"/articles", "", 1},
		{"/articles/page/3", "", 3},
		{"/articles/tag/go", "go", 1},
		{"/articles/tag/go/page/2", "go", 2},
	}
	for _, c := range cases {
		w := serve(t, h, httptest.NewRequest(http.MethodGet, c.path, nil))
		if w.Code != http.StatusOK || svc.lastTag != c.tag || svc.lastPage != c.page {
			t.Fatalf("%s: status=%d tag=%q page=%d", c.path, w.Code, svc.lastTag, svc.lastPage)
		}
	}
	if w := serve(t, h, httptest.NewRequest(http.MethodGet, "/articles/page/x", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("bad page status=%d", w.Code)
	}
	w := serve(t, h, httptest.NewRequest(http.MethodGet, "/articles/intro", nil))
	var page types.ArticlePage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil || page.Article.Slug != "intro" {
		t.Fatalf("article=%+v err=%v", page, err)
	}
}

func TestBadgeInvalidID(t *testing.T) {
	if w := serve(t, NewMux(&mockService{}), httptest.NewRequest(http.MethodGet, "/badges/abc", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSearchUsesJoinedContext(t *testing.T) {
	svc := &mockService{}
	w := serve(t, NewMux(svc), httptest.NewRequest(http.MethodGet, "/search?q=go", nil))
	var res types.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || res.Query != "go" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	// the joined context is released once the handler returns
	if svc.searchCtx == nil || svc.searchCtx.Err() == nil {
		t.Fatalf("search context still live after request")
	}
}

func TestAdminSignals(t *testing.T) {
	w := serve(t, NewMux(&mockService{}), httptest.NewRequest(http.MethodGet, "/admin/signals", nil))
	var res types.SignalsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || len(res.Channels) != 1 || !res.Channels[0].DB {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestReadyz(t *testing.T) {
	w := serve(t, NewMux(&mockService{ready: true}), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	w := serve(t, NewMux(&mockService{}), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	if w := serve(t, NewMux(&mockService{}), httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestRequestsLogWithZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer func() { zlog = nil }()
	w := serve(t, NewMux(&mockService{}), httptest.NewRequest(http.MethodGet, "/about?log=debug", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "request start") || !strings.Contains(out, "request end") {
		t.Fatalf("log=%q", out)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, []string{"GET", "POST", "OPTIONS"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set("Origin", "http://example.com")
	w := serve(t, NewMux(&mockService{}), req)
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", store.NotFound(store.KindArticle, "nope"), http.StatusNotFound},
		{"http error", mockHTTPError{msg: "gone", code: http.StatusGone}, http.StatusGone},
		{"wrapped http error", errors.Join(errors.New("ctx"), mockHTTPError{msg: "teapot", code: http.StatusTeapot}), http.StatusTeapot},
		{"generic", io.EOF, http.StatusInternalServerError},
	}
	for _, c := range cases {
		svc := &mockService{articleErr: c.err}
		w := serve(t, NewMux(svc), httptest.NewRequest(http.MethodGet, "/articles/x", nil))
		if w.Code != c.want {
			t.Fatalf("%s: status=%d want %d", c.name, w.Code, c.want)
		}
		var body types.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code != c.want {
			t.Fatalf("%s: body=%s", c.name, w.Body.String())
		}
	}
}
