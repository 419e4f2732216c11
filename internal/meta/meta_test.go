package meta

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"forumd/internal/mail"
	"forumd/internal/signals"
	"forumd/internal/store"
	"forumd/pkg/types"
)

func newService(t *testing.T, cfg Settings) (*Service, *store.Store, *mail.MemoryMailer) {
	t.Helper()
	st := store.New(signals.NewRegistry(), store.Options{})
	m := mail.NewMemoryMailer()
	if cfg.AppShortName == "" {
		cfg.AppShortName = "Ask"
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = "/account/signin/"
	}
	return New(cfg, st, m, nil), st, m
}

func TestStaticPages(t *testing.T) {
	s, _, _ := newService(t, Settings{About: "We talk", Privacy: "Nothing kept"})
	if p := s.About(); p.Title != "About Ask" || p.Content != "We talk" || p.PageClass != "meta" {
		t.Fatalf("about=%+v", p)
	}
	if p := s.Privacy(); p.Title != "Privacy policy" || p.Content != "Nothing kept" {
		t.Fatalf("privacy=%+v", p)
	}
	if p := s.Help(); p.AppName != "Ask" {
		t.Fatalf("help=%+v", p)
	}
	if got := s.ConfigVariable("APP_SHORT_NAME"); got != "Ask" {
		t.Fatalf("config var=%q", got)
	}
	if got := s.ConfigVariable("secret_key"); got != "" {
		t.Fatalf("unknown config var=%q", got)
	}
}

func TestFAQ(t *testing.T) {
	s, _, _ := newService(t, Settings{FAQ: "  "})
	p := s.FAQ()
	if p.Content != "" || p.GravatarFAQURL != "/faq#gravatar" || p.AskQuestionURL != AskURL {
		t.Fatalf("static faq=%+v", p)
	}
	s, _, _ = newService(t, Settings{FAQ: "Q? A."})
	if p := s.FAQ(); p.Title != "FAQ" || p.Content != "Q? A." {
		t.Fatalf("custom faq=%+v", p)
	}
}

func TestFeedback_Anonymous(t *testing.T) {
	s, st, m := newService(t, Settings{AllowAnonymousFeedback: true})
	ctx := context.Background()
	_, err := s.Feedback(ctx, nil, types.FeedbackForm{Message: "hi", Email: "not-an-email"})
	fields, ok := Fields(err)
	if !ok || fields["email"] == "" {
		t.Fatalf("err=%v", err)
	}
	if _, err := s.Feedback(ctx, nil, types.FeedbackForm{Email: "a@b.c"}); err == nil {
		t.Fatalf("empty message accepted")
	}
	res, err := s.Feedback(ctx, nil, types.FeedbackForm{Name: "Jo", Email: "jo@example.com", Message: " great ", Next: "//evil.com"})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if res.Message != FeedbackThanks || res.Next != "/" || res.ID == "" {
		t.Fatalf("res=%+v", res)
	}
	msgs := m.Messages()
	if len(msgs) != 1 || msgs[0].Subject != FeedbackSubject || !strings.Contains(msgs[0].Body, "jo@example.com") || !strings.Contains(msgs[0].Body, "great") {
		t.Fatalf("mail=%+v", msgs)
	}
	if fb := st.Feedback(); len(fb) != 1 || fb[0].Message != "great" {
		t.Fatalf("stored=%+v", fb)
	}
}

func TestFeedback_LoginRequired(t *testing.T) {
	s, _, m := newService(t, Settings{AllowAnonymousFeedback: false})
	_, err := s.Feedback(context.Background(), nil, types.FeedbackForm{Message: "x", Email: "a@b.c"})
	u, ok := IsLoginRequired(err)
	if !ok || u != "/account/signin/?next=%2Ffeedback" {
		t.Fatalf("err=%v url=%q", err, u)
	}
	if _, err := s.FeedbackForm(nil, "/"); err == nil {
		t.Fatalf("form shown to anonymous user")
	}
	user := &types.User{ID: 3, Username: "ann"}
	res, err := s.Feedback(context.Background(), user, types.FeedbackForm{Message: "x", Next: "/questions/"})
	if err != nil || res.Next != "/questions/" {
		t.Fatalf("signed in: res=%+v err=%v", res, err)
	}
	if len(m.Messages()) != 1 {
		t.Fatalf("mail not sent")
	}
	page, err := s.FeedbackForm(user, "")
	if err != nil || page.EmailAsk || page.Next != "/" {
		t.Fatalf("form=%+v err=%v", page, err)
	}
}

type failingMailer struct{}

func (failingMailer) MailModerators(context.Context, string, string) error { return errors.New("smtp down") }

func TestFeedback_MailError(t *testing.T) {
	st := store.New(signals.NewRegistry(), store.Options{})
	s := New(Settings{AllowAnonymousFeedback: true}, st, failingMailer{}, nil)
	if _, err := s.Feedback(context.Background(), &types.User{ID: 1}, types.FeedbackForm{Message: "x"}); err == nil {
		t.Fatalf("mail error swallowed")
	}
	if _, err := s.Feedback(context.Background(), nil, types.FeedbackForm{Message: "x", Email: "a@b.example"}); err == nil {
		t.Fatalf("mail error swallowed for anonymous")
	}
	if n := len(st.Feedback()); n != 0 {
		t.Fatalf("stored=%d after failed mail, want 0", n)
	}

	// A retry with a working mailer stores exactly one row.
	s = New(Settings{AllowAnonymousFeedback: true}, st, mail.NewMemoryMailer(), nil)
	if _, err := s.Feedback(context.Background(), &types.User{ID: 1}, types.FeedbackForm{Message: "x"}); err != nil {
		t.Fatal(err)
	}
	if n := len(st.Feedback()); n != 1 {
		t.Fatalf("stored=%d after retry, want 1", n)
	}
}

func seedBadges(t *testing.T, st *store.Store) (types.User, types.User, types.Badge) {
	t.Helper()
	ctx := context.Background()
	ann, _ := st.SaveUser(ctx, types.User{Username: "ann"})
	bob, _ := st.SaveUser(ctx, types.User{Username: "bob"})
	teacher, _ := st.SaveBadge(ctx, types.Badge{Slug: "teacher", Name: "Teacher"})
	great, _ := st.SaveBadge(ctx, types.Badge{Slug: "great-answer", Name: "Great answer"})
	if _, err := st.SaveBadge(ctx, types.Badge{Slug: "legacy", Name: "Legacy"}); err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, a := range []types.Award{
		{UserID: ann.ID, BadgeID: great.ID, AwardedAt: t0},
		{UserID: ann.ID, BadgeID: great.ID, AwardedAt: t0.Add(time.Hour)},
		{UserID: bob.ID, BadgeID: great.ID, AwardedAt: t0.Add(2 * time.Hour)},
		{UserID: ann.ID, BadgeID: teacher.ID, AwardedAt: t0},
	} {
		if _, err := st.SaveAward(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	return ann, bob, great
}

func TestBadges(t *testing.T) {
	s, st, _ := newService(t, Settings{BadgesMode: "public"})
	ann, _, great := seedBadges(t, st)
	p, err := s.Badges(&ann)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Badges) != 2 || p.Badges[0].Slug != "great-answer" || p.Badges[1].Slug != "teacher" {
		t.Fatalf("badges=%+v", p.Badges)
	}
	if len(p.MyBadges) != 2 || p.MyBadges[0] != 1 || p.MyBadges[1] != great.ID {
		t.Fatalf("mine=%v", p.MyBadges)
	}
	anon, _ := s.Badges(nil)
	if len(anon.MyBadges) != 0 {
		t.Fatalf("anonymous has badges")
	}

	hidden, _, _ := newService(t, Settings{BadgesMode: "hidden"})
	if _, err := hidden.Badges(nil); !IsPageHidden(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestBadgeRecipients(t *testing.T) {
	s, st, _ := newService(t, Settings{BadgesMode: "public"})
	_, _, great := seedBadges(t, st)
	p, err := s.Badge(great.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Recipients) != 2 {
		t.Fatalf("recipients=%+v", p.Recipients)
	}
	if p.Recipients[0].User.Username != "bob" || p.Recipients[1].AwardCount != 2 {
		t.Fatalf("recipients=%+v", p.Recipients)
	}
	if _, err := s.Badge(99); !store.IsNotFound(err) {
		t.Fatalf("err=%v", err)
	}
}
