// Package meta serves the forum's secondary pages: about, help, FAQ,
// privacy, feedback and badges.
package meta

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"forumd/internal/badges"
	mailer "forumd/internal/mail"
	"forumd/pkg/types"
)

const (
	pageClass = "meta"

	FeedbackSubject = "Q&A forum feedback"
	FeedbackThanks  = "Thanks for the feedback!"
	FeedbackCancel  = "We look forward to hearing your feedback! Please, give it next time :)"
	LoginToFeedback = "Please sign in or register to send your feedback"

	FeedbackURL = "/feedback"
	FAQURL      = "/faq"
	AskURL      = "/questions/ask"
)

// Settings are the site settings the pages render.
type Settings struct {
	AppShortName           string
	About                  string
	FAQ                    string
	Privacy                string
	AllowAnonymousFeedback bool
	BadgesMode             string
	LoginURL               string
}

// Store is the subset of the forum store used here.
type Store interface {
	SaveFeedback(ctx context.Context, f types.Feedback) (types.Feedback, error)
	Badges() []types.Badge
	Badge(id int64) (types.Badge, error)
	Awards() []types.Award
	User(id int64) (types.User, error)
}

type Service struct {
	cfg    Settings
	st     Store
	mailer mailer.Mailer
	log    zerolog.Logger
	now    func() time.Time
}

func New(cfg Settings, st Store, m mailer.Mailer, log *zerolog.Logger) *Service {
	s := &Service{cfg: cfg, st: st, mailer: m, log: zerolog.Nop(), now: time.Now}
	if log != nil {
		s.log = *log
	}
	return s
}

func (s *Service) About() types.StaticPage {
	return types.StaticPage{
		Title:     fmt.Sprintf("About %s", s.cfg.AppShortName),
		Content:   s.cfg.About,
		PageClass: pageClass,
	}
}

func (s *Service) Help() types.HelpPage {
	return types.HelpPage{AppName: s.cfg.AppShortName, PageClass: pageClass}
}

// FAQ returns the configured FAQ, or the links of the built-in one when
// none is configured.
func (s *Service) FAQ() types.FAQPage {
	if strings.TrimSpace(s.cfg.FAQ) != "" {
		return types.FAQPage{Title: "FAQ", Content: s.cfg.FAQ, PageClass: pageClass}
	}
	return types.FAQPage{
		GravatarFAQURL: FAQURL + "#gravatar",
		AskQuestionURL: AskURL,
		PageClass:      pageClass,
	}
}

func (s *Service) Privacy() types.StaticPage {
	return types.StaticPage{Title: "Privacy policy", Content: s.cfg.Privacy, PageClass: pageClass}
}

// ConfigVariable returns the value of a public setting, or "" for unknown
// names.
func (s *Service) ConfigVariable(name string) string {
	switch strings.ToLower(name) {
	case "app_short_name":
		return s.cfg.AppShortName
	case "forum_about", "about":
		return s.cfg.About
	case "forum_faq", "faq":
		return s.cfg.FAQ
	case "forum_privacy", "privacy":
		return s.cfg.Privacy
	case "badges_mode":
		return s.cfg.BadgesMode
	}
	return ""
}

// SafeNext returns next when it is a local path, "/" otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// LoginURL returns the sign in URL that comes back to next.
func (s *Service) LoginURL(next string) string {
	return s.cfg.LoginURL + "?next=" + url.QueryEscape(next)
}

// FeedbackForm describes the empty feedback form for user (nil when
// anonymous).
func (s *Service) FeedbackForm(user *types.User, next string) (types.FeedbackPage, error) {
	if user == nil && !s.cfg.AllowAnonymousFeedback {
		return types.FeedbackPage{}, loginRequiredError{url: s.LoginURL(FeedbackURL)}
	}
	return types.FeedbackPage{PageClass: pageClass, Next: SafeNext(next), EmailAsk: user == nil}, nil
}

// Feedback validates form, stores it and mails it to the moderators.
func (s *Service) Feedback(ctx context.Context, user *types.User, form types.FeedbackForm) (types.FeedbackResult, error) {
	if user == nil && !s.cfg.AllowAnonymousFeedback {
		return types.FeedbackResult{}, loginRequiredError{url: s.LoginURL(FeedbackURL)}
	}
	fields := map[string]string{}
	form.Message = strings.TrimSpace(form.Message)
	form.Email = strings.TrimSpace(form.Email)
	if form.Message == "" {
		fields["message"] = "message is required"
	}
	if user == nil {
		if form.Email == "" {
			fields["email"] = "email is required"
		} else if _, err := mail.ParseAddress(form.Email); err != nil {
			fields["email"] = "enter a valid email address"
		}
	}
	if len(fields) > 0 {
		return types.FeedbackResult{}, validationError{fields: fields}
	}

	fb := types.Feedback{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(form.Name),
		Message:     form.Message,
		SubmittedAt: s.now(),
	}
	if user != nil {
		fb.UserID = user.ID
		if fb.Name == "" {
			fb.Name = user.Username
		}
	} else {
		fb.Email = form.Email
	}
	// Stored only after the moderators are mailed.
	if err := s.mailer.MailModerators(ctx, FeedbackSubject, feedbackBody(fb)); err != nil {
		s.log.Error().Str("feedback", fb.ID).Err(err).Msg("mail moderators")
		return types.FeedbackResult{}, fmt.Errorf("mail moderators: %w", err)
	}
	if _, err := s.st.SaveFeedback(ctx, fb); err != nil {
		return types.FeedbackResult{}, fmt.Errorf("save feedback: %w", err)
	}
	s.log.Info().Str("feedback", fb.ID).Bool("anonymous", user == nil).Msg("feedback received")
	return types.FeedbackResult{Message: FeedbackThanks, Next: SafeNext(form.Next), ID: fb.ID}, nil
}

func feedbackBody(fb types.Feedback) string {
	var b strings.Builder
	if fb.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", fb.Name)
	}
	if fb.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", fb.Email)
	}
	b.WriteString("\n")
	b.WriteString(fb.Message)
	b.WriteString("\n")
	return b.String()
}

// Badges lists the catalog badges stored in the database and, for a
// signed in user, the IDs of the badges they hold. Only available when
// badges are public.
func (s *Service) Badges(user *types.User) (types.BadgesPage, error) {
	if s.cfg.BadgesMode != "public" {
		return types.BadgesPage{}, pageHiddenError{page: "badges"}
	}
	out := types.BadgesPage{
		ActiveTab:      "badges",
		Badges:         []types.Badge{},
		MyBadges:       []int64{},
		FeedbackFAQURL: FeedbackURL,
		PageClass:      pageClass,
	}
	for _, b := range s.st.Badges() {
		if badges.Known(b.Slug) {
			out.Badges = append(out.Badges, b)
		}
	}
	if user != nil {
		seen := map[int64]bool{}
		for _, a := range s.st.Awards() {
			if a.UserID == user.ID && !seen[a.BadgeID] {
				seen[a.BadgeID] = true
				out.MyBadges = append(out.MyBadges, a.BadgeID)
			}
		}
		sort.Slice(out.MyBadges, func(i, j int) bool { return out.MyBadges[i] < out.MyBadges[j] })
	}
	return out, nil
}

// Badge returns a badge with its recipients, most recently awarded first.
func (s *Service) Badge(id int64) (types.BadgePage, error) {
	b, err := s.st.Badge(id)
	if err != nil {
		s.log.Error().Int64("badge", id).Err(err).Msg("badge does not exist")
		return types.BadgePage{}, err
	}
	byUser := map[int64]*types.BadgeRecipient{}
	for _, a := range s.st.Awards() {
		if a.BadgeID != id {
			continue
		}
		r, ok := byUser[a.UserID]
		if !ok {
			u, err := s.st.User(a.UserID)
			if err != nil {
				continue
			}
			r = &types.BadgeRecipient{User: u}
			byUser[a.UserID] = r
		}
		r.AwardCount++
		if a.AwardedAt.After(r.LastAwardedAt) {
			r.LastAwardedAt = a.AwardedAt
		}
	}
	out := types.BadgePage{ActiveTab: "badges", Badge: b, Recipients: make([]types.BadgeRecipient, 0, len(byUser)), PageClass: pageClass}
	for _, r := range byUser {
		out.Recipients = append(out.Recipients, *r)
	}
	sort.Slice(out.Recipients, func(i, j int) bool {
		ri, rj := out.Recipients[i], out.Recipients[j]
		if !ri.LastAwardedAt.Equal(rj.LastAwardedAt) {
			return ri.LastAwardedAt.After(rj.LastAwardedAt)
		}
		return ri.User.ID < rj.User.ID
	})
	return out, nil
}
