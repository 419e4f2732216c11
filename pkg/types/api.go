package types

import "time"

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: article not found: intro
	Error string `json:"error" example:"article not found: intro"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// StaticPage is returned by the about, privacy and custom FAQ pages.
type StaticPage struct {
	// example: About Forum
	Title string `json:"title" example:"About Forum"`
	// Page body as configured by the site admin.
	Content string `json:"content"`
	// example: meta
	PageClass string `json:"page_class" example:"meta"`
}

// HelpPage is returned by GET /help.
type HelpPage struct {
	// example: Forum
	AppName   string `json:"app_name" example:"Forum"`
	PageClass string `json:"page_class" example:"meta"`
}

// FAQPage is returned by GET /faq. Content is set when the admin
// configured a custom FAQ; otherwise the URLs for the built-in one are.
type FAQPage struct {
	Title          string `json:"title,omitempty"`
	Content        string `json:"content,omitempty"`
	GravatarFAQURL string `json:"gravatar_faq_url,omitempty" example:"/faq#gravatar"`
	AskQuestionURL string `json:"ask_question_url,omitempty" example:"/questions/ask"`
	PageClass      string `json:"page_class" example:"meta"`
}

// FeedbackForm is the body of POST /feedback.
type FeedbackForm struct {
	// Optional sender name.
	Name string `json:"name,omitempty" example:"Jane"`
	// Required for anonymous senders.
	Email string `json:"email,omitempty" example:"jane@example.com"`
	// Required message text.
	Message string `json:"message" example:"Great forum!"`
	// Where to send the user afterwards.
	Next string `json:"next,omitempty" example:"/"`
}

// FeedbackPage is returned by GET /feedback and on validation errors.
type FeedbackPage struct {
	PageClass string            `json:"page_class" example:"meta"`
	Next      string            `json:"next" example:"/"`
	EmailAsk  bool              `json:"ask_email"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// FeedbackResult is returned after a successful submission.
type FeedbackResult struct {
	// example: Thanks for the feedback!
	Message string `json:"message" example:"Thanks for the feedback!"`
	Next    string `json:"next" example:"/"`
	ID      string `json:"id"`
}

// BadgesPage is returned by GET /badges.
type BadgesPage struct {
	ActiveTab      string  `json:"active_tab" example:"badges"`
	Badges         []Badge `json:"badges"`
	MyBadges       []int64 `json:"my_badges"`
	FeedbackFAQURL string  `json:"feedback_faq_url" example:"/feedback"`
	PageClass      string  `json:"page_class" example:"meta"`
}

// BadgeRecipient is a user holding a badge.
type BadgeRecipient struct {
	User          User      `json:"user"`
	AwardCount    int       `json:"award_count"`
	LastAwardedAt time.Time `json:"last_awarded_at"`
}

// BadgePage is returned by GET /badges/{id}.
type BadgePage struct {
	ActiveTab  string           `json:"active_tab" example:"badges"`
	Badge      Badge            `json:"badge"`
	Recipients []BadgeRecipient `json:"badge_recipients"`
	PageClass  string           `json:"page_class" example:"meta"`
}

// ArticleSummary is the display form of an article in lists.
type ArticleSummary struct {
	Title  string `json:"title"`
	URL    string `json:"url" example:"/articles/intro"`
	Teaser string `json:"teaser,omitempty"`
}

// TagSummary is the display form of a tag.
type TagSummary struct {
	Name        string `json:"name"`
	URL         string `json:"url" example:"/articles/tag/go"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// ArticlePage is returned by GET /articles/{slug}.
type ArticlePage struct {
	Article         Article          `json:"article"`
	RelatedArticles []ArticleSummary `json:"related_articles"`
}

// Paginator describes the page being shown.
type Paginator struct {
	Page    int    `json:"page" example:"1"`
	Pages   int    `json:"pages" example:"3"`
	PerPage int    `json:"per_page" example:"10"`
	Total   int    `json:"total" example:"27"`
	HasPrev bool   `json:"has_prev"`
	HasNext bool   `json:"has_next"`
	BaseURL string `json:"base_url" example:"/articles"`
}

// ArticleListPage is returned by GET /articles and GET /articles/tag/{slug}.
type ArticleListPage struct {
	CurrentTag *TagSummary      `json:"current_tag,omitempty"`
	Paginator  Paginator        `json:"paginator_context"`
	Articles   []ArticleSummary `json:"articles"`
	Tags       []TagSummary     `json:"tags"`
}

// SearchResult is one hit of a search group.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SearchGroup is a block of results contributed by one search hook.
type SearchGroup struct {
	Name     string         `json:"name" example:"Articles"`
	Priority int            `json:"priority" example:"2"`
	Results  []SearchResult `json:"results"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Query  string        `json:"query"`
	Groups []SearchGroup `json:"groups"`
}

// ChannelStatus summarizes a signal channel for GET /admin/signals.
type ChannelStatus struct {
	Name      string   `json:"name" example:"post_save"`
	Args      []string `json:"args,omitempty"`
	Listeners []string `json:"listeners"`
	DB        bool     `json:"db"`
}

// SignalsResponse is returned by GET /admin/signals.
type SignalsResponse struct {
	Channels []ChannelStatus `json:"channels"`
}
