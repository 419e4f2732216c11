package types

import "time"

// User is a forum member.
type User struct {
	ID          int64  `json:"id" yaml:"id" toml:"id"`
	Username    string `json:"username" yaml:"username" toml:"username"`
	Email       string `json:"email,omitempty" yaml:"email" toml:"email"`
	Reputation  int    `json:"reputation" yaml:"reputation" toml:"reputation"`
	IsModerator bool   `json:"is_moderator,omitempty" yaml:"is_moderator" toml:"is_moderator"`
}

// Tag groups articles.
type Tag struct {
	ID          int64  `json:"id" yaml:"id" toml:"id"`
	Slug        string `json:"slug" yaml:"slug" toml:"slug"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
}

// Article is an entry of the articles directory.
type Article struct {
	ID          int64     `json:"id" yaml:"id" toml:"id"`
	Slug        string    `json:"slug" yaml:"slug" toml:"slug"`
	Title       string    `json:"title" yaml:"title" toml:"title"`
	Teaser      string    `json:"teaser,omitempty" yaml:"teaser" toml:"teaser"`
	Body        string    `json:"body,omitempty" yaml:"body" toml:"body"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags" toml:"tags"`
	PublishDate time.Time `json:"publish_date" yaml:"publish_date" toml:"publish_date"`
	Live        bool      `json:"live" yaml:"live" toml:"live"`
}

// Badge levels.
const (
	BadgeGold   = "gold"
	BadgeSilver = "silver"
	BadgeBronze = "bronze"
)

// Badge is a badge known to the database.
type Badge struct {
	ID          int64  `json:"id" yaml:"id" toml:"id"`
	Slug        string `json:"slug" yaml:"slug" toml:"slug"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
	Level       string `json:"level" yaml:"level" toml:"level"`
}

// Award records a badge given to a user.
type Award struct {
	ID        int64     `json:"id" yaml:"id" toml:"id"`
	UserID    int64     `json:"user_id" yaml:"user_id" toml:"user_id"`
	BadgeID   int64     `json:"badge_id" yaml:"badge_id" toml:"badge_id"`
	AwardedAt time.Time `json:"awarded_at" yaml:"awarded_at" toml:"awarded_at"`
}

// Feedback is a message sent through the feedback form.
type Feedback struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Message     string    `json:"message"`
	UserID      int64     `json:"user_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
