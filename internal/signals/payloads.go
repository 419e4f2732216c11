package signals

import "time"

// TagsUpdatedArgs are delivered on tags_updated.
type TagsUpdatedArgs struct {
	Tags      []string
	User      string
	Timestamp time.Time
}

func (a TagsUpdatedArgs) Args() Args {
	return Args{"tags": a.Tags, "user": a.User, "timestamp": a.Timestamp}
}

// PostUpdatedArgs are delivered on post_updated.
type PostUpdatedArgs struct {
	Post                string
	UpdatedBy           string
	NewlyMentionedUsers []string
}

func (a PostUpdatedArgs) Args() Args {
	return Args{"post": a.Post, "updated_by": a.UpdatedBy, "newly_mentioned_users": a.NewlyMentionedUsers}
}

type UserRegisteredArgs struct {
	User string
}

func (a UserRegisteredArgs) Args() Args { return Args{"user": a.User} }

type UserUpdatedArgs struct {
	Instance  string
	UpdatedBy string
}

func (a UserUpdatedArgs) Args() Args { return Args{"instance": a.Instance, "updated_by": a.UpdatedBy} }

// SearchQueryArgs are delivered on search_forum.
type SearchQueryArgs struct {
	Query string
}

func (a SearchQueryArgs) Args() Args { return Args{"query": a.Query} }

// ModelEventArgs are delivered on the persistence lifecycle channels.
// Created is only meaningful on post_save.
type ModelEventArgs struct {
	Kind     string
	Instance any
	Created  bool
}

func (a ModelEventArgs) Args() Args {
	return Args{"kind": a.Kind, "instance": a.Instance, "created": a.Created}
}

// M2MChangedArgs describe a change to a many-to-many relation.
type M2MChangedArgs struct {
	Kind     string
	Instance any
	Action   string
	PKSet    []int64
}

func (a M2MChangedArgs) Args() Args {
	return Args{"kind": a.Kind, "instance": a.Instance, "action": a.Action, "pk_set": a.PKSet}
}

// String returns args[key] when it holds a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Time returns args[key] when it holds a time.Time.
func (a Args) Time(key string) time.Time {
	t, _ := a[key].(time.Time)
	return t
}
