package signals

// Forum channels.
const (
	TagsUpdated            Name = "tags_updated"
	EditQuestionOrAnswer   Name = "edit_question_or_answer" // declared, never sent
	DeleteQuestionOrAnswer Name = "delete_question_or_answer"
	FlagOffensive          Name = "flag_offensive"
	RemoveFlagOffensive    Name = "remove_flag_offensive"
	UserUpdated            Name = "user_updated"
	UserRegistered         Name = "user_registered"
	UserLoggedIn           Name = "user_logged_in"
	PostUpdated            Name = "post_updated"
	PostRevisionPublished  Name = "post_revision_published"
	SiteVisited            Name = "site_visited"
	SearchForum            Name = "search_forum"
)

// Persistence lifecycle channels.
const (
	PreSave    Name = "pre_save"
	PostSave   Name = "post_save"
	PreDelete  Name = "pre_delete"
	PostDelete Name = "post_delete"
	PostSyncDB Name = "post_syncdb"
	M2MChanged Name = "m2m_changed"
)

var declared = []struct {
	name Name
	args []string
}{
	{TagsUpdated, []string{"tags", "user", "timestamp"}},
	{EditQuestionOrAnswer, []string{"instance", "modified_by"}},
	{DeleteQuestionOrAnswer, []string{"instance", "deleted_by"}},
	{FlagOffensive, []string{"instance", "mark_by"}},
	{RemoveFlagOffensive, []string{"instance", "mark_by"}},
	{UserUpdated, []string{"instance", "updated_by"}},
	{UserRegistered, []string{"user"}},
	{UserLoggedIn, []string{"session"}},
	{PostUpdated, []string{"post", "updated_by", "newly_mentioned_users"}},
	{PostRevisionPublished, []string{"revision", "was_approved"}},
	{SiteVisited, []string{"user", "timestamp"}},
	{SearchForum, []string{"query"}},
	{PreSave, []string{"instance", "kind"}},
	{PostSave, []string{"instance", "kind", "created"}},
	{PreDelete, []string{"instance", "kind"}},
	{PostDelete, []string{"instance", "kind"}},
	{PostSyncDB, []string{"kinds"}},
	{M2MChanged, []string{"instance", "kind", "action", "pk_set"}},
}

// DeclareDefaults declares every forum and persistence channel on r.
func DeclareDefaults(r *Registry) {
	for _, d := range declared {
		r.Declare(d.name, d.args...)
	}
}

// DBChannelOptions parameterizes DBChannels.
type DBChannelOptions struct {
	// Extra resolves channels owned by packages that import this one. The
	// funcs are called on every DBChannels call.
	Extra []func() Name
	// M2MChanged includes the many-to-many change channel. It mirrors the
	// store capability set in configuration.
	M2MChanged bool
}

// DBChannels returns the channels whose listeners have database side
// effects, in a stable order.
func DBChannels(opts DBChannelOptions) []Name {
	set := []Name{
		TagsUpdated,
		EditQuestionOrAnswer,
		DeleteQuestionOrAnswer,
		FlagOffensive,
		RemoveFlagOffensive,
		UserUpdated,
		UserLoggedIn,
		UserRegistered,
		PostUpdated,
	}
	for _, resolve := range opts.Extra {
		set = append(set, resolve())
	}
	set = append(set, PreSave, PostSave, PreDelete, PostDelete, PostSyncDB)
	if opts.M2MChanged {
		set = append(set, M2MChanged)
	}
	return set
}
