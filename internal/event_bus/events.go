package event_bus

const (
	NotePageChangedType EventType = "note.page.changed"
	NotePageDeletedType EventType = "note.page.deleted"
)

// NotePageChanged is published after a note page was created, replaced, or patched.
type NotePageChanged struct {
	Id     string
	UserId int
}

// NotePageDeleted carries what is needed to clean up the stored photos of a removed page.
type NotePageDeleted struct {
	Id           string
	UserId       int
	UserUid      string
	Url          string
	ThumbnailUrl string
}
