package store

// TaskStatus is the completion state of a follow-up task.
type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

func (s TaskStatus) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	return s == TaskOpen || s == TaskDone
}

// Note is a captured note with its model-derived summary, tags and follow-up tasks.
type Note struct {
	ID int64

	Title     string
	Body      string
	Summary   string
	Tags      []string
	Embedding []float32
	CreatedTs int64

	// Tasks are loaded by the Store facade. Drivers ignore this field on reads.
	Tasks []*Task
}

// Task is a follow-up action owned by a note.
type Task struct {
	ID     int64
	NoteID int64
	Text   string
	Status TaskStatus
}

// FindNote selects notes. ID and IDs are filters; Limit and Offset page the result.
type FindNote struct {
	ID  *int64
	IDs []int64

	Limit  *int
	Offset *int
}

// FindTask selects tasks by id or by owning notes.
type FindTask struct {
	ID      *int64
	NoteIDs []int64
}

// UpdateTask changes the status of one task.
type UpdateTask struct {
	ID     int64
	Status TaskStatus
}

// NoteEmbedding is one (note id, vector) pair yielded by a full scan.
type NoteEmbedding struct {
	NoteID    int64
	Embedding []float32
}

// SystemSetting is a name/value row used for schema bookkeeping.
type SystemSetting struct {
	Name        string
	Value       string
	Description string
}
