package store

// Document is a contract/agreement uploaded into a session. Content is
// the extracted plain text used for analysis.
type Document struct {
	ID         int64
	UID        string
	SessionUID string
	Title      string
	Content    string
	Sections   []string // top-level section headings, extracted at upload
	CreatedTs  int64
}

// CreateDocument is the insert payload. UID is assigned by the store.
type CreateDocument struct {
	SessionUID string
	Title      string
	Content    string
	Sections   []string
}

// FindDocument filters document lookups. Zero-valued fields are ignored.
type FindDocument struct {
	UID        string
	SessionUID string
}
