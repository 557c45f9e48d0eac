package draft

import (
	"encoding/json"
	"fmt"

	"anycomp/internal/domain"
)

// State is the client-side upload state of one file.
type State int

const (
	Selected State = iota
	Uploading
	Uploaded
	Failed
)

func (s State) String() string {
	switch s {
	case Selected:
		return "selected"
	case Uploading:
		return "uploading"
	case Uploaded:
		return "uploaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, v := range []State{Selected, Uploading, Uploaded, Failed} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown upload state %q", b)
}

// Item is one tracked file.
type Item struct {
	FileID       string        `json:"fileId"`
	Name         string        `json:"name"`
	Size         int64         `json:"size"`
	MimeType     string        `json:"mimeType"`
	State        State         `json:"state"`
	DisplayOrder int           `json:"displayOrder"`
	Media        *domain.Media `json:"media,omitempty"`
	Err          string        `json:"error,omitempty"`

	file *File
}

// Rejection is a file refused before upload.
type Rejection struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

func (r Rejection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string `json:"name"`
		Error string `json:"error"`
	}{r.Name, r.Err.Error()})
}

// Event is emitted on every item state change.
type Event struct {
	SpecialistID string `json:"specialistId"`
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	State        State  `json:"state"`
	Err          string `json:"error,omitempty"`
}

type Observer func(Event)

// Snapshot is the full view of a session.
type Snapshot struct {
	Mode         Mode   `json:"mode"`
	SpecialistID string `json:"specialistId,omitempty"`
	CanUpload    bool   `json:"canUpload"`
	Uploading    bool   `json:"isUploading"`
	MeetsMinimum bool   `json:"meetsMinimum"`
	Error        string `json:"error,omitempty"`
	Items        []Item `json:"items"`
}
