package model

// Job control option constants advertised in a process description.
const (
	ControlSync  = "sync-execute"
	ControlAsync = "async-execute"
)

// Schema type constants used in input/output declarations.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeObject  = "object"
)

// Schema describes the declared type of a single process input or output.
type Schema struct {
	Type             string `json:"type"`
	Default          any    `json:"default,omitempty"`
	ContentMediaType string `json:"contentMediaType,omitempty"`
}

// Input declares one named process input. MinOccurs >= 1 marks the input
// as required; a zero MinOccurs with a schema default makes it optional.
type Input struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Schema      Schema   `json:"schema"`
	MinOccurs   int      `json:"minOccurs"`
	MaxOccurs   int      `json:"maxOccurs,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Output declares one named process output.
type Output struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Schema      Schema `json:"schema"`
}

// Link is a typed hyperlink carried in process metadata and API documents.
type Link struct {
	Href     string `json:"href"`
	Rel      string `json:"rel,omitempty"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Hreflang string `json:"hreflang,omitempty"`
}

// ProcessDescriptor is the full metadata for one registered process. It is
// immutable after registration; the registry hands out the same pointer to
// every caller.
type ProcessDescriptor struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Version           string            `json:"version"`
	JobControlOptions []string          `json:"jobControlOptions"`
	Keywords          []string          `json:"keywords,omitempty"`
	Links             []Link            `json:"links,omitempty"`
	Inputs            map[string]Input  `json:"inputs"`
	Outputs           map[string]Output `json:"outputs"`
	Example           map[string]any    `json:"example,omitempty"`
}

// Summary is the abbreviated process representation used in list responses.
type Summary struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Version           string   `json:"version"`
	JobControlOptions []string `json:"jobControlOptions"`
	Keywords          []string `json:"keywords,omitempty"`
}

// Summary returns the abbreviated form of the descriptor.
func (d *ProcessDescriptor) Summary() Summary {
	return Summary{
		ID:                d.ID,
		Title:             d.Title,
		Description:       d.Description,
		Version:           d.Version,
		JobControlOptions: d.JobControlOptions,
		Keywords:          d.Keywords,
	}
}

// SupportsAsync reports whether the process advertises async-execute.
func (d *ProcessDescriptor) SupportsAsync() bool {
	for _, opt := range d.JobControlOptions {
		if opt == ControlAsync {
			return true
		}
	}
	return false
}
