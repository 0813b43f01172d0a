// Package briefs defines the brief document model shared by the conversation
// engine, the collection reconciler and the editing session.
package briefs

import "time"

// Brief lifecycle statuses as reported by the remote store.
const (
	StatusDraft    = "draft"
	StatusExported = "exported"
	StatusArchived = "archived"
)

// Source types recorded on a brief.
const (
	SourceManual = "manual"
	SourceAI     = "ai"
)

// Known export destinations.
const (
	DestinationAsana   = "asana"
	DestinationClickUp = "clickup"
	DestinationSheets  = "sheets"
)

// KnownDestination reports whether dest is a supported export target.
func KnownDestination(dest string) bool {
	switch dest {
	case DestinationAsana, DestinationClickUp, DestinationSheets:
		return true
	}
	return false
}

// ListField names an ordered list field of a brief. Items are addressed by
// positional index; removing index i shifts all later indices down by one.
type ListField string

const (
	FieldDeliverables  ListField = "deliverables"
	FieldOwners        ListField = "owners"
	FieldAssets        ListField = "assets"
	FieldOpenQuestions ListField = "open_questions"
)

// ScalarField names a free-text field of a brief.
type ScalarField string

const (
	FieldTitle     ScalarField = "title"
	FieldObjective ScalarField = "objective"
	FieldDeadline  ScalarField = "deadline"
)

// Summary is the listing view of a brief held by the collection reconciler.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Objective  string    `json:"objective"`
	Status     string    `json:"status"`
	SourceType string    `json:"source_type,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Brief is the full document held by an editing session. SourceContent is
// immutable reference text, present only when the brief originated from the
// assistant.
type Brief struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	Title         string    `json:"title"`
	Objective     string    `json:"objective"`
	Deliverables  []string  `json:"deliverables"`
	Deadline      string    `json:"deadline"`
	Owners        []string  `json:"owners"`
	Assets        []string  `json:"assets"`
	OpenQuestions []string  `json:"open_questions"`
	SourceType    string    `json:"source_type"`
	SourceContent string    `json:"source_content,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Summary projects the brief onto its listing view.
func (b *Brief) Summary() Summary {
	return Summary{
		ID:         b.ID,
		Title:      b.Title,
		Objective:  b.Objective,
		Status:     b.Status,
		SourceType: b.SourceType,
		UpdatedAt:  b.UpdatedAt,
	}
}

// List returns the named list field. The returned slice is the live backing
// array, not a copy.
func (b *Brief) List(field ListField) []string {
	switch field {
	case FieldDeliverables:
		return b.Deliverables
	case FieldOwners:
		return b.Owners
	case FieldAssets:
		return b.Assets
	case FieldOpenQuestions:
		return b.OpenQuestions
	}
	return nil
}

// SetList replaces the named list field.
func (b *Brief) SetList(field ListField, items []string) {
	switch field {
	case FieldDeliverables:
		b.Deliverables = items
	case FieldOwners:
		b.Owners = items
	case FieldAssets:
		b.Assets = items
	case FieldOpenQuestions:
		b.OpenQuestions = items
	}
}

// KnownListField reports whether field names one of the brief's list fields.
func KnownListField(field ListField) bool {
	return field == FieldDeliverables || field == FieldOwners ||
		field == FieldAssets || field == FieldOpenQuestions
}

// Clone returns a deep copy of the brief, detaching all list fields.
func (b *Brief) Clone() *Brief {
	c := *b
	c.Deliverables = append([]string(nil), b.Deliverables...)
	c.Owners = append([]string(nil), b.Owners...)
	c.Assets = append([]string(nil), b.Assets...)
	c.OpenQuestions = append([]string(nil), b.OpenQuestions...)
	return &c
}
