package stub

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/briefly-ai/briefly-go/internal/briefs"
)

// The stub assistant is canned and deterministic: when the user asks for a
// brief it answers with the same markdown layout the production assistant is
// prompted to use, and the server materializes a brief from it exactly the
// way the production backend does.

const briefMarker = "## Brief:"

// wantsBrief mirrors the production assistant's behaviour of producing a
// structured brief whenever the user asks for one.
func wantsBrief(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "brief")
}

// assistantReply composes the canned markdown answer.
func assistantReply(message string) string {
	if !wantsBrief(message) {
		return "I can turn conversations into structured briefs. " +
			"Describe your project, or paste the messages you want summarized, " +
			"and ask me to create a brief."
	}

	title := "Generated Brief"
	if topic := extractTopic(message); topic != "" {
		title = topic
	}

	return fmt.Sprintf(`Here is a first pass at your brief.

%s %s
**Objective:** Capture the goal described in your message
**Deliverables:**
- Draft plan
- Final summary
**Deadline:** To be confirmed
**Owners:** Unassigned
**Assets:**
- %s
**Open Questions:**
- Who approves the final version?
- What is the hard deadline?`, briefMarker, title, strings.TrimSpace(message))
}

// extractTopic pulls a channel or quoted topic out of the message to title
// the brief, e.g. "#marketing" from "Create a brief from #marketing".
func extractTopic(message string) string {
	for _, word := range strings.Fields(message) {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			topic := strings.TrimPrefix(word, "#")
			return strings.ToUpper(topic[:1]) + topic[1:] + " Brief"
		}
	}
	return ""
}

// parseBrief extracts a brief document from a markdown assistant response.
// Returns nil when the response carries no brief. Section handling matches
// the production parser: scalar lines set fields, "- " lines append to the
// current list section.
func parseBrief(response, userMessage, userID string, now time.Time) *briefs.Brief {
	if !strings.Contains(response, briefMarker) && !strings.Contains(response, "**Objective:**") {
		return nil
	}

	doc := &briefs.Brief{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         "Generated Brief",
		Deliverables:  []string{},
		Owners:        []string{},
		Assets:        []string{},
		OpenQuestions: []string{},
		SourceType:    briefs.SourceAI,
		SourceContent: userMessage,
		Status:        briefs.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var section briefs.ListField
	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, briefMarker):
			doc.Title = strings.TrimSpace(strings.TrimPrefix(line, briefMarker))
		case strings.HasPrefix(line, "**Objective:**"):
			doc.Objective = strings.TrimSpace(strings.TrimPrefix(line, "**Objective:**"))
			section = ""
		case strings.HasPrefix(line, "**Deadline:**"):
			doc.Deadline = strings.TrimSpace(strings.TrimPrefix(line, "**Deadline:**"))
			section = ""
		case strings.HasPrefix(line, "**Deliverables:**"):
			section = briefs.FieldDeliverables
		case strings.HasPrefix(line, "**Owners:**"):
			section = briefs.FieldOwners
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "**Owners:**")); rest != "" {
				doc.Owners = append(doc.Owners, rest)
			}
		case strings.HasPrefix(line, "**Assets:**"):
			section = briefs.FieldAssets
		case strings.HasPrefix(line, "**Open Questions:**"):
			section = briefs.FieldOpenQuestions
		case strings.HasPrefix(line, "- ") && section != "":
			if item := strings.TrimSpace(line[2:]); item != "" {
				doc.SetList(section, append(doc.List(section), item))
			}
		}
	}
	return doc
}
