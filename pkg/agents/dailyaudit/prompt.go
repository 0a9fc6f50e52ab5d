package dailyaudit

import (
	"fmt"
	"strings"

	"github.com/scribehq/scribe/pkg/models"
)

const auditSystemPrompt = `You are a journaling assistant reviewing one day of a user's journal.
Respond with a single JSON object and nothing else, using this shape:
{"summary": string, "mood": string, "risk_score": integer 0-10, "highlights": [string], "concerns": [string]}
The risk_score reflects signs of distress, burnout or harmful patterns in the entries.
Score 8 or higher only when the entries show serious warning signs.`

func buildAuditPrompt(date string, notes []*models.Note) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Journal entries for %s:\n\n", date)

	for i, note := range notes {
		fmt.Fprintf(&b, "Entry %d", i+1)

		if len(note.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(note.Tags, ", "))
		}

		fmt.Fprintf(&b, ":\n%s\n\n", note.Content)
	}

	b.WriteString("Analyze these entries and reply with the JSON object.")

	return b.String()
}
