package routine

import (
	"fmt"
	"strings"

	"github.com/scribehq/scribe/pkg/models"
)

const routineSystemPrompt = `You are a journaling assistant proposing a daily routine for the user.
Base the routine on patterns in their recent journal entries.
Respond with a single JSON object and nothing else, using this shape:
{"title": string, "steps": [string]}
Keep the routine realistic: between three and eight concrete steps.`

func buildRoutinePrompt(date string, notes []*models.Note) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Propose a daily routine for %s.\n\n", date)

	if len(notes) == 0 {
		b.WriteString("The user has no recent journal entries; propose a balanced default routine.")

		return b.String()
	}

	b.WriteString("Recent journal entries:\n\n")

	for _, note := range notes {
		fmt.Fprintf(&b, "[%s] %s\n", note.Date, note.Content)
	}

	b.WriteString("\nReply with the JSON object.")

	return b.String()
}
