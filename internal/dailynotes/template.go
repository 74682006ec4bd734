package dailynotes

import (
	"strings"

	"github.com/example/daygap/internal/date"
)

// DefaultTemplate is the content of a new daily note when the vault has no
// template file configured.
const DefaultTemplate = "# {{date}}\n"

// RenderTemplate substitutes the supported placeholders into a template
// body. {{date}} and {{title}} take the note-name form of the day and
// {{isodate}} the ISO form.
func RenderTemplate(body string, d date.Date, p *Pattern) []byte {
	name := p.Format(d)
	r := strings.NewReplacer(
		"{{date}}", name,
		"{{title}}", name,
		"{{isodate}}", d.String(),
	)
	return []byte(r.Replace(body))
}
