package mcpserver

// NoteTemplateContract describes how new daily notes are rendered, for
// LLM consumers that want to write or review a template file.
const NoteTemplateContract = `# Daily Note Template

Every daily note this server creates is rendered from a Markdown
template. The template lives in the vault (its path is configured) and
is read fresh on each creation, so edits take effect immediately.

## Placeholders

` + "```" + `markdown
# {{date}}

Created on {{isodate}}.
` + "```" + `

- ` + "`" + `{{date}}` + "`" + ` – the note name for the day, rendered with the configured
  file name pattern (e.g. ` + "`" + `2025-01-20` + "`" + ` for pattern ` + "`" + `YYYY-MM-DD` + "`" + `).
- ` + "`" + `{{title}}` + "`" + ` – same as ` + "`" + `{{date}}` + "`" + `.
- ` + "`" + `{{isodate}}` + "`" + ` – the day in ` + "`" + `YYYY-MM-DD` + "`" + ` form regardless of pattern.

## Rules

1. Templates are plain Markdown; placeholders are replaced verbatim, with
   no conditionals or loops.
2. A configured template that cannot be read falls back to the built-in
   one rather than blocking note creation.
3. The built-in template is a single heading line:

` + "```" + `markdown
# {{date}}
` + "```" + `

4. Notes for past days are rendered with that day's date, not the day the
   backfill ran.
`
