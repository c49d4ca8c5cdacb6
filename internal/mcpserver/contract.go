package mcpserver

// RecordFormatContract describes the record layout the tools produce, so
// LLM consumers can read and extend records without breaking link parsing.
const RecordFormatContract = `# Decision Record Format

Records live in one flat directory. Each file is named
` + "`NNNN-slug.md`" + `: the zero-padded id, a dash, and the slug of the title.
Ids are never reused; the next id is one more than the highest id present.

## Layout

` + "```" + `markdown
# 12. Use SQLite for the local index

Date: 2026-10-19

## Status

Accepted

## Context

What forces are at play.

## Decision

What we decided.

## Consequences

What becomes easier or harder.
` + "```" + `

## Supersede links

Supersede links are plain lines appended at the end of both records.
The wording is fixed; tools parse it back:

` + "```" + `
Supersedes the [architecture decision record 7](0007-use-postgres.md)
Superseded by the [architecture decision record 12](0012-use-sqlite-for-the-local-index.md)
` + "```" + `

## Rules

1. Create records with the ` + "`new_record`" + ` tool; never pick ids or filenames yourself.
2. Link records with ` + "`supersede_records`" + ` (or the ` + "`supersedes`" + ` argument of
   ` + "`new_record`" + `). It writes both lines.
3. Do not edit or remove link lines by hand. ` + "`check_links`" + ` reports pairs that drifted.
4. A record that carries a "Superseded by" line reports its status as Superseded.
`
