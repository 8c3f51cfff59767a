package ingest

import "strings"

// ParseLine splits one line of the upload dialect into fields.
//
// Every double quote toggles the quoted state and is dropped; a comma outside quotes ends
// a field. Doubled quotes are not an escape, so a literal quote cannot appear in a field.
// Unbalanced quoting degrades silently. The result always has at least one field.
func ParseLine(line string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	return append(fields, field.String())
}
