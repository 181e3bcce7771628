package engine

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// cellDelimiter matches one of - | , / or tab with any surrounding whitespace.
var cellDelimiter = regexp.MustCompile(`\s*[-|,/\t]\s*`)

// maxWhitespaceCells caps the whitespace fallback split; the last cell keeps
// the rest of the line.
const maxWhitespaceCells = 3

// ParseRows turns plain text into table rows, one per non-blank line.
func ParseRows(text string) [][]string {
	lines := lo.FilterMap(strings.Split(normalizeNewlines(text), "\n"), func(ln string, _ int) (string, bool) {
		ln = strings.TrimSpace(ln)
		return ln, ln != ""
	})

	rows := make([][]string, 0, len(lines))
	for _, ln := range lines {
		parts := lo.FilterMap(cellDelimiter.Split(ln, -1), func(p string, _ int) (string, bool) {
			p = strings.TrimSpace(p)
			return p, p != ""
		})
		if len(parts) == 1 {
			parts = splitFields(ln, maxWhitespaceCells)
		}
		rows = append(rows, parts)
	}
	return rows
}

// ConvertToTable renders plain text as an HTML table with generic column
// headers. Every row is padded to the widest row and every cell is escaped.
func ConvertToTable(text string) string {
	rows := ParseRows(text)

	cols := 1
	if len(rows) > 0 {
		cols = max(1, lo.Max(lo.Map(rows, func(r []string, _ int) int { return len(r) })))
	}
	if len(rows) == 0 {
		rows = [][]string{{}}
	}

	var sb strings.Builder
	sb.WriteString("<table>\n<thead>\n<tr>\n")
	for i := range cols {
		sb.WriteString("<th>" + html.EscapeString("Col "+strconv.Itoa(i+1)) + "</th>\n")
	}
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, r := range rows {
		sb.WriteString("<tr>\n")
		for i := range cols {
			v := ""
			if i < len(r) {
				v = html.EscapeString(r[i])
			}
			sb.WriteString("<td>" + v + "</td>\n")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>\n")
	return sb.String()
}

// splitFields splits s on whitespace runs into at most n fields.
func splitFields(s string, n int) []string {
	var out []string
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	for s != "" {
		if len(out) == n-1 {
			out = append(out, s)
			break
		}
		end := strings.IndexFunc(s, unicode.IsSpace)
		if end < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:end])
		s = strings.TrimLeftFunc(s[end:], unicode.IsSpace)
	}
	return out
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
