// Package memory implements the agent's persistent notes: write_memory
// appends timestamped entries to a single Markdown log and query_memory
// searches it. The log is append-only; the write path never reads or
// rewrites earlier bytes.
package memory

import (
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/flemzord/stagewright/internal/naming"
)

// Entry is one note in the log.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags,omitempty"`
	Body      string    `json:"body"`
}

// FormatEntry frames e for appending:
//
//	\n## <timestamp> [tag, tag]\n\n<body>\n
//
// The tag list is omitted when empty. Tags must already be normalized.
func FormatEntry(e Entry) string {
	var b strings.Builder
	b.WriteString("\n## ")
	b.WriteString(naming.SecondStamp(e.Timestamp))
	if len(e.Tags) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Tags, ", "))
		b.WriteString("]")
	}
	b.WriteString("\n\n")
	b.WriteString(e.Body)
	b.WriteString("\n")
	return b.String()
}

// NormalizeTags trims tags, strips characters that would break the heading
// framing, drops empties and removes duplicates. Order is preserved.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Map(func(r rune) rune {
			switch r {
			case '[', ']', ',':
				return -1
			case '\n', '\r', '\t':
				return ' '
			}
			return r
		}, tag)
		tag = strings.Join(strings.Fields(tag), " ")
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var headingPattern = regexp.MustCompile(`^## (\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)(?: \[(.*)\])?$`)

// Parse splits the content of a notes log into entries in file order.
// A heading only starts an entry when it follows an empty line, which is
// how FormatEntry frames it. Text before the first heading is ignored.
func Parse(content string) []Entry {
	lines := strings.Split(content, "\n")

	var (
		entries []Entry
		current *Entry
		body    []string
	)
	flush := func() {
		if current == nil {
			return
		}
		text := strings.Join(body, "\n")
		current.Body = strings.TrimSuffix(text, "\n")
		entries = append(entries, *current)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if i > 0 && lines[i-1] == "" {
			if m := headingPattern.FindStringSubmatch(line); m != nil {
				ts, err := time.Parse(naming.SecondLayout, m[1])
				if err == nil {
					if current != nil && len(body) > 0 && body[len(body)-1] == "" {
						// The blank line before this heading belongs to the framing.
						body = body[:len(body)-1]
					}
					flush()
					current = &Entry{Timestamp: ts, Tags: splitTags(m[2])}
					body = nil
					// Skip the blank line after the heading.
					if i+1 < len(lines) && lines[i+1] == "" {
						i++
					}
					continue
				}
			}
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return entries
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// ReadNotes reads and parses the notes log at path. A missing file yields
// no entries and no error.
func ReadNotes(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(string(data)), nil
}

// Search returns entries whose body contains query case-insensitively and,
// when tag is non-empty, that carry tag (case-insensitive). File order is
// kept, so the newest match is last.
func Search(entries []Entry, query, tag string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	tag = strings.TrimSpace(tag)

	var out []Entry
	for _, e := range entries {
		if q != "" && !strings.Contains(strings.ToLower(e.Body), q) {
			continue
		}
		if tag != "" && !slices.ContainsFunc(e.Tags, func(t string) bool { return strings.EqualFold(t, tag) }) {
			continue
		}
		out = append(out, e)
	}
	return out
}
