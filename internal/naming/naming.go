// Package naming derives deterministic, filesystem-safe names for artifacts
// written into the workspace. Everything here is pure: the same input always
// yields the same output.
package naming

import (
	"strings"
	"time"
)

// Separator joins slug segments.
const Separator = "-"

// MaxSlugSegments caps the number of segments kept by Slug.
const MaxSlugSegments = 8

// Layouts used for artifact file names and document headers.
const (
	// SecondLayout is a second-granularity UTC timestamp.
	SecondLayout = "2006-01-02T15:04:05Z"

	// fullLayout keeps nanoseconds with a fixed width so names sort lexically.
	fullLayout = "2006-01-02T15:04:05.000000000Z"
)

// Slug turns free text into a short identifier made of [a-z0-9] segments
// joined by Separator. Runs of any other character collapse into a single
// separator and at most MaxSlugSegments segments are kept.
//
// The result may be empty when s contains no ASCII letters or digits.
func Slug(s string) string {
	lowered := strings.ToLower(s)

	mapped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, lowered)

	segments := make([]string, 0, MaxSlugSegments)
	for _, seg := range strings.Split(mapped, Separator) {
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == MaxSlugSegments {
			break
		}
	}
	return strings.Join(segments, Separator)
}

// SecondStamp formats t in UTC at second precision, e.g. 2024-03-01T12:00:00Z.
func SecondStamp(t time.Time) string {
	return t.UTC().Format(SecondLayout)
}

// FileStamp formats t in UTC at nanosecond precision with every colon
// replaced so the result is portable as a file name component,
// e.g. 2024-03-01T12-00-00.000000042Z.
func FileStamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format(fullLayout), ":", "-")
}

// Fence returns a backtick fence long enough that no backtick run inside
// body can close it early. The minimum length is three.
func Fence(body string) string {
	longest, run := 0, 0
	for i := 0; i < len(body); i++ {
		if body[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
