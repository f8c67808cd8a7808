package schema

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	kaptinlin "github.com/kaptinlin/jsonschema"
)

// Keywords that only summarize failures of their subschemas. When a
// subschema result carries its own errors these are dropped so the leaf
// failure is the one reported.
var aggregateKeywords = map[string]bool{
	"properties":            true,
	"patternProperties":     true,
	"additionalProperties":  true,
	"unevaluatedProperties": true,
	"items":                 true,
	"prefixItems":           true,
	"unevaluatedItems":      true,
	"contains":              true,
	"allOf":                 true,
	"anyOf":                 true,
	"oneOf":                 true,
	"$ref":                  true,
	"$dynamicRef":           true,
	"dependentSchemas":      true,
}

type constraintIssue struct {
	segments []string // instance location split into pointer tokens
	keyword  string
	message  string
}

// checkConstraint runs the compiled document against value and reports the
// first failure in instance-location order.
func checkConstraint(value any, c *kaptinlin.Schema) error {
	result := c.Validate(value)
	if result == nil || result.IsValid() {
		return nil
	}

	issues := collectIssues(result, "")
	if len(issues) == 0 {
		return &MismatchError{Reason: "value does not match schema"}
	}
	slices.SortFunc(issues, compareIssues)

	first := issues[0]
	return &MismatchError{Path: pointerPath(first.segments), Reason: first.message}
}

func collectIssues(r *kaptinlin.EvaluationResult, base string) []constraintIssue {
	loc := base + r.InstanceLocation

	var issues []constraintIssue
	for _, d := range r.Details {
		if d == nil || d.IsValid() {
			continue
		}
		issues = append(issues, collectIssues(d, loc)...)
	}

	nested := len(issues) > 0
	segments := splitPointer(loc)
	for kw, e := range r.Errors {
		if nested && aggregateKeywords[kw] {
			continue
		}
		issues = append(issues, constraintIssue{segments: segments, keyword: kw, message: e.Error()})
	}
	return issues
}

func compareIssues(a, b constraintIssue) int {
	for i := 0; i < len(a.segments) && i < len(b.segments); i++ {
		if c := compareSegment(a.segments[i], b.segments[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(a.segments), len(b.segments)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.keyword, b.keyword); c != 0 {
		return c
	}
	return cmp.Compare(a.message, b.message)
}

// compareSegment orders array indexes numerically and names lexically.
func compareSegment(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}

func splitPointer(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		parts[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(p)
	}
	return parts
}

// pointerPath renders pointer tokens in the "trends[1].trend" form used by
// MismatchError.
func pointerPath(segments []string) string {
	var b strings.Builder
	for _, s := range segments {
		if _, err := strconv.Atoi(s); err == nil {
			b.WriteString("[" + s + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	return b.String()
}
