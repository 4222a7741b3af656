package deskema

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/reoring/deskema/i18n"
)

// checkConstraints applies the constraint set to an already type-matched
// value in the fixed order: lengths, pattern, numeric bounds, choices,
// format. All failures are collected; short-circuiting is left to the
// caller's fail-fast handling.
func checkConstraints(c Constraints, v any) Issues {
	var iss Issues
	if c.MinLength != nil {
		if n, ok := lengthOf(v); ok && n < *c.MinLength {
			iss = AppendIssues(iss, Issue{Path: "/", Code: CodeTooShort, Message: i18n.T(CodeTooShort, nil), Params: map[string]any{"min": *c.MinLength, "got": n}})
		}
	}
	if c.MaxLength != nil {
		if n, ok := lengthOf(v); ok && n > *c.MaxLength {
			iss = AppendIssues(iss, Issue{Path: "/", Code: CodeTooLong, Message: i18n.T(CodeTooLong, nil), Params: map[string]any{"max": *c.MaxLength, "got": n}})
		}
	}
	if c.Pattern != "" {
		if s, ok := v.(string); ok {
			re, err := compilePattern(c.Pattern)
			if err != nil {
				iss = AppendIssues(iss, Issue{Path: "/", Code: CodeSchemaConfig, Message: "invalid pattern", Cause: err})
			} else if !re.MatchString(s) {
				iss = AppendIssues(iss, Issue{Path: "/", Code: CodePattern, Message: i18n.T(CodePattern, nil), Params: map[string]any{"pattern": c.Pattern}})
			}
		}
	}
	iss = AppendIssues(iss, checkBounds(c, v)...)
	if len(c.Choices) > 0 && !inChoices(c.Choices, v) {
		iss = AppendIssues(iss, Issue{Path: "/", Code: CodeInvalidEnum, Message: i18n.T(CodeInvalidEnum, nil), Params: map[string]any{"choices": c.Choices}})
	}
	if c.Format != "" {
		if s, ok := v.(string); ok {
			if fi := checkFormat(c.Format, s); fi != nil {
				iss = AppendIssues(iss, *fi)
			}
		}
	}
	return iss
}

func checkBounds(c Constraints, v any) Issues {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	var iss Issues
	if c.Gt != nil && !(f > *c.Gt) {
		iss = AppendIssues(iss, Issue{Path: "/", Code: CodeTooSmall, Message: i18n.T(CodeTooSmall, nil), Params: map[string]any{"gt": *c.Gt, "got": f}})
	}
	if c.Gte != nil && !(f >= *c.Gte) {
		iss = AppendIssues(iss, Issue{Path: "/", Code: CodeTooSmall, Message: i18n.T(CodeTooSmall, nil), Params: map[string]any{"gte": *c.Gte, "got": f}})
	}
	if c.Lt != nil && !(f < *c.Lt) {
		iss = AppendIssues(iss, Issue{Path: "/", Code: CodeTooBig, Message: i18n.T(CodeTooBig, nil), Params: map[string]any{"lt": *c.Lt, "got": f}})
	}
	if c.Lte != nil && !(f <= *c.Lte) {
		iss = AppendIssues(iss, Issue{Path: "/", Code: CodeTooBig, Message: i18n.T(CodeTooBig, nil), Params: map[string]any{"lte": *c.Lte, "got": f}})
	}
	return iss
}

func checkFormat(format, s string) *Issue {
	bad := func(hint string) *Issue {
		return &Issue{Path: "/", Code: CodeInvalidFormat, Message: i18n.T(CodeInvalidFormat, nil), Hint: hint, Params: map[string]any{"format": format}}
	}
	switch format {
	case "email":
		if _, err := mail.ParseAddress(s); err != nil {
			return bad("expected email address")
		}
	case "uuid":
		if _, err := uuid.Parse(s); err != nil {
			return bad("expected uuid")
		}
	case "date-time":
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return bad("expected RFC 3339 date-time")
		}
	case "date":
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return bad("expected full-date")
		}
	case "uri":
		if u, err := url.Parse(s); err != nil || !u.IsAbs() {
			return bad("expected absolute URI")
		}
	default:
		// Unknown formats are flagged at Check time; skip here like JSON
		// Schema's annotation-only default.
	}
	return nil
}

func lengthOf(v any) (int, bool) {
	switch s := v.(type) {
	case string:
		return utf8.RuneCountInString(s), true
	case []any:
		return len(s), true
	case map[string]any:
		return len(s), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// inChoices compares with numeric values normalized so that int64(3) and
// float64(3) land in the same bucket; everything else uses DeepEqual.
func inChoices(choices []any, v any) bool {
	for _, c := range choices {
		if cf, ok1 := toFloat(c); ok1 {
			if vf, ok2 := toFloat(v); ok2 && cf == vf {
				return true
			}
			continue
		}
		if reflect.DeepEqual(c, v) {
			return true
		}
	}
	return false
}

var patternCache sync.Map // pattern string -> *regexp.Regexp

func compilePattern(p string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", p, err)
	}
	patternCache.Store(p, re)
	return re, nil
}
