package deskema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeUnionNoMatch  = "union_no_match"
	CodeParseError    = "parse_error"
	// Model/computed stages
	CodeModelRule           = "model_rule"
	CodeComputedFailed      = "computed_failed"
	CodeComputedInvalidType = "computed_invalid_type"
	// Descriptor/registry configuration problems (never data errors)
	CodeSchemaConfig = "schema_config"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "got":42})
	// for i18n and observability.
	Params map[string]any
	// Rule optionally records the validator or computed-field name that
	// produced this issue.
	Rule string
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Rebase rewrites issue paths so that child issues rooted at "/" land under
// base (e.g. base="/items/2"). Issues already carrying an absolute path are
// re-parented below base.
func Rebase(base string, iss Issues) Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// issuesFromErr converts an error into Issues, wrapping non-Issues errors
// with the given code at path.
func issuesFromErr(path, code, rule string, err error) Issues {
	if err == nil {
		return nil
	}
	if i2, ok := AsIssues(err); ok {
		out := make(Issues, 0, len(i2))
		for _, it := range i2 {
			if it.Path == "" {
				it.Path = path
			}
			if it.Code == "" {
				it.Code = code
			}
			if it.Rule == "" {
				it.Rule = rule
			}
			out = append(out, it)
		}
		return out
	}
	return Issues{{Path: path, Code: code, Message: err.Error(), Cause: err, Rule: rule}}
}
