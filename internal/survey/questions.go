package survey

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/cb-discovery/internal/types"
)

// OthersOption is the option label that asks for free text.
const OthersOption = "others"

// IsYesNoOnly reports whether options is exactly the set {yes, no}, ignoring case and spacing.
func IsYesNoOnly(options []string) bool {
	if len(options) == 0 {
		return false
	}
	set := make(map[string]bool, len(options))
	for _, o := range options {
		set[strings.ToLower(strings.TrimSpace(o))] = true
	}
	return len(set) == 2 && set["yes"] && set["no"]
}

// EffectiveType returns the type a question is answered as. A select with
// options other than yes/no becomes a multiselect unless auto_multi is false.
func EffectiveType(q types.Question) types.QuestionType {
	if q.Type == "" {
		return types.QuestionText
	}
	if q.Type != types.QuestionSelect {
		return q.Type
	}
	autoMulti := q.AutoMulti == nil || *q.AutoMulti
	if autoMulti && len(q.Options) > 0 && !IsYesNoOnly(q.Options) {
		return types.QuestionMultiSelect
	}
	return types.QuestionSelect
}

func isOthers(s string) bool {
	return strings.ToLower(strings.TrimSpace(s)) == OthersOption
}

// ResolveOthers replaces an "Others" choice with "Others: <text>" when text is given.
func ResolveOthers(value any, other string) any {
	other = strings.TrimSpace(other)
	if other == "" {
		return value
	}
	switch v := value.(type) {
	case string:
		if isOthers(v) {
			return "Others: " + other
		}
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			if isOthers(s) {
				s = "Others: " + other
			}
			out[i] = s
		}
		return out
	}
	return value
}

// NormalizeAnswer coerces a raw decoded value to the shape expected for q and
// resolves any "Others" choice. It rejects values of the wrong kind.
func NormalizeAnswer(q types.Question, raw any, other string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch EffectiveType(q) {
	case types.QuestionText:
		s, ok := raw.(string)
		if !ok {
			return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: "expected text"}
		}
		return s, nil
	case types.QuestionSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: "expected a single option"}
		}
		if s != "" && !hasOption(q.Options, s) {
			return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: fmt.Sprintf("unknown option %q", s)}
		}
		return ResolveOthers(s, other), nil
	case types.QuestionMultiSelect:
		list, err := toStrings(raw)
		if err != nil {
			return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: err.Error()}
		}
		for _, s := range list {
			if len(q.Options) > 0 && !hasOption(q.Options, s) {
				return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: fmt.Sprintf("unknown option %q", s)}
			}
		}
		return ResolveOthers(list, other), nil
	case types.QuestionLikert:
		n, ok := toInt(raw)
		if !ok {
			return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: "expected an integer"}
		}
		lk := likertOf(q)
		if n < lk.Min || n > lk.Max {
			return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: fmt.Sprintf("value %d outside %d-%d", n, lk.Min, lk.Max)}
		}
		return n, nil
	default:
		return nil, &ErrInvalidAnswer{QuestionID: q.ID, Reason: fmt.Sprintf("unsupported type %q", q.Type)}
	}
}

// ValidateRequired returns the IDs of required questions without a usable answer.
func ValidateRequired(questions []types.Question, answers map[string]any) []string {
	var missing []string
	for _, q := range questions {
		if !q.Required {
			continue
		}
		if answerMissing(q, answers[q.ID]) {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

func answerMissing(q types.Question, v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case string:
		switch q.Type {
		case types.QuestionText, "":
			return strings.TrimSpace(val) == ""
		default:
			return val == ""
		}
	}
	return false
}

func likertOf(q types.Question) types.Likert {
	if q.Likert != nil {
		return *q.Likert
	}
	return types.Likert{Min: 1, Max: 5, Labels: []string{"1", "2", "3", "4", "5"}}
}

func hasOption(options []string, s string) bool {
	if strings.HasPrefix(s, "Others: ") {
		s = "Others"
	}
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of options")
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if v == "" {
			return []string{}, nil
		}
		return []string{v}, nil
	}
	return nil, fmt.Errorf("expected a list of options")
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}
