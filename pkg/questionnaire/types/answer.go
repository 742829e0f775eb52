package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

type AnswerKind string

const (
	ANSWER_KIND_NONE    AnswerKind = ""
	ANSWER_KIND_STRING  AnswerKind = "string"
	ANSWER_KIND_NUMBER  AnswerKind = "number"
	ANSWER_KIND_BOOLEAN AnswerKind = "boolean"
	ANSWER_KIND_LIST    AnswerKind = "list"

	listSeparator = ", "
)

var ErrUnsupportedAnswer = errors.New("unsupported answer value")

// AnswerValue holds exactly one of a string, a number, a boolean or an
// ordered list of strings. On the wire it is the plain JSON value.
type AnswerValue struct {
	Kind AnswerKind `bson:"kind"`
	Str  string     `bson:"str,omitempty"`
	Num  float64    `bson:"num,omitempty"`
	Bool bool       `bson:"bool,omitempty"`
	List []string   `bson:"list,omitempty"`
}

func StringAnswer(s string) AnswerValue {
	return AnswerValue{Kind: ANSWER_KIND_STRING, Str: s}
}

func NumberAnswer(n float64) AnswerValue {
	return AnswerValue{Kind: ANSWER_KIND_NUMBER, Num: n}
}

func BoolAnswer(b bool) AnswerValue {
	return AnswerValue{Kind: ANSWER_KIND_BOOLEAN, Bool: b}
}

func ListAnswer(items ...string) AnswerValue {
	return AnswerValue{Kind: ANSWER_KIND_LIST, List: append([]string{}, items...)}
}

// IsPresent is false for missing values, blank strings and lists without a
// non-blank item.
func (a AnswerValue) IsPresent() bool {
	switch a.Kind {
	case ANSWER_KIND_STRING:
		return strings.TrimSpace(a.Str) != ""
	case ANSWER_KIND_NUMBER, ANSWER_KIND_BOOLEAN:
		return true
	case ANSWER_KIND_LIST:
		for _, item := range a.List {
			if strings.TrimSpace(item) != "" {
				return true
			}
		}
		return false
	}
	return false
}

// String renders the value as text; lists are joined with ", ".
func (a AnswerValue) String() string {
	switch a.Kind {
	case ANSWER_KIND_STRING:
		return a.Str
	case ANSWER_KIND_NUMBER:
		return strconv.FormatFloat(a.Num, 'f', -1, 64)
	case ANSWER_KIND_BOOLEAN:
		return strconv.FormatBool(a.Bool)
	case ANSWER_KIND_LIST:
		return strings.Join(a.List, listSeparator)
	}
	return ""
}

// Flatten returns the submission form of the value: scalars unchanged,
// lists joined into one comma separated string.
func (a AnswerValue) Flatten() interface{} {
	switch a.Kind {
	case ANSWER_KIND_STRING:
		return a.Str
	case ANSWER_KIND_NUMBER:
		return a.Num
	case ANSWER_KIND_BOOLEAN:
		return a.Bool
	case ANSWER_KIND_LIST:
		return strings.Join(a.List, listSeparator)
	}
	return nil
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ANSWER_KIND_STRING:
		return json.Marshal(a.Str)
	case ANSWER_KIND_NUMBER:
		return json.Marshal(a.Num)
	case ANSWER_KIND_BOOLEAN:
		return json.Marshal(a.Bool)
	case ANSWER_KIND_LIST:
		if a.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.List)
	}
	return []byte("null"), nil
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = AnswerValue{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = StringAnswer(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*a = BoolAnswer(b)
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return ErrUnsupportedAnswer
		}
		*a = ListAnswer(list...)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return ErrUnsupportedAnswer
		}
		*a = NumberAnswer(n)
	}
	return nil
}
