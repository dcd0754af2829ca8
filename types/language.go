package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Language is a closed enumeration of the languages the grader can route
// to a runtime. Any tag outside the enumeration parses to LanguageUnsupported.
type Language int

// Supported language values.
const (
	// LanguageUnsupported is the zero value and marks an unknown tag.
	LanguageUnsupported Language = iota
	LanguageC
	LanguageCPP
	LanguageJava
	LanguagePython
	LanguageJavaScript
)

// Languages lists every supported language in a stable order.
var Languages = []Language{
	LanguageC,
	LanguageCPP,
	LanguageJava,
	LanguagePython,
	LanguageJavaScript,
}

// ParseLanguage maps a language tag to its enumeration value.
func ParseLanguage(tag string) Language {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "c":
		return LanguageC
	case "cpp":
		return LanguageCPP
	case "java":
		return LanguageJava
	case "python":
		return LanguagePython
	case "javascript":
		return LanguageJavaScript
	default:
		return LanguageUnsupported
	}
}

// String returns the wire tag of the language.
func (l Language) String() string {
	switch l {
	case LanguageC:
		return "c"
	case LanguageCPP:
		return "cpp"
	case LanguageJava:
		return "java"
	case LanguagePython:
		return "python"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unsupported"
	}
}

// Supported reports whether l is one of the routable languages.
func (l Language) Supported() bool {
	return l != LanguageUnsupported
}

// Extension is the source file extension used when archiving code.
func (l Language) Extension() string {
	switch l {
	case LanguageC:
		return "c"
	case LanguageCPP:
		return "cpp"
	case LanguageJava:
		return "java"
	case LanguagePython:
		return "py"
	case LanguageJavaScript:
		return "js"
	default:
		return "txt"
	}
}

func (l Language) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Language) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	*l = ParseLanguage(tag)
	return nil
}

// Value stores the language as its wire tag.
func (l Language) Value() (driver.Value, error) {
	return l.String(), nil
}

// Scan reads a language stored by Value.
func (l *Language) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*l = ParseLanguage(v)
	case []byte:
		*l = ParseLanguage(string(v))
	case nil:
		*l = LanguageUnsupported
	default:
		return fmt.Errorf("cannot scan %T into Language", src)
	}
	return nil
}
