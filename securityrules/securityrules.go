// Package securityrules is the admin client for the Aegis rules service. It
// manages the rulesets a project has stored and the release slots that decide
// which ruleset each engine enforces.
//
// Rulesets are immutable: publishing changed rules means creating a new
// ruleset and releasing it, never editing one in place.
package securityrules

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// utcTimeLayout is the format CreateTime strings are exchanged in. Formatting
// a parsed CreateTime with it reproduces the original string byte for byte.
const utcTimeLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

var rulesetNameRE = regexp.MustCompile(`^[0-9a-zA-Z-]+$`)

// ValidRulesetName reports whether name is a well-formed ruleset identifier.
func ValidRulesetName(name string) bool {
	return rulesetNameRE.MatchString(name)
}

// FormatCreateTime renders a timestamp as a CreateTime string.
func FormatCreateTime(t time.Time) string {
	return t.UTC().Format(utcTimeLayout)
}

// ParseCreateTime parses a CreateTime string as produced by this package.
func ParseCreateTime(s string) (time.Time, error) {
	t, err := time.Parse(utcTimeLayout, s)
	if err != nil {
		return time.Time{}, &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf("malformed create time %q", s)}
	}
	return t, nil
}

// RulesFile is a named unit of rules source text.
type RulesFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// NewRulesFile builds a RulesFile from source text. Construction is local;
// nothing is sent to the service until the file is submitted in a ruleset.
func NewRulesFile(name, source string) RulesFile {
	return RulesFile{Name: name, Content: source}
}

// NewRulesFileFromBytes builds a RulesFile from raw bytes, which must be
// valid UTF-8 text.
func NewRulesFileFromBytes(name string, b []byte) (RulesFile, error) {
	if !utf8.Valid(b) {
		return RulesFile{}, &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf("rules file %q is not valid UTF-8", name)}
	}
	return RulesFile{Name: name, Content: string(b)}, nil
}

// RulesetMetadata identifies a stored ruleset without carrying its source.
// CreateTime is a UTC string in the package's exchange format.
type RulesetMetadata struct {
	Name       string
	CreateTime string
}

// Ruleset is an immutable, server-stored bundle of rules source files.
type Ruleset struct {
	RulesetMetadata
	Source []RulesFile
}

// RulesetMetadataList is one page of a ruleset listing. An empty
// NextPageToken means the listing is exhausted; otherwise the token must be
// passed unchanged to the next ListRulesetMetadata call.
type RulesetMetadataList struct {
	Rulesets      []RulesetMetadata
	NextPageToken string
}
