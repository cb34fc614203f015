package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		source string
		errors []error
	}{
		{
			name: "document rules",
			source: "rules_version = '2';\n" +
				"\n" +
				"service aegis.docstore {\n" +
				"  match /databases/{database}/documents {\n" +
				"    match /notes/{note} {\n" +
				"      allow read: if resource.data.owner == request.auth.uid;\n" +
				"      allow write: if request.resource.data.title != 'untitled {draft}';\n" +
				"    }\n" +
				"  }\n" +
				"}\n",
			errors: nil,
		},
		{
			name: "object rules without version",
			source: "service aegis.blobstore {\n" +
				"  match /b/{bucket}/o {\n" +
				"    match /{object=**} {\n" +
				"      allow read;\n" +
				"    }\n" +
				"  }\n" +
				"}\n",
			errors: nil,
		},
		{
			name:   "empty source",
			source: "",
			errors: []error{fmt.Errorf("[1:1] source is empty")},
		},
		{
			name:   "whitespace only",
			source: "  \n\t",
			errors: []error{fmt.Errorf("[1:1] source is empty")},
		},
		{
			name:   "missing service",
			source: "rules_version = '2';",
			errors: []error{fmt.Errorf("[1:1] missing service declaration")},
		},
		{
			name:   "unclosed brace",
			source: "service aegis.docstore {",
			errors: []error{fmt.Errorf(`[1:24] unclosed "{"`)},
		},
		{
			name:   "unexpected closer",
			source: "service aegis.docstore {}\n}",
			errors: []error{fmt.Errorf(`[2:1] unexpected "}"`)},
		},
		{
			name:   "mismatched pair",
			source: "service aegis.docstore {\n  allow read: if x[0);\n}",
			errors: []error{fmt.Errorf(`[2:21] mismatched ")", open "[" at [2:19]`)},
		},
		{
			name:   "unterminated string",
			source: "service aegis.docstore {\n  allow read: if x == 'oops\n}",
			errors: []error{fmt.Errorf("[2:23] unterminated string literal")},
		},
		{
			name:   "unterminated block comment",
			source: "service aegis.docstore {}\n/* trailing",
			errors: []error{fmt.Errorf("[2:1] unterminated block comment")},
		},
		{
			name:   "comments do not count",
			source: "// braces { [ (\nservice aegis.blobstore {\n  /* { */\n}",
			errors: nil,
		},
		{
			name:   "nul byte",
			source: "service x {\x00}",
			errors: []error{fmt.Errorf("[1:12] source contains a NUL byte")},
		},
		{
			name:   "unsupported version",
			source: "rules_version = '3';\nservice aegis.docstore {}",
			errors: []error{fmt.Errorf(`[1:1] unsupported rules_version "3"`)},
		},
		{
			name:   "unquoted version",
			source: "rules_version = 2;\nservice aegis.docstore {}",
			errors: []error{fmt.Errorf("[1:1] rules_version must be assigned a quoted string")},
		},
		{
			name:   "version after service",
			source: "service aegis.docstore {}\nrules_version = '2';",
			errors: []error{fmt.Errorf("[2:1] rules_version must precede service declarations")},
		},
		{
			name:   "duplicate version",
			source: "rules_version = '2';\nrules_version = '2';\nservice s {}",
			errors: []error{fmt.Errorf("[2:1] duplicate rules_version statement")},
		},
		{
			name:   "duplicate service",
			source: "service aegis.docstore {}\nservice aegis.docstore {}",
			errors: []error{fmt.Errorf(`[2:1] duplicate service declaration "aegis.docstore", first at [1:1]`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errors, Validate(tt.source))
		})
	}
}

func TestValidateEscapedQuote(t *testing.T) {
	source := "service aegis.docstore {\n" +
		"  allow read: if x == 'it\\'s fine';\n" +
		"}\n"
	assert.Nil(t, Validate(source))
}
