package formatter

import "strings"

// APILevelFormatter shows the requirement of the callee next to the
// version range the enclosing checks prove.
type APILevelFormatter struct{}

func (f *APILevelFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{proof .Padding .Note -}}
{{help .Padding "guard the call with a version check, or annotate the caller with //apigate:requires"}}
{{- if .Suggestion }}
{{suggestion .Suggestion .Padding .MaxLineNumWidth .StartLine}}
{{- end }}
`
}

// proof renders a note of the form "required X, proven Y" as two aligned
// lines. Other notes are printed as they are.
func proof(padding string, note string) string {
	if note == "" {
		return ""
	}
	required, proven, ok := strings.Cut(note, ", proven ")
	if !ok || !strings.HasPrefix(required, "required ") {
		return lineStyle.Sprintf("%s= ", padding) + "note: " + note + "\n"
	}
	required = strings.TrimPrefix(required, "required ")

	endString := lineStyle.Sprintf("%s= ", padding) + "required: " + required + "\n"
	endString += lineStyle.Sprintf("%s= ", padding) + "proven:   " + proven + "\n"
	return endString
}
