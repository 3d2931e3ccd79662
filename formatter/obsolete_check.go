package formatter

type ObsoleteCheckFormatter struct{}

func (f *ObsoleteCheckFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{help .Padding "the outcome is fixed by min_sdk or an enclosing check; simplify the condition"}}
`
}
