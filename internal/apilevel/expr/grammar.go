package expr

import "github.com/alecthomas/participle/v2/lexer"

var requirementLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Version", Pattern: `[0-9]+(\.[0-9]+)?`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Operator", Pattern: `(\|\||&&|==|!=|<=|>=|[<>])`, Action: nil},
		{Name: "Punctuation", Pattern: `[(),]`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})

// Expression is a disjunction of conjunctions.
type Expression struct {
	Terms []*Conjunction `parser:"@@ ( \"||\" @@ )*"`
}

type Conjunction struct {
	Atoms []*Atom `parser:"@@ ( \"&&\" @@ )*"`
}

type Atom struct {
	Group      *Expression  `parser:"  \"(\" @@ \")\""`
	Comparison *Comparison  `parser:"| @@"`
	Bare       *BareVersion `parser:"| @@"`
}

// BareVersion is shorthand for "api >= N".
type BareVersion struct {
	Version string `parser:"@Version"`
}

type Comparison struct {
	Namespace *NamespaceRef `parser:"@@"`
	Op        string        `parser:"@( \">=\" | \">\" | \"<=\" | \"<\" | \"==\" | \"!=\" )"`
	Version   string        `parser:"@Version"`
}

type NamespaceRef struct {
	Extension *ExtensionRef `parser:"  \"ext\" \"(\" @@ \")\""`
	Name      string        `parser:"| @Ident"`
}

type ExtensionRef struct {
	ID   string `parser:"  @Version"`
	Name string `parser:"| @Ident"`
}
