package schema

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// Schema file grammar:
//
//	# finance
//	entity metadata owned by user_id {
//	    title?: string [length_at_most(120)]
//	}
//	entity tags owned by user_id, metadata_id.user_id {
//	    metadata_id: ref<metadata>
//	    fkey metadata_id = metadata_id.user_id
//	}
//	entity metadata_tags owned by metadata_id.user_id junction(metadata_id, tag_id) {
//	    metadata_id: ref<metadata>
//	    tag_id: ref<tags>
//	    exception: bool
//	}
//	entity currencies {
//	    code: string [not_empty]
//	}

type fileAST struct {
	Entities []*entityAST `parser:"@@*"`
}

type entityAST struct {
	Pos      lexer.Position
	Table    string       `parser:"'entity' @Ident"`
	Paths    []*pathAST   `parser:"( 'owned' 'by' @@ ( ',' @@ )* )?"`
	Junction *junctionAST `parser:"@@?"`
	Members  []*memberAST `parser:"'{' @@* '}'"`
}

type pathAST struct {
	Segments []string `parser:"@Ident ( '.' @Ident )*"`
}

func (p *pathAST) String() string { return strings.Join(p.Segments, ".") }

type junctionAST struct {
	A string `parser:"'junction' '(' @Ident"`
	B string `parser:"',' @Ident ')'"`
}

type memberAST struct {
	Fkey  *fkeyAST  `parser:"  @@"`
	Field *fieldAST `parser:"| @@"`
}

type fkeyAST struct {
	Field string   `parser:"'fkey' @Ident '='"`
	Path  *pathAST `parser:"@@"`
}

type fieldAST struct {
	Pos      lexer.Position
	Name     string     `parser:"@Ident"`
	Optional bool       `parser:"@'?'?"`
	Type     *typeAST   `parser:"':' @@"`
	Rules    []*ruleAST `parser:"( '[' ( @@ ( ',' @@ )* )? ']' )?"`
}

type typeAST struct {
	Ref    *refAST  `parser:"  @@"`
	Link   *linkAST `parser:"| @@"`
	Scalar string   `parser:"| @Ident"`
}

type refAST struct {
	Target string `parser:"'ref' '<' @Ident '>'"`
}

type linkAST struct {
	Link   bool   `parser:"@'link'"`
	Target string `parser:"( '<' @Ident '>' )?"`
}

type ruleAST struct {
	Name string   `parser:"@Ident"`
	Args []string `parser:"( '(' ( @( Ident | Number | String ) ( ',' @( Ident | Number | String ) )* )? ')' )?"`
}

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}()\[\]<>,.:?=]`},
})

var schemaParser = participle.MustBuild[fileAST](
	participle.Lexer(schemaLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse reads entity declarations from a schema file body. The result still
// needs NewRegistry for cross-entity validation.
func Parse(filename, src string) ([]Entity, error) {
	ast, err := schemaParser.ParseString(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return convertAST(ast)
}

func ParseFile(path string) ([]Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(path, string(data))
}

// LoadFile parses path and builds a registry from it.
func LoadFile(path string) (*Registry, error) {
	entities, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(entities...)
}

func convertAST(ast *fileAST) ([]Entity, error) {
	out := make([]Entity, 0, len(ast.Entities))
	for _, ea := range ast.Entities {
		b := NewEntity(ea.Table)
		for _, p := range ea.Paths {
			b.OwnedBy(p.String())
		}
		if ea.Junction != nil {
			b.Junction(ea.Junction.A, ea.Junction.B)
		}
		for _, m := range ea.Members {
			switch {
			case m.Fkey != nil:
				b.Fkey(m.Fkey.Field, m.Fkey.Path.String())
			case m.Field != nil:
				if err := addFieldAST(b, m.Field); err != nil {
					return nil, fmt.Errorf("%s: %w", m.Field.Pos, err)
				}
			}
		}
		e, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ea.Pos, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func addFieldAST(b *EntityBuilder, fa *fieldAST) error {
	f := Field{Name: fa.Name, Optional: fa.Optional}
	switch t := fa.Type; {
	case t.Ref != nil:
		f.Kind, f.Target = Ref, t.Ref.Target
	case t.Link != nil:
		f.Kind, f.Target = Link, t.Link.Target
	default:
		f.Kind, f.Type = Scalar, ScalarType(t.Scalar)
		if !f.Type.valid() {
			return &Error{Table: b.e.Table, Field: fa.Name, Reason: fmt.Sprintf("unknown type %q", t.Scalar)}
		}
	}
	for _, r := range fa.Rules {
		f.Rules = append(f.Rules, validation.Spec{Name: r.Name, Args: r.Args})
	}
	b.e.Fields = append(b.e.Fields, f)
	return nil
}
