package codegen

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/arr-ai/frozen"
	"github.com/iancoleman/strcase"

	"github.com/arr-ai/gramophone/grammar"
)

// Ident is one generated constant.
type Ident struct {
	GoName string
	Rule   string
	ID     grammar.NonterminalID
}

// GoName turns a rule name such as "expr.star.1" or "HEX_DIGIT" into an
// exported Go identifier.
func GoName(rule string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, rule)
	res := strcase.ToCamel(DropCaps(clean))
	if res == "" || !unicode.IsLetter([]rune(res)[0]) {
		res = "Rule" + res
	}
	return res
}

// DropCaps lowers every capital that directly follows another, so that
// "HEX_DIGIT" camel-cases to "HexDigit" rather than "HEXDIGIT".
func DropCaps(rule string) string {
	isCaps := func(r uint8) bool { return r >= 'A' && r <= 'Z' }
	out := make([]string, 0, len(rule))
	for i := 0; i < len(rule); i++ {
		out = append(out, string(rule[i]))
		if isCaps(rule[i]) {
			for i+1 < len(rule) && isCaps(rule[i+1]) {
				i++
				out = append(out, strings.ToLower(string(rule[i])))
			}
		}
	}

	return strings.Join(out, "")
}

// MakeIdents names every nonterminal of g in ID order. Names that collide
// after camel-casing get _<ID> appended until they are unique.
func MakeIdents(g *grammar.Grammar) []Ident {
	taken := frozen.NewSet[string]()
	idents := make([]Ident, 0, g.Len()-1)
	for id := grammar.Start; int(id) < g.Len(); id++ {
		rule := g.Name(id)
		name := GoName(rule)
		for taken.Has(name) {
			name += "_" + strconv.Itoa(int(id))
		}
		taken = taken.With(name)
		idents = append(idents, Ident{GoName: name, Rule: rule, ID: id})
	}
	return idents
}
