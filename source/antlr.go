package source

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/arr-ai/gramophone/errors"
	"github.com/arr-ai/gramophone/grammar"
)

// maxSetSize caps the number of alternatives a character set expands into.
// Larger sets are thinned to evenly spaced members.
const maxSetSize = 256

var antlrLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Literal", Pattern: `'(?:\\.|[^'\\])*'`},
	{Name: "CharSet", Pattern: `\[(?:\\.|[^\]\\])*\]`},
	{Name: "Action", Pattern: `\{(?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*\}`},
	{Name: "ElementOptions", Pattern: `<[^>]*>`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `\.\.|->|\+=|::|[:;|()?*+~.=#@,]`},
})

var antlrParser = participle.MustBuild[antlrFile](
	participle.Lexer(antlrLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

type antlrFile struct {
	Header *antlrHeader `parser:"@@?"`
	Items  []*antlrItem `parser:"@@*"`
}

type antlrHeader struct {
	Kind string `parser:"@(\"lexer\" | \"parser\")?"`
	Name string `parser:"\"grammar\" @Ident \";\""`
}

type antlrItem struct {
	Block  string     `parser:"  (\"options\" | \"tokens\" | \"channels\") @Action"`
	Action string     `parser:"| \"@\" Ident (\"::\" Ident)? @Action"`
	Import []string   `parser:"| \"import\" @Ident (\",\" @Ident)* \";\""`
	Mode   string     `parser:"| \"mode\" @Ident \";\""`
	Rule   *antlrRule `parser:"| @@"`
}

type antlrRule struct {
	Fragment bool                `parser:"@\"fragment\"?"`
	Name     string              `parser:"@Ident"`
	Actions  []string            `parser:"(\"@\" Ident @Action)*"`
	Alts     []*antlrAlternative `parser:"\":\" @@ (\"|\" @@)* \";\""`
}

type antlrAlternative struct {
	Options  string          `parser:"@ElementOptions?"`
	Elements []*antlrElement `parser:"@@*"`
	Label    string          `parser:"(\"#\" @Ident)?"`
	Commands []string        `parser:"(\"->\" @Ident (\"(\" Ident \")\")? (\",\" @Ident (\"(\" Ident \")\")?)*)?"`
}

type antlrElement struct {
	Label     string     `parser:"(@Ident (\"=\" | \"+=\"))?"`
	Not       bool       `parser:"@\"~\"?"`
	Atom      *antlrAtom `parser:"@@"`
	Quant     string     `parser:"@(\"?\" | \"*\" | \"+\")?"`
	NonGreedy bool       `parser:"@\"?\"?"`
}

type antlrAtom struct {
	Range  *antlrRange `parser:"  @@"`
	Ref    string      `parser:"| @Ident"`
	Set    string      `parser:"| @CharSet"`
	Dot    bool        `parser:"| @\".\""`
	Group  *antlrBlock `parser:"| \"(\" @@ \")\""`
	Action string      `parser:"| @Action"`
}

type antlrRange struct {
	From string `parser:"@Literal"`
	To   string `parser:"(\"..\" @Literal)?"`
}

type antlrBlock struct {
	Alts []*antlrAlternative `parser:"@@ (\"|\" @@)*"`
}

// ReadANTLR reads an ANTLR4 grammar. Subrules, quantifiers and character
// sets become helper nonterminals named <rule>.<kind>.<n>; actions,
// predicates, labels and lexer commands are ignored.
func ReadANTLR(filename string, r io.Reader) ([]grammar.RawRule, error) {
	f, err := antlrParser.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	c := &converter{rules: make([]grammar.RawRule, 1), helpers: map[string]int{}}
	first := ""
	for _, item := range f.Items {
		rule := item.Rule
		if rule == nil {
			continue
		}
		if first == "" && !rule.Fragment {
			first = rule.Name
		}
		for _, alt := range rule.Alts {
			body, err := c.alternative(rule.Name, alt)
			if err != nil {
				return nil, fmt.Errorf("%s: rule %s: %w", filename, rule.Name, err)
			}
			c.add(rule.Name, body)
		}
	}
	if first == "" {
		return nil, fmt.Errorf("%s: grammar has no rules", filename)
	}
	c.rules[0] = startRule(first)
	return c.rules, nil
}

type converter struct {
	rules   []grammar.RawRule
	helpers map[string]int
}

func (c *converter) add(name, body string) {
	c.rules = append(c.rules, grammar.RawRule{Name: name, Body: body})
}

func (c *converter) name(owner, kind string) string {
	c.helpers[owner]++
	return fmt.Sprintf("%s.%s.%d", owner, kind, c.helpers[owner])
}

func (c *converter) helper(owner, kind string, alts ...string) string {
	name := c.name(owner, kind)
	for _, alt := range alts {
		c.add(name, alt)
	}
	return ref(name)
}

func ref(name string) string {
	return "{" + name + "}"
}

func (c *converter) alternative(owner string, alt *antlrAlternative) (string, error) {
	var sb strings.Builder
	for _, e := range alt.Elements {
		body, err := c.element(owner, e)
		if err != nil {
			return "", err
		}
		sb.WriteString(body)
	}
	return sb.String(), nil
}

func (c *converter) element(owner string, e *antlrElement) (string, error) {
	if e.Atom.Action != "" {
		return "", nil
	}
	var body string
	var err error
	if e.Not {
		body, err = c.negate(owner, e.Atom)
	} else {
		body, err = c.atom(owner, e.Atom)
	}
	if err != nil {
		return "", err
	}
	switch e.Quant {
	case "?":
		return c.helper(owner, "opt", body, ""), nil
	case "*":
		name := c.name(owner, "star")
		c.add(name, "")
		c.add(name, body+ref(name))
		return ref(name), nil
	case "+":
		name := c.name(owner, "plus")
		c.add(name, body)
		c.add(name, body+ref(name))
		return ref(name), nil
	}
	return body, nil
}

func (c *converter) atom(owner string, a *antlrAtom) (string, error) {
	switch {
	case a.Range != nil:
		if a.Range.To == "" {
			s, err := unquote(a.Range.From)
			return grammar.Escape(s), err
		}
		chars, err := chars(a)
		if err != nil {
			return "", err
		}
		return c.charHelper(owner, "range", chars)
	case a.Ref != "":
		if a.Ref == "EOF" {
			return "", nil
		}
		return ref(a.Ref), nil
	case a.Set != "":
		chars, err := chars(a)
		if err != nil {
			return "", err
		}
		return c.charHelper(owner, "set", chars)
	case a.Dot:
		return c.charHelper(owner, "any", printable(nil))
	case a.Group != nil:
		alts := make([]string, 0, len(a.Group.Alts))
		for _, alt := range a.Group.Alts {
			body, err := c.alternative(owner, alt)
			if err != nil {
				return "", err
			}
			alts = append(alts, body)
		}
		if len(alts) == 1 {
			return alts[0], nil
		}
		return c.helper(owner, "group", alts...), nil
	case a.Action != "":
		return "", nil
	}
	panic(errors.Inconceivable)
}

func (c *converter) negate(owner string, a *antlrAtom) (string, error) {
	excluded, err := chars(a)
	if err != nil {
		return "", err
	}
	return c.charHelper(owner, "not", printable(excluded))
}

func (c *converter) charHelper(owner, kind string, set map[rune]bool) (string, error) {
	runes := maps.Keys(set)
	slices.Sort(runes)
	switch len(runes) {
	case 0:
		return "", fmt.Errorf("empty character set")
	case 1:
		return grammar.Escape(string(runes[0])), nil
	}
	if len(runes) > maxSetSize {
		thinned := make([]rune, maxSetSize)
		for i := range thinned {
			thinned[i] = runes[i*len(runes)/maxSetSize]
		}
		runes = thinned
	}
	alts := make([]string, 0, len(runes))
	for _, r := range runes {
		alts = append(alts, grammar.Escape(string(r)))
	}
	return c.helper(owner, kind, alts...), nil
}

// chars returns the characters a set-like atom matches.
func chars(a *antlrAtom) (map[rune]bool, error) {
	set := map[rune]bool{}
	switch {
	case a.Range != nil:
		lo, err := singleChar(a.Range.From)
		if err != nil {
			return nil, err
		}
		hi := lo
		if a.Range.To != "" {
			if hi, err = singleChar(a.Range.To); err != nil {
				return nil, err
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("empty range %s..%s", a.Range.From, a.Range.To)
		}
		for r := lo; r <= hi; r++ {
			set[r] = true
		}
	case a.Set != "":
		s := a.Set[1 : len(a.Set)-1]
		for s != "" {
			lo, rest, err := nextChar(s)
			if err != nil {
				return nil, err
			}
			s = rest
			if len(s) > 1 && s[0] == '-' {
				hi, rest, err := nextChar(s[1:])
				if err != nil {
					return nil, err
				}
				if hi < lo {
					return nil, fmt.Errorf("empty range in %s", a.Set)
				}
				for r := lo; r <= hi; r++ {
					set[r] = true
				}
				s = rest
				continue
			}
			set[lo] = true
		}
	case a.Group != nil:
		for _, alt := range a.Group.Alts {
			if len(alt.Elements) != 1 || alt.Elements[0].Quant != "" || alt.Elements[0].Not {
				return nil, fmt.Errorf("cannot negate a subrule that is not a set of characters")
			}
			sub, err := chars(alt.Elements[0].Atom)
			if err != nil {
				return nil, err
			}
			for r := range sub {
				set[r] = true
			}
		}
	default:
		return nil, fmt.Errorf("cannot negate a rule reference or wildcard")
	}
	return set, nil
}

// printable returns the printable ASCII characters not in excluded.
func printable(excluded map[rune]bool) map[rune]bool {
	set := map[rune]bool{}
	for r := rune(0x20); r < 0x7f; r++ {
		if !excluded[r] {
			set[r] = true
		}
	}
	return set
}

func singleChar(literal string) (rune, error) {
	s, err := unquote(literal)
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s is not a single character", literal)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// unquote decodes a single-quoted ANTLR literal.
func unquote(literal string) (string, error) {
	var sb strings.Builder
	s := literal[1 : len(literal)-1]
	for s != "" {
		r, rest, err := nextChar(s)
		if err != nil {
			return "", fmt.Errorf("%s: %w", literal, err)
		}
		sb.WriteRune(r)
		s = rest
	}
	return sb.String(), nil
}

func nextChar(s string) (rune, string, error) {
	if s[0] != '\\' {
		r, n := utf8.DecodeRuneInString(s)
		return r, s[n:], nil
	}
	if len(s) < 2 {
		return 0, "", fmt.Errorf("dangling escape")
	}
	switch s[1] {
	case 'n':
		return '\n', s[2:], nil
	case 'r':
		return '\r', s[2:], nil
	case 't':
		return '\t', s[2:], nil
	case 'b':
		return '\b', s[2:], nil
	case 'f':
		return '\f', s[2:], nil
	case 'u':
		hex, rest := "", ""
		if len(s) > 2 && s[2] == '{' {
			end := strings.IndexByte(s, '}')
			if end < 0 {
				return 0, "", fmt.Errorf("unterminated \\u{...} escape")
			}
			hex, rest = s[3:end], s[end+1:]
		} else {
			if len(s) < 6 {
				return 0, "", fmt.Errorf("short \\u escape")
			}
			hex, rest = s[2:6], s[6:]
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, "", fmt.Errorf("bad \\u escape: %w", err)
		}
		return rune(n), rest, nil
	}
	r, n := utf8.DecodeRuneInString(s[1:])
	return r, s[1+n:], nil
}
