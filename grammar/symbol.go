package grammar

import (
	"strconv"
	"strings"
)

// NonterminalID is a dense index into a Store. Zero is never assigned.
type NonterminalID int

const (
	// StartName is the reserved name of the synthetic start nonterminal.
	StartName = "START"

	// Start is the ID that StartName always receives.
	Start NonterminalID = 1
)

// Symbol is either a literal run (NT == 0) or a nonterminal reference.
type Symbol struct {
	Literal string
	NT      NonterminalID
}

func T(literal string) Symbol        { return Symbol{Literal: literal} }
func N(nt NonterminalID) Symbol      { return Symbol{NT: nt} }
func (s Symbol) IsTerminal() bool    { return s.NT == 0 }
func (s Symbol) IsNonterminal() bool { return s.NT != 0 }

// Production is one alternative body of a nonterminal.
type Production []Symbol

// Terminals returns the number of literal symbols in p.
func (p Production) Terminals() int {
	n := 0
	for _, s := range p {
		if s.IsTerminal() {
			n++
		}
	}
	return n
}

// Nonterminals returns the nonterminal children of p in order.
func (p Production) Nonterminals() []NonterminalID {
	var out []NonterminalID
	for _, s := range p {
		if s.IsNonterminal() {
			out = append(out, s.NT)
		}
	}
	return out
}

// Format renders p in rule-body syntax, resolving nonterminal names with
// name.
func (p Production) Format(name func(NonterminalID) string) string {
	var sb strings.Builder
	for _, s := range p {
		if s.IsNonterminal() {
			sb.WriteString("{" + name(s.NT) + "}")
			continue
		}
		sb.WriteString(Escape(s.Literal))
	}
	return sb.String()
}

func (p Production) String() string {
	return p.Format(func(id NonterminalID) string { return "#" + strconv.Itoa(int(id)) })
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)

// Escape quotes braces and backslashes so that s reads back as a literal
// run in a rule body.
func Escape(s string) string {
	return literalEscaper.Replace(s)
}
