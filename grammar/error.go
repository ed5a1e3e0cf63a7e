package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arr-ai/gramophone/gotree"
)

var (
	ErrMalformedRule        = errors.New("malformed rule")
	ErrUndefinedNonterminal = errors.New("undefined nonterminal")
	ErrUnproductiveGrammar  = errors.New("unproductive grammar")
	ErrFinalized            = errors.New("rule store already finalized")
)

// RuleError reports a compilation failure. It unwraps to one of the Err*
// sentinels above.
type RuleError struct {
	Kind  error
	Rule  string
	Msg   string
	Names []string
}

func newRuleError(kind error, rule, format string, args ...interface{}) error {
	return RuleError{Kind: kind, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

func (e RuleError) Error() string {
	tree := gotree.New(e.Kind.Error())
	names := tree
	if e.Rule != "" || e.Msg != "" {
		names = gotree.New(fmt.Sprintf(`rule(%s) - %s`, e.Rule, e.Msg))
		tree.AddTree(names)
	}
	for _, name := range e.Names {
		names.Add(name)
	}
	return strings.TrimSuffix(tree.Print(), "\n")
}

func (e RuleError) Unwrap() error {
	return e.Kind
}
