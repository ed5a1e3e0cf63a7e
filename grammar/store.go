package grammar

import (
	"sort"
	"strconv"
	"strings"

	"github.com/arr-ai/frozen"
	"github.com/sirupsen/logrus"
)

// Store accumulates rules until Finalize compiles it into a Grammar.
type Store struct {
	names     []string
	ids       map[string]NonterminalID
	rules     [][]Production
	finalized bool
}

// NewStore returns an empty store with StartName already interned as Start.
func NewStore() *Store {
	s := &Store{
		names: []string{""},
		ids:   map[string]NonterminalID{},
		rules: [][]Production{nil},
	}
	s.intern(StartName)
	return s
}

func (s *Store) intern(name string) NonterminalID {
	if id, has := s.ids[name]; has {
		return id
	}
	id := NonterminalID(len(s.names))
	s.ids[name] = id
	s.names = append(s.names, name)
	s.rules = append(s.rules, nil)
	return id
}

// Len returns one more than the highest assigned NonterminalID.
func (s *Store) Len() int {
	return len(s.names)
}

func (s *Store) ID(name string) (NonterminalID, bool) {
	id, has := s.ids[name]
	return id, has
}

func (s *Store) Name(id NonterminalID) string {
	return s.names[id]
}

func (s *Store) Rules(id NonterminalID) []Production {
	return s.rules[id]
}

// AddRule parses body and appends it as an alternative of name. References
// to other nonterminals are written {name}; \{, \} and \\ escape literal
// braces and backslashes.
func (s *Store) AddRule(name, body string) error {
	if s.finalized {
		return newRuleError(ErrFinalized, name, "cannot add %q", body)
	}
	parts, err := splitBody(body)
	if err != nil {
		return RuleError{Kind: ErrMalformedRule, Rule: name, Msg: err.Error()}
	}
	id := s.intern(name)
	prod := make(Production, 0, len(parts))
	for _, part := range parts {
		if part.ref {
			prod = append(prod, N(s.intern(part.text)))
		} else {
			prod = append(prod, T(part.text))
		}
	}
	s.rules[id] = append(s.rules[id], prod)
	return nil
}

// Finalize checks that every referenced nonterminal is defined and computes
// the size table. ceiling bounds the depth of the size computation; values
// <= 0 select DefaultDepthCeiling.
func (s *Store) Finalize(ceiling int) (*Grammar, error) {
	if s.finalized {
		return nil, newRuleError(ErrFinalized, "", "finalize called twice")
	}
	undefined := frozen.NewSet[string]()
	for id := Start; int(id) < len(s.names); id++ {
		if len(s.rules[id]) == 0 {
			undefined = undefined.With(s.names[id])
		}
	}
	if !undefined.IsEmpty() {
		return nil, RuleError{
			Kind:  ErrUndefinedNonterminal,
			Msg:   "referenced but never defined",
			Names: sortedNames(undefined),
		}
	}

	if ceiling <= 0 {
		ceiling = DefaultDepthCeiling
	}
	sizes, unproductive := computeSizes(s.rules, ceiling)
	if len(unproductive) > 0 {
		names := frozen.NewSet[string]()
		for _, id := range unproductive {
			names = names.With(s.names[id])
		}
		return nil, RuleError{
			Kind:  ErrUnproductiveGrammar,
			Msg:   "no finite derivation",
			Names: sortedNames(names),
		}
	}
	s.finalized = true

	logrus.WithFields(logrus.Fields{
		"nonterminals": len(s.names) - 1,
		"productions":  s.countProductions(),
		"depth":        sizes.Depth(),
	}).Debug("grammar compiled")

	return &Grammar{store: s, sizes: sizes}, nil
}

func (s *Store) countProductions() int {
	n := 0
	for _, prods := range s.rules {
		n += len(prods)
	}
	return n
}

func sortedNames(s frozen.Set[string]) []string {
	out := s.Elements()
	sort.Strings(out)
	return out
}

type bodyPart struct {
	text string
	ref  bool
}

type bodyError struct {
	offset int
	msg    string
}

func (e bodyError) Error() string {
	return e.msg + " at offset " + strconv.Itoa(e.offset)
}

func splitBody(body string) ([]bodyPart, error) {
	var parts []bodyPart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, bodyPart{text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(body); i++ {
		switch c := body[i]; c {
		case '\\':
			if i+1 < len(body) && strings.IndexByte(`{}\`, body[i+1]) >= 0 {
				i++
				lit.WriteByte(body[i])
			} else {
				lit.WriteByte(c)
			}
		case '{':
			end := strings.IndexAny(body[i+1:], "{}")
			if end < 0 || body[i+1+end] == '{' {
				return nil, bodyError{i, "unterminated nonterminal reference"}
			}
			if end == 0 {
				return nil, bodyError{i, "empty nonterminal reference"}
			}
			flush()
			parts = append(parts, bodyPart{text: body[i+1 : i+1+end], ref: true})
			i += end + 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return parts, nil
}
