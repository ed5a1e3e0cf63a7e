// Package source reads grammar files into raw rules.
//
// Every reader prepends START := {first rule} so that generation can always
// begin at grammar.Start.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/arr-ai/gramophone/grammar"
)

// Load reads data according to the extension of path.
func Load(path string, data []byte) ([]grammar.RawRule, error) {
	switch ext := filepath.Ext(path); ext {
	case ".json":
		return ReadJSON(bytes.NewReader(data))
	case ".g4":
		return ReadANTLR(path, bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%s: unknown grammar type %q", path, ext)
	}
}

// ReadJSON reads a list of [name, body] pairs.
func ReadJSON(r io.Reader) ([]grammar.RawRule, error) {
	var pairs [][]string
	if err := json.NewDecoder(r).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("cannot parse grammar file: %w", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("rule file didn't include any rules")
	}
	rules := make([]grammar.RawRule, 1, len(pairs)+1)
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("rule %d: want [name, body], got %d elements", i, len(pair))
		}
		rules = append(rules, grammar.RawRule{Name: pair[0], Body: pair[1]})
	}
	rules[0] = startRule(pairs[0][0])
	return rules, nil
}

func startRule(first string) grammar.RawRule {
	return grammar.RawRule{Name: grammar.StartName, Body: "{" + first + "}"}
}
