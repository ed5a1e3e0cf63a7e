package tree

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrOutputFailure = errors.New("output failure")

// OutputError wraps a sink failure during Unparse. It matches
// ErrOutputFailure under errors.Is.
type OutputError struct {
	Written int
	Err     error
}

func (e OutputError) Error() string {
	return fmt.Sprintf("%s after %d bytes: %v", ErrOutputFailure, e.Written, e.Err)
}

func (e OutputError) Unwrap() error        { return e.Err }
func (e OutputError) Is(target error) bool { return target == ErrOutputFailure }

// Unparse writes the literal leaves of t to w in left-to-right order. Nothing
// is buffered; the first write error stops the walk.
func (t *Tree) Unparse(w io.Writer) (n int, err error) {
	if len(t.Nodes) == 0 {
		return 0, nil
	}
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := t.Nodes[i]
		if node.IsLeaf() {
			if node.Literal == "" {
				continue
			}
			m, err := io.WriteString(w, node.Literal)
			n += m
			if err == nil && m < len(node.Literal) {
				err = io.ErrShortWrite
			}
			if err != nil {
				return n, OutputError{Written: n, Err: err}
			}
			continue
		}
		for c := len(node.Children) - 1; c >= 0; c-- {
			stack = append(stack, node.Children[c])
		}
	}
	return n, nil
}

func (t *Tree) String() string {
	var sb strings.Builder
	if _, err := t.Unparse(&sb); err != nil {
		panic(err)
	}
	return sb.String()
}
