package surface

import (
	stderrors "errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/crateman/pkg/errors"
)

// SyntaxError is a document that could not be parsed into a generic tree.
// It keeps the location reported by the parser.
type SyntaxError struct {
	Line    int    // 1-based line, 0 when unknown
	Key     string // Last key the parser saw, if any
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var loc string
	if e.Line > 0 {
		loc = fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Key != "" {
		loc += fmt.Sprintf(" (key `%s`)", e.Key)
	}
	return fmt.Sprintf("could not parse input as TOML%s: %s", loc, e.Message)
}

// Unwrap returns the parser's error.
func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse parses TOML text into a generic tree.
func Parse(data []byte) (map[string]any, error) {
	doc := make(map[string]any)
	if _, err := toml.Decode(string(data), &doc); err != nil {
		syn := &SyntaxError{Message: err.Error(), Err: err}
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			syn.Line = perr.Position.Line
			syn.Key = perr.LastKey
			syn.Message = perr.Message
		}
		return nil, errors.Wrap(errors.ErrCodeDocumentSyntax, syn, "invalid document")
	}
	return doc, nil
}
