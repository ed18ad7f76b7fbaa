package types

import (
	"errors"
	"fmt"
	"strings"
)

// Common engine errors
var (
	// ErrUnknownIdentifier indicates a term or element is absent from the hierarchy or corpus
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrNotImplemented indicates a metric combination that is intentionally unsupported
	ErrNotImplemented = errors.New("not implemented")

	// ErrMalformedSnapshot indicates a persisted snapshot could not be parsed
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrSnapshotTooLarge indicates a snapshot does not fit in a bounded memo backend
	ErrSnapshotTooLarge = errors.New("snapshot exceeds memo backend capacity")

	// ErrNilReasoner indicates the engine was configured without a reasoner
	ErrNilReasoner = errors.New("reasoner cannot be nil")

	// ErrUnsupportedBackend indicates an unknown backend type
	ErrUnsupportedBackend = errors.New("unsupported backend type")

	// ErrNoSnapshotStore indicates Save or Load was called without a configured store
	ErrNoSnapshotStore = errors.New("no snapshot store configured")
)

// IdentifierKind says which namespace an unknown identifier belongs to.
type IdentifierKind string

const (
	KindTerm    IdentifierKind = "term"
	KindElement IdentifierKind = "element"
)

// UnknownIdentifierError reports the identifier that could not be resolved.
type UnknownIdentifierError struct {
	Kind IdentifierKind
	ID   string
}

// UnknownTerm returns an UnknownIdentifierError for a term.
func UnknownTerm(t Term) error {
	return &UnknownIdentifierError{Kind: KindTerm, ID: string(t)}
}

// UnknownElement returns an UnknownIdentifierError for an element.
func UnknownElement(e Element) error {
	return &UnknownIdentifierError{Kind: KindElement, ID: string(e)}
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

func (e *UnknownIdentifierError) Is(target error) bool {
	return target == ErrUnknownIdentifier
}

// MalformedSnapshotError lists every rejected line of a snapshot.
type MalformedSnapshotError struct {
	Source string
	Lines  []int
	First  string
}

func (e *MalformedSnapshotError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d malformed line(s)", e.Source, len(e.Lines))
	if len(e.Lines) > 0 {
		fmt.Fprintf(&b, ", first at line %d", e.Lines[0])
		if e.First != "" {
			fmt.Fprintf(&b, ": %s", e.First)
		}
	}
	return b.String()
}

func (e *MalformedSnapshotError) Is(target error) bool {
	return target == ErrMalformedSnapshot
}
