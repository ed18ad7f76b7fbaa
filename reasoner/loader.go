package reasoner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/botirk38/semsim/types"
)

// Record kinds understood by Load.
const (
	RecordTerm         = "Term"
	RecordSubClassOf   = "SubClassOf"
	RecordEquivalentTo = "EquivalentTo"
	RecordElement      = "Element"
	RecordType         = "Type"
)

// ErrBadRecord indicates a hierarchy line that could not be applied.
var ErrBadRecord = errors.New("bad hierarchy record")

// Load reads tab-separated hierarchy records into h:
//
//	Term          <term>
//	SubClassOf    <child>    <parent>
//	EquivalentTo  <a>        <b>
//	Element       <element>
//	Type          <element>  <term>
//
// Blank lines and lines starting with '#' are ignored. Load stops at the
// first bad record and reports its line number.
func Load(r io.Reader, h *Hierarchy) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := apply(h, strings.Split(line, "\t")); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read hierarchy: %w", err)
	}
	return nil
}

func apply(h *Hierarchy, fields []string) error {
	want := map[string]int{
		RecordTerm:         2,
		RecordSubClassOf:   3,
		RecordEquivalentTo: 3,
		RecordElement:      2,
		RecordType:         3,
	}
	n, ok := want[fields[0]]
	if !ok {
		return fmt.Errorf("%w: unknown record kind %q", ErrBadRecord, fields[0])
	}
	if len(fields) != n {
		return fmt.Errorf("%w: %s expects %d fields, got %d", ErrBadRecord, fields[0], n, len(fields))
	}
	for _, f := range fields[1:] {
		if f == "" {
			return fmt.Errorf("%w: empty identifier", ErrBadRecord)
		}
	}

	switch fields[0] {
	case RecordTerm:
		h.AddTerm(types.Term(fields[1]))
	case RecordSubClassOf:
		return h.AddSubClassOf(types.Term(fields[1]), types.Term(fields[2]))
	case RecordEquivalentTo:
		return h.AddEquivalent(types.Term(fields[1]), types.Term(fields[2]))
	case RecordElement:
		h.AddElement(types.Element(fields[1]))
	case RecordType:
		h.AddType(types.Element(fields[1]), types.Term(fields[2]))
	}
	return nil
}
