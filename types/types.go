package types

import (
	"context"
	"log/slog"
	"slices"
)

// Term identifies a class in the subsumption hierarchy.
type Term string

// Element identifies an annotated entity such as a gene, disease or individual.
type Element string

// Node is an equivalence group: a set of mutually equivalent terms treated as a
// single unit for subsumption purposes.
type Node struct {
	// Representative is the lexicographically smallest member. It is stable
	// across calls for the same membership.
	Representative Term
	Members        []Term
}

// NewNode builds a Node from its members, sorting and de-duplicating them.
func NewNode(members ...Term) Node {
	sorted := slices.Clone(members)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if len(sorted) == 0 {
		return Node{}
	}
	return Node{Representative: sorted[0], Members: sorted}
}

// Contains reports whether t is a member of the group.
func (n Node) Contains(t Term) bool {
	_, found := slices.BinarySearch(n.Members, t)
	return found
}

// Reasoner is the narrow query interface the engine needs from whatever
// computes the subsumption hierarchy. Results must be consistent with a DAG
// and stable across repeated calls within one session.
type Reasoner interface {
	// SuperClassesOf returns the representatives of every strict ancestor
	// group of t (transitive, excluding t's own equivalence group).
	SuperClassesOf(t Term) (Set[Term], error)

	// EquivalentsOf returns the equivalence group containing t.
	EquivalentsOf(t Term) (Node, error)

	// TypesOf returns the representatives of the direct, most specific
	// types of e.
	TypesOf(e Element) (Set[Term], error)

	// Elements returns every element known to the reasoner.
	Elements() []Element

	// Contains reports whether t is a term of the hierarchy.
	Contains(t Term) bool

	// Top returns the root term (owl:Thing or equivalent).
	Top() Term
}

// MemoBackend stores memoized values in process. Implementations must be safe
// for concurrent use.
type MemoBackend[K comparable, V any] interface {
	// Get returns the value for key, if present
	Get(key K) (V, bool)

	// Set stores value under key
	Set(key K, value V)

	// Delete removes key
	Delete(key K)

	// Len returns the number of resident entries
	Len() int

	// Keys returns every resident key
	Keys() []K

	// Purge removes every entry
	Purge()

	// Capacity returns the maximum number of entries, or 0 when unbounded
	Capacity() int
}

// SnapshotStore persists the LCS pair cache and the IC table so they can be
// bulk-loaded into a fresh engine.
type SnapshotStore interface {
	// SaveLCS replaces the stored LCS snapshot with records
	SaveLCS(ctx context.Context, records []LCSRecord) error

	// LoadLCS returns every stored LCS record
	LoadLCS(ctx context.Context) ([]LCSRecord, error)

	// SaveIC replaces the stored IC snapshot with records
	SaveIC(ctx context.Context, records []ICRecord) error

	// LoadIC returns every stored IC record
	LoadIC(ctx context.Context) ([]ICRecord, error)

	// Close releases resources held by the store
	Close() error
}

// LCSRecord is one persisted lowest-common-subsumer fact.
type LCSRecord struct {
	A     Term
	B     Term
	Score float64
	LCS   Term
}

// ICRecord is one persisted information-content fact.
type ICRecord struct {
	Term Term
	IC   float64
}

// CacheMode describes how a cache treats a miss.
type CacheMode int

const (
	// Live caches compute and memoize values on a miss.
	Live CacheMode = iota
	// Frozen caches were bulk-loaded from a snapshot. A miss is authoritative:
	// the value was below the save threshold and is not recomputed.
	Frozen
)

func (m CacheMode) String() string {
	switch m {
	case Live:
		return "live"
	case Frozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// BackendConfig provides configuration options for memo backends and snapshot stores
type BackendConfig struct {
	// For in-memory memo backends
	Capacity int

	// For file and Badger snapshot stores
	Path     string
	InMemory bool

	// For Redis
	ConnectionString string
	Username         string
	Password         string
	Database         int

	// Logger receives store diagnostics; nil discards them
	Logger *slog.Logger

	// Additional options
	Options map[string]any
}

// BackendType represents the type of memo backend or snapshot store
type BackendType string

const (
	BackendMap    BackendType = "map"
	BackendLRU    BackendType = "lru"
	BackendFile   BackendType = "file"
	BackendRedis  BackendType = "redis"
	BackendBadger BackendType = "badger"
)
