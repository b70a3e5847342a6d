// Package adjacency implements the compact, bit-packed edge store that
// backs graph.Graph. It knows nothing about node payloads or asset/dependency
// semantics — it only stores typed directed edges between opaque NodeId
// values and answers "who points at/from this node" queries in insertion
// order.
//
// The design mirrors a classic packed-array graph representation: nodes and
// edges each live in a flat, geometrically-grown array, and every edge is
// simultaneously threaded into three intrusive linked lists — a hash bucket
// keyed by (from, to, type), the outbound list of its "from" node, and the
// inbound list of its "to" node — so insertion, removal, and iteration by
// endpoint are all cheap without any auxiliary map allocations.
package adjacency

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/bundleforge/graphcore/internal/helpers"
)

// NodeId is a dense, non-negative, monotonically allocated node handle. It
// is stable for the lifetime of the graph; NodeIds are never reused even
// after a node's edges are all removed.
type NodeId uint32

// NullNode is the sentinel "no node" value, reserved so implementations can
// use NodeId as a plain integer without an accompanying validity bit.
const NullNode NodeId = 1<<32 - 1

// EdgeType is a small non-zero positive integer naming an edge's kind.
// Type 0 is reserved: it can never be the type of a stored edge, and is
// reused by query operations as the AllEdgeTypes sentinel meaning "match
// any type".
type EdgeType uint32

// AllEdgeTypes, passed to a query method, matches edges of every type.
const AllEdgeTypes EdgeType = 0

const nullIndex uint32 = 1<<32 - 1

// edgeSlot is one packed edge record. It is simultaneously linked into a
// hash bucket (hashNext), the outbound list of "from" (nextOut/prevOut),
// and the inbound list of "to" (nextIn/prevIn). A tombstoned slot (Type ==
// AllEdgeTypes) reuses hashNext as a singly-linked free-list pointer.
type edgeSlot struct {
	typ      EdgeType
	from     NodeId
	to       NodeId
	hashNext uint32
	nextIn   uint32
	prevIn   uint32
	nextOut  uint32
	prevOut  uint32
}

func (e *edgeSlot) isTombstone() bool { return e.typ == AllEdgeTypes }

// AdjacencyList is the packed edge store described above. The zero value is
// not usable; construct one with New.
type AdjacencyList struct {
	firstIn  []uint32
	firstOut []uint32
	lastIn   []uint32
	lastOut  []uint32
	nodeCount uint32

	edges         []edgeSlot
	numLiveEdges  uint32
	numTombstones uint32
	freeHead      uint32 // head of the tombstone free list, or nullIndex

	hashTable []uint32 // bucket -> edge index, or nullIndex
}

// Edge is a materialized (from, to, type) triple, as returned by iteration
// methods that don't need to expose slot indices.
type Edge struct {
	From NodeId
	To   NodeId
	Type EdgeType
}

// InboundEdge is one entry of a node's inbound edge list.
type InboundEdge struct {
	Type EdgeType
	From NodeId
}

// OutboundEdge is one entry of a node's outbound edge list.
type OutboundEdge struct {
	Type EdgeType
	To   NodeId
}

const defaultNodeCapacity = 128
const defaultEdgeCapacity = 256

// New creates an empty AdjacencyList with small initial capacities; both
// node and edge storage grow geometrically as needed.
func New() *AdjacencyList {
	return NewWithCapacity(defaultNodeCapacity, defaultEdgeCapacity)
}

// NewWithCapacity creates an empty AdjacencyList with room for
// nodeCapacity nodes and edgeCapacity edge slots. The edge array first
// grows once live edges plus tombstones would exceed 80% of edgeCapacity.
func NewWithCapacity(nodeCapacity, edgeCapacity uint32) *AdjacencyList {
	if nodeCapacity == 0 {
		nodeCapacity = defaultNodeCapacity
	}
	if edgeCapacity == 0 {
		edgeCapacity = defaultEdgeCapacity
	}
	a := &AdjacencyList{
		firstIn:  make([]uint32, 0, nodeCapacity),
		firstOut: make([]uint32, 0, nodeCapacity),
		lastIn:   make([]uint32, 0, nodeCapacity),
		lastOut:  make([]uint32, 0, nodeCapacity),
		edges:    make([]edgeSlot, 0, edgeCapacity),
		freeHead: nullIndex,
	}
	a.hashTable = make([]uint32, nextPowerOfTwo(2*edgeCapacity))
	a.fillHashTable(a.hashTable)
	return a
}

func (a *AdjacencyList) fillHashTable(table []uint32) {
	for i := range table {
		table[i] = nullIndex
	}
}

// NodeCount returns the number of nodes ever allocated (addNode calls).
func (a *AdjacencyList) NodeCount() uint32 { return a.nodeCount }

// LiveEdgeCount returns the number of edges currently stored (excludes
// tombstones).
func (a *AdjacencyList) LiveEdgeCount() uint32 { return a.numLiveEdges }

// AddNode appends a new node slot and returns its id. Node ids are dense
// and start at 0.
func (a *AdjacencyList) AddNode() NodeId {
	id := NodeId(a.nodeCount)
	a.nodeCount++
	a.firstIn = append(a.firstIn, nullIndex)
	a.firstOut = append(a.firstOut, nullIndex)
	a.lastIn = append(a.lastIn, nullIndex)
	a.lastOut = append(a.lastOut, nullIndex)
	return id
}

func (a *AdjacencyList) hasNode(id NodeId) bool {
	return uint32(id) < a.nodeCount
}

func hashTriple(from, to NodeId, typ EdgeType) uint64 {
	seed := helpers.HashCombine(uint32(from), uint32(to))
	seed = helpers.HashCombine(seed, uint32(typ))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], seed)
	return xxhash.Sum64(buf[:])
}

func (a *AdjacencyList) bucketFor(from, to NodeId, typ EdgeType) uint32 {
	return uint32(hashTriple(from, to, typ) % uint64(len(a.hashTable)))
}

// HasEdge reports whether an edge (from, to, typ) is currently stored.
func (a *AdjacencyList) HasEdge(from, to NodeId, typ EdgeType) bool {
	return a.findEdge(from, to, typ) != nullIndex
}

func (a *AdjacencyList) findEdge(from, to NodeId, typ EdgeType) uint32 {
	if len(a.hashTable) == 0 {
		return nullIndex
	}
	bucket := a.bucketFor(from, to, typ)
	for idx := a.hashTable[bucket]; idx != nullIndex; idx = a.edges[idx].hashNext {
		e := &a.edges[idx]
		if e.from == from && e.to == to && e.typ == typ {
			return idx
		}
	}
	return nullIndex
}

// AddEdge inserts a new edge (from, to, typ). It returns false, with no
// error and no mutation, if the edge already exists (addEdge is
// idempotent). It returns an error if typ is AllEdgeTypes (0) or if either
// endpoint is not a valid node.
func (a *AdjacencyList) AddEdge(from, to NodeId, typ EdgeType) (bool, error) {
	if typ == AllEdgeTypes {
		return false, fmt.Errorf("adjacency: edge type 0 is reserved and may not be used")
	}
	if !a.hasNode(from) {
		return false, fmt.Errorf("adjacency: unknown from-node %d", from)
	}
	if !a.hasNode(to) {
		return false, fmt.Errorf("adjacency: unknown to-node %d", to)
	}
	if a.HasEdge(from, to, typ) {
		return false, nil
	}

	a.maybeGrowEdges()

	var idx uint32
	if a.freeHead != nullIndex {
		idx = a.freeHead
		a.freeHead = a.edges[idx].hashNext
		a.edges[idx] = edgeSlot{}
		a.numTombstones--
	} else {
		idx = uint32(len(a.edges))
		a.edges = append(a.edges, edgeSlot{})
	}

	e := &a.edges[idx]
	e.typ, e.from, e.to = typ, from, to
	e.nextIn, e.prevIn = nullIndex, nullIndex
	e.nextOut, e.prevOut = nullIndex, nullIndex

	bucket := a.bucketFor(from, to, typ)
	e.hashNext = a.hashTable[bucket]
	a.hashTable[bucket] = idx

	// Append at the tail of each intrusive list so iteration order matches
	// insertion order (FIFO), not reverse-insertion order.
	if tail := a.lastOut[from]; tail != nullIndex {
		a.edges[tail].nextOut = idx
		e.prevOut = tail
	} else {
		a.firstOut[from] = idx
	}
	a.lastOut[from] = idx

	if tail := a.lastIn[to]; tail != nullIndex {
		a.edges[tail].nextIn = idx
		e.prevIn = tail
	} else {
		a.firstIn[to] = idx
	}
	a.lastIn[to] = idx

	a.numLiveEdges++
	return true, nil
}

// RemoveEdge unlinks and tombstones the edge (from, to, typ). It returns an
// error if no such edge exists.
func (a *AdjacencyList) RemoveEdge(from, to NodeId, typ EdgeType) error {
	idx := a.findEdge(from, to, typ)
	if idx == nullIndex {
		return fmt.Errorf("adjacency: no edge (%d,%d,%d) to remove", from, to, typ)
	}
	a.removeEdgeAt(idx)
	a.maybeShrinkEdges()
	return nil
}

func (a *AdjacencyList) removeEdgeAt(idx uint32) {
	e := &a.edges[idx]

	// Unlink from the hash bucket.
	bucket := a.bucketFor(e.from, e.to, e.typ)
	if a.hashTable[bucket] == idx {
		a.hashTable[bucket] = e.hashNext
	} else {
		prev := a.hashTable[bucket]
		for prev != nullIndex && a.edges[prev].hashNext != idx {
			prev = a.edges[prev].hashNext
		}
		if prev != nullIndex {
			a.edges[prev].hashNext = e.hashNext
		}
	}

	// Unlink from the outbound list of "from".
	if e.prevOut != nullIndex {
		a.edges[e.prevOut].nextOut = e.nextOut
	} else {
		a.firstOut[e.from] = e.nextOut
	}
	if e.nextOut != nullIndex {
		a.edges[e.nextOut].prevOut = e.prevOut
	} else {
		a.lastOut[e.from] = e.prevOut
	}

	// Unlink from the inbound list of "to".
	if e.prevIn != nullIndex {
		a.edges[e.prevIn].nextIn = e.nextIn
	} else {
		a.firstIn[e.to] = e.nextIn
	}
	if e.nextIn != nullIndex {
		a.edges[e.nextIn].prevIn = e.prevIn
	} else {
		a.lastIn[e.to] = e.prevIn
	}

	// Tombstone: push onto the free list, reusing hashNext as the pointer.
	*e = edgeSlot{typ: AllEdgeTypes, hashNext: a.freeHead}
	a.freeHead = idx

	a.numLiveEdges--
	a.numTombstones++
}

// RemoveAllEdgesOf removes every edge whose from or to equals node. This is
// used when a node itself is being deleted from the graph.
func (a *AdjacencyList) RemoveAllEdgesOf(node NodeId) {
	for idx := a.firstOut[node]; idx != nullIndex; {
		next := a.edges[idx].nextOut
		a.removeEdgeAt(idx)
		idx = next
	}
	for idx := a.firstIn[node]; idx != nullIndex; {
		next := a.edges[idx].nextIn
		a.removeEdgeAt(idx)
		idx = next
	}
	a.maybeShrinkEdges()
}

// RemoveOutboundEdgesOfType removes every outbound edge of node whose type
// equals typ.
func (a *AdjacencyList) RemoveOutboundEdgesOfType(node NodeId, typ EdgeType) {
	for idx := a.firstOut[node]; idx != nullIndex; {
		next := a.edges[idx].nextOut
		if a.edges[idx].typ == typ {
			a.removeEdgeAt(idx)
		}
		idx = next
	}
	a.maybeShrinkEdges()
}

func matchesTypeSpec(typ EdgeType, types []EdgeType) bool {
	if len(types) == 0 || types[0] == AllEdgeTypes {
		return true
	}
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}

// GetNodesConnectedFrom iterates node's outbound neighbours in insertion
// order, filtered by types (no types, or AllEdgeTypes, matches everything).
func (a *AdjacencyList) GetNodesConnectedFrom(node NodeId, types ...EdgeType) []NodeId {
	var out []NodeId
	for idx := a.firstOut[node]; idx != nullIndex; idx = a.edges[idx].nextOut {
		e := &a.edges[idx]
		if matchesTypeSpec(e.typ, types) {
			out = append(out, e.to)
		}
	}
	return out
}

// GetNodesConnectedTo iterates node's inbound neighbours in insertion
// order, filtered by types.
func (a *AdjacencyList) GetNodesConnectedTo(node NodeId, types ...EdgeType) []NodeId {
	var out []NodeId
	for idx := a.firstIn[node]; idx != nullIndex; idx = a.edges[idx].nextIn {
		e := &a.edges[idx]
		if matchesTypeSpec(e.typ, types) {
			out = append(out, e.from)
		}
	}
	return out
}

// GetInboundEdgesByType enumerates every inbound edge of node, with type.
func (a *AdjacencyList) GetInboundEdgesByType(node NodeId) []InboundEdge {
	var out []InboundEdge
	for idx := a.firstIn[node]; idx != nullIndex; idx = a.edges[idx].nextIn {
		e := &a.edges[idx]
		out = append(out, InboundEdge{Type: e.typ, From: e.from})
	}
	return out
}

// GetOutboundEdgesByType enumerates every outbound edge of node, with type.
func (a *AdjacencyList) GetOutboundEdgesByType(node NodeId) []OutboundEdge {
	var out []OutboundEdge
	for idx := a.firstOut[node]; idx != nullIndex; idx = a.edges[idx].nextOut {
		e := &a.edges[idx]
		out = append(out, OutboundEdge{Type: e.typ, To: e.to})
	}
	return out
}

// GetAllEdges streams every live edge. Order is not specified.
func (a *AdjacencyList) GetAllEdges() []Edge {
	out := make([]Edge, 0, a.numLiveEdges)
	for i := range a.edges {
		e := &a.edges[i]
		if !e.isTombstone() {
			out = append(out, Edge{From: e.from, To: e.to, Type: e.typ})
		}
	}
	return out
}

func nextPowerOfTwo(n uint32) uint32 {
	if n < 2 {
		return 2
	}
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

// maybeGrowEdges doubles edge capacity (and rehashes) once the combined
// live+tombstone load factor crosses 0.8, matching the capacity policy of
// the reference implementation this package generalizes.
func (a *AdjacencyList) maybeGrowEdges() {
	capacity := uint32(cap(a.edges))
	if capacity == 0 {
		capacity = defaultEdgeCapacity
	}
	used := a.numLiveEdges + a.numTombstones
	if float64(used+1)/float64(capacity) <= 0.8 {
		return
	}
	newCapacity := capacity * 2
	grown := make([]edgeSlot, len(a.edges), newCapacity)
	copy(grown, a.edges)
	a.edges = grown
	a.rehash()
}

// maybeShrinkEdges retightens the hash table once live-edge density falls
// below 0.4, so a build that frees a lot of edges doesn't keep an
// oversized table around forever. The backing edge array itself is left at
// its current capacity — freed slots stay on the tombstone free list and
// are reused by future AddEdge calls — since compacting it would require
// renumbering every edge index still referenced by the linked lists.
func (a *AdjacencyList) maybeShrinkEdges() {
	capacity := uint32(cap(a.edges))
	if capacity <= defaultEdgeCapacity {
		return
	}
	if float64(a.numLiveEdges)/float64(capacity) >= 0.4 {
		return
	}
	a.rehash()
}

// rehash rebuilds the hash table (sized to the next power of two >= 2 *
// (live edges + 1)) by re-inserting every live edge. This never touches the
// linked-list pointers, only hashNext and the bucket array, so iteration
// order is unaffected.
func (a *AdjacencyList) rehash() {
	tableSize := nextPowerOfTwo(2 * (a.numLiveEdges + 1))
	table := make([]uint32, tableSize)
	a.fillHashTable(table)

	for i := range a.edges {
		e := &a.edges[i]
		if e.isTombstone() {
			continue
		}
		bucket := uint32(hashTriple(e.from, e.to, e.typ) % uint64(tableSize))
		e.hashNext = table[bucket]
		table[bucket] = uint32(i)
	}

	a.hashTable = table
}
