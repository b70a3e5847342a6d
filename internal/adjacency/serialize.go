package adjacency

import (
	"encoding/binary"
	"fmt"
)

// wireVersion is bumped whenever the packed layout below changes shape.
// Deserialize rejects anything else outright rather than guessing.
const wireVersion = 1

const edgeRecordSize = 4 * 8 // typ, from, to, hashNext, nextIn, prevIn, nextOut, prevOut

// Serialized is the on-the-wire shape of an AdjacencyList: a handful of
// small integers plus flat byte blobs. PackedNodes holds the
// firstIn/firstOut/lastIn/lastOut head-and-tail pointer arrays; PackedEdges
// holds one fixed-size record per edge slot (including tombstones, so the
// free list survives the round trip). HashTable is the bucket array.
// Restoring from this is a pure memcpy of all four arrays — no bucket and
// no list pointer is ever recomputed.
type Serialized struct {
	Version       uint32
	NodeCount     uint32
	NumLiveEdges  uint32
	NumTombstones uint32
	FreeHead      uint32
	PackedNodes   []byte
	PackedEdges   []byte
	HashTable     []byte
}

// Serialize snapshots the AdjacencyList into a self-contained value cheap
// to hand to another worker or write to a cache file.
func (a *AdjacencyList) Serialize() Serialized {
	packedNodes := make([]byte, 16*a.nodeCount)
	for i := uint32(0); i < a.nodeCount; i++ {
		binary.LittleEndian.PutUint32(packedNodes[i*16:], a.firstIn[i])
		binary.LittleEndian.PutUint32(packedNodes[i*16+4:], a.firstOut[i])
		binary.LittleEndian.PutUint32(packedNodes[i*16+8:], a.lastIn[i])
		binary.LittleEndian.PutUint32(packedNodes[i*16+12:], a.lastOut[i])
	}

	packedEdges := make([]byte, edgeRecordSize*len(a.edges))
	for i, e := range a.edges {
		off := i * edgeRecordSize
		binary.LittleEndian.PutUint32(packedEdges[off:], uint32(e.typ))
		binary.LittleEndian.PutUint32(packedEdges[off+4:], uint32(e.from))
		binary.LittleEndian.PutUint32(packedEdges[off+8:], uint32(e.to))
		binary.LittleEndian.PutUint32(packedEdges[off+12:], e.hashNext)
		binary.LittleEndian.PutUint32(packedEdges[off+16:], e.nextIn)
		binary.LittleEndian.PutUint32(packedEdges[off+20:], e.prevIn)
		binary.LittleEndian.PutUint32(packedEdges[off+24:], e.nextOut)
		binary.LittleEndian.PutUint32(packedEdges[off+28:], e.prevOut)
	}

	hashTable := make([]byte, 4*len(a.hashTable))
	for i, v := range a.hashTable {
		binary.LittleEndian.PutUint32(hashTable[i*4:], v)
	}

	return Serialized{
		Version:       wireVersion,
		NodeCount:     a.nodeCount,
		NumLiveEdges:  a.numLiveEdges,
		NumTombstones: a.numTombstones,
		FreeHead:      a.freeHead,
		PackedNodes:   packedNodes,
		PackedEdges:   packedEdges,
		HashTable:     hashTable,
	}
}

// Deserialize restores an AdjacencyList from a Serialized value produced by
// Serialize, without recomputing any hash bucket.
func Deserialize(s Serialized) (*AdjacencyList, error) {
	if s.Version != wireVersion {
		return nil, fmt.Errorf("adjacency: unsupported wire version %d (expected %d)", s.Version, wireVersion)
	}
	if len(s.PackedNodes) != 16*int(s.NodeCount) {
		return nil, fmt.Errorf("adjacency: corrupt node block: got %d bytes, want %d", len(s.PackedNodes), 16*s.NodeCount)
	}
	if len(s.PackedEdges)%edgeRecordSize != 0 {
		return nil, fmt.Errorf("adjacency: corrupt edge block: %d is not a multiple of %d", len(s.PackedEdges), edgeRecordSize)
	}
	if len(s.HashTable)%4 != 0 {
		return nil, fmt.Errorf("adjacency: corrupt hash table block")
	}

	a := &AdjacencyList{
		nodeCount:     s.NodeCount,
		numLiveEdges:  s.NumLiveEdges,
		numTombstones: s.NumTombstones,
		freeHead:      s.FreeHead,
	}

	a.firstIn = make([]uint32, s.NodeCount)
	a.firstOut = make([]uint32, s.NodeCount)
	a.lastIn = make([]uint32, s.NodeCount)
	a.lastOut = make([]uint32, s.NodeCount)
	for i := uint32(0); i < s.NodeCount; i++ {
		a.firstIn[i] = binary.LittleEndian.Uint32(s.PackedNodes[i*16:])
		a.firstOut[i] = binary.LittleEndian.Uint32(s.PackedNodes[i*16+4:])
		a.lastIn[i] = binary.LittleEndian.Uint32(s.PackedNodes[i*16+8:])
		a.lastOut[i] = binary.LittleEndian.Uint32(s.PackedNodes[i*16+12:])
	}

	numEdges := len(s.PackedEdges) / edgeRecordSize
	a.edges = make([]edgeSlot, numEdges)
	for i := range a.edges {
		off := i * edgeRecordSize
		e := &a.edges[i]
		e.typ = EdgeType(binary.LittleEndian.Uint32(s.PackedEdges[off:]))
		e.from = NodeId(binary.LittleEndian.Uint32(s.PackedEdges[off+4:]))
		e.to = NodeId(binary.LittleEndian.Uint32(s.PackedEdges[off+8:]))
		e.hashNext = binary.LittleEndian.Uint32(s.PackedEdges[off+12:])
		e.nextIn = binary.LittleEndian.Uint32(s.PackedEdges[off+16:])
		e.prevIn = binary.LittleEndian.Uint32(s.PackedEdges[off+20:])
		e.nextOut = binary.LittleEndian.Uint32(s.PackedEdges[off+24:])
		e.prevOut = binary.LittleEndian.Uint32(s.PackedEdges[off+28:])
	}

	numBuckets := len(s.HashTable) / 4
	a.hashTable = make([]uint32, numBuckets)
	for i := range a.hashTable {
		a.hashTable[i] = binary.LittleEndian.Uint32(s.HashTable[i*4:])
	}

	return a, nil
}
