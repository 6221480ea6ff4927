// Package rest provides the consistent hash ring.
package rest

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
)

// HashRing maps bucket keys onto ratelimiter nodes. Each member occupies
// several virtual positions so keys spread evenly. The ring itself is not
// safe for concurrent use; RemoteRatelimiter serializes access.
type HashRing struct {
	virtualNodes int
	positions    []uint64
	nodes        map[uint64]*RingNode
	members      map[string]*RingNode
}

// NewHashRing constructs a ring placing each node at virtualNodes positions.
func NewHashRing(virtualNodes int) *HashRing {
	if virtualNodes <= 0 {
		virtualNodes = 16
	}
	return &HashRing{
		virtualNodes: virtualNodes,
		nodes:        map[uint64]*RingNode{},
		members:      map[string]*RingNode{},
	}
}

// Add inserts a node and its virtual positions. Adding a node that is
// already a member is a no-op.
func (r *HashRing) Add(node *RingNode) {
	if r == nil || node == nil {
		return
	}
	id := node.Key()
	if _, ok := r.members[id]; ok {
		return
	}
	r.members[id] = node
	for i := 0; i < r.virtualNodes; i++ {
		position := ringPosition(fmt.Sprintf("%s#%d", id, i))
		if _, taken := r.nodes[position]; taken {
			continue
		}
		r.nodes[position] = node
		r.positions = append(r.positions, position)
	}
	sort.Slice(r.positions, func(i, j int) bool { return r.positions[i] < r.positions[j] })
}

// Get returns the node owning the first ring position at or after the key's
// position, wrapping to the first position past the end. An empty ring
// reports no owner.
func (r *HashRing) Get(key uint64) (*RingNode, bool) {
	if r == nil || len(r.positions) == 0 {
		return nil, false
	}
	position := ringPosition(strconv.FormatUint(key, 10))
	i := sort.Search(len(r.positions), func(i int) bool { return r.positions[i] >= position })
	if i == len(r.positions) {
		i = 0
	}
	return r.nodes[r.positions[i]], true
}

// Has reports whether an address is already a ring member.
func (r *HashRing) Has(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.members[id]
	return ok
}

// Len returns the number of member nodes.
func (r *HashRing) Len() int {
	if r == nil {
		return 0
	}
	return len(r.members)
}

// Members returns the member nodes.
func (r *HashRing) Members() []*RingNode {
	if r == nil {
		return nil
	}
	members := make([]*RingNode, 0, len(r.members))
	for _, node := range r.members {
		members = append(members, node)
	}
	return members
}

func ringPosition(s string) uint64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(s))
	return hasher.Sum64()
}
