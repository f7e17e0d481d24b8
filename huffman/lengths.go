package huffman

import "container/heap"

// node is an element of the merge tree. Leaves come first in the arena,
// followed by internal nodes in creation order.
type node struct {
	count       uint64
	left, right int32
}

// nodeHeap is a min-heap of arena indices ordered by count, ties broken by
// index so the result does not depend on heap internals.
type nodeHeap struct {
	arena []node
	idx   []int32
}

func (h *nodeHeap) Len() int { return len(h.idx) }
func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.idx[i], h.idx[j]
	if h.arena[a].count != h.arena[b].count {
		return h.arena[a].count < h.arena[b].count
	}
	return a < b
}
func (h *nodeHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *nodeHeap) Push(x any)    { h.idx = append(h.idx, x.(int32)) }
func (h *nodeHeap) Pop() any {
	n := len(h.idx)
	x := h.idx[n-1]
	h.idx = h.idx[:n-1]
	return x
}

// CodeLengths returns the Huffman code length of every symbol given its
// number of occurrences. Symbols that never occur get length 0. A lone
// occurring symbol gets length 1.
func CodeLengths(occurrences []uint64) []int {
	lengths := make([]int, len(occurrences))

	arena := make([]node, 0, 2*len(occurrences))
	leafSym := make([]int, 0, len(occurrences))
	for sym, c := range occurrences {
		if c > 0 {
			arena = append(arena, node{count: c, left: -1, right: -1})
			leafSym = append(leafSym, sym)
		}
	}

	switch len(leafSym) {
	case 0:
		return lengths
	case 1:
		lengths[leafSym[0]] = 1
		return lengths
	}

	h := &nodeHeap{arena: arena, idx: make([]int32, len(arena))}
	for i := range h.idx {
		h.idx[i] = int32(i)
	}
	heap.Init(h)
	for h.Len() > 1 {
		a := heap.Pop(h).(int32)
		b := heap.Pop(h).(int32)
		h.arena = append(h.arena, node{
			count: h.arena[a].count + h.arena[b].count,
			left:  a,
			right: b,
		})
		heap.Push(h, int32(len(h.arena)-1))
	}
	arena = h.arena

	// The root is the last node created; children always precede parents.
	depth := make([]int, len(arena))
	for i := len(arena) - 1; i >= len(leafSym); i-- {
		depth[arena[i].left] = depth[i] + 1
		depth[arena[i].right] = depth[i] + 1
	}
	for i, sym := range leafSym {
		lengths[sym] = depth[i]
	}
	return lengths
}

// LimitCodeLengths is like CodeLengths but keeps every length at or below
// maxLen, flattening the frequency distribution until the tree is shallow
// enough. It panics if maxLen cannot hold all occurring symbols.
func LimitCodeLengths(occurrences []uint64, maxLen int) []int {
	n := 0
	for _, c := range occurrences {
		if c > 0 {
			n++
		}
	}
	if maxLen < 1 || (maxLen < 63 && n > 1<<uint(maxLen)) {
		panic("huffman: maximum code length too small for alphabet")
	}

	freq := append([]uint64(nil), occurrences...)
	for {
		lengths := CodeLengths(freq)
		if maxLength(lengths) <= maxLen {
			return lengths
		}
		for i, c := range freq {
			if c > 0 {
				freq[i] = c>>1 | 1
			}
		}
	}
}

func maxLength(lengths []int) int {
	m := 0
	for _, l := range lengths {
		if l > m {
			m = l
		}
	}
	return m
}
