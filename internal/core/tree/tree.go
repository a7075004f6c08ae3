// Package tree assembles flat parent-referencing records into a forest.
package tree

type Node[T any, K comparable] struct {
	ID       K
	ParentID *K
	Item     T
	Children []*Node[T, K]
}

// KeyFunc extracts a record's id and optional parent id.
type KeyFunc[T any, K comparable] func(item T) (id K, parentID *K)

// Build turns items into a forest in two passes. Sibling and root order follow
// input order. A nil or zero parent id makes a root, as does a parent id that
// matches no item. When ids repeat only the first record is kept.
//
// Records whose parent chain loops never reach a root. For each loop the member
// that comes first in input order is detached from its parent and appended to
// the roots, so records hanging off a loop keep their parent.
func Build[T any, K comparable](items []T, key KeyFunc[T, K]) []*Node[T, K] {
	nodes := make(map[K]*Node[T, K], len(items))
	ordered := make([]*Node[T, K], 0, len(items))

	for _, item := range items {
		id, parentID := key(item)
		if _, dup := nodes[id]; dup {
			continue
		}
		n := &Node[T, K]{ID: id, ParentID: parentID, Item: item}
		nodes[id] = n
		ordered = append(ordered, n)
	}

	var zero K
	roots := make([]*Node[T, K], 0)
	parents := make(map[K]*Node[T, K], len(ordered))

	for _, n := range ordered {
		if n.ParentID != nil && *n.ParentID != zero {
			if p, ok := nodes[*n.ParentID]; ok {
				p.Children = append(p.Children, n)
				parents[n.ID] = p
				continue
			}
		}
		roots = append(roots, n)
	}

	reached := make(map[K]bool, len(ordered))
	for _, r := range roots {
		mark(r, reached)
	}
	if len(reached) == len(ordered) {
		return roots
	}

	pos := make(map[K]int, len(ordered))
	for i, n := range ordered {
		pos[n.ID] = i
	}

	for _, n := range ordered {
		if reached[n.ID] {
			continue
		}
		cut := loopMember(n, parents, pos)
		p := parents[cut.ID]
		p.Children = removeChild(p.Children, cut)
		delete(parents, cut.ID)
		roots = append(roots, cut)
		mark(cut, reached)
	}

	return roots
}

// loopMember follows the parent chain of an unreached node until it repeats
// and returns the loop member that comes first in input order.
func loopMember[T any, K comparable](n *Node[T, K], parents map[K]*Node[T, K], pos map[K]int) *Node[T, K] {
	seen := make(map[K]bool)
	cur := n
	for !seen[cur.ID] {
		seen[cur.ID] = true
		cur = parents[cur.ID]
	}

	first := cur
	for m := parents[cur.ID]; m != cur; m = parents[m.ID] {
		if pos[m.ID] < pos[first.ID] {
			first = m
		}
	}
	return first
}

func mark[T any, K comparable](root *Node[T, K], reached map[K]bool) {
	stack := []*Node[T, K]{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[n.ID] {
			continue
		}
		reached[n.ID] = true
		stack = append(stack, n.Children...)
	}
}

func removeChild[T any, K comparable](children []*Node[T, K], target *Node[T, K]) []*Node[T, K] {
	out := children[:0]
	for _, c := range children {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits nodes depth first in pre-order. Returning false from fn skips
// the node's children.
func Walk[T any, K comparable](roots []*Node[T, K], fn func(n *Node[T, K], depth int) bool) {
	var visit func(nodes []*Node[T, K], depth int)
	visit = func(nodes []*Node[T, K], depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// Flatten returns the records of the forest in pre-order, parents before
// their children.
func Flatten[T any, K comparable](roots []*Node[T, K]) []T {
	var out []T
	Walk(roots, func(n *Node[T, K], _ int) bool {
		out = append(out, n.Item)
		return true
	})
	return out
}

func Find[T any, K comparable](roots []*Node[T, K], id K) *Node[T, K] {
	var found *Node[T, K]
	Walk(roots, func(n *Node[T, K], _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func Count[T any, K comparable](roots []*Node[T, K]) int {
	total := 0
	Walk(roots, func(*Node[T, K], int) bool {
		total++
		return true
	})
	return total
}

// Cycles reports each parent loop among items as the ids on it, starting from
// the first member met in input order.
func Cycles[T any, K comparable](items []T, key KeyFunc[T, K]) [][]K {
	parentOf := make(map[K]*K, len(items))
	order := make([]K, 0, len(items))
	for _, item := range items {
		id, parentID := key(item)
		if _, dup := parentOf[id]; dup {
			continue
		}
		parentOf[id] = parentID
		order = append(order, id)
	}

	var zero K
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[K]int, len(order))
	var cycles [][]K

	for _, start := range order {
		if state[start] != unvisited {
			continue
		}
		var path []K
		index := make(map[K]int)
		cur := start
		for {
			if state[cur] == done {
				break
			}
			if state[cur] == visiting {
				if i, ok := index[cur]; ok {
					cycle := make([]K, len(path)-i)
					copy(cycle, path[i:])
					cycles = append(cycles, cycle)
				}
				break
			}
			state[cur] = visiting
			index[cur] = len(path)
			path = append(path, cur)

			p := parentOf[cur]
			if p == nil || *p == zero {
				break
			}
			if _, ok := parentOf[*p]; !ok {
				break
			}
			cur = *p
		}
		for _, id := range path {
			state[id] = done
		}
	}

	return cycles
}
