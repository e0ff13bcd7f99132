package cluster

// UnionFind is a disjoint-set structure over string identifiers, used only
// during batch clustering to collapse the similarity graph into connected
// components. Not safe for concurrent use; all merges happen in one
// sequential pass.
type UnionFind struct {
	parent map[string]string
	rank   map[string]int
	keys   []string // insertion order, for deterministic grouping
}

// NewUnionFind creates an empty structure
func NewUnionFind() *UnionFind {
	return &UnionFind{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

// Find returns the representative of x's set, lazily initializing x as its
// own singleton on first use. Iterative with full path compression: one loop
// to locate the root, a second to repoint every visited node at it.
func (uf *UnionFind) Find(x string) string {
	if _, ok := uf.parent[x]; !ok {
		uf.parent[x] = x
		uf.rank[x] = 0
		uf.keys = append(uf.keys, x)
		return x
	}

	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}

	for uf.parent[x] != root {
		x, uf.parent[x] = uf.parent[x], root
	}

	return root
}

// Union merges the sets containing x and y; no-op if already joined.
// Union by rank: the smaller-rank root attaches under the larger; on equal
// rank the second argument's root attaches under the first's, whose rank then
// increments. The tie-break only decides which id ends up as the group's
// representative, not the partition itself.
func (uf *UnionFind) Union(x, y string) {
	px := uf.Find(x)
	py := uf.Find(y)
	if px == py {
		return
	}

	switch {
	case uf.rank[px] < uf.rank[py]:
		uf.parent[px] = py
	case uf.rank[px] > uf.rank[py]:
		uf.parent[py] = px
	default:
		uf.parent[py] = px
		uf.rank[px]++
	}
}

// Groups returns the full partition: each root id mapped to its members in
// first-seen order. Every stored key is re-resolved, so compression is fully
// up to date afterwards.
func (uf *UnionFind) Groups() map[string][]string {
	groups := make(map[string][]string)
	for _, key := range uf.keys {
		root := uf.Find(key)
		groups[root] = append(groups[root], key)
	}
	return groups
}
