package analyzer

// unionFind groups photo UIDs into clusters with path compression and union
// by rank.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(uids []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(uids)),
		rank:   make(map[string]int, len(uids)),
	}
	for _, uid := range uids {
		uf.parent[uid] = uid
	}
	return uf
}

func (uf *unionFind) find(x string) string {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

// findExisting is like find but reports whether x was ever registered,
// without inserting it.
func (uf *unionFind) findExisting(x string) (string, bool) {
	if _, ok := uf.parent[x]; !ok {
		return "", false
	}
	return uf.find(x), true
}

func (uf *unionFind) union(x, y string) {
	px, py := uf.find(x), uf.find(y)
	if px == py {
		return
	}
	if uf.rank[px] < uf.rank[py] {
		px, py = py, px
	}
	uf.parent[py] = px
	if uf.rank[px] == uf.rank[py] {
		uf.rank[px]++
	}
}
