package layout

// assignGenerations runs a breadth-first walk from root. Parents are one
// generation up, children one down and spouses share their partner's
// generation. The second return value holds the persons reached; everyone
// else is assigned generation 0.
func assignGenerations(a *adjacency, root string) (map[string]int, map[string]bool) {
	gen := make(map[string]int, len(a.ids))
	reached := make(map[string]bool, len(a.ids))
	if a.has(root) {
		gen[root] = 0
		reached[root] = true
		queue := []string{root}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			g := gen[id]
			visit := func(next string, ng int) {
				if reached[next] {
					return
				}
				reached[next] = true
				gen[next] = ng
				queue = append(queue, next)
			}
			for _, p := range a.parents[id] {
				visit(p, g-1)
			}
			for _, c := range a.children[id] {
				visit(c, g+1)
			}
			for _, s := range a.spouses[id] {
				visit(s.id, g)
			}
		}
	}
	for _, id := range a.ids {
		if !reached[id] {
			gen[id] = 0
		}
	}
	return gen, reached
}
