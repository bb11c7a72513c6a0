package graph

// FindCycle walks the reference edges reachable from the given roots and
// returns the node ids forming a dependency cycle, or nil when the reachable
// subgraph is acyclic. References to node ids absent from the graph are
// skipped here; resolution is lazy and reports those at run time.
func (g *Graph) FindCycle(roots []string) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		spec, ok := g.nodes[id]
		if !ok {
			return nil
		}
		state[id] = visiting
		stack = append(stack, id)
		for _, iv := range spec.Inputs {
			if iv.Ref == nil {
				continue
			}
			src := iv.Ref.Source
			switch state[src] {
			case visiting:
				// Slice the current stack from the first occurrence of src to
				// report the offending loop.
				for i, v := range stack {
					if v == src {
						return append(append([]string(nil), stack[i:]...), src)
					}
				}
				return []string{src, src}
			case unvisited:
				if cycle := visit(src); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, root := range roots {
		if state[root] == unvisited {
			if cycle := visit(root); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
