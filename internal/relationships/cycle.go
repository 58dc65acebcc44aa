package relationships

import "context"

type edgeReader interface {
	SourceIDsBySlave(ctx context.Context, slaveID int64) ([]int64, error)
}

// CycleDetector decides whether a proposed slave→source edge would close a loop.
type CycleDetector struct {
	edges edgeReader
}

func NewCycleDetector(edges edgeReader) *CycleDetector {
	return &CycleDetector{edges: edges}
}

// WouldCreateCycle reports whether adding slave→source makes slave reachable
// from source by following existing slave→source edges. The walk is an
// iterative DFS with a visited set, so it terminates on graphs that already
// contain cycles.
func (d *CycleDetector) WouldCreateCycle(ctx context.Context, slaveID, sourceID int64) (bool, error) {
	if slaveID == sourceID {
		return true, nil
	}

	visited := map[int64]struct{}{}
	stack := []int64{sourceID}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[node]; ok {
			continue
		}
		visited[node] = struct{}{}

		next, err := d.edges.SourceIDsBySlave(ctx, node)
		if err != nil {
			return false, err
		}
		for _, id := range next {
			if id == slaveID {
				return true, nil
			}
			if _, ok := visited[id]; !ok {
				stack = append(stack, id)
			}
		}
	}
	return false, nil
}
