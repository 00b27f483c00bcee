package transform

import "github.com/Carmen-Shannon/oxy-scene/common"

// GraphBuilderOption is a functional option for configuring a Graph.
type GraphBuilderOption func(g *Graph)

// WithCapacity pre-allocates room for n nodes.
func WithCapacity(n int) GraphBuilderOption {
	return func(g *Graph) {
		if n > 0 {
			g.nodes = make([]node, 0, n)
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger common.Logger) GraphBuilderOption {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}
