package graphanalysis

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// Force-directed layout (Fruchterman-Reingold). Purely decorative: the
// coordinates feed the visualization and carry no analytical meaning.

type point struct {
	X, Y float64
}

const (
	layoutIterations = 50
	layoutArea       = 1.0
)

// springLayout positions nodes in the unit square. The same seed over the
// same graph yields the same coordinates; different seeds do not.
func springLayout(g *Graph, seed int64) map[uuid.UUID]point {
	nodes := g.Nodes()
	n := len(nodes)
	positions := make(map[uuid.UUID]point, n)
	if n == 0 {
		return positions
	}

	rng := rand.New(rand.NewSource(seed))
	for _, node := range nodes {
		positions[node.ID] = point{X: rng.Float64(), Y: rng.Float64()}
	}
	if n == 1 {
		return positions
	}

	k := math.Sqrt(layoutArea / float64(n))
	temperature := 0.1

	for iter := 0; iter < layoutIterations; iter++ {
		disp := make(map[uuid.UUID]point, n)

		// repulsion between all pairs
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				a, b := nodes[i].ID, nodes[j].ID
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Hypot(dx, dy)
				if dist < 1e-9 {
					dist = 1e-9
				}
				force := k * k / dist
				ux, uy := dx/dist, dy/dist
				disp[a] = point{disp[a].X + ux*force, disp[a].Y + uy*force}
				disp[b] = point{disp[b].X - ux*force, disp[b].Y - uy*force}
			}
		}

		// attraction along edges
		for _, e := range g.Edges() {
			dx := positions[e.Source].X - positions[e.Target].X
			dy := positions[e.Source].Y - positions[e.Target].Y
			dist := math.Hypot(dx, dy)
			if dist < 1e-9 {
				dist = 1e-9
			}
			force := dist * dist / k
			ux, uy := dx/dist, dy/dist
			disp[e.Source] = point{disp[e.Source].X - ux*force, disp[e.Source].Y - uy*force}
			disp[e.Target] = point{disp[e.Target].X + ux*force, disp[e.Target].Y + uy*force}
		}

		// apply displacement limited by temperature
		for _, node := range nodes {
			d := disp[node.ID]
			dist := math.Hypot(d.X, d.Y)
			if dist < 1e-9 {
				continue
			}
			step := math.Min(dist, temperature)
			positions[node.ID] = point{
				X: clampUnit(positions[node.ID].X + d.X/dist*step),
				Y: clampUnit(positions[node.ID].Y + d.Y/dist*step),
			}
		}

		temperature *= 0.95
	}

	return positions
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
