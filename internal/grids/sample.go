package grids

import (
	"math"
	"math/rand"
)

// Sampling selects the downsampling strategy.
type Sampling string

const (
	// SamplingRandom draws a uniform subset without replacement.
	SamplingRandom Sampling = "random"
	// SamplingFarthest greedily keeps points that maximize pairwise
	// spread, which preserves the cloud's envelope at low counts.
	SamplingFarthest Sampling = "farthest"
)

func randomSample(count, target int, rng *rand.Rand) []int {
	return rng.Perm(count)[:target]
}

// farthestPointSample starts from a random point and repeatedly picks the
// point farthest from everything selected so far. points is row-major
// with three components per point.
func farthestPointSample(points []float64, target int, rng *rand.Rand) []int {
	count := len(points) / 3
	selected := make([]int, 0, target)
	selected = append(selected, rng.Intn(count))

	distances := make([]float64, count)
	for i := range distances {
		distances[i] = math.Inf(1)
	}

	for len(selected) < target {
		last := selected[len(selected)-1]
		lx, ly, lz := points[3*last], points[3*last+1], points[3*last+2]

		next := 0
		best := math.Inf(-1)
		for i := 0; i < count; i++ {
			dx := points[3*i] - lx
			dy := points[3*i+1] - ly
			dz := points[3*i+2] - lz
			d := math.Sqrt(dx*dx + dy*dy + dz*dz)
			if d < distances[i] {
				distances[i] = d
			}
			if distances[i] > best {
				best = distances[i]
				next = i
			}
		}
		selected = append(selected, next)
	}
	return selected
}
