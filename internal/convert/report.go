package convert

import (
	"fmt"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Report summarizes one import.
type Report struct {
	Source    string
	Joints    int
	Meshes    int
	Vertices  int
	Faces     int
	Strips    int
	Materials int

	// Bones that matched no joint. Their weights were dropped.
	Unresolved []UnresolvedBone
	// Weights that referenced a vertex the mesh does not have.
	InvalidWeights int
}

// UnresolvedBone is a mesh bone whose name matched no joint.
type UnresolvedBone struct {
	Mesh       string
	Bone       string
	Weights    int
	Suggestion string // closest joint name, if any is similar
}

// DroppedBindings returns the number of vertex bindings dropped because
// their bone matched no joint.
func (r *Report) DroppedBindings() int {
	total := 0
	for _, u := range r.Unresolved {
		total += u.Weights
	}
	return total
}

func (u UnresolvedBone) String() string {
	s := fmt.Sprintf("mesh %q bone %q (%d weights)", u.Mesh, u.Bone, u.Weights)
	if u.Suggestion != "" {
		s += fmt.Sprintf(", did you mean %q?", u.Suggestion)
	}
	return s
}

// suggestionThreshold is the minimum similarity for a joint name to be
// offered as a suggestion.
const suggestionThreshold = 0.6

// closestName returns the candidate most similar to name, or "" when none
// reaches suggestionThreshold.
func closestName(name string, candidates []string) string {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false

	best, bestScore := "", 0.0
	for _, c := range candidates {
		if score := strutil.Similarity(name, c, lev); score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}
