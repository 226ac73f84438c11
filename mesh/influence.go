package mesh

import (
	"sort"

	"github.com/mogaika/daeimport/utils"
)

const MaxWeights = 4

type BoneWeight struct {
	Bone   string
	Weight float32
}

// Influence holds the bones affecting one control point.
type Influence struct {
	Weights []BoneWeight
}

// Add accumulates a weight. A bone already present gets the weight summed.
// The list may temporarily exceed MaxWeights until Normalize.
func (inf *Influence) Add(bone string, weight float32) {
	for i := range inf.Weights {
		if inf.Weights[i].Bone == bone {
			inf.Weights[i].Weight += weight
			return
		}
	}
	inf.Weights = append(inf.Weights, BoneWeight{Bone: bone, Weight: weight})
}

// Normalize drops the lightest weights above MaxWeights and rescales the
// rest to sum to one. Surviving entries keep their order.
func (inf *Influence) Normalize() {
	for len(inf.Weights) > MaxWeights {
		lowest := 0
		for i, w := range inf.Weights {
			if w.Weight < inf.Weights[lowest].Weight {
				lowest = i
			}
		}
		inf.Weights = append(inf.Weights[:lowest], inf.Weights[lowest+1:]...)
	}

	var sum float32
	for _, w := range inf.Weights {
		sum += w.Weight
	}
	if sum <= 0 {
		return
	}
	for i := range inf.Weights {
		inf.Weights[i].Weight /= sum
	}
}

func (inf *Influence) Sum() float32 {
	var sum float32
	for _, w := range inf.Weights {
		sum += w.Weight
	}
	return sum
}

func (inf *Influence) Weight(bone string) (float32, bool) {
	for _, w := range inf.Weights {
		if w.Bone == bone {
			return w.Weight, true
		}
	}
	return 0, false
}

// Equal compares by value, ignoring order, weights within Epsilon.
// A nil influence equals an empty one.
func (inf *Influence) Equal(other *Influence) bool {
	a, b := inf.weights(), other.weights()
	if len(a) != len(b) {
		return false
	}
	for _, w := range a {
		ow, ok := other.Weight(w.Bone)
		if !ok || !floatEqual(w.Weight, ow) {
			return false
		}
	}
	return true
}

func (inf *Influence) weights() []BoneWeight {
	if inf == nil {
		return nil
	}
	return inf.Weights
}

// hash mixes the sorted bone names only, weights are compared by Equal.
func (inf *Influence) hash(initial uint32) uint32 {
	ws := inf.weights()
	if len(ws) == 0 {
		return initial
	}
	names := make([]string, len(ws))
	for i, w := range ws {
		names[i] = w.Bone
	}
	sort.Strings(names)
	hash := initial
	for _, n := range names {
		hash = utils.HashString(n, hash)
	}
	return hash
}

func (inf *Influence) Bones() []string {
	ws := inf.weights()
	result := make([]string, len(ws))
	for i, w := range ws {
		result[i] = w.Bone
	}
	return result
}
