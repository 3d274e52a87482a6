// Copyright 2024 The grups-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pedsim drives pedigree replicate simulation (spec §4.I):
// populating one PedigreeReps per pileup comparison, freezing per-replicate
// parameters, and streaming genotype-source coordinates through every
// replicate's founders and offspring.
package pedsim

import (
	"math/rand"

	"github.com/grups-project/grups-go/panel"
)

// ParamRateGenerator yields either a fixed constant or a value drawn
// uniformly from [Low, High) fresh per replicate.
type ParamRateGenerator struct {
	constant   bool
	value      float64
	low, high  float64
}

// Constant returns a generator that always yields value.
func Constant(value float64) ParamRateGenerator {
	return ParamRateGenerator{constant: true, value: value}
}

// Range returns a generator that draws uniformly from [low, high) on each
// call to Next.
func Range(low, high float64) ParamRateGenerator {
	return ParamRateGenerator{low: low, high: high}
}

// Next freezes one draw for a replicate.
func (g ParamRateGenerator) Next(rng *rand.Rand) float64 {
	if g.constant {
		return g.value
	}
	return g.low + rng.Float64()*(g.high-g.low)
}

// PedigreeParams holds the per-replicate frozen simulation parameters.
type PedigreeParams struct {
	SnpDownsamplingRate float64
	AfDownsamplingRate  float64

	// HasSeqErrorRate, if false, means "derive the substitution rate from
	// the pileup's own per-read phred at each site" (spec §4.I) rather than
	// use a fixed per-replicate constant.
	HasSeqErrorRate bool
	SeqErrorRate    [2]float64

	ContamRate [2]float64
}

// Contaminant is, for each member of a pileup comparison's pair, the set of
// panel tags used to source a contaminant allele-frequency at a site.
type Contaminant struct {
	Tags [2][]*panel.SampleTag
}

// ComputeLocalContAf returns the pair of alt-allele frequencies aggregated
// over each side's contaminant tags at the source's current coordinate. An
// empty tag set yields a frequency of 0 (no contaminant contribution).
func (c Contaminant) ComputeLocalContAf(getAlleles func(sampleID string) ([2]uint8, error)) ([2]float64, error) {
	var out [2]float64
	for side := 0; side < 2; side++ {
		tags := c.Tags[side]
		if len(tags) == 0 {
			continue
		}
		var altCount, totalCount int
		for _, tag := range tags {
			alleles, err := getAlleles(tag.SampleID)
			if err != nil {
				return out, err
			}
			for _, a := range alleles {
				totalCount++
				if a != 0 {
					altCount++
				}
			}
		}
		if totalCount > 0 {
			out[side] = float64(altCount) / float64(totalCount)
		}
	}
	return out, nil
}
