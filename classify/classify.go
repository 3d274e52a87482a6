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

// Package classify aggregates per-replicate simulated average-PWDs by
// internal kinship scenario and assigns the pileup comparison's observed
// average PWD to the most likely scenario, by minimum |z-score| or by an
// ordinal-partitioned linear SVM cascade (spec §4.J).
package classify

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// Scenario is one internal kinship label's simulated distribution: the mean
// and sample std-dev of average PWD across replicates, plus the raw
// per-replicate samples used by the SVM cascade.
type Scenario struct {
	Label   string
	Mean    float64
	Std     float64
	Samples []float64
}

// sortByDecreasingMean orders scenarios from the least related (highest avg
// PWD) to the most related (lowest avg PWD).
func sortByDecreasingMean(scenarios []Scenario) []Scenario {
	out := append([]Scenario(nil), scenarios...)
	sort.Slice(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

// ZScoreResult is one scenario's z-score relative to the observed average
// PWD.
type ZScoreResult struct {
	Label string
	Z     float64
}

// AssignByZScore computes z_L = (mean_L - observedAvgPwd) / std_L for every
// scenario and returns the label minimizing |z|, plus every scenario's
// z-score sorted by decreasing mean (spec §4.J "Z-score assignment").
func AssignByZScore(scenarios []Scenario, observedAvgPwd float64) (assigned string, zscores []ZScoreResult, err error) {
	if len(scenarios) == 0 {
		return "", nil, grupserr.E(grupserr.SemanticError, "classify.AssignByZScore: no scenarios")
	}
	ordered := sortByDecreasingMean(scenarios)
	zscores = make([]ZScoreResult, len(ordered))
	bestAbs := math.Inf(1)
	for i, sc := range ordered {
		if sc.Std == 0 {
			return "", nil, grupserr.E(grupserr.SemanticError, "classify.AssignByZScore: scenario "+sc.Label+" has zero std-dev")
		}
		z := (sc.Mean - observedAvgPwd) / sc.Std
		zscores[i] = ZScoreResult{Label: sc.Label, Z: z}
		if math.Abs(z) < bestAbs {
			bestAbs = math.Abs(z)
			assigned = sc.Label
		}
	}
	return assigned, zscores, nil
}

// MinAbsZ returns the smallest |z| across zscores.
func MinAbsZ(zscores []ZScoreResult) float64 {
	min := math.Inf(1)
	for _, z := range zscores {
		if a := math.Abs(z.Z); a < min {
			min = a
		}
	}
	return min
}

// aggregateMeanStd computes the pooled mean/std-dev across every scenario's
// replicate samples, used to scale features for the SVM cascade.
func aggregateMeanStd(scenarios []Scenario) (mean, std float64) {
	var all []float64
	for _, sc := range scenarios {
		all = append(all, sc.Samples...)
	}
	mean = stat.Mean(all, nil)
	std = stat.StdDev(all, nil)
	return mean, std
}
