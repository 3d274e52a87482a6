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

// Package comparison pairs pileup individuals under a minimum-depth
// contract, computes deterministic self/pairwise pairwise-difference (PWD)
// statistics per site, and accumulates jackknife block and variance state
// across a streamed pileup (spec §4.E).
package comparison

import (
	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/pileup"
)

// Pwd is one site's pairwise-difference record.
type Pwd struct {
	Coord        coord.Coord
	PhredSum0    float64
	PhredSum1    float64
	MismatchProb float64 // cumulative mismatch probability across sampled pairs.
	Observations int     // number of pairs sampled to build MismatchProb.
}

// AvgLocalPwd returns the site's average mismatch probability in [0,1].
func (p Pwd) AvgLocalPwd() float64 {
	if p.Observations == 0 {
		return 0
	}
	return p.MismatchProb / float64(p.Observations)
}

// AvgPhred returns the mean phred across both sides' retained observations.
func (p Pwd) AvgPhred() float64 {
	if p.Observations == 0 {
		return 0
	}
	return (p.PhredSum0 + p.PhredSum1) / (2 * float64(p.Observations))
}

// ComputeSelfPwd enumerates every unordered pair of distinct observations
// within one individual's retained nucleotides and averages mismatches and
// phreds across all pairs.
func ComputeSelfPwd(c coord.Coord, col pileup.Column) Pwd {
	p := Pwd{Coord: c}
	for i := 0; i < len(col.Bases); i++ {
		for j := i + 1; j < len(col.Bases); j++ {
			p.Observations++
			if col.Bases[i].Base != col.Bases[j].Base {
				p.MismatchProb++
			}
			p.PhredSum0 += float64(col.Bases[i].Phred)
			p.PhredSum1 += float64(col.Bases[j].Phred)
		}
	}
	return p
}

// ComputePairwisePwd enumerates the product of the two individuals'
// observation-frequency sets, summing probability-weighted mismatches
// across base pairs.
func ComputePairwisePwd(c coord.Coord, a, b pileup.Column) Pwd {
	p := Pwd{Coord: c}
	for _, oa := range a.Bases {
		for _, ob := range b.Bases {
			p.Observations++
			if oa.Base != ob.Base {
				p.MismatchProb++
			}
			p.PhredSum0 += float64(oa.Phred)
			p.PhredSum1 += float64(ob.Phred)
		}
	}
	return p
}
