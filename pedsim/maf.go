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

package pedsim

import (
	"github.com/grups-project/grups-go/comparison"
	"github.com/grups-project/grups-go/coord"
)

// CheckMAF buffers c for later removal from label's pileup Comparison if
// popAf falls outside [maf, 1-maf] (spec §4.I "MAF correction"). It does
// not touch the Comparison directly: removal happens once after streaming,
// via ApplyMAFCorrection, so the pileup and simulation site universes stay
// aligned for the whole run.
func (s *Simulator) CheckMAF(label string, c coord.Coord, popAf float32, maf float64) {
	af := float64(popAf)
	if af < maf || af > 1-maf {
		s.excluded[label] = append(s.excluded[label], c)
	}
}

// ApplyMAFCorrection removes every coordinate buffered by CheckMAF from its
// Comparison's site set, once streaming has finished.
func (s *Simulator) ApplyMAFCorrection(comparisons map[string]*comparison.Comparison) {
	for label, coords := range s.excluded {
		if c, ok := comparisons[label]; ok {
			c.RemoveSites(coords)
		}
	}
}

// HandleMissingFSTSite applies MissingFSTPolicy to a pileup site that the
// FST index has no entry for: under MissingCountsAsOverlap it is folded
// into every replicate's overlap as a non-informative match (spec §4.I);
// under MissingIsAbsent it is a no-op (the site contributes nothing).
func (s *Simulator) HandleMissingFSTSite(label string) {
	if s.MissingFSTPolicy != MissingCountsAsOverlap {
		return
	}
	pr, ok := s.reps[label]
	if !ok {
		return
	}
	for _, ped := range pr.Reps {
		for i := range ped.Comparisons {
			ped.Comparisons[i].Overlap++
		}
	}
}
