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

package pedigree

import (
	"math/rand"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// XChrMode resolves an Open Question from the original design notes: how
// male X-chromosome comparisons should be handled under sex-aware
// simulation. Both policies are named by this explicit flag; only
// XChrPseudoHomozygous changes what AssignAlleles does.
type XChrMode int

const (
	// XChrPseudoHomozygous treats a male's single X allele as duplicated
	// into both genotype slots, matching how the VCF backend already
	// represents haploid male X calls (spec §4.G). This is the default:
	// it keeps pileup-side and simulated-side X handling on the same
	// convention without a separate downscoring pass.
	XChrPseudoHomozygous XChrMode = iota
	// XChrDownscore applies no X-specific handling: male offspring keep
	// both parental alleles on X as on an autosome, and male x male
	// X-chromosome comparisons are not scored as haploid.
	XChrDownscore
)

// meiosis returns the allele parent transmits to an offspring that
// inherited `selectedStrand` from parent, given whether a crossover is
// currently active for that parent-to-offspring transmission: active
// recombination selects the strand NOT picked by selectedStrand.
func meiosis(parent Individual, selectedStrand int, currentlyRecombining bool) (uint8, error) {
	if !parent.HasAlleles {
		return 0, grupserr.E(grupserr.SemanticError, "pedigree.meiosis: parent "+parent.Label+" has no alleles assigned yet")
	}
	idx := selectedStrand
	if currentlyRecombining {
		idx = 1 - idx
	}
	return parent.Alleles[idx], nil
}

// AssignAlleles recursively assigns alleles to the individual at id and
// every ancestor needed to do so, per spec §4.H:
//  1. for each parent, if it's an offspring with no alleles yet, recurse;
//  2. draw u ~ U(0,1); toggle that parent's CurrentlyRecombining[i] if
//     u < recombProb;
//  3. set Alleles = [meiosis(parent0, ...), meiosis(parent1, ...)].
//
// Founders are left untouched -- their alleles must already have been set
// by the caller (from a genotype source or allele-frequency downsampling)
// before AssignAlleles is invoked for any of their descendants.
func (p *Pedigree) AssignAlleles(id int, recombProb float64, xchrMode XChrMode, isXChr bool, rng *rand.Rand) error {
	ind := p.Individuals[id]
	if ind.IsFounder() {
		if !ind.HasAlleles {
			return grupserr.E(grupserr.SemanticError, "pedigree.AssignAlleles: founder "+ind.Label+" has no alleles set")
		}
		return nil
	}

	var alleles [2]uint8
	for i := 0; i < 2; i++ {
		parentID := ind.Parents[i]
		if !p.Individuals[parentID].IsFounder() && !p.Individuals[parentID].HasAlleles {
			if err := p.AssignAlleles(parentID, recombProb, xchrMode, isXChr, rng); err != nil {
				return err
			}
		}
		if rng.Float64() < recombProb {
			ind.CurrentlyRecombining[i] = !ind.CurrentlyRecombining[i]
		}
		allele, err := meiosis(p.Individuals[parentID], ind.Strands[i], ind.CurrentlyRecombining[i])
		if err != nil {
			return err
		}
		alleles[i] = allele
	}

	if isXChr && xchrMode == XChrPseudoHomozygous && ind.Sex == SexMale {
		// Males inherit only the maternal X (spec §4.H): duplicate the
		// mother's allele into both slots. Parents[1] is the mother by the
		// AddOffspring(child, father, mother) convention, but a dialect that
		// records Sex explicitly takes precedence over that convention.
		motherIdx := 1
		if p.Individuals[ind.Parents[0]].Sex == SexFemale {
			motherIdx = 0
		}
		alleles[1-motherIdx] = alleles[motherIdx]
	}

	ind.Alleles = alleles
	ind.HasAlleles = true
	p.Individuals[id] = ind
	return nil
}
