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
	"math/rand"

	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/genotype"
	"github.com/grups-project/grups-go/internal/grupserr"
	"github.com/grups-project/grups-go/pedigree"
)

// substitutionTable is the fixed three-way substitution mapping used by
// simulateObservedRead when a sequencing error is drawn: the other three
// bases, in index order (spec §4.I read model).
var substitutionTable = [4][3]uint8{
	{1, 2, 3},
	{0, 2, 3},
	{0, 1, 3},
	{0, 1, 2},
}

// simulateObservedRead draws one observed base given the true diploid
// alleles, the local contaminant allele frequency, the contamination rate,
// and a sequencing-error rate (spec §4.I "Simulator read model").
func simulateObservedRead(trueAlleles [2]uint8, contAf, contamRate, seqErrorRate float64, rng *rand.Rand) uint8 {
	var observed uint8
	if rng.Float64() < contamRate {
		if rng.Float64() < contAf {
			observed = 1
		} else {
			observed = 0
		}
	} else {
		observed = trueAlleles[rng.Intn(2)]
	}
	if rng.Float64() < seqErrorRate {
		row := substitutionTable[observed]
		observed = row[rng.Intn(3)]
	}
	return observed
}

// UpdatePedigrees folds one candidate coordinate, read from source, into
// every replicate of the PedigreeReps registered under label (spec §4.I
// "Per-coordinate update"). pileupErrorProbs are the per-side pileup
// mismatch-derived error probabilities (10^(-phred/10)), used when a
// replicate's params carry no fixed seq-error rate.
func (s *Simulator) UpdatePedigrees(label string, c coord.Coord, source genotype.Reader, pileupErrorProbs [2]float64) error {
	pr, ok := s.reps[label]
	if !ok {
		return grupserr.E(grupserr.SemanticError, "pedsim.UpdatePedigrees: unknown comparison "+label)
	}

	prevPos := s.previousPosition[label]
	recombProb, err := s.GeneticMap.ComputeRecombinationProb(c.Chromosome, prevPos, c.Position)
	if err != nil {
		return err
	}

	if source.IsMultiallelic() {
		return grupserr.E(grupserr.SemanticError, "pedsim.UpdatePedigrees: "+label+": contaminant site is multiallelic at "+c.String())
	}
	contAf, err := pr.Contaminant.ComputeLocalContAf(source.GetAlleles)
	if err != nil {
		return err
	}

	isXChr := c.Chromosome == xChromosomeIndex

	for r, ped := range pr.Reps {
		if s.rng.Float64() < pr.Params[r].SnpDownsamplingRate {
			continue
		}

		if err := assignFounders(ped, pr.FounderTags[r], pr.Params[r].AfDownsamplingRate, source, s.rng); err != nil {
			return err
		}

		for id, ind := range ped.Individuals {
			if ind.IsFounder() || ind.HasAlleles {
				continue
			}
			if err := ped.AssignAlleles(id, recombProb, s.XChrMode, isXChr, s.rng); err != nil {
				return err
			}
		}

		s.compareAlleles(ped, contAf, pr.Params[r], pileupErrorProbs)
		ped.ResetAlleles()
	}

	s.previousPosition[label] = c.Position
	return nil
}

// assignFounders sets every founder's alleles for the current site: with
// probability afDownsamplingRate every founder is pinned to [0,0]
// (allele-frequency downsampling), otherwise each founder's alleles are
// fetched from source by its sampled panel tag (spec §4.I.3.b).
func assignFounders(ped *pedigree.Pedigree, tags founderTags, afDownsamplingRate float64, source genotype.Reader, rng *rand.Rand) error {
	downsample := rng.Float64() < afDownsamplingRate
	for id, ind := range ped.Individuals {
		if !ind.IsFounder() {
			continue
		}
		if downsample {
			ind.Alleles = [2]uint8{0, 0}
		} else {
			tag, ok := tags[id]
			if !ok {
				return grupserr.E(grupserr.SemanticError, "pedsim.assignFounders: founder "+ind.Label+" has no sampled tag")
			}
			alleles, err := source.GetAlleles(tag.SampleID)
			if err != nil {
				return err
			}
			ind.Alleles = alleles
		}
		ind.HasAlleles = true
		ped.Individuals[id] = ind
	}
	return nil
}

// compareAlleles samples one observed read per side for every internal
// PedComparison in ped and folds the mismatch into its running pwd/overlap
// counters (spec §4.I.3.d).
func (s *Simulator) compareAlleles(ped *pedigree.Pedigree, contAf [2]float64, params PedigreeParams, pileupErrorProbs [2]float64) {
	for i := range ped.Comparisons {
		pc := &ped.Comparisons[i]
		ind0 := ped.Individuals[pc.Pair[0]]
		ind1 := ped.Individuals[pc.Pair[1]]

		errRate0, errRate1 := pileupErrorProbs[0], pileupErrorProbs[1]
		if params.HasSeqErrorRate {
			errRate0, errRate1 = params.SeqErrorRate[0], params.SeqErrorRate[1]
		}

		obs0 := simulateObservedRead(ind0.Alleles, contAf[0], params.ContamRate[0], errRate0, s.rng)
		var obs1 uint8
		if pc.Self {
			obs1 = simulateObservedRead(ind0.Alleles, contAf[0], params.ContamRate[0], errRate0, s.rng)
		} else {
			obs1 = simulateObservedRead(ind1.Alleles, contAf[1], params.ContamRate[1], errRate1, s.rng)
		}

		pc.Overlap++
		if obs0 != obs1 {
			pc.PwdSum++
		}
	}
}
