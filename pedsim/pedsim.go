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
	"math"
	"math/rand"

	"github.com/grups-project/grups-go/classify"
	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/geneticmap"
	"github.com/grups-project/grups-go/internal/grupserr"
	"github.com/grups-project/grups-go/panel"
	"github.com/grups-project/grups-go/pedigree"
	"github.com/grups-project/grups-go/pedigree/parser"
)

// XChrMode re-exports pedigree.XChrMode: the simulator and the pedigree
// model must agree on the same haploid-X convention (spec §4.H.3), so
// pedsim callers select it through this alias rather than importing
// pedigree directly for the enum.
type XChrMode = pedigree.XChrMode

const (
	XChrPseudoHomozygous = pedigree.XChrPseudoHomozygous
	XChrDownscore        = pedigree.XChrDownscore
)

// MissingFSTPolicy resolves the second Open Question from the original
// design notes: how a simulated replicate should treat a pileup site that
// has no entry in the FST index.
type MissingFSTPolicy int

const (
	// MissingCountsAsOverlap treats a pileup site absent from the FST index
	// as a non-informative match: it is added to every replicate's overlap
	// without contributing any mismatch probability. This is the default,
	// matching the behavior observed upstream.
	MissingCountsAsOverlap MissingFSTPolicy = iota
	// MissingIsAbsent drops the site from simulation entirely: it
	// contributes to neither overlap nor pwd for any replicate.
	MissingIsAbsent
)

// xChromosomeIndex is the chromosome id the genome package assigns to "X"
// (see genome.parseChrName); UpdatePedigrees uses it to decide whether
// XChrMode applies at the current coordinate.
const xChromosomeIndex uint8 = 23

// founderTags maps a replicate's founder individual id to the panel tag it
// was sampled as, so per-coordinate founder alleles can be fetched from the
// genotype source.
type founderTags map[int]*panel.SampleTag

// PedigreeReps is the simulation state for one pileup comparison: a vector
// of pedigree replicates sharing one Contaminant, each with its own frozen
// parameters and founder-tag assignment (spec §3 PedigreeReps).
type PedigreeReps struct {
	Label       string
	Reps        []*pedigree.Pedigree
	FounderTags []founderTags
	Params      []PedigreeParams
	Contaminant Contaminant
}

// ScenarioSummary is one internal kinship label's mean/std average-PWD
// across every replicate (spec §4.J aggregation, computed here since it's
// purely a function of PedigreeReps).
type ScenarioSummary struct {
	Label string
	Mean  float64
	Std   float64
}

// Summarize returns, per internal comparison label (in the template
// pedigree's order), the mean and sample std-dev of AvgPwd across replicates.
func (pr *PedigreeReps) Summarize() []ScenarioSummary {
	if len(pr.Reps) == 0 {
		return nil
	}
	n := len(pr.Reps[0].Comparisons)
	out := make([]ScenarioSummary, n)
	for i := 0; i < n; i++ {
		out[i].Label = pr.Reps[0].Comparisons[i].Label
		var sum float64
		for _, rep := range pr.Reps {
			sum += rep.Comparisons[i].AvgPwd()
		}
		mean := sum / float64(len(pr.Reps))
		out[i].Mean = mean
		var sq float64
		for _, rep := range pr.Reps {
			d := rep.Comparisons[i].AvgPwd() - mean
			sq += d * d
		}
		if len(pr.Reps) > 1 {
			out[i].Std = math.Sqrt(sq / float64(len(pr.Reps)-1))
		}
	}
	return out
}

// Scenarios returns, per internal comparison label, the mean/std summary
// alongside the raw per-replicate AvgPwd samples, in the shape classify's
// z-score and SVM cascades consume directly.
func (pr *PedigreeReps) Scenarios() []classify.Scenario {
	summaries := pr.Summarize()
	out := make([]classify.Scenario, len(summaries))
	for i, sum := range summaries {
		samples := make([]float64, len(pr.Reps))
		for r, rep := range pr.Reps {
			samples[r] = rep.Comparisons[i].AvgPwd()
		}
		out[i] = classify.Scenario{Label: sum.Label, Mean: sum.Mean, Std: sum.Std, Samples: samples}
	}
	return out
}

// Simulator drives pedigree-replicate simulation for every pileup
// comparison it has been Populate-d with (spec §4.I).
type Simulator struct {
	GeneticMap       *geneticmap.Map
	PedigreePop      string
	XChrMode         XChrMode
	MissingFSTPolicy MissingFSTPolicy
	SexSpecific      bool

	rng              *rand.Rand
	reps             map[string]*PedigreeReps
	previousPosition map[string]uint32
	excluded         map[string][]coord.Coord
}

// New returns an empty Simulator seeded from rng.
func New(gm *geneticmap.Map, pedigreePop string, xchrMode XChrMode, missing MissingFSTPolicy, sexSpecific bool, rng *rand.Rand) *Simulator {
	return &Simulator{
		GeneticMap:       gm,
		PedigreePop:      pedigreePop,
		XChrMode:         xchrMode,
		MissingFSTPolicy: missing,
		SexSpecific:      sexSpecific,
		rng:              rng,
		reps:             make(map[string]*PedigreeReps),
		previousPosition: make(map[string]uint32),
		excluded:         make(map[string][]coord.Coord),
	}
}

// Populate builds, for pileup comparison label, a PedigreeReps of the given
// capacity by parsing pedigreeFile once as a template and cloning it per
// replicate, sampling founder tags and contaminants from p (spec §4.I
// Initialization).
func (s *Simulator) Populate(label, pedigreeFile string, reps int, p *panel.Panel, contamPops []string, contamCounts [2]int) error {
	template, err := parser.Parse(pedigreeFile)
	if err != nil {
		return grupserr.E(grupserr.ParseError, err, "pedsim.Populate: "+label)
	}
	template.Population = s.PedigreePop

	contaminantTags, err := p.FetchContaminants(contamPops, contamCounts[:])
	if err != nil {
		return err
	}
	var contaminant Contaminant
	copy(contaminant.Tags[:], contaminantTags)

	excludeIDs := make(map[string]bool)
	for _, side := range contaminantTags {
		for _, tag := range side {
			excludeIDs[tag.SampleID] = true
		}
	}

	pr := &PedigreeReps{
		Label:       label,
		Reps:        make([]*pedigree.Pedigree, reps),
		FounderTags: make([]founderTags, reps),
		Contaminant: contaminant,
	}
	for r := 0; r < reps; r++ {
		ped := template.Clone()
		tags := make(founderTags)
		used := make(map[string]bool, len(excludeIDs))
		for id := range excludeIDs {
			used[id] = true
		}
		for id, ind := range ped.Individuals {
			if !ind.IsFounder() {
				continue
			}
			tag, err := p.RandomSample(s.PedigreePop, used, panel.SexUnknown)
			if err != nil {
				return grupserr.E(grupserr.ResourceError, err, "pedsim.Populate: "+label+": founder "+ind.Label)
			}
			used[tag.SampleID] = true
			tags[id] = tag
		}
		ped.AssignStrands(s.rng)
		if s.SexSpecific {
			if err := ped.AssignSexes(s.rng, 1000); err != nil {
				return grupserr.E(grupserr.SemanticError, err, "pedsim.Populate: "+label)
			}
		}
		pr.Reps[r] = ped
		pr.FounderTags[r] = tags
	}
	s.reps[label] = pr
	return nil
}

// Scenarios returns the classify.Scenario vector for a populated pileup
// comparison label, and whether that label has been Populate-d.
func (s *Simulator) Scenarios(label string) ([]classify.Scenario, bool) {
	pr, ok := s.reps[label]
	if !ok {
		return nil, false
	}
	return pr.Scenarios(), true
}

// SetParams freezes snp/af downsampling rates directly and draws one
// seq-error-rate and contam-rate pair per replicate from the given
// generators (spec §4.I Parameterization).
func (s *Simulator) SetParams(label string, snpRate, afRate float64, hasSeqErrorRate bool, seqErrorGen [2]ParamRateGenerator, contamGen [2]ParamRateGenerator) error {
	pr, ok := s.reps[label]
	if !ok {
		return grupserr.E(grupserr.SemanticError, "pedsim.SetParams: unknown comparison "+label)
	}
	pr.Params = make([]PedigreeParams, len(pr.Reps))
	for r := range pr.Reps {
		params := PedigreeParams{
			SnpDownsamplingRate: snpRate,
			AfDownsamplingRate:  afRate,
			HasSeqErrorRate:     hasSeqErrorRate,
		}
		if hasSeqErrorRate {
			params.SeqErrorRate = [2]float64{seqErrorGen[0].Next(s.rng), seqErrorGen[1].Next(s.rng)}
		}
		params.ContamRate = [2]float64{contamGen[0].Next(s.rng), contamGen[1].Next(s.rng)}
		pr.Params[r] = params
	}
	return nil
}
