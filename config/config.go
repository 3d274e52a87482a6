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

// Package config defines the plain data boundary (config.Run) a run is
// configured through. Deserializing it from CLI flags or a YAML file is
// out of scope here (spec §1 Non-goals); this package only defines the
// struct and its yaml tags. No snapshot of the configuration is written
// during a run.
package config

import (
	"github.com/grups-project/grups-go/internal/grupserr"
	"github.com/grups-project/grups-go/pedsim"
)

// AssignmentMethod selects how the classifier picks a label.
type AssignmentMethod int

const (
	ZScore AssignmentMethod = iota
	SVM
)

// RateRange is a ParamRateGenerator's YAML-facing shape: either a single
// constant (Low == High) or a uniform [Low, High) range.
type RateRange struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Generator builds the pedsim.ParamRateGenerator this range describes.
func (r RateRange) Generator() pedsim.ParamRateGenerator {
	if r.Low == r.High {
		return pedsim.Constant(r.Low)
	}
	return pedsim.Range(r.Low, r.High)
}

// PairSpec names one pileup comparison: a display name, the two 0-based
// pileup column indices it reads from (equal for a self-comparison), and
// the per-side minimum depth contract.
type PairSpec struct {
	Name     string `yaml:"name"`
	Column0  int    `yaml:"column0"`
	Column1  int    `yaml:"column1"`
	Self     bool   `yaml:"self"`
	MinDepth int    `yaml:"min_depth"`
}

// Run is the full configuration of one grups-go invocation: every field a
// CLI flag or YAML document would populate before the pipeline runs.
type Run struct {
	PileupPath   string `yaml:"pileup_path"`
	SNPPath      string `yaml:"snp_path,omitempty"`
	GenomeFasta  string `yaml:"genome_fasta,omitempty"`
	RecombDir    string `yaml:"recomb_dir"`
	PanelPath    string `yaml:"panel_path"`
	PedigreeFile string `yaml:"pedigree_file"`

	Pairs              []PairSpec `yaml:"pairs"`
	MinBaseQuality     uint8      `yaml:"min_base_quality"`
	ConsiderDels       bool       `yaml:"consider_dels"`
	ExcludeTransitions bool       `yaml:"exclude_transitions"`

	GenotypeDir string `yaml:"genotype_dir"`
	GenotypeExt string `yaml:"genotype_ext"` // ".vcf", ".vcf.gz" or ".fst"
	FreqPop     string `yaml:"freq_pop"`

	OutputDir     string `yaml:"output_dir"`
	OutputStem    string `yaml:"output_stem,omitempty"`
	Overwrite     bool   `yaml:"overwrite"`
	AllowDeepTree bool   `yaml:"allow_deep_tree"`

	BlockSize uint32  `yaml:"block_size"`
	MinDepth  int     `yaml:"min_depth"`
	MAF       float64 `yaml:"maf"`

	Reps                int           `yaml:"reps"`
	PedigreePop         string        `yaml:"pedigree_pop"`
	ContamPops          []string      `yaml:"contam_pops"`
	ContamNumInd        [2]int        `yaml:"contam_num_ind"`
	SnpDownsamplingRate float64       `yaml:"snp_downsampling_rate"`
	AfDownsamplingRate  float64       `yaml:"af_downsampling_rate"`
	SeqErrorRate        *[2]RateRange `yaml:"seq_error_rate,omitempty"`
	ContamRate          [2]RateRange  `yaml:"contam_rate"`
	SexSpecific         bool          `yaml:"sex_specific"`

	XChrMode         pedsim.XChrMode         `yaml:"xchr_mode"`
	MissingFSTPolicy pedsim.MissingFSTPolicy `yaml:"missing_fst_policy"`

	Method AssignmentMethod `yaml:"method"`

	Seed    int64 `yaml:"seed"`
	Threads int   `yaml:"threads"`
}

// Validate performs the cross-field checks config.Run's own zero value
// can't express: MAF range, non-empty contamination population list when
// counts are non-zero.
func (r Run) Validate() error {
	if r.MAF < 0 || r.MAF > 1 {
		return grupserr.E(grupserr.SemanticError, "config.Validate: maf out of [0,1]")
	}
	if (r.ContamNumInd[0] > 0 || r.ContamNumInd[1] > 0) && len(r.ContamPops) == 0 {
		return grupserr.E(grupserr.SemanticError, "config.Validate: contam_num_ind set without contam_pops")
	}
	if len(r.Pairs) == 0 {
		return grupserr.E(grupserr.SemanticError, "config.Validate: no pairs configured")
	}
	return nil
}
