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

// Package genotype defines the common query surface (Reader) shared by the
// VCF and FST reference-panel genotype backends (spec §4.G): per-coordinate
// allele fetch, per-population allele-frequency fetch, and chromosome
// discovery.
package genotype

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grups-project/grups-go/coord"
)

// Reader is the uniform genotype-source query interface implemented by
// genotype/vcfsrc and genotype/fstsrc.
type Reader interface {
	// Advance moves to the next candidate coordinate, returning false when
	// the source is exhausted.
	Advance() (coord.Coord, bool, error)
	// IsSNP reports whether the current coordinate is a biallelic SNP.
	IsSNP() bool
	// IsMultiallelic reports whether the current coordinate has more than
	// two alleles segregating.
	IsMultiallelic() bool
	// LoadGenotypes loads every sample's genotype at the current
	// coordinate, making GetAlleles valid until the next Advance.
	LoadGenotypes() error
	// GetAlleles returns the two allele indices (0 = ref, 1 = alt, ...) for
	// sampleID at the current coordinate.
	GetAlleles(sampleID string) ([2]uint8, error)
	// GetPopAlleleFrequency returns the alternate-allele frequency for pop
	// at the current coordinate.
	GetPopAlleleFrequency(pop string) (float32, error)
	// Close releases any resources (file handles, mappings) held open.
	Close() error
}

// FetchInputFiles discovers genotype-source files by extension within dir,
// returning matches sorted lexically for deterministic iteration order.
func FetchInputFiles(dir string, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ext) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
