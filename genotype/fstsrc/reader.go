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

package fstsrc

import (
	"strconv"
	"strings"

	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/internal/grupserr"
)

// Reader implements genotype.Reader over a genotype Set and an optional
// frequency Set, both keyed by "<chr> <zero-padded pos> ...".
type Reader struct {
	genotypes *Set
	freqs     *Set // nil if this shard carries no frequency side-car.

	cursor int // next unread index into genotypes.lines.

	chrom      uint8
	pos        uint32
	genoByID   map[string][2]uint8
	freqByPop  map[string]float32
	multiAlt   bool
}

// Open opens the `<name>.fst` genotype set and, if present, the matching
// `<name>.fst.frq` frequency set.
func Open(genotypePath, freqPath string, mmap bool) (*Reader, error) {
	genotypes, err := OpenSet(genotypePath, mmap)
	if err != nil {
		return nil, err
	}
	r := &Reader{genotypes: genotypes}
	if freqPath != "" {
		freqs, err := OpenSet(freqPath, mmap)
		if err != nil {
			return nil, err
		}
		r.freqs = freqs
	}
	return r, nil
}

// encodeGenotypeKey builds a genotype key: "<chr> <pos> <sample> <alleles>".
func encodeGenotypeKey(chr uint8, pos uint32, sampleID string, alleles [2]uint8) string {
	return strconv.Itoa(int(chr)) + " " + padPosition(pos) + " " + sampleID + " " +
		strconv.Itoa(int(alleles[0])) + strconv.Itoa(int(alleles[1]))
}

// encodeFreqKey builds a frequency key: "<chr> <pos> <pop> <freq>".
func encodeFreqKey(chr uint8, pos uint32, pop string, freq float32) string {
	return strconv.Itoa(int(chr)) + " " + padPosition(pos) + " " + pop + " " + strconv.FormatFloat(float64(freq), 'f', -1, 32)
}

func coordPrefix(chr uint8, pos uint32) string {
	return strconv.Itoa(int(chr)) + " " + padPosition(pos) + " "
}

// SearchCoordinateGenotypes performs the prefix search "<chr> <pos> " over
// the genotype set and populates the sample_id -> alleles map for c,
// reporting whether more than 2 distinct alt-capable alleles were seen
// (multiallelic).
func (r *Reader) SearchCoordinateGenotypes(c coord.Coord) error {
	prefix := coordPrefix(c.Chromosome, c.Position)
	hits := r.genotypes.PrefixSearch(prefix)
	m := make(map[string][2]uint8, len(hits))
	alleleSet := make(map[uint8]bool)
	for _, line := range hits {
		rest := string(line[len(prefix):])
		fields := strings.Fields(rest)
		if len(fields) != 2 || len(fields[1]) != 2 {
			return grupserr.E(grupserr.SchemaError, "fstsrc: malformed genotype key "+string(line))
		}
		a0 := fields[1][0] - '0'
		a1 := fields[1][1] - '0'
		m[fields[0]] = [2]uint8{a0, a1}
		alleleSet[a0] = true
		alleleSet[a1] = true
	}
	r.chrom = c.Chromosome
	r.pos = c.Position
	r.genoByID = m
	r.multiAlt = len(alleleSet) > 2
	return nil
}

// SearchCoordinateFrequencies performs the prefix search "<chr> <pos> "
// over the frequency set and populates the pop -> freq map for c.
func (r *Reader) SearchCoordinateFrequencies(c coord.Coord) error {
	r.freqByPop = make(map[string]float32)
	if r.freqs == nil {
		return nil
	}
	prefix := coordPrefix(c.Chromosome, c.Position)
	hits := r.freqs.PrefixSearch(prefix)
	for _, line := range hits {
		rest := string(line[len(prefix):])
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return grupserr.E(grupserr.SchemaError, "fstsrc: malformed frequency key "+string(line))
		}
		f, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return grupserr.E(grupserr.ParseError, err, "fstsrc: bad frequency value "+fields[1])
		}
		r.freqByPop[fields[0]] = float32(f)
	}
	return nil
}

// Advance moves to the next distinct (chromosome, position) present in the
// genotype set, in set order, loading both coordinate maps.
func (r *Reader) Advance() (coord.Coord, bool, error) {
	if r.cursor >= r.genotypes.Len() {
		return coord.Coord{}, false, nil
	}
	line := r.genotypes.lines[r.cursor]
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return coord.Coord{}, false, grupserr.E(grupserr.SchemaError, "fstsrc.Advance: malformed key "+string(line))
	}
	chr64, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return coord.Coord{}, false, grupserr.E(grupserr.ParseError, err, "fstsrc.Advance: bad chromosome "+fields[0])
	}
	pos64, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return coord.Coord{}, false, grupserr.E(grupserr.ParseError, err, "fstsrc.Advance: bad position "+fields[1])
	}
	c := coord.Coord{Chromosome: uint8(chr64), Position: uint32(pos64)}

	if err := r.SearchCoordinateGenotypes(c); err != nil {
		return coord.Coord{}, false, err
	}
	if err := r.SearchCoordinateFrequencies(c); err != nil {
		return coord.Coord{}, false, err
	}
	// advance the cursor past every key sharing this coordinate's prefix.
	prefix := coordPrefix(c.Chromosome, c.Position)
	for r.cursor < r.genotypes.Len() && strings.HasPrefix(string(r.genotypes.lines[r.cursor]), prefix) {
		r.cursor++
	}
	return c, true, nil
}

// IsSNP reports whether exactly two distinct allele indices segregate at
// the current coordinate.
func (r *Reader) IsSNP() bool {
	alleleSet := make(map[uint8]bool)
	for _, a := range r.genoByID {
		alleleSet[a[0]] = true
		alleleSet[a[1]] = true
	}
	return len(alleleSet) == 2
}

// IsMultiallelic reports whether more than two distinct allele indices
// segregate at the current coordinate.
func (r *Reader) IsMultiallelic() bool { return r.multiAlt }

// LoadGenotypes is a no-op: SearchCoordinateGenotypes already populated
// every sample's alleles when Advance moved to this coordinate.
func (r *Reader) LoadGenotypes() error { return nil }

// GetAlleles returns the alleles recorded for sampleID at the current
// coordinate.
func (r *Reader) GetAlleles(sampleID string) ([2]uint8, error) {
	a, ok := r.genoByID[sampleID]
	if !ok {
		return [2]uint8{}, grupserr.E(grupserr.SemanticError, "fstsrc.GetAlleles: unknown sample "+sampleID)
	}
	return a, nil
}

// GetPopAlleleFrequency returns the frequency recorded for pop at the
// current coordinate.
func (r *Reader) GetPopAlleleFrequency(pop string) (float32, error) {
	f, ok := r.freqByPop[pop]
	if !ok {
		return 0, grupserr.E(grupserr.SemanticError, "fstsrc.GetPopAlleleFrequency: missing frequency for "+pop)
	}
	return f, nil
}

// Close releases both underlying sets.
func (r *Reader) Close() error {
	if err := r.genotypes.Close(); err != nil {
		return err
	}
	if r.freqs != nil {
		return r.freqs.Close()
	}
	return nil
}

// FindChromosomes enumerates the distinct chromosome prefixes present in
// the genotype set.
func (r *Reader) FindChromosomes() []string { return r.genotypes.Chromosomes() }
