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

// Package pileup tokenizes samtools-style pileup lines into per-sample
// nucleotide observations and applies base-quality and known-variant
// filters (spec §4.D).
package pileup

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/internal/grupserr"
)

// Nucleotide is a single observed base and its ASCII-33 phred score.
type Nucleotide struct {
	Base  coord.Allele
	Phred uint8
}

// ErrorProb returns 10^(-phred/10), the probability this observation is a
// sequencing error.
func (n Nucleotide) ErrorProb() float64 {
	return math.Pow(10, -float64(n.Phred)/10.0)
}

// Column is one sample's pileup column at a site: a depth and its retained
// nucleotide observations. Depth is recomputed after every filter.
type Column struct {
	Depth int
	Bases []Nucleotide
}

// FilterBaseQuality drops observations below the given phred threshold and
// refreshes Depth.
func (c *Column) FilterBaseQuality(min uint8) {
	kept := c.Bases[:0]
	for _, b := range c.Bases {
		if b.Phred >= min {
			kept = append(kept, b)
		}
	}
	c.Bases = kept
	c.Depth = len(c.Bases)
}

// FilterKnownVariants drops observations that are neither t.Reference nor
// t.Alternate and refreshes Depth. It's an error to call this against a
// target whose reference/alternate alleles are not both known.
func (c *Column) FilterKnownVariants(t coord.Target) error {
	if !t.HasKnownAlleles() {
		return grupserr.E(grupserr.SemanticError, "pileup.FilterKnownVariants: target at "+t.Coord.String()+" has unknown reference/alternate")
	}
	kept := c.Bases[:0]
	for _, b := range c.Bases {
		if b.Base == t.Reference || b.Base == t.Alternate {
			kept = append(kept, b)
		}
	}
	c.Bases = kept
	c.Depth = len(c.Bases)
	return nil
}

// Line is one parsed pileup record: a coordinate, its reference allele, and
// one Column per sample.
type Line struct {
	Coord     coord.Coord
	Reference coord.Allele
	Columns   []Column
}

// ParseLine tokenizes one tab-separated pileup line of the form
// "chr  pos  ref  depth1 bases1 quals1  depth2 bases2 quals2 ...". The
// literal depth field of each triple is not trusted; Column.Depth is always
// the count of bases actually retained by the tokenizer. considerDels
// controls whether '*' deletion placeholders survive tokenization.
func ParseLine(line string, considerDels bool) (Line, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 6 || (len(fields)-3)%3 != 0 {
		return Line{}, grupserr.E(grupserr.SchemaError, "pileup.ParseLine: expected chr,pos,ref + 3 columns per sample, got "+strconv.Itoa(len(fields))+" fields")
	}
	chr64, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return Line{}, grupserr.E(grupserr.ParseError, err, "pileup.ParseLine: bad chromosome "+fields[0])
	}
	pos64, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return Line{}, grupserr.E(grupserr.ParseError, err, "pileup.ParseLine: bad position "+fields[1])
	}
	ref, err := ParseReferenceChar(fields[2])
	if err != nil {
		return Line{}, err
	}
	c := coord.Coord{Chromosome: uint8(chr64), Position: uint32(pos64)}

	n := (len(fields) - 3) / 3
	columns := make([]Column, n)
	for i := 0; i < n; i++ {
		basesStr := fields[3+i*3+1]
		qualsStr := fields[3+i*3+2]
		bases, err := tokenizeBases(basesStr, qualsStr, ref, considerDels)
		if err != nil {
			return Line{}, grupserr.E(grupserr.ParseError, err, c.String()+": sample "+strconv.Itoa(i))
		}
		columns[i] = Column{Depth: len(bases), Bases: bases}
	}
	return Line{Coord: c, Reference: ref, Columns: columns}, nil
}

// ParseReferenceChar parses a pileup line's single-character reference
// column. Unlike coord.ParseAllele, '*' (no reference call) is accepted as
// N rather than rejected.
func ParseReferenceChar(s string) (coord.Allele, error) {
	if s == "*" {
		return coord.N, nil
	}
	if len(s) != 1 {
		return coord.N, grupserr.E(grupserr.ParseError, "pileup.ParseReferenceChar: expected single character, got "+s)
	}
	return coord.ParseAllele(s[0])
}

// tokenizeBases walks basesStr and its parallel qualsStr, resolving
// '.'/',' to ref, skipping '^' mapping-quality bytes and '$' end markers,
// consuming and discarding indel sequences, and failing on '<'/'>'
// reference-skip markers. Every retained base (and every '*' deletion
// placeholder, retained or not) consumes exactly one quality character;
// a mismatch between retained-base count and the quality string's length
// is a schema error.
func tokenizeBases(basesStr, qualsStr string, ref coord.Allele, considerDels bool) ([]Nucleotide, error) {
	var out []Nucleotide
	qi := 0
	nextQual := func() (uint8, error) {
		if qi >= len(qualsStr) {
			return 0, grupserr.E(grupserr.SchemaError, "tokenizeBases: quality string shorter than retained base count")
		}
		q := uint8(qualsStr[qi]) - 33
		qi++
		return q, nil
	}

	runes := []byte(basesStr)
	for i := 0; i < len(runes); i++ {
		b := runes[i]
		switch {
		case b == '^':
			i++ // skip the mapping-quality byte that follows.
		case b == '$':
			// end-of-read marker; nothing else to do.
		case b == '+' || b == '-':
			j := i + 1
			for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
			if j == i+1 {
				return nil, grupserr.E(grupserr.ParseError, "tokenizeBases: indel marker without length")
			}
			length, err := strconv.Atoi(string(runes[i+1 : j]))
			if err != nil {
				return nil, grupserr.E(grupserr.ParseError, err, "tokenizeBases: bad indel length")
			}
			i = j + length - 1
		case b == '<' || b == '>':
			return nil, grupserr.E(grupserr.SemanticError, "tokenizeBases: reference-skip token in pileup bases")
		case b == '*':
			q, err := nextQual()
			if err != nil {
				return nil, err
			}
			if considerDels {
				out = append(out, Nucleotide{Base: coord.N, Phred: q})
			}
		case b == '.' || b == ',':
			q, err := nextQual()
			if err != nil {
				return nil, err
			}
			out = append(out, Nucleotide{Base: ref, Phred: q})
		default:
			a, err := coord.ParseAllele(b)
			if err != nil {
				return nil, err
			}
			q, err := nextQual()
			if err != nil {
				return nil, err
			}
			out = append(out, Nucleotide{Base: a, Phred: q})
		}
	}
	if qi != len(qualsStr) {
		return nil, grupserr.E(grupserr.SchemaError, "tokenizeBases: quality string longer than retained base count")
	}
	return out, nil
}

// Reader streams Lines from an io.Reader, one pileup record per line.
type Reader struct {
	scanner      *bufio.Scanner
	considerDels bool
	lineno       int
}

// NewReader wraps r as a line-oriented pileup Reader.
func NewReader(r io.Reader, considerDels bool) *Reader {
	return &Reader{scanner: bufio.NewScanner(r), considerDels: considerDels}
}

// Next returns the next parsed Line, or io.EOF when the input is exhausted.
// A malformed line is fatal and reported with its line number.
func (r *Reader) Next() (Line, error) {
	for r.scanner.Scan() {
		r.lineno++
		text := r.scanner.Text()
		if text == "" {
			continue
		}
		line, err := ParseLine(text, r.considerDels)
		if err != nil {
			return Line{}, grupserr.E(grupserr.ParseError, err, "line "+strconv.Itoa(r.lineno))
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Line{}, grupserr.E(grupserr.IoError, err, "pileup.Reader: scan failed at line "+strconv.Itoa(r.lineno))
	}
	return Line{}, io.EOF
}
