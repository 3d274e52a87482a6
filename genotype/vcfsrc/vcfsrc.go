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

// Package vcfsrc implements genotype.Reader over a forward VCF stream,
// plain text or BGZF-compressed (spec §4.G VCF backend). Fields are parsed
// lazily: chromosome and position first, INFO and genotypes only when
// asked for.
package vcfsrc

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/hts/bgzf"

	"github.com/grups-project/grups-go/coord"
	"github.com/grups-project/grups-go/internal/grupserr"
)

// Reader streams VCF records and answers genotype.Reader queries against
// the current record.
type Reader struct {
	file       *os.File
	bgzfReader *bgzf.Reader
	scanner    *bufio.Scanner

	sampleIndex map[string]int // sample id -> 0-based genotype column.

	chrom      string
	pos        uint32
	ref        string
	alt        []string
	infoRaw    string
	infoParsed map[string]string
	fields     []string // full tab-split record, valid after a successful Advance.
	genotypes  map[string][2]uint8
	loaded     bool
}

// Open opens a plain `.vcf` or BGZF `.vcf.gz` file (detected by extension)
// and consumes its header through the `#CHROM` line, from which sample
// names and genotype-column indices are recorded. threads, if > 0, sets
// the BGZF reader's parallel decompression worker count.
func Open(path string, threads int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, grupserr.E(grupserr.IoError, err, "vcfsrc.Open: open "+path)
	}
	var src io.Reader = f
	r := &Reader{file: f}
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		bgzfR, err := bgzf.NewReader(f, threads)
		if err != nil {
			f.Close()
			return nil, grupserr.E(grupserr.IoError, err, "vcfsrc.Open: bgzf "+path)
		}
		r.bgzfReader = bgzfR
		src = bgzfR
	}
	r.scanner = bufio.NewScanner(src)
	r.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for r.scanner.Scan() {
		line := r.scanner.Text()
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			r.parseHeader(line)
			return r, nil
		}
		r.Close()
		return nil, grupserr.E(grupserr.SchemaError, "vcfsrc.Open: "+path+": missing #CHROM header before data")
	}
	r.Close()
	return nil, grupserr.E(grupserr.SchemaError, "vcfsrc.Open: "+path+": no header found")
}

const fixedColumns = 9

func (r *Reader) parseHeader(line string) {
	fields := strings.Split(line, "\t")
	r.sampleIndex = make(map[string]int, len(fields)-fixedColumns)
	for i := fixedColumns; i < len(fields); i++ {
		r.sampleIndex[fields[i]] = i - fixedColumns
	}
}

// Advance reads the next data record, parsing chromosome and position
// eagerly; INFO and genotype fields remain unparsed until asked for.
func (r *Reader) Advance() (coord.Coord, bool, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", fixedColumns+1)
		if len(fields) < fixedColumns {
			return coord.Coord{}, false, grupserr.E(grupserr.SchemaError, "vcfsrc.Advance: record has fewer than 9 columns")
		}
		chrName, ok := parseChromName(fields[0])
		if !ok {
			continue
		}
		pos64, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return coord.Coord{}, false, grupserr.E(grupserr.ParseError, err, "vcfsrc.Advance: bad position "+fields[1])
		}
		r.chrom = fields[0]
		r.pos = uint32(pos64)
		r.ref = fields[3]
		r.alt = strings.Split(fields[4], ",")
		r.infoRaw = fields[7]
		r.infoParsed = nil
		r.genotypes = nil
		r.loaded = false
		full := strings.Split(line, "\t")
		r.fields = full
		return coord.Coord{Chromosome: chrName, Position: uint32(pos64)}, true, nil
	}
	if err := r.scanner.Err(); err != nil {
		return coord.Coord{}, false, grupserr.E(grupserr.IoError, err, "vcfsrc.Advance: scan failed")
	}
	return coord.Coord{}, false, nil
}

// parseChromName strips an optional "chr" prefix and maps "X" to 23; a
// non-matching contig returns ok=false so Advance skips it.
func parseChromName(field string) (uint8, bool) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(field, "chr"), "Chr")
	if strings.EqualFold(trimmed, "X") {
		return 23, true
	}
	n, err := strconv.ParseUint(trimmed, 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(n), true
}

func (r *Reader) info() map[string]string {
	if r.infoParsed != nil {
		return r.infoParsed
	}
	m := make(map[string]string)
	for _, kv := range strings.Split(r.infoRaw, ";") {
		if kv == "" {
			continue
		}
		if eq := strings.IndexByte(kv, '='); eq >= 0 {
			m[kv[:eq]] = kv[eq+1:]
		} else {
			m[kv] = ""
		}
	}
	r.infoParsed = m
	return m
}

// IsSNP reports whether the current record's INFO carries VT=SNP.
func (r *Reader) IsSNP() bool {
	vt, ok := r.info()["VT"]
	return ok && vt == "SNP"
}

// IsMultiallelic is true when INFO carries MULTI_ALLELIC or more than one
// alternate allele is listed.
func (r *Reader) IsMultiallelic() bool {
	if _, ok := r.info()["MULTI_ALLELIC"]; ok {
		return true
	}
	return len(r.alt) > 1
}

// LoadGenotypes parses every sample's genotype field for the current
// record.
func (r *Reader) LoadGenotypes() error {
	if r.loaded {
		return nil
	}
	if len(r.fields) < fixedColumns {
		return grupserr.E(grupserr.SchemaError, "vcfsrc.LoadGenotypes: no current record")
	}
	samples := r.fields[fixedColumns:]
	genotypes := make(map[string][2]uint8, len(r.sampleIndex))
	for name, idx := range r.sampleIndex {
		if idx >= len(samples) {
			continue
		}
		gtField := samples[idx]
		if sep := strings.IndexByte(gtField, ':'); sep >= 0 {
			gtField = gtField[:sep]
		}
		alleles, err := parseGenotype(gtField)
		if err != nil {
			return grupserr.E(grupserr.ParseError, err, "vcfsrc.LoadGenotypes: sample "+name)
		}
		genotypes[name] = alleles
	}
	r.genotypes = genotypes
	r.loaded = true
	return nil
}

// parseGenotype parses a diploid ("a|b"/"a/b") or haploid ("a") genotype
// field; haploid calls (male X-chromosome records) produce [a,a].
func parseGenotype(field string) ([2]uint8, error) {
	var sep byte
	switch {
	case strings.ContainsRune(field, '|'):
		sep = '|'
	case strings.ContainsRune(field, '/'):
		sep = '/'
	}
	if sep == 0 {
		a, err := strconv.ParseUint(field, 10, 8)
		if err != nil {
			return [2]uint8{}, err
		}
		return [2]uint8{uint8(a), uint8(a)}, nil
	}
	parts := strings.SplitN(field, string(sep), 2)
	a, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return [2]uint8{}, err
	}
	b, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return [2]uint8{}, err
	}
	return [2]uint8{uint8(a), uint8(b)}, nil
}

// GetAlleles returns the parsed genotype for sampleID, calling LoadGenotypes
// first if the current record's genotypes are not loaded yet.
func (r *Reader) GetAlleles(sampleID string) ([2]uint8, error) {
	if !r.loaded {
		if err := r.LoadGenotypes(); err != nil {
			return [2]uint8{}, err
		}
	}
	alleles, ok := r.genotypes[sampleID]
	if !ok {
		return [2]uint8{}, grupserr.E(grupserr.SemanticError, "vcfsrc.GetAlleles: unknown sample "+sampleID)
	}
	return alleles, nil
}

// GetPopAlleleFrequency parses the `<POP>_AF=` INFO sub-field.
func (r *Reader) GetPopAlleleFrequency(pop string) (float32, error) {
	raw, ok := r.info()[pop+"_AF"]
	if !ok {
		return 0, grupserr.E(grupserr.SemanticError, "vcfsrc.GetPopAlleleFrequency: missing "+pop+"_AF in INFO")
	}
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, grupserr.E(grupserr.ParseError, err, "vcfsrc.GetPopAlleleFrequency: bad "+pop+"_AF value "+raw)
	}
	return float32(f), nil
}

// Close releases the underlying file (and BGZF reader, if any).
func (r *Reader) Close() error {
	if r.bgzfReader != nil {
		r.bgzfReader.Close()
	}
	return r.file.Close()
}
