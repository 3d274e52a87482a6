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

// Package coord implements the ordered (chromosome, position) key used
// throughout grups-go, the four-allele enumeration, and SNP target sets
// restricting pileup processing to known sites.
package coord

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/grups-project/grups-go/internal/grupserr"
)

// Coord is a 1-based (chromosome, position) pair. Chromosome is an 8-bit id
// assigned by the genome index (component `genome`); position is 1-based.
//
// Hash equality (via the map key itself, since Coord is comparable) implies
// ordering equality: two Coords compare equal iff both fields match, which is
// exactly the condition under which Go's built-in map equality and Less
// agree.
type Coord struct {
	Chromosome uint8
	Position   uint32
}

// Less reports whether c sorts before other: chromosome first, then
// position.
func (c Coord) Less(other Coord) bool {
	if c.Chromosome != other.Chromosome {
		return c.Chromosome < other.Chromosome
	}
	return c.Position < other.Position
}

func (c Coord) String() string {
	return fmt.Sprintf("%d:%d", c.Chromosome, c.Position)
}

// KeySize is the width of the fixed big-endian FST lookup key: one byte for
// chromosome, four for position.
const KeySize = 5

// Key encodes c as a fixed 5-byte big-endian key suitable for ordered
// FST-style lookups (component G).
func (c Coord) Key() [KeySize]byte {
	var k [KeySize]byte
	k[0] = c.Chromosome
	binary.BigEndian.PutUint32(k[1:], c.Position)
	return k
}

// FromKey decodes a 5-byte FST key back into a Coord. Round-tripping through
// Key/FromKey must be the identity, per spec §8.
func FromKey(k []byte) (Coord, error) {
	if len(k) != KeySize {
		return Coord{}, grupserr.E(grupserr.ParseError, fmt.Sprintf("coord: key must be %d bytes, got %d", KeySize, len(k)))
	}
	return Coord{Chromosome: k[0], Position: binary.BigEndian.Uint32(k[1:])}, nil
}

// Parse parses a "chr:pos" string, as used by -region style CLI flags.
func Parse(s string) (Coord, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Coord{}, grupserr.E(grupserr.ParseError, fmt.Sprintf("coord.Parse: expected chr:pos, got %q", s))
	}
	chr, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Coord{}, grupserr.E(grupserr.ParseError, err, fmt.Sprintf("coord.Parse: bad chromosome %q", parts[0]))
	}
	pos, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Coord{}, grupserr.E(grupserr.ParseError, err, fmt.Sprintf("coord.Parse: bad position %q", parts[1]))
	}
	return Coord{Chromosome: uint8(chr), Position: uint32(pos)}, nil
}
