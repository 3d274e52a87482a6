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

package pileup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grups-project/grups-go/coord"
)

func basesOf(t *testing.T, nucs []Nucleotide) string {
	t.Helper()
	var sb strings.Builder
	for _, n := range nucs {
		sb.WriteString(n.Base.String())
	}
	return sb.String()
}

func TestSelfComparisonSanityLine(t *testing.T) {
	line := "22\t51057923\tC\t6\tTTTTtt\tJEJEEE\t0\t*\t*\t1\tT\tJ"
	l, err := ParseLine(line, false)
	require.NoError(t, err)
	require.Len(t, l.Columns, 3)
	require.Equal(t, 6, l.Columns[0].Depth)
	require.Equal(t, "TTTTTT", basesOf(t, l.Columns[0].Bases))
	require.Equal(t, 0, l.Columns[1].Depth)
	require.Equal(t, 1, l.Columns[2].Depth)
}

func TestKnownVariantsFilterRetainsSevenTs(t *testing.T) {
	line := "2\t21303470\tT\t0\t*\t*\t8\t..c..,,^F,\tEEJEEEEE\t0\t*\t*"
	l, err := ParseLine(line, false)
	require.NoError(t, err)
	require.Equal(t, 8, l.Columns[1].Depth)

	target := coord.Target{Coord: l.Coord, Reference: coord.T, Alternate: coord.A}
	require.NoError(t, l.Columns[1].FilterKnownVariants(target))
	require.Equal(t, 7, l.Columns[1].Depth)
	for _, b := range l.Columns[1].Bases {
		require.Equal(t, coord.T, b.Base)
	}
}

func TestIndelAndControlTokenSkip(t *testing.T) {
	bases := ",..,,+4ACTAGca,,.,-2AT..,.+15ATCGCCCCGCCCTAGc"
	quals := "JEEeCCeCCc$cagGgc"
	nucs, err := tokenizeBases(bases, quals, coord.N, true)
	require.NoError(t, err)
	require.Equal(t, "NNNNNGCANNNNNNNNC", basesOf(t, nucs))
}

func TestRefSkipIsFatal(t *testing.T) {
	_, err := tokenizeBases("<<", "JJ", coord.N, false)
	require.Error(t, err)
}

func TestUnequalLengthIsFatal(t *testing.T) {
	_, err := tokenizeBases("AAA", "JJ", coord.N, false)
	require.Error(t, err)
}

func TestDeletionDroppedUnlessConsidered(t *testing.T) {
	nucs, err := tokenizeBases("A*A", "JJJ", coord.N, false)
	require.NoError(t, err)
	require.Equal(t, "AA", basesOf(t, nucs))

	nucs, err = tokenizeBases("A*A", "JJJ", coord.N, true)
	require.NoError(t, err)
	require.Equal(t, "ANA", basesOf(t, nucs))
}

func TestFilterBaseQualityRefreshesDepth(t *testing.T) {
	col := Column{Bases: []Nucleotide{{Base: coord.A, Phred: 10}, {Base: coord.C, Phred: 30}}}
	col.Depth = len(col.Bases)
	col.FilterBaseQuality(20)
	require.Equal(t, 1, col.Depth)
	require.Equal(t, coord.C, col.Bases[0].Base)
}
