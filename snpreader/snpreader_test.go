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

package snpreader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grups-project/grups-go/coord"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReadEigenstratFormat(t *testing.T) {
	path := writeFile(t, "targets.snp", "rs1 1 0.0 1000000 A G\nrs2 2 0.0 2000000 C T\n")
	set, err := Read(path, false)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	target, ok := set.Lookup(coord.Coord{Chromosome: 1, Position: 1000000})
	require.True(t, ok)
	require.Equal(t, coord.A, target.Reference)
	require.Equal(t, coord.G, target.Alternate)
}

func TestReadVCFFormatSkipsCommentsAndBlankLines(t *testing.T) {
	path := writeFile(t, "targets.vcf", "##header\n\n1\t1000000\t.\tA\tG\n")
	set, err := Read(path, false)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
}

func TestReadCSVFormat(t *testing.T) {
	path := writeFile(t, "targets.csv", "1,1000000,A,G\n23,2000000,C,T\n")
	set, err := Read(path, false)
	require.NoError(t, err)
	_, ok := set.Lookup(coord.Coord{Chromosome: 23, Position: 2000000})
	require.True(t, ok)
}

func TestReadExcludeTransitionsDropsTransitionPairs(t *testing.T) {
	path := writeFile(t, "targets.tsv", "1\t1000000\tA\tG\n1\t2000000\tA\tC\n")
	set, err := Read(path, true)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	_, keptAC := set.Lookup(coord.Coord{Chromosome: 1, Position: 2000000})
	require.True(t, keptAC)
	_, droppedAG := set.Lookup(coord.Coord{Chromosome: 1, Position: 1000000})
	require.False(t, droppedAG)
}

func TestReadRejectsUnrecognizedExtension(t *testing.T) {
	path := writeFile(t, "targets.bed", "1\t1000000\tA\tG\n")
	_, err := Read(path, false)
	require.Error(t, err)
}

func TestReadRejectsTooFewFields(t *testing.T) {
	path := writeFile(t, "targets.tsv", "1\t1000000\n")
	_, err := Read(path, false)
	require.Error(t, err)
}
