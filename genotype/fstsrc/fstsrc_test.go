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
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSortedSet(t *testing.T, dir, name string, keys []string) string {
	t.Helper()
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	path := filepath.Join(dir, name)
	content := ""
	for _, k := range sorted {
		content += k + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPrefixSearchSpecExample(t *testing.T) {
	dir := t.TempDir()
	genoPath := writeSortedSet(t, dir, "shard.fst", []string{
		encodeGenotypeKey(22, 16050075, "HG00096", [2]uint8{0, 1}),
		encodeGenotypeKey(22, 16051347, "HG00096", [2]uint8{1, 1}),
	})
	freqPath := writeSortedSet(t, dir, "shard.fst.frq", []string{
		encodeFreqKey(22, 16050075, "EUR", 0.02),
	})

	r, err := Open(genoPath, freqPath, false)
	require.NoError(t, err)
	defer r.Close()

	c, ok, err := r.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(22), c.Chromosome)
	require.Equal(t, uint32(16050075), c.Position)

	af, err := r.GetPopAlleleFrequency("EUR")
	require.NoError(t, err)
	require.InDelta(t, 0.02, af, 1e-9)

	alleles, err := r.GetAlleles("HG00096")
	require.NoError(t, err)
	require.Equal(t, [2]uint8{0, 1}, alleles)
}

func TestAdvanceWalksDistinctCoordinates(t *testing.T) {
	dir := t.TempDir()
	genoPath := writeSortedSet(t, dir, "shard.fst", []string{
		encodeGenotypeKey(1, 100, "A", [2]uint8{0, 0}),
		encodeGenotypeKey(1, 100, "B", [2]uint8{0, 1}),
		encodeGenotypeKey(1, 200, "A", [2]uint8{1, 1}),
	})
	r, err := Open(genoPath, "", false)
	require.NoError(t, err)
	defer r.Close()

	c1, ok, err := r.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(100), c1.Position)
	require.True(t, r.IsSNP()) // alleles {0,1} at this coordinate.

	c2, ok, err := r.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(200), c2.Position)

	_, ok, err = r.Advance()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenRejectsUnsortedSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.fst")
	content := encodeGenotypeKey(1, 200, "A", [2]uint8{0, 0}) + "\n" + encodeGenotypeKey(1, 100, "A", [2]uint8{0, 0}) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	_, err := OpenSet(path, false)
	require.Error(t, err)
}

func TestChromosomesEnumeratesDistinctPrefixes(t *testing.T) {
	dir := t.TempDir()
	path := writeSortedSet(t, dir, "shard.fst", []string{
		encodeGenotypeKey(1, 100, "A", [2]uint8{0, 0}),
		encodeGenotypeKey(2, 50, "A", [2]uint8{0, 0}),
		encodeGenotypeKey(22, 10, "A", [2]uint8{0, 0}),
	})
	s, err := OpenSet(path, false)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "22"}, s.Chromosomes())
}
