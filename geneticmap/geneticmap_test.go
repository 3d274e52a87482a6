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

package geneticmap

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromDirEmptyIsError(t *testing.T) {
	dir := t.TempDir()
	_, err := FromDir(dir)
	require.Error(t, err)
}

func TestComputeRecombinationProbSpecExample(t *testing.T) {
	dir := t.TempDir()
	// Two rows: an arbitrary first row establishing start=0, then the row from
	// spec §4 end-to-end scenario 4 (chr22, start=16051347 stop=16052618 rate=8.1315).
	contents := "Chromosome\tPosition(bp)\tRate(cM/Mb)\tMap(cM)\n" +
		"22\t16051347\t0\t0\n" +
		"22\t16052618\t8.1315\t0\n"
	path := filepath.Join(dir, "chr22.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	m, err := FromDir(dir)
	require.NoError(t, err)

	prob, err := m.ComputeRecombinationProb(22, 16052617, 16052619)
	require.NoError(t, err)

	rate := 8.1315 / 100.0 / 1_000_000.0
	want := 0.5 * (1.0 - math.Exp(-2.0*rate*2.0))
	require.InDelta(t, want, prob, 1e-12)
}

func TestComputeRecombinationProbMissingChromosome(t *testing.T) {
	dir := t.TempDir()
	contents := "header\n1\t1000\t1.0\t0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chr1.txt"), []byte(contents), 0o644))
	m, err := FromDir(dir)
	require.NoError(t, err)

	_, err = m.ComputeRecombinationProb(2, 0, 10)
	require.Error(t, err)
}

func TestDuplicateChromosomesAcrossFilesAppend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("h\n1\t1000\t10\t0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("h\n1\t2000\t10\t0\n"), 0o644))
	m, err := FromDir(dir)
	require.NoError(t, err)
	require.Len(t, m.byChr[1], 2)
}
