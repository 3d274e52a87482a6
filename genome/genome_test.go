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

package genome

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultGenomeHas22Autosomes(t *testing.T) {
	g := Default()
	require.Equal(t, 22, g.Len())
	chr1, ok := g.Lookup(1)
	require.True(t, ok)
	require.Equal(t, uint32(249250621), chr1.Length)
	chr22, ok := g.Lookup(22)
	require.True(t, ok)
	require.Equal(t, uint32(51304566), chr22.Length)
}

func TestFromFastaIndexSkipsUnrecognizedContigsAndMapsX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fasta.fai")
	contents := "chr1\t249250621\t6\t60\t61\n" +
		"chr1_gl000191_random\t106433\t253404903\t60\t61\n" +
		"chrX\t155270560\t253511234\t60\t61\n" +
		"chrM\t16571\t253511234\t60\t61\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	g, err := FromFastaIndex(path)
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	chr1, ok := g.Lookup(1)
	require.True(t, ok)
	require.Equal(t, uint32(249250621), chr1.Length)

	chrX, ok := g.Lookup(23)
	require.True(t, ok)
	require.Equal(t, uint32(155270560), chrX.Length)
}

func TestFromFastaIndexEmptyYieldsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.fai")
	require.NoError(t, os.WriteFile(path, []byte("chrM\t16571\t0\t60\t61\n"), 0o644))
	_, err := FromFastaIndex(path)
	require.Error(t, err)
}

func TestFromFastaIndexPreservesInsertionOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fasta.fai")
	contents := "chr2\t243199373\t0\t60\t61\n" +
		"chr1\t249250621\t0\t60\t61\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	g, err := FromFastaIndex(path)
	require.NoError(t, err)
	chrs := g.Chromosomes()
	require.Len(t, chrs, 2)
	require.Equal(t, uint8(2), chrs[0].Name)
	require.Equal(t, uint8(1), chrs[1].Name)
}
