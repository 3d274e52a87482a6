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

package panel

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestPanel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "panel.tsv")
	contents := "HG00096\tGBR\tEUR\tM\n" +
		"HG00097\tGBR\tEUR\tF\n" +
		"HG00100\tFIN\tEUR\tF\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadIndexesByPopAndSuperPop(t *testing.T) {
	p, err := Load(writeTestPanel(t), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, p.byLabel["GBR"], 2)
	require.Len(t, p.byLabel["EUR"], 3)
}

func TestAssignVCFIndexesMarksUnmatched(t *testing.T) {
	p, err := Load(writeTestPanel(t), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	header := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tHG00096\tHG00097"
	unmatched := p.AssignVCFIndexes(header)
	require.Equal(t, 1, unmatched) // HG00100 absent from header.

	hg096 := p.byLabel["GBR"][0]
	require.True(t, hg096.HasVCFIdx)
	require.Equal(t, 0, hg096.VCFIndex)
}

func TestRandomSampleRespectsExcludeAndSex(t *testing.T) {
	p, err := Load(writeTestPanel(t), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	tag, err := p.RandomSample("GBR", nil, SexMale)
	require.NoError(t, err)
	require.Equal(t, "HG00096", tag.SampleID)

	_, err = p.RandomSample("GBR", map[string]bool{"HG00096": true}, SexMale)
	require.Error(t, err)
}

func TestFetchContaminantsDistinctAndExhausts(t *testing.T) {
	p, err := Load(writeTestPanel(t), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	out, err := p.FetchContaminants([]string{"GBR"}, []int{2})
	require.NoError(t, err)
	require.Len(t, out[0], 2)
	require.NotEqual(t, out[0][0].SampleID, out[0][1].SampleID)

	_, err = p.FetchContaminants([]string{"GBR"}, []int{3})
	require.Error(t, err)
}
