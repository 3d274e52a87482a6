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

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"

	"github.com/grups-project/grups-go/config"
)

func writeFixture(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// TestRunEndToEnd builds the smallest fixture set that exercises every
// stage of Run: a one-site pileup between two named individuals, a panel
// wide enough to sample founders, a two-leaf pedigree with one declared
// comparison, a one-interval genetic map, and a single-record VCF genotype
// source, then asserts the expected output files materialize.
func TestRunEndToEnd(t *testing.T) {
	root, cleanup := testutil.TempDir(t, "", "grups-pipeline")
	defer testutil.NoCleanupOnError(t, cleanup, root)

	pileupPath := filepath.Join(root, "pileup.txt")
	writeFixture(t, pileupPath, "1\t2000000\tA\t2\t..\tII\t2\t..\tII\n")

	recombDir := filepath.Join(root, "recomb")
	writeFixture(t, filepath.Join(recombDir, "chr1.txt"),
		"Chromosome\tPosition(bp)\tRate(cM/Mb)\tMap(cM)\n1\t3000000\t1.0\t0.0\n")

	panelPath := filepath.Join(root, "panel.tsv")
	writeFixture(t, panelPath,
		"NA001\tPOP1\tSUPER1\n"+
			"NA002\tPOP1\tSUPER1\n"+
			"NA003\tPOP1\tSUPER1\n"+
			"NA004\tPOP1\tSUPER1\n")

	pedigreePath := filepath.Join(root, "pedigree.txt")
	writeFixture(t, pedigreePath,
		"INDIVIDUALS\nInd0\nInd1\nCOMPARISONS\nInd0-Ind1=compare(Ind0,Ind1)\n")

	genotypeDir := filepath.Join(root, "genotypes")
	writeFixture(t, filepath.Join(genotypeDir, "panel.vcf"),
		"##fileformat=VCFv4.2\n"+
			"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA001\tNA002\tNA003\tNA004\n"+
			"1\t2000000\t.\tA\tG\t.\t.\tVT=SNP;POP1_AF=0.3\tGT\t0|0\t1|1\t0|1\t0|0\n")

	outDir := filepath.Join(root, "out")

	cfg := config.Run{
		PileupPath:   pileupPath,
		RecombDir:    recombDir,
		PanelPath:    panelPath,
		PedigreeFile: pedigreePath,

		Pairs: []config.PairSpec{
			{Name: "Ind0-Ind1", Column0: 0, Column1: 1, MinDepth: 1},
		},
		MinBaseQuality: 10,

		GenotypeDir: genotypeDir,
		GenotypeExt: ".vcf",
		FreqPop:     "POP1",

		OutputDir:     outDir,
		AllowDeepTree: true,

		BlockSize: 1_000_000,
		MinDepth:  1,
		MAF:       0,

		Reps:                5,
		PedigreePop:         "POP1",
		ContamPops:          []string{"POP1"},
		ContamNumInd:        [2]int{0, 0},
		SnpDownsamplingRate: 1,
		AfDownsamplingRate:  1,
		ContamRate:          [2]config.RateRange{{Low: 0, High: 0}, {Low: 0, High: 0}},

		Method: config.ZScore,
		Seed:   42,
	}

	err := Run(context.Background(), cfg)
	require.NoError(t, err)

	stem := "pileup"
	for _, suffix := range []string{".pwd", ".result"} {
		_, statErr := os.Stat(filepath.Join(outDir, stem+suffix))
		require.NoError(t, statErr, "expected %s to exist", suffix)
	}
	_, statErr := os.Stat(filepath.Join(outDir, "blocks", stem+"-Ind0-Ind1.blk"))
	require.NoError(t, statErr, "expected per-comparison block file to exist")
	_, statErr = os.Stat(filepath.Join(outDir, stem+"-Ind0-Ind1.sims"))
	require.NoError(t, statErr, "expected per-comparison simulation file to exist")
}

// TestRunRejectsInvalidConfig confirms Run surfaces config.Validate's error
// before touching any fixture path.
func TestRunRejectsInvalidConfig(t *testing.T) {
	err := Run(context.Background(), config.Run{MAF: 2})
	require.Error(t, err)
}
