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

package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateTreeRequiresExistingParentByDefault(t *testing.T) {
	root := t.TempDir()
	err := CreateTree(filepath.Join(root, "missing", "child"), false)
	require.Error(t, err)
}

func TestCreateTreeAllowsDeepCreation(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "a", "b", "c")
	require.NoError(t, CreateTree(dir, true))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestCreateTreeSucceedsWithExistingParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, CreateTree(filepath.Join(root, "child"), false))
}

func TestCheckOverwriteRefusesExistingFileByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.Error(t, checkOverwrite(path, false))
	require.NoError(t, checkOverwrite(path, true))
}

func TestWritePWDProducesExpectedRows(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	w := New(context.Background(), prefix, false)
	err := w.WritePWD([]PwdRow{{Name: "Ind0-Ind1", Overlap: 100, SumPwd: 5, AvgPwd: 0.05, CI95: 0.01, AvgPhred: 30}})
	require.NoError(t, err)
	contents, err := os.ReadFile(prefix + ".pwd")
	require.NoError(t, err)
	require.Contains(t, string(contents), "Ind0-Ind1")
}

func TestWritePWDRefusesToOverwriteExistingFile(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	w := New(context.Background(), prefix, false)
	require.NoError(t, w.WritePWD(nil))
	require.Error(t, w.WritePWD(nil))
}

func TestWriteBlocksAndSimsAndResultAndProbs(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	w := New(context.Background(), prefix, false)

	require.NoError(t, w.WriteBlocks([]BlockRow{{Comparison: "Ind0-Ind1", Chromosome: 1, Start: 1, Stop: 1000001, SiteCount: 10, PwdSum: 0.3, ThetaJ: 0.02, Hj: 1.1}}))
	require.NoError(t, w.WriteSims([]SimRow{{Comparison: "Ind0-Ind1", Replicate: 0, Label: "Siblings", AvgPwd: 0.1}}))
	require.NoError(t, w.WriteResult([]ResultRow{{Name: "Ind0-Ind1", AssignedLabel: "Siblings", Overlap: 100, SumPwd: 5, AvgPwd: 0.05, CI95: 0.01, AvgPhred: 30, SimulationMean: 0.06, MinAbsZ: 0.4}}))
	require.NoError(t, w.WriteProbs([]ProbRow{{Name: "Ind0-Ind1", Label: "Siblings", Q: 0.8}}))

	for _, suffix := range []string{".blk", ".sims", ".result", ".probs"} {
		_, err := os.Stat(prefix + suffix)
		require.NoError(t, err, "expected %s to exist", suffix)
	}
}
