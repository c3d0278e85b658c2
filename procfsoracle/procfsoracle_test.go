//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package procfsoracle

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeStat(t *testing.T, root string, pid uint32, pgrp, tpgid int) {
	t.Helper()
	dir := filepath.Join(root, fmt.Sprintf("%d", pid))
	require.NoError(t, os.MkdirAll(dir, 0755))

	// Minimal but realistic /proc/<pid>/stat: pid (comm) state ppid pgrp
	// session tty_nr tpgid ...
	line := fmt.Sprintf("%d (bash) S 1 %d %d 0 %d 0\n", pid, pgrp, pgrp, tpgid)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(line), 0644))
}

func TestIsForegroundWhenGroupsMatch(t *testing.T) {
	root := t.TempDir()
	writeStat(t, root, 42, 42, 42)

	o := NewAt(root)
	require.True(t, o.IsForeground(42, ""))
}

func TestIsForegroundWhenGroupsDiffer(t *testing.T) {
	root := t.TempDir()
	writeStat(t, root, 43, 43, 99)

	o := NewAt(root)
	require.False(t, o.IsForeground(43, ""))
}

func TestIsForegroundFalseWhenStatMissing(t *testing.T) {
	o := NewAt(t.TempDir())
	require.False(t, o.IsForeground(12345, ""))
}
