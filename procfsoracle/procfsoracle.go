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

// Package procfsoracle supplies cmd/tuner-arbiterd's default
// implementation of priority.Oracle (spec.md section 6's foreground
// oracle, deliberately left as an external collaborator by the
// specification). A client is considered foreground when its controlling
// terminal's foreground process group matches its own process group,
// read from /proc/<pid>/stat the same way package process parses
// /proc/<pid>/status: open the file, scan it, pull out the fields that
// matter.
package procfsoracle

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Oracle implements priority.Oracle against a /proc filesystem.
// session_tag is accepted to satisfy the interface but otherwise unused:
// this implementation has no notion of sessions beyond process group
// membership. procRoot defaults to "/proc"; tests override it to point
// at a scratch directory of fabricated stat files.
type Oracle struct {
	procRoot string
}

// New returns a procfs-backed foreground oracle rooted at /proc.
func New() *Oracle {
	return &Oracle{procRoot: "/proc"}
}

// NewAt returns an oracle rooted at an arbitrary directory, for tests that
// fabricate /proc/<pid>/stat files instead of depending on the host's.
func NewAt(procRoot string) *Oracle {
	return &Oracle{procRoot: procRoot}
}

// IsForeground reports whether processID's process group is the
// foreground group of its controlling terminal. Any failure to read or
// parse /proc/<pid>/stat is treated as "not foreground" rather than
// propagated, since spec.md section 6 only allows a boolean return.
func (o *Oracle) IsForeground(processID uint32, sessionTag string) bool {
	pgrp, tpgid, ok := o.readProcessGroups(processID)
	if !ok {
		return false
	}
	return pgrp == tpgid
}

// readProcessGroups parses the process group (field 5) and controlling
// terminal's foreground process group (field 8) out of /proc/<pid>/stat.
// The comm field (field 2) is parenthesized and may itself contain
// spaces, so fields are located from the end rather than split on every
// whitespace run.
func (o *Oracle) readProcessGroups(pid uint32) (pgrp, tpgid int, ok bool) {
	filename := fmt.Sprintf("%s/%d/stat", o.procRoot, pid)
	f, err := os.Open(filename)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	if !s.Scan() {
		return 0, 0, false
	}

	line := s.Text()
	end := strings.LastIndexByte(line, ')')
	if end < 0 || end+2 >= len(line) {
		return 0, 0, false
	}

	fields := strings.Fields(line[end+2:])
	// fields[0] is state (field 3); pgrp is field 5, tpgid is field 8.
	const pgrpIdx, tpgidIdx = 5 - 3, 8 - 3
	if len(fields) <= tpgidIdx {
		return 0, 0, false
	}

	pgrp, err1 := strconv.Atoi(fields[pgrpIdx])
	tpgid, err2 := strconv.Atoi(fields[tpgidIdx])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}

	return pgrp, tpgid, true
}
