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

// Package config loads the use-case priority table (spec.md component C2)
// from a YAML file. spec.md section 9 explicitly leaves the priority-table
// loader's file format out of core scope; this package supplies this
// repository's own concrete default so the daemon has something to load
// at startup instead of requiring every caller to hand-build a table.
package config

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/nestybox/tuner-arbiterd/priority"
)

// priorityEntry is the on-disk shape of one use-case's priority pair.
type priorityEntry struct {
	UseCase    string `yaml:"use_case"`
	Foreground int    `yaml:"foreground"`
	Background int    `yaml:"background"`
}

type priorityFile struct {
	UseCases []priorityEntry `yaml:"use_cases"`
}

// LoadPriorityTable reads and parses a priority-table YAML file through
// fs, so tests can inject afero.NewMemMapFs() instead of touching disk
// (the same role sysio plays for the teacher's procfs/sysfs I/O).
func LoadPriorityTable(fs afero.Fs, path string) (*priority.Table, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("config: reading priority table %s: %w", path, err)
	}

	var pf priorityFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("config: parsing priority table %s: %w", path, err)
	}

	tbl := priority.NewTable()
	for _, e := range pf.UseCases {
		if err := tbl.Set(priority.UseCase(e.UseCase), e.Foreground, e.Background); err != nil {
			return nil, fmt.Errorf("config: priority table %s: %w", path, err)
		}
	}

	return tbl, nil
}

// DefaultPriorityTable returns a built-in table covering this repository's
// default use-case catalog (priority.DefaultUseCases), for daemons started
// without an explicit --priority-table file.
func DefaultPriorityTable() *priority.Table {
	tbl := priority.NewTable()
	defaults := map[priority.UseCase][2]int{
		priority.Live:      {950, 400},
		priority.Record:    {850, 700},
		priority.TimeShift: {700, 500},
		priority.Playback:  {600, 200},
		priority.Scan:      {100, 50},
	}

	for _, uc := range priority.DefaultUseCases() {
		pair := defaults[uc]
		// Set cannot fail here: every pair above is within [0, MaxPriority].
		_ = tbl.Set(uc, pair[0], pair[1])
	}

	return tbl
}
