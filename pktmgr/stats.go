// Copyright 2025 The sensord Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pktmgr

import (
	"io"

	"github.com/sensord/sensord/internal/json"
)

// StatRow 统计表的一行 固定列 total/other/discards 之后逐 codec 一列
type StatRow struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

// DumpStats 返回全局统计表快照
//
// 0 号槽位是默认 codec 的重复项 其计数被解码终结路径污染
// 输出前清零 避免误读
func (m *Manager) DumpStats() []StatRow {
	m.mut.Lock()
	defer m.mut.Unlock()

	rows := make([]StatRow, 0, statOffset+m.numCodecs)
	for i, name := range statNames {
		rows = append(rows, StatRow{Name: name, Value: m.gstats[i]})
	}

	for i := 0; i <= maxCodecs; i++ {
		if m.protocols[i] == nil {
			continue
		}
		v := m.gstats[statOffset+i]
		if i == 0 {
			v = 0
		}
		rows = append(rows, StatRow{Name: m.protocols[i].Name(), Value: v})
	}
	return rows
}

// WriteStats 将统计表以 JSON 形式写出
func (m *Manager) WriteStats(w io.Writer) error {
	return json.NewEncoder(w).Encode(m.DumpStats())
}
