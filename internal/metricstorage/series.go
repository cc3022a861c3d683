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

package metricstorage

import (
	"io"
	"sync"
	"time"

	"github.com/prometheus/prometheus/prompb"

	"github.com/sensord/sensord/internal/fasttime"
	"github.com/sensord/sensord/internal/labels"
)

// series 单条时间序列的当前值
type series struct {
	val     float64
	lbs     labels.Labels
	updated int64
}

// seriesMap Counter/Gauge 共用的序列存储
//
// 以标签集哈希为键 过期序列由上层统一回收
type seriesMap struct {
	mut     sync.RWMutex
	name    string
	items   map[uint64]*series
	expired time.Duration
}

func newSeriesMap(name string, expired time.Duration) *seriesMap {
	return &seriesMap{
		name:    name,
		expired: expired,
		items:   make(map[uint64]*series),
	}
}

// upsert 定位标签集对应的序列并应用 f
func (sm *seriesMap) upsert(lbs labels.Labels, f func(s *series)) {
	hash := lbs.Hash()

	sm.mut.Lock()
	defer sm.mut.Unlock()

	inst, ok := sm.items[hash]
	if !ok {
		inst = &series{lbs: lbs}
		sm.items[hash] = inst
	}
	f(inst)
	inst.updated = fasttime.UnixTimestamp()
}

func (sm *seriesMap) removeExpired() {
	sm.mut.Lock()
	defer sm.mut.Unlock()

	for hash, inst := range sm.items {
		if fasttime.Since(inst.updated) > sm.expired {
			delete(sm.items, hash)
		}
	}
}

func (sm *seriesMap) writePrometheus(w io.Writer) {
	sm.mut.RLock()
	defer sm.mut.RUnlock()

	for _, inst := range sm.items {
		WritePrometheus(w, ConstMetric{
			Name:   sm.name,
			Labels: inst.lbs,
			Value:  inst.val,
		})
	}
}

func (sm *seriesMap) prompbSeriess() []prompb.TimeSeries {
	sm.mut.RLock()
	defer sm.mut.RUnlock()

	var seriess []prompb.TimeSeries
	for _, inst := range sm.items {
		tss := ToPrompbTimeSeries(ConstMetric{
			Name:   sm.name,
			Labels: inst.lbs,
			Value:  inst.val,
		})
		seriess = append(seriess, tss...)
	}
	return seriess
}
