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
	"time"

	"github.com/prometheus/prometheus/prompb"

	"github.com/sensord/sensord/internal/labels"
)

// Gauge 可任意赋值的命名指标
type Gauge struct {
	sm *seriesMap
}

func NewGauge(name string, expired time.Duration) *Gauge {
	return &Gauge{sm: newSeriesMap(name, expired)}
}

func (g *Gauge) Set(v float64, lbs labels.Labels) {
	g.sm.upsert(lbs, func(s *series) {
		s.val = v
	})
}

func (g *Gauge) RemoveExpired() {
	g.sm.removeExpired()
}

func (g *Gauge) WritePrometheus(w io.Writer) {
	g.sm.writePrometheus(w)
}

func (g *Gauge) PrompbSeriess() []prompb.TimeSeries {
	return g.sm.prompbSeriess()
}
