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

// Counter 单调累加的命名指标
type Counter struct {
	sm *seriesMap
}

func NewCounter(name string, expired time.Duration) *Counter {
	return &Counter{sm: newSeriesMap(name, expired)}
}

func (c *Counter) Inc(lbs labels.Labels) {
	c.Add(1, lbs)
}

func (c *Counter) Add(v float64, lbs labels.Labels) {
	c.sm.upsert(lbs, func(s *series) {
		s.val += v
	})
}

func (c *Counter) RemoveExpired() {
	c.sm.removeExpired()
}

func (c *Counter) WritePrometheus(w io.Writer) {
	c.sm.writePrometheus(w)
}

func (c *Counter) PrompbSeriess() []prompb.TimeSeries {
	return c.sm.prompbSeriess()
}
