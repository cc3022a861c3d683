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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sensord/sensord/internal/labels"
)

func TestCounterAccumulates(t *testing.T) {
	c := NewCounter("events_total", time.Minute)
	lbs := labels.New("scope", "tcp", "event", "bad_rst")

	c.Inc(lbs)
	c.Add(2, lbs)

	var buf bytes.Buffer
	c.WritePrometheus(&buf)
	assert.Contains(t, buf.String(), "events_total")
	assert.Contains(t, buf.String(), `scope="tcp"`)
	assert.Contains(t, buf.String(), "3.0")

	seriess := c.PrompbSeriess()
	assert.Equal(t, 1, len(seriess))
	assert.Equal(t, float64(3), seriess[0].Samples[0].Value)
}

func TestGaugeOverwrites(t *testing.T) {
	g := NewGauge("active_flows", time.Minute)
	lbs := labels.New("proto", "tcp")

	g.Set(5, lbs)
	g.Set(2, lbs)

	seriess := g.PrompbSeriess()
	assert.Equal(t, 1, len(seriess))
	assert.Equal(t, float64(2), seriess[0].Samples[0].Value)
}

func TestSetDistinctLabels(t *testing.T) {
	s := newSet(time.Minute)

	inst := s.GetOrCreateCounter("events_total")
	inst.Inc(labels.New("event", "a"))
	inst.Inc(labels.New("event", "b"))

	wr := s.WriteRequest()
	assert.Equal(t, 2, len(wr.Timeseries))
}
