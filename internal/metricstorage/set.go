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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/prometheus/prompb"

	"github.com/sensord/sensord/internal/fasttime"
	"github.com/sensord/sensord/internal/labels"
)

type Model uint8

const (
	ModelCounter Model = iota
	ModelGauge
)

// ConstMetric 单条指标采样
type ConstMetric struct {
	Model  Model
	Name   string
	Labels labels.Labels
	Value  float64
}

func NewCounterConstMetric(name string, value float64, lbs labels.Labels) ConstMetric {
	return ConstMetric{
		Model:  ModelCounter,
		Name:   name,
		Labels: lbs,
		Value:  value,
	}
}

func NewGaugeConstMetric(name string, value float64, lbs labels.Labels) ConstMetric {
	return ConstMetric{
		Model:  ModelGauge,
		Name:   name,
		Labels: lbs,
		Value:  value,
	}
}

// Set 管理所有命名指标实例
type Set struct {
	mut      sync.RWMutex
	expired  time.Duration
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

func newSet(expired time.Duration) *Set {
	return &Set{
		expired:  expired,
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
}

func (s *Set) Reset() {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.counters = make(map[string]*Counter)
	s.gauges = make(map[string]*Gauge)
}

func (s *Set) GetOrCreateCounter(name string) *Counter {
	s.mut.RLock()
	inst, ok := s.counters[name]
	if ok {
		s.mut.RUnlock()
		return inst
	}
	s.mut.RUnlock()

	s.mut.Lock()
	defer s.mut.Unlock()

	if inst, ok = s.counters[name]; ok {
		return inst
	}
	s.counters[name] = NewCounter(name, s.expired)
	return s.counters[name]
}

func (s *Set) GetOrCreateGauge(name string) *Gauge {
	s.mut.RLock()
	inst, ok := s.gauges[name]
	if ok {
		s.mut.RUnlock()
		return inst
	}
	s.mut.RUnlock()

	s.mut.Lock()
	defer s.mut.Unlock()

	if inst, ok = s.gauges[name]; ok {
		return inst
	}
	s.gauges[name] = NewGauge(name, s.expired)
	return s.gauges[name]
}

func (s *Set) WritePrometheus(w io.Writer) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	for _, inst := range s.counters {
		inst.WritePrometheus(w)
	}
	for _, inst := range s.gauges {
		inst.WritePrometheus(w)
	}
}

func (s *Set) RemoveExpired() {
	s.mut.RLock()
	defer s.mut.RUnlock()

	for _, inst := range s.counters {
		inst.RemoveExpired()
	}
	for _, inst := range s.gauges {
		inst.RemoveExpired()
	}
}

func (s *Set) WriteRequest() *prompb.WriteRequest {
	s.mut.RLock()
	defer s.mut.RUnlock()

	var seriess []prompb.TimeSeries
	for _, inst := range s.counters {
		seriess = append(seriess, inst.PrompbSeriess()...)
	}
	for _, inst := range s.gauges {
		seriess = append(seriess, inst.PrompbSeriess()...)
	}
	return &prompb.WriteRequest{
		Timeseries: seriess,
	}
}

func WritePrometheus(w io.Writer, metrics ...ConstMetric) {
	for i := 0; i < len(metrics); i++ {
		metric := metrics[i]
		w.Write([]byte(metric.Name))
		w.Write([]byte(`{`))

		var n int
		for _, label := range metric.Labels {
			if n > 0 {
				w.Write([]byte(`,`))
			}
			n++
			w.Write([]byte(label.Name))
			w.Write([]byte(`="`))
			w.Write([]byte(label.Value))
			w.Write([]byte(`"`))
		}

		w.Write([]byte("} "))
		w.Write([]byte(fmt.Sprintf("%f", metric.Value)))
		w.Write([]byte("\n"))
	}
}

func ToPrompbTimeSeries(metrics ...ConstMetric) []prompb.TimeSeries {
	ts := fasttime.UnixTimestamp() * 1000
	seriess := make([]prompb.TimeSeries, 0, len(metrics))
	for _, metric := range metrics {
		lbs := make([]prompb.Label, 0, len(metric.Labels)+1)
		lbs = append(lbs, prompb.Label{
			Name:  "__name__",
			Value: metric.Name,
		})
		for _, label := range metric.Labels {
			lbs = append(lbs, prompb.Label{
				Name:  label.Name,
				Value: label.Value,
			})
		}
		seriess = append(seriess, prompb.TimeSeries{
			Labels: lbs,
			Samples: []prompb.Sample{{
				Value:     metric.Value,
				Timestamp: ts,
			}},
		})
	}
	return seriess
}
