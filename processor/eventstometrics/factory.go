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

// Package eventstometrics 将遥测事件派生为计数指标
package eventstometrics

import (
	"strconv"

	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/internal/labels"
	"github.com/sensord/sensord/internal/mapstructure"
	"github.com/sensord/sensord/internal/metricstorage"
	"github.com/sensord/sensord/processor"
	"github.com/sensord/sensord/telemetry"
)

const Name = "eventstometrics"

func init() {
	processor.Register(Name, New)
}

type Config struct {
	// RequireLabels 需要附加到指标上的四元组维度
	RequireLabels []string `config:"requireLabels" mapstructure:"requireLabels"`
}

type Factory struct {
	cfg *Config
}

func New(conf map[string]any) (processor.Processor, error) {
	cfg := &Config{}
	if err := mapstructure.Decode(conf, cfg); err != nil {
		return nil, err
	}
	return &Factory{cfg: cfg}, nil
}

func (f *Factory) Name() string {
	return Name
}

func (f *Factory) Process(record *common.Record) (*common.Record, error) {
	data, ok := record.Data.(*common.EventsData)
	if !ok {
		return nil, nil
	}

	cms := make([]metricstorage.ConstMetric, 0, len(data.Data))
	for _, rec := range data.Data {
		cms = append(cms, f.convert(rec))
	}
	return &common.Record{
		RecordType: common.RecordMetrics,
		Data:       &common.MetricsData{Data: cms},
	}, nil
}

func (f *Factory) convert(rec telemetry.Record) metricstorage.ConstMetric {
	lbs := labels.New("scope", rec.Scope, "event", rec.Name)
	for _, label := range f.cfg.RequireLabels {
		switch label {
		case "source.host":
			lbs = lbs.With("src_host", rec.Tuple.SrcIP)
		case "source.port":
			lbs = lbs.With("src_port", strconv.Itoa(int(rec.Tuple.SrcPort)))
		case "destination.host":
			lbs = lbs.With("dst_host", rec.Tuple.DstIP)
		case "destination.port":
			lbs = lbs.With("dst_port", strconv.Itoa(int(rec.Tuple.DstPort)))
		}
	}
	return metricstorage.NewCounterConstMetric("events_derived_total", 1, lbs)
}

func (f *Factory) Clean() {}
