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

package exporter

import (
	"context"
	"time"

	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/confengine"
	"github.com/sensord/sensord/internal/metricstorage"
	"github.com/sensord/sensord/logger"
	"github.com/sensord/sensord/telemetry"
)

// Exporter 负责把指标与遥测事件送出进程
//
// 指标周期性地以 remote-write 形式发送 事件逐条写入 sinker
type Exporter struct {
	ctx    context.Context
	cancel context.CancelFunc
	conf   Config

	metricsStorage *metricstorage.Storage

	metricsSinker Sinker
	eventsSinker  Sinker
}

func New(conf *confengine.Config, metricsStorage *metricstorage.Storage) (*Exporter, error) {
	var cfg Config
	if err := conf.UnpackChildOr("exporter", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var metricsSinker Sinker
	if cfg.Metrics.Enabled {
		f, err := Get(common.RecordMetrics)
		if err != nil {
			return nil, err
		}
		if metricsSinker, err = f(cfg); err != nil {
			return nil, err
		}
	}

	var eventsSinker Sinker
	if cfg.Events.Enabled {
		f, err := Get(common.RecordEvents)
		if err != nil {
			return nil, err
		}
		if eventsSinker, err = f(cfg); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Exporter{
		ctx:            ctx,
		cancel:         cancel,
		conf:           cfg,
		metricsStorage: metricsStorage,
		metricsSinker:  metricsSinker,
		eventsSinker:   eventsSinker,
	}, nil
}

func (e *Exporter) Start() {
	if e.conf.Metrics.Enabled && e.metricsStorage != nil {
		go e.loopExportMetrics()
	}
}

func (e *Exporter) Close() {
	e.cancel()

	if e.conf.Metrics.Enabled {
		e.metricsSinker.Close()
	}
	if e.conf.Events.Enabled {
		e.eventsSinker.Close()
	}

	if e.metricsStorage != nil {
		e.metricsStorage.Close()
	}
}

// Export 分发一条 Record
func (e *Exporter) Export(record *common.Record) {
	switch record.RecordType {
	case common.RecordMetrics:
		if e.metricsStorage == nil {
			return
		}

		data, ok := record.Data.(*common.MetricsData)
		if !ok {
			return
		}
		e.metricsStorage.Update(data.Data...)

	case common.RecordEvents:
		if !e.conf.Events.Enabled {
			return
		}

		data, ok := record.Data.(*common.EventsData)
		if !ok {
			return
		}
		for _, rec := range data.Data {
			e.sinkEvent(rec)
		}
	}
}

func (e *Exporter) sinkEvent(rec telemetry.Record) {
	if err := e.eventsSinker.Sink(rec); err != nil {
		logger.Errorf("sink event failed: %v", err)
	}
}

func (e *Exporter) loopExportMetrics() {
	ticker := time.NewTicker(e.conf.Metrics.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return

		case <-ticker.C:
			if err := e.metricsSinker.Sink(e.metricsStorage.WriteRequest()); err != nil {
				logger.Errorf("sink metrics failed: %v", err)
			}
		}
	}
}
