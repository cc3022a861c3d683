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

// Package telemetry 汇聚 decode/stream 子系统产生的协议异常事件
//
// 事件只描述 `发生了什么` 不携带处置语义 处置由各子系统自行决定
package telemetry

import (
	"github.com/sensord/sensord/common/socket"
	"github.com/sensord/sensord/internal/fasttime"
	"github.com/sensord/sensord/internal/labels"
	"github.com/sensord/sensord/internal/metricstorage"
	"github.com/sensord/sensord/internal/pubsub"
	"github.com/sensord/sensord/logger"
)

// Record 单条遥测事件
type Record struct {
	// Scope 事件所属子系统 如 decode/tcp
	Scope string

	// Name 事件名称 在 Scope 内唯一
	Name string

	// Tuple 事件关联的链接四元组 可能为零值
	Tuple socket.TupleRaw

	// Time 事件产生时间戳（秒）
	Time int64
}

// Sink 事件接收端
//
// Emit 在数据包处理热路径上被调用 实现方不允许阻塞
type Sink interface {
	Emit(rec Record)
}

// NewRecord 构造事件 时间戳由 fasttime 提供
func NewRecord(scope, name string, tuple socket.TupleRaw) Record {
	return Record{
		Scope: scope,
		Name:  name,
		Tuple: tuple,
		Time:  fasttime.UnixTimestamp(),
	}
}

// Sinks 将多个 Sink 聚合成一个
type Sinks []Sink

func (ss Sinks) Emit(rec Record) {
	for _, s := range ss {
		s.Emit(rec)
	}
}

// MetricsSink 将事件转换为计数指标写入 metricstorage
type MetricsSink struct {
	storage *metricstorage.Storage
}

func NewMetricsSink(storage *metricstorage.Storage) *MetricsSink {
	return &MetricsSink{storage: storage}
}

func (ms *MetricsSink) Emit(rec Record) {
	if ms.storage == nil {
		return
	}
	ms.storage.Update(metricstorage.NewCounterConstMetric(
		"telemetry_events_total",
		1,
		labels.New("scope", rec.Scope, "event", rec.Name),
	))
}

// PublishSink 将事件发布至 pubsub 供 watch 类订阅端消费
//
// 无任何订阅者时 Publish 为空操作 不产生额外开销
type PublishSink struct {
	ps *pubsub.PubSub[Record]
}

func NewPublishSink(ps *pubsub.PubSub[Record]) *PublishSink {
	return &PublishSink{ps: ps}
}

func (s *PublishSink) Emit(rec Record) {
	if s.ps.Num() == 0 {
		return
	}
	s.ps.Publish(rec)
}

// LogSink 以 Debug 级别记录事件 用于排障
type LogSink struct{}

func (LogSink) Emit(rec Record) {
	logger.Debugf("telemetry event scope=%s name=%s tuple=%s", rec.Scope, rec.Name, rec.Tuple)
}
