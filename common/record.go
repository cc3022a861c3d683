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

package common

import (
	"github.com/sensord/sensord/internal/metricstorage"
	"github.com/sensord/sensord/telemetry"
)

// RecordType 记录数据类型
type RecordType string

const (
	// RecordMetrics 指标类型数据
	RecordMetrics RecordType = "metrics"

	// RecordEvents 遥测事件类型数据
	RecordEvents RecordType = "events"
)

// Record 是各组件间流转的数据载体
//
// Data 的具体格式由 RecordType 决定 消费方需自行断言
type Record struct {
	RecordType RecordType
	Data       any
}

func NewRecord(rtype RecordType, data any) *Record {
	return &Record{
		RecordType: rtype,
		Data:       data,
	}
}

// MetricsData 指标数据集合
type MetricsData struct {
	Data []metricstorage.ConstMetric
}

// EventsData 遥测事件集合
type EventsData struct {
	Data []telemetry.Record
}
