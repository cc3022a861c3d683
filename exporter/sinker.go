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
	"github.com/pkg/errors"

	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/logger"
)

// Sinker 负责将数据 `写入` 到指定存储中
type Sinker interface {
	// Name Sinker 名称 实际为 record 类型
	Name() common.RecordType

	// Sink 写入函数
	Sink(data any) error

	// Close 关闭并进行资源清理
	Close()
}

type CreateFunc func(Config) (Sinker, error)

var sinkFactory = map[common.RecordType]CreateFunc{}

// Register 注册 Sinker 工厂 重复注册后者生效并告警
func Register(name common.RecordType, createFunc CreateFunc) {
	if _, ok := sinkFactory[name]; ok {
		logger.Warnf("sinker (%s) registered twice, the newer wins", name)
	}
	sinkFactory[name] = createFunc
}

// Get 获取 Sinker 工厂 未注册时返回错误
func Get(name common.RecordType) (CreateFunc, error) {
	f, ok := sinkFactory[name]
	if !ok {
		return nil, errors.Errorf("sinker factory (%s) not found", name)
	}
	return f, nil
}
