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

package processor

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/confengine"
)

type Configs []Config

type Config struct {
	Name   string         `config:"name"`
	Config map[string]any `config:"config"`
}

// Processor 定义了数据处理接口的行为
//
// Processor 消费 *common.Record 并可能派生出新的 Record
// 如遥测事件派生计数指标
type Processor interface {
	// Name 返回处理器的名称
	Name() string

	// Process 处理 *common.Record 数据 并返回衍生数据（如果存在的话）
	Process(*common.Record) (*common.Record, error)

	// Clean 清理资源
	Clean()
}

type CreateFunc func(conf map[string]any) (Processor, error)

var processorFactory = map[string]CreateFunc{}

func Register(name string, f CreateFunc) {
	processorFactory[name] = f
}

func Get(name string) (CreateFunc, error) {
	f, ok := processorFactory[name]
	if !ok {
		return nil, errors.Errorf("processor factory (%s) not found", name)
	}
	return f, nil
}

// Manager 管理着 processor 集合 负责加载 检索与统一清理
type Manager struct {
	processors map[string]Processor
}

func NewManager(conf *confengine.Config) (*Manager, error) {
	var configs Configs
	if err := conf.UnpackChildOr("processor", &configs); err != nil {
		return nil, err
	}

	// 配置错误全部聚合一次性报出 避免反复改一处跑一次
	var errs *multierror.Error
	processors := make(map[string]Processor)
	for _, pcfg := range configs {
		f, err := Get(pcfg.Name)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		inst, err := f(pcfg.Config)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "create processor (%s)", pcfg.Name))
			continue
		}
		processors[pcfg.Name] = inst
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Manager{processors: processors}, nil
}

func (mgr *Manager) Get(name string) (Processor, bool) {
	p, ok := mgr.processors[name]
	return p, ok
}

// Clean 依次清理全部 processor
func (mgr *Manager) Clean() {
	for _, p := range mgr.processors {
		p.Clean()
	}
}
