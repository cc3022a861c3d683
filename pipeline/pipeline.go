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

package pipeline

import (
	"github.com/pkg/errors"

	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/confengine"
	"github.com/sensord/sensord/processor"
)

type Config struct {
	Name string `config:"name"`

	// Records 本条 pipeline 消费的 Record 类型 为空表示全部
	Records []string `config:"records"`

	Processors []string `config:"processors"`
}

// matches 返回 record 类型是否归本条 pipeline 处理
func (c Config) matches(rtype common.RecordType) bool {
	if len(c.Records) == 0 {
		return true
	}
	for _, r := range c.Records {
		if common.RecordType(r) == rtype {
			return true
		}
	}
	return false
}

type Configs []Config

// Pipeline 将 Record 依序交给各自声明的 processor 链
type Pipeline struct {
	configs Configs
	psmgr   *processor.Manager
}

func New(conf *confengine.Config) (*Pipeline, error) {
	var configs Configs
	if err := conf.UnpackChildOr("pipeline", &configs); err != nil {
		return nil, err
	}

	psmgr, err := processor.NewManager(conf)
	if err != nil {
		return nil, err
	}

	// 引用不存在的 processor 属配置错误 启动即失败
	for _, cfg := range configs {
		for _, name := range cfg.Processors {
			if _, ok := psmgr.Get(name); !ok {
				return nil, errors.Errorf("pipeline (%s) references unknown processor (%s)", cfg.Name, name)
			}
		}
	}

	return &Pipeline{
		configs: configs,
		psmgr:   psmgr,
	}, nil
}

// Range 处理一条 Record 派生数据经 f 回调交还调用方
func (p *Pipeline) Range(src *common.Record, f func(dst *common.Record)) {
	for i := 0; i < len(p.configs); i++ {
		if !p.configs[i].matches(src.RecordType) {
			continue
		}
		for _, name := range p.configs[i].Processors {
			ps, ok := p.psmgr.Get(name)
			if !ok {
				continue
			}
			r, err := ps.Process(src)
			if err != nil {
				continue
			}
			if r != nil {
				f(r)
			}
		}
	}
}

// Clean 清理全部 processor
func (p *Pipeline) Clean() {
	p.psmgr.Clean()
}
