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

// Package confengine 是对 ucfg.Config 的封装
//
// 传感器的配置分散在多个可选段落中 daq/decode/stream/exporter/...
// 这里统一提供 `段落存在才解析` 的语义 并支持 ${ENV} 形式的变量引用
// 方便同一份 yaml 在不同部署环境间复用
package confengine

import (
	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"
)

// ucfgOpts 所有载入路径共用的解析选项
//
// ResolveEnv 允许配置值引用环境变量 如 address: ${SENSORD_ADDR}
var ucfgOpts = []ucfg.Option{
	ucfg.PathSep("."),
	ucfg.ResolveEnv,
	ucfg.VarExp,
}

type Config struct {
	conf *ucfg.Config
}

func New(conf *ucfg.Config) *Config {
	return &Config{conf: conf}
}

// Has 返回配置段落是否存在
func (c *Config) Has(s string) bool {
	ok, err := c.conf.Has(s, -1, ucfgOpts...)
	if err != nil {
		return false
	}
	return ok
}

// Unpack 解析整棵配置树到结构体
func (c *Config) Unpack(to any) error {
	return c.conf.Unpack(to, ucfgOpts...)
}

// UnpackChild 解析指定段落 段落缺失视为错误
func (c *Config) UnpackChild(s string, to any) error {
	content, err := c.conf.Child(s, -1, ucfgOpts...)
	if err != nil {
		return err
	}
	return content.Unpack(to, ucfgOpts...)
}

// UnpackChildOr 解析指定段落 段落缺失时不报错 to 保持零值
// 传感器的大部分段落都是可选的 缺失即采用各组件默认值
func (c *Config) UnpackChildOr(s string, to any) error {
	if !c.Has(s) {
		return nil
	}
	return c.UnpackChild(s, to)
}

// LoadConfigPath 从 yaml 文件载入配置
func LoadConfigPath(path string) (*Config, error) {
	config, err := yaml.NewConfigWithFile(path, ucfgOpts...)
	if err != nil {
		return nil, err
	}

	return New(config), nil
}

// LoadContent 从 yaml 字节载入配置
func LoadContent(b []byte) (*Config, error) {
	config, err := yaml.NewConfig(b, ucfgOpts...)
	if err != nil {
		return nil, err
	}
	return New(config), nil
}
