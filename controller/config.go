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

package controller

import (
	"time"
)

type Config struct {
	// DefaultCodec 0 号槽位的链路层默认 codec 名称
	DefaultCodec string `config:"defaultCodec"`

	// FlowExpired 未活跃流的过期时间
	FlowExpired time.Duration `config:"flowExpired"`

	// Workers 解码 worker 数量 默认取 CPU 核数的两倍
	Workers int `config:"workers"`
}

func (c Config) GetFlowExpired() time.Duration {
	if c.FlowExpired < time.Minute {
		return 5 * time.Minute
	}
	return c.FlowExpired
}
