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
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
)

const defaultTimeout = 15 * time.Second

type Config struct {
	Metrics MetricsConfig `config:"metrics"`
	Events  EventsConfig  `config:"events"`
}

// Validate 校验整体配置 聚合每个子项的错误
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.Metrics.Enabled {
		if err := c.Metrics.Validate(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if c.Events.Enabled {
		c.Events.Validate()
	}
	return errs.ErrorOrNil()
}

// MetricsConfig 指标远端写配置
type MetricsConfig struct {
	Enabled  bool              `config:"enabled"`
	Endpoint string            `config:"endpoint"`
	Header   map[string]string `config:"header"`
	Interval time.Duration     `config:"interval"`
	Timeout  time.Duration     `config:"timeout"`
}

func (mc *MetricsConfig) Validate() error {
	_, err := url.Parse(mc.Endpoint)
	if err != nil {
		return err
	}

	if mc.Timeout <= 0 {
		mc.Timeout = defaultTimeout
	}
	if mc.Interval <= 0 {
		mc.Interval = time.Minute
	}
	return nil
}

// EventsConfig 遥测事件落盘配置
type EventsConfig struct {
	Enabled    bool   `config:"enabled"`
	Console    bool   `config:"console"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"`
	MaxBackups int    `config:"maxBackups"`
	MaxAge     int    `config:"maxAge"`
}

func (ec *EventsConfig) Validate() {
	if ec.Filename == "" {
		ec.Filename = "events.log"
	}
	if ec.MaxSize <= 0 {
		ec.MaxSize = 100
	}
	if ec.MaxAge <= 0 {
		ec.MaxAge = 7
	}
	if ec.MaxBackups <= 0 {
		ec.MaxBackups = 10
	}
}
