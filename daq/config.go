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

package daq

// Config 捕获源配置
type Config struct {
	// Engine 捕获引擎名称 默认 pcap
	Engine string `config:"engine"`

	// Ifaces 网卡匹配正则 `any` 表示全部网卡
	Ifaces string `config:"ifaces"`

	// File 离线 pcap 文件路径 设置后不再监听网卡
	File string `config:"file"`

	// BPF 捕获过滤表达式
	BPF string `config:"bpf"`

	// IPv4Only 过滤只含 IPv6 地址的网卡
	IPv4Only bool `config:"ipv4Only"`
}
