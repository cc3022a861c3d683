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

// Package json 统一程序内的 JSON 实现 便于整体替换
package json

import (
	"github.com/goccy/go-json"
)

var (
	Marshal       = json.Marshal
	Unmarshal     = json.Unmarshal
	MarshalIndent = json.MarshalIndent
	NewEncoder    = json.NewEncoder
	NewDecoder    = json.NewDecoder
)

// Encoder/Decoder 类型别名 方便调用方持有
type (
	Encoder = json.Encoder
	Decoder = json.Decoder
)
