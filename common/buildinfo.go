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
	"fmt"
	"runtime/debug"
)

// BuildInfo 代表程序构建信息
type BuildInfo struct {
	Version string
	GitHash string
	Time    string
}

func (bi BuildInfo) String() string {
	return fmt.Sprintf("%s (git: %s, built: %s)", bi.Version, bi.GitHash, bi.Time)
}

// 由 ldflags 注入 缺省时回退到模块的 vcs 信息
var (
	buildVersion string
	buildTime    string
	buildHash    string
)

func GetBuildInfo() BuildInfo {
	bi := BuildInfo{
		Version: buildVersion,
		GitHash: buildHash,
		Time:    buildTime,
	}
	if bi.Version == "" {
		bi.Version = Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if bi.GitHash == "" {
				bi.GitHash = setting.Value
			}
		case "vcs.time":
			if bi.Time == "" {
				bi.Time = setting.Value
			}
		}
	}
	return bi
}
