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

package confengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type daqConfig struct {
	Engine string        `config:"engine"`
	Wait   time.Duration `config:"wait"`
}

func TestUnpackChild(t *testing.T) {
	conf, err := LoadContent([]byte(`
daq:
  engine: pcap
  wait: 3s
`))
	require.NoError(t, err)

	var cfg daqConfig
	require.NoError(t, conf.UnpackChild("daq", &cfg))
	assert.Equal(t, "pcap", cfg.Engine)
	assert.Equal(t, 3*time.Second, cfg.Wait)

	// 缺失段落为错误
	assert.Error(t, conf.UnpackChild("stream", &cfg))
}

func TestUnpackChildOrMissing(t *testing.T) {
	conf, err := LoadContent([]byte(`logger: {stdout: true}`))
	require.NoError(t, err)

	assert.False(t, conf.Has("daq"))

	// 可选段落缺失时保持零值
	var cfg daqConfig
	require.NoError(t, conf.UnpackChildOr("daq", &cfg))
	assert.Empty(t, cfg.Engine)
}

func TestResolveEnv(t *testing.T) {
	t.Setenv("SENSORD_TEST_ENGINE", "afpacket")

	conf, err := LoadContent([]byte(`
daq:
  engine: ${SENSORD_TEST_ENGINE}
`))
	require.NoError(t, err)

	var cfg daqConfig
	require.NoError(t, conf.UnpackChild("daq", &cfg))
	assert.Equal(t, "afpacket", cfg.Engine)
}
