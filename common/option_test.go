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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsTypedGetters(t *testing.T) {
	opts := NewOptions()
	opts.Merge("mtu", 1500)
	opts.Merge("engine", "pcap")
	opts.Merge("timeout", "5s")

	v, err := opts.GetInt("mtu")
	require.NoError(t, err)
	assert.Equal(t, 1500, v)

	s, err := opts.GetString("engine")
	require.NoError(t, err)
	assert.Equal(t, "pcap", s)

	d, err := opts.GetDuration("timeout")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestOptionsIntOr(t *testing.T) {
	opts := Options{"blocks": 32, "bad": "not-a-number"}

	assert.Equal(t, 32, opts.IntOr("blocks", 16))
	assert.Equal(t, 16, opts.IntOr("bad", 16))
	assert.Equal(t, 16, opts.IntOr("missing", 16))
}
