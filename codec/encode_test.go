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

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferBackFill(t *testing.T) {
	slab := make([]byte, 64)
	buf := NewBuffer(slab)

	assert.Equal(t, 0, buf.Len())

	inner, ok := buf.Prepend(8)
	require.True(t, ok)
	copy(inner, "payload!")

	outer, ok := buf.Prepend(4)
	require.True(t, ok)
	copy(outer, "hdr:")

	assert.Equal(t, 12, buf.Len())
	assert.Equal(t, []byte("hdr:payload!"), buf.Bytes())
}

func TestBufferPrependOverflow(t *testing.T) {
	buf := NewBuffer(make([]byte, 8))

	_, ok := buf.Prepend(6)
	require.True(t, ok)

	// 空间不足 已写入内容不受影响
	_, ok = buf.Prepend(3)
	assert.False(t, ok)
	assert.Equal(t, 6, buf.Len())

	_, ok = buf.Prepend(2)
	assert.True(t, ok)
	assert.Equal(t, 8, buf.Len())
}
