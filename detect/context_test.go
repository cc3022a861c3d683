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

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scratchData struct {
	hits int
}

func (d *scratchData) Reset() {
	d.hits = 0
}

func TestRegisterDataIDs(t *testing.T) {
	a := RegisterData()
	b := RegisterData()

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, MaxID(), 2)
}

func TestContextSlots(t *testing.T) {
	id := RegisterData()
	ctx := NewContext()

	require.Nil(t, ctx.GetData(id))

	d := &scratchData{hits: 3}
	ctx.SetData(id, d)
	assert.Same(t, d, ctx.GetData(id))

	// 越界下标返回 nil 而非 panic
	assert.Nil(t, ctx.GetData(-1))
	assert.Nil(t, ctx.GetData(MaxID()+10))
}

func TestContextClearResetsSlots(t *testing.T) {
	id := RegisterData()
	ctx := NewContext()

	d := &scratchData{hits: 3}
	ctx.SetData(id, d)
	ctx.Clear()

	assert.Zero(t, d.hits)
	assert.Nil(t, ctx.Packet)
}
