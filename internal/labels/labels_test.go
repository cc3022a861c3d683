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

package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPairs(t *testing.T) {
	lbs := New("scope", "tcp", "event", "bad_rst")
	assert.Equal(t, Labels{
		{Name: "scope", Value: "tcp"},
		{Name: "event", Value: "bad_rst"},
	}, lbs)

	// 落单的尾项被忽略
	assert.Equal(t, Labels{{Name: "a", Value: "1"}}, New("a", "1", "orphan"))
}

func TestHashDistinguishes(t *testing.T) {
	a := New("scope", "tcp")
	b := New("scope", "decode")
	c := New("scope", "tcp")

	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Hash(), c.Hash())

	// 名与值的边界不产生歧义
	assert.NotEqual(t, New("ab", "c").Hash(), New("a", "bc").Hash())
}

func TestSortStable(t *testing.T) {
	lbs := New("z", "1", "a", "2").Sort()
	assert.Equal(t, "a", lbs[0].Name)
	assert.Equal(t, lbs.Hash(), New("a", "2", "z", "1").Hash())
}
