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

package socket

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTupleMirror(t *testing.T) {
	tuple := Tuple{
		SrcIP:   ToIPV4(net.IPv4(192, 168, 1, 1).To4()),
		DstIP:   ToIPV4(net.IPv4(192, 168, 1, 2).To4()),
		SrcPort: 12345,
		DstPort: 443,
	}

	m := tuple.Mirror()
	assert.Equal(t, tuple.SrcIP, m.DstIP)
	assert.Equal(t, tuple.SrcPort, m.DstPort)
	assert.Equal(t, tuple, m.Mirror())
}

func TestTupleNormalizeSymmetric(t *testing.T) {
	tuple := Tuple{
		SrcIP:   ToIPV4(net.IPv4(10, 0, 0, 9).To4()),
		DstIP:   ToIPV4(net.IPv4(10, 0, 0, 1).To4()),
		SrcPort: 50000,
		DstPort: 22,
	}

	// 两个方向归一化结果一致
	assert.Equal(t, tuple.Normalize(), tuple.Mirror().Normalize())
}

func TestIPVRoundTrip(t *testing.T) {
	v4 := net.IPv4(172, 16, 0, 1).To4()
	assert.Equal(t, "172.16.0.1", ToIPV4(v4).String())

	v6 := net.ParseIP("2001:db8::68")
	assert.Equal(t, "2001:db8::68", ToIPV6(v6).String())
}
