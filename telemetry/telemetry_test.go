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

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sensord/sensord/common/socket"
)

type captureSink struct {
	records []Record
}

func (cs *captureSink) Emit(rec Record) {
	cs.records = append(cs.records, rec)
}

func TestSinksFanout(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}
	sinks := Sinks{a, b}

	sinks.Emit(NewRecord("tcp", "bad_rst", socket.TupleRaw{}))

	assert.Equal(t, 1, len(a.records))
	assert.Equal(t, 1, len(b.records))
	assert.Equal(t, "bad_rst", a.records[0].Name)
}

func TestNewRecordTimestamp(t *testing.T) {
	rec := NewRecord("decode", "too_many_layers", socket.TupleRaw{SrcIP: "10.0.0.1"})

	assert.Equal(t, "decode", rec.Scope)
	assert.NotZero(t, rec.Time)
	assert.Equal(t, "10.0.0.1", rec.Tuple.SrcIP)
}
