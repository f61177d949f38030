// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	for _, m := range []int{1, 2, 4, 7} {
		for _, n := range []int{0, 1, m - 1, m, m + 1, 10000} {
			t.Run(fmt.Sprintf("n=%d,m=%d", n, m), func(t *testing.T) {
				rs := Partition(n, m)
				require.Len(t, rs, m)
				chunk := (n + m - 1) / m
				next := 0
				for _, r := range rs {
					assert.Equal(t, next, r.Begin, "ranges are contiguous")
					assert.LessOrEqual(t, r.Len(), chunk)
					assert.GreaterOrEqual(t, r.Len(), 0)
					next = r.End
				}
				assert.Equal(t, n, next, "ranges cover every index")
			})
		}
	}
}

func TestPartitionShortTail(t *testing.T) {
	assert.Equal(t, []Range{{0, 2}, {2, 4}, {4, 5}, {5, 5}}, Partition(5, 4))
	assert.True(t, Partition(5, 4)[3].Empty())
	assert.Equal(t, []Range{{0, 0}, {0, 0}}, Partition(0, 2))
}

func TestPartitionContract(t *testing.T) {
	assert.True(t, panicsWithContract(func() { Partition(3, 0) }))
	assert.True(t, panicsWithContract(func() { Partition(-1, 2) }))
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 3, WorkerCount(3))
	assert.GreaterOrEqual(t, WorkerCount(0), 2)
}

func newObjects(counts ...int) []Object {
	objs := make([]Object, len(counts))
	for i, c := range counts {
		objs[i] = &fakeObject{vertexCount: c}
	}
	return objs
}

// draws concatenates the draw calls of the buffers in order.
func draws(cmds []CommandBuffer) []string {
	var out []string
	for _, cb := range cmds {
		for _, c := range cb.(*fakeCmd).calls {
			if len(c) > 5 && c[:5] == "draw:" {
				out = append(out, c)
			}
		}
	}
	return out
}

func TestRecordJoinsInOrder(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 4)
	require.NoError(t, err)
	defer pr.Destroy()
	assert.Equal(t, 4, pr.Workers())

	primary := &fakeCmd{}
	inh := Inheritance{Pass: &fakeHandle{name: "pass"}, Framebuffer: &fakeHandle{name: "fb1"}}
	pass := Pass{
		Setup: func(cmd CommandBuffer) { cmd.BindPipeline(nil) },
		Each:  func(cmd CommandBuffer, obj Object) { cmd.PushConstants(nil, nil) },
	}

	require.NoError(t, pr.Record(primary, 0, inh, newObjects(1, 2, 3, 4, 5), pass))

	require.Equal(t, []string{"execute:3"}, primary.calls, "one execute for every non-empty range")
	secondary := primary.executed[0]
	assert.Equal(t, []string{"draw:1", "draw:2", "draw:3", "draw:4", "draw:5"}, draws(secondary))
	for _, cb := range secondary {
		cmd := cb.(*fakeCmd)
		assert.Equal(t, Secondary, cmd.level)
		assert.False(t, cmd.recording)
		require.NotNil(t, cmd.inh)
		assert.Equal(t, inh, *cmd.inh)
		assert.Equal(t, "pipeline", cmd.calls[0])
	}
	assert.Equal(t, []string{"pipeline", "push", "vertex", "draw:1", "push", "vertex", "draw:2"},
		secondary[0].(*fakeCmd).calls)
	assert.Equal(t, []string{"pipeline", "push", "vertex", "draw:5"}, secondary[2].(*fakeCmd).calls)
}

func TestRecordSkipsObjectsWithoutGeometry(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 2)
	require.NoError(t, err)
	defer pr.Destroy()

	primary := &fakeCmd{}
	require.NoError(t, pr.Record(primary, 1, Inheritance{}, newObjects(1, 0, 3, 0), Pass{}))

	require.Len(t, primary.executed, 1)
	secondary := primary.executed[0]
	assert.Len(t, secondary, 2)
	assert.Equal(t, []string{"draw:1", "draw:3"}, draws(secondary))
	assert.Equal(t, []string{"vertex", "draw:3"}, secondary[1].(*fakeCmd).calls)
}

func TestRecordNothing(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 3)
	require.NoError(t, err)
	defer pr.Destroy()

	primary := &fakeCmd{}
	require.NoError(t, pr.Record(primary, 0, Inheritance{}, nil, Pass{}))
	assert.Empty(t, primary.calls)
}

func TestRecordReusesBuffers(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 2)
	require.NoError(t, err)
	defer pr.Destroy()

	objs := newObjects(1, 2, 3)
	var frames [][]CommandBuffer
	for _, slot := range []int{0, 1, 0} {
		pr.BeginFrame(slot)
		primary := &fakeCmd{}
		require.NoError(t, pr.Record(primary, slot, Inheritance{}, objs, Pass{}))
		require.Len(t, primary.executed, 1)
		frames = append(frames, primary.executed[0])
	}

	for i := range frames[0] {
		assert.Same(t, frames[0][i], frames[2][i], "slot buffers are reused")
		assert.NotSame(t, frames[0][i], frames[1][i], "slots don't share buffers")
	}
	assert.Equal(t, 2, frames[2][0].(*fakeCmd).resets)
}

func TestRecordManyObjects(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 7)
	require.NoError(t, err)
	defer pr.Destroy()

	counts := make([]int, 10000)
	want := make([]string, len(counts))
	for i := range counts {
		counts[i] = i + 1
		want[i] = fmt.Sprintf("draw:%d", i+1)
	}
	primary := &fakeCmd{}
	require.NoError(t, pr.Record(primary, 0, Inheritance{}, newObjects(counts...), Pass{}))

	require.Len(t, primary.executed, 1)
	assert.Len(t, primary.executed[0], 7)
	assert.Equal(t, want, draws(primary.executed[0]))
}

func TestRecordSerial(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 2)
	require.NoError(t, err)
	defer pr.Destroy()

	primary := &fakeCmd{}
	inh := Inheritance{Subpass: 0}
	err = pr.RecordSerial(primary, 1, inh, func(cmd CommandBuffer) {
		cmd.Draw(6, 1)
		cmd.Draw(6, 1)
	})
	require.NoError(t, err)

	require.Equal(t, []string{"execute:1"}, primary.calls)
	cmd := primary.executed[0][0].(*fakeCmd)
	assert.Equal(t, Secondary, cmd.level)
	assert.Equal(t, []string{"draw:6", "draw:6"}, cmd.calls)
	assert.Same(t, pr.serial.Buffs[1], CommandBuffer(cmd))
}

func TestRecordSlotContract(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 2)
	require.NoError(t, err)
	defer pr.Destroy()

	assert.True(t, panicsWithContract(func() {
		_ = pr.Record(&fakeCmd{}, MaxFramesInFlight, Inheritance{}, nil, Pass{})
	}))
	assert.True(t, panicsWithContract(func() {
		_ = pr.RecordSerial(&fakeCmd{}, -1, Inheritance{}, func(CommandBuffer) {})
	}))
}

func TestRecordOncePerFrame(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 2)
	require.NoError(t, err)
	defer pr.Destroy()

	primary := &fakeCmd{}
	require.NoError(t, pr.Record(primary, 0, Inheritance{}, newObjects(1, 2), Pass{}))
	require.NoError(t, pr.RecordSerial(primary, 0, Inheritance{}, func(cmd CommandBuffer) { cmd.Draw(6, 1) }))
	first := primary.executed[0]

	assert.True(t, panicsWithContract(func() {
		_ = pr.Record(primary, 0, Inheritance{}, newObjects(7), Pass{})
	}), "a second pass would overwrite buffers the primary executes")
	assert.True(t, panicsWithContract(func() {
		_ = pr.RecordSerial(primary, 0, Inheritance{}, func(CommandBuffer) {})
	}))
	assert.Equal(t, []string{"draw:1", "draw:2"}, draws(first), "first pass left intact")
	assert.Equal(t, []string{"execute:2", "execute:1"}, primary.calls)

	// the other slot is independent
	require.NoError(t, pr.Record(&fakeCmd{}, 1, Inheritance{}, newObjects(3), Pass{}))

	pr.BeginFrame(0)
	next := &fakeCmd{}
	require.NoError(t, pr.Record(next, 0, Inheritance{}, newObjects(7), Pass{}))
	require.NoError(t, pr.RecordSerial(next, 0, Inheritance{}, func(CommandBuffer) {}))
	assert.Equal(t, []string{"draw:7"}, draws(next.executed[0]))
}

func TestParallelRecorderDestroy(t *testing.T) {
	dev := newFakeDevice()
	pr, err := NewParallelRecorder(dev, 3)
	require.NoError(t, err)

	pr.Destroy()
	require.Len(t, dev.pools, 4)
	for _, p := range dev.pools {
		assert.True(t, p.destroyed)
	}
	assert.Equal(t, 0, pr.Workers())
}
