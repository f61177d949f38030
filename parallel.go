// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Range is the half-open index range [Begin, End).
type Range struct {
	Begin, End int
}

func (r Range) Len() int { return r.End - r.Begin }

func (r Range) Empty() bool { return r.End <= r.Begin }

// Partition splits [0, n) into m contiguous ranges of ceil(n/m)
// items each. Trailing ranges may be short or empty. The ranges are in
// order and cover [0, n) exactly once.
func Partition(n, m int) []Range {
	contract(m > 0, "partition needs at least one range")
	contract(n >= 0, "partition of a negative count")
	chunk := (n + m - 1) / m
	rs := make([]Range, m)
	for t := range rs {
		rs[t] = Range{Begin: min(n, t*chunk), End: min(n, (t+1)*chunk)}
	}
	return rs
}

// WorkerCount returns n if positive, else max(2, runtime.NumCPU()).
func WorkerCount(n int) int {
	if n > 0 {
		return n
	}
	return max(2, runtime.NumCPU())
}

// Pass configures how a ParallelRecorder records objects.
type Pass struct {
	// Setup is called once on each secondary buffer before any object
	// is recorded into it (pipeline, descriptor sets, viewport).
	Setup func(cmd CommandBuffer)

	// Each, if set, is called for every object with geometry right
	// before its Bind (e.g. push constants).
	Each func(cmd CommandBuffer, obj Object)
}

type task struct {
	slot    int
	inh     Inheritance
	objects []Object
	rng     Range
	pass    *Pass
}

type result struct {
	worker int
	cmd    CommandBuffer
	err    error
}

// worker records one range of objects per frame into its own
// secondary buffer. It owns a command pool, as pools must not be used
// from several goroutines.
type worker struct {
	id    int
	cmds  CmdPool
	tasks chan task
	done  chan<- result
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for t := range w.tasks {
		w.done <- w.record(t)
	}
}

func (w *worker) record(t task) result {
	cmd, err := w.cmds.BeginCmd(t.slot, &t.inh)
	if err != nil {
		return result{worker: w.id, err: err}
	}
	if t.pass.Setup != nil {
		t.pass.Setup(cmd)
	}
	for _, obj := range t.objects[t.rng.Begin:t.rng.End] {
		geom := obj.Geometry()
		if geom == nil {
			continue
		}
		if t.pass.Each != nil {
			t.pass.Each(cmd, obj)
		}
		geom.Bind(cmd)
		geom.Draw(cmd)
	}
	if err := CmdEnd(cmd); err != nil {
		return result{worker: w.id, err: err}
	}
	return result{worker: w.id, cmd: cmd}
}

// ParallelRecorder fans the recording of draw calls out to a pool of
// workers. Each worker records a contiguous range of the objects into
// its own secondary buffer; the buffers are then executed into the
// primary buffer in range order, so the resulting command stream has
// the same order as the objects.
//
// The workers and their buffers live as long as the recorder. Record
// and RecordSerial must only be called from the frame loop goroutine,
// each at most once per frame slot between calls to BeginFrame.
type ParallelRecorder struct {
	workers []*worker
	done    chan result
	wg      sync.WaitGroup

	// single-threaded passes
	serial CmdPool

	// reused every frame
	collected []CommandBuffer
	secondary []CommandBuffer

	// set once a slot's buffers are executed by the frame in progress
	parallelUsed [MaxFramesInFlight]bool
	serialUsed   [MaxFramesInFlight]bool
}

// NewParallelRecorder starts n workers, each with its own command
// pool and one secondary buffer per frame slot.
func NewParallelRecorder(dev Device, n int) (*ParallelRecorder, error) {
	contract(n > 0, "need at least one worker")
	pr := &ParallelRecorder{
		done:      make(chan result, n),
		collected: make([]CommandBuffer, n),
		secondary: make([]CommandBuffer, 0, n),
	}
	if err := pr.serial.Init(dev, Secondary); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		w := &worker{id: i, tasks: make(chan task, 1), done: pr.done}
		if err := w.cmds.Init(dev, Secondary); err != nil {
			pr.Destroy()
			return nil, fmt.Errorf("worker %d: %w", i, err)
		}
		pr.workers = append(pr.workers, w)
		pr.wg.Add(1)
		go w.run(&pr.wg)
	}
	if Debug {
		slog.Debug(fmt.Sprintf("parallel recorder started with %d workers", n))
	}
	return pr, nil
}

// Workers returns the number of workers.
func (pr *ParallelRecorder) Workers() int { return len(pr.workers) }

// BeginFrame releases the buffers of frame slot for a new frame. The
// previous frame of the slot must have completed, which is the case
// once FrameScheduler.BeginFrame returned a buffer for it.
func (pr *ParallelRecorder) BeginFrame(slot int) {
	contract(slot >= 0 && slot < MaxFramesInFlight, "frame slot out of range")
	pr.parallelUsed[slot] = false
	pr.serialUsed[slot] = false
}

// Record records objects into secondary buffers of frame slot in
// parallel and executes them into primary with one call. Objects
// without geometry are skipped. Workers whose range is empty do not
// contribute a buffer.
// The objects slice and whatever the pass reads must not change until
// Record returns.
func (pr *ParallelRecorder) Record(primary CommandBuffer, slot int, inh Inheritance, objects []Object, pass Pass) error {
	contract(slot >= 0 && slot < MaxFramesInFlight, "frame slot out of range")
	contract(!pr.parallelUsed[slot], "can't call Record twice for a frame slot without BeginFrame")
	pr.parallelUsed[slot] = true

	ranges := Partition(len(objects), len(pr.workers))
	n := 0
	for t, rng := range ranges {
		if rng.Empty() {
			continue
		}
		pr.workers[t].tasks <- task{slot: slot, inh: inh, objects: objects, rng: rng, pass: &pass}
		n++
	}

	// join
	clear(pr.collected)
	var errs []error
	for i := 0; i < n; i++ {
		r := <-pr.done
		if r.err != nil {
			errs = append(errs, fmt.Errorf("worker %d: %w", r.worker, r.err))
			continue
		}
		pr.collected[r.worker] = r.cmd
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	pr.secondary = pr.secondary[:0]
	for _, cmd := range pr.collected {
		if cmd != nil {
			pr.secondary = append(pr.secondary, cmd)
		}
	}
	if len(pr.secondary) > 0 {
		primary.ExecuteCommands(pr.secondary)
	}
	return nil
}

// RecordSerial records fn into a dedicated secondary buffer of frame
// slot on the calling goroutine and executes it into primary. It is
// for passes whose order matters across all objects, such as sorted
// transparent geometry.
func (pr *ParallelRecorder) RecordSerial(primary CommandBuffer, slot int, inh Inheritance, fn func(cmd CommandBuffer)) error {
	contract(slot >= 0 && slot < MaxFramesInFlight, "frame slot out of range")
	contract(!pr.serialUsed[slot], "can't call RecordSerial twice for a frame slot without BeginFrame")
	pr.serialUsed[slot] = true

	cmd, err := pr.serial.BeginCmd(slot, &inh)
	if err != nil {
		return err
	}
	fn(cmd)
	if err := pr.serial.EndCmd(slot); err != nil {
		return err
	}
	primary.ExecuteCommands([]CommandBuffer{cmd})
	return nil
}

// Destroy stops the workers and destroys their pools. The device must
// be idle.
func (pr *ParallelRecorder) Destroy() {
	for _, w := range pr.workers {
		close(w.tasks)
	}
	pr.wg.Wait()
	for _, w := range pr.workers {
		w.cmds.Destroy()
	}
	pr.workers = nil
	pr.serial.Destroy()
}
