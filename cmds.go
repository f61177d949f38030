// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package asch

import "fmt"

// CmdPool is a command pool and one buffer per frame slot.
// The buffers are allocated once and reset, never reallocated, as the
// slots are reused.
type CmdPool struct {
	Pool  CommandPool
	Buffs [MaxFramesInFlight]CommandBuffer
}

// Init creates the pool and allocates the buffers at the given level.
func (cp *CmdPool) Init(dev Device, level CmdLevel) error {
	pool, err := dev.NewCommandPool()
	if err != nil {
		return fmt.Errorf("create command pool failed with %w", err)
	}
	buffs, err := pool.Allocate(level, MaxFramesInFlight)
	if err != nil {
		pool.Destroy()
		return fmt.Errorf("allocate command buffers failed with %w", err)
	}
	cp.Pool = pool
	copy(cp.Buffs[:], buffs)
	return nil
}

// BeginCmd resets the buffer of slot and begins recording into it.
func (cp *CmdPool) BeginCmd(slot int, inh *Inheritance) (CommandBuffer, error) {
	cmd := cp.Buffs[slot]
	if err := cmd.Reset(); err != nil {
		return nil, fmt.Errorf("reset command buffer failed with %w", err)
	}
	if err := cmd.Begin(inh); err != nil {
		return nil, fmt.Errorf("begin command buffer failed with %w", err)
	}
	return cmd, nil
}

// EndCmd ends recording into the buffer of slot.
func (cp *CmdPool) EndCmd(slot int) error {
	return CmdEnd(cp.Buffs[slot])
}

// CmdEnd ends recording into cmd.
func CmdEnd(cmd CommandBuffer) error {
	if err := cmd.End(); err != nil {
		return fmt.Errorf("end command buffer failed with %w", err)
	}
	return nil
}

// Destroy destroys the pool, which frees its buffers.
func (cp *CmdPool) Destroy() {
	if cp.Pool == nil {
		return
	}
	cp.Pool.Destroy()
	cp.Pool = nil
	cp.Buffs = [MaxFramesInFlight]CommandBuffer{}
}
