package vkb

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// NewError returns nil for vk.Success and an error describing ret otherwise.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	msg := fmt.Sprintf("result %d", ret)
	if err := vk.Error(ret); err != nil {
		msg = err.Error()
	}
	err := fmt.Errorf("vulkan error: %s (%d)", msg, ret)
	if asch.Debug {
		slog.Debug(err.Error())
		debug.PrintStack()
	}
	return err
}

// resultError maps the result of a swapchain operation. Out of date and
// suboptimal surfaces are reported with the asch sentinels so the frame
// logic can tell them from fatal failures.
func resultError(ret vk.Result, op string) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return asch.ErrSuboptimal
	case vk.ErrorOutOfDate:
		return asch.ErrOutOfDate
	}
	return fmt.Errorf("%s failed with %s", op, NewError(ret))
}
