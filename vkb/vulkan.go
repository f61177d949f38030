package vkb

import (
	"fmt"
	"log/slog"
	"slices"
	"unsafe"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// SurfaceFunc creates the presentation surface of a window for instance.
// Window systems differ in how they do that.
type SurfaceFunc func(instance vk.Instance) (vk.Surface, error)

// Device is the Vulkan implementation of asch.Device. It holds the
// instance, the window surface, the chosen GPU and the logical device
// with its single graphics and present queue.
type Device struct {
	Device     vk.Device
	Instance   vk.Instance
	Surface    vk.Surface
	GpuDevice  vk.PhysicalDevice
	Queue      vk.Queue
	QueueIndex uint32
	dbg        vk.DebugReportCallback

	memoryProperties vk.PhysicalDeviceMemoryProperties
	depthFormat      vk.Format
}

var _ asch.Device = (*Device)(nil)

const (
	validationLayer    = "VK_LAYER_KHRONOS_validation"
	debugReportExt     = "VK_EXT_debug_report"
	swapchainExtension = "VK_KHR_swapchain"
)

func getDeviceExtensions(gpu vk.PhysicalDevice) (extNames []string) {
	var deviceExtLen uint32
	if vk.EnumerateDeviceExtensionProperties(gpu, "", &deviceExtLen, nil) != vk.Success {
		return nil
	}
	deviceExt := make([]vk.ExtensionProperties, deviceExtLen)
	if vk.EnumerateDeviceExtensionProperties(gpu, "", &deviceExtLen, deviceExt) != vk.Success {
		return nil
	}
	for _, ext := range deviceExt {
		ext.Deref()
		extNames = append(extNames, GetCString(ext.ExtensionName[:]))
	}
	return extNames
}

func getInstanceExtensions() (extNames []string) {
	var instanceExtLen uint32
	if vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, nil) != vk.Success {
		return nil
	}
	instanceExt := make([]vk.ExtensionProperties, instanceExtLen)
	if vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, instanceExt) != vk.Success {
		return nil
	}
	for _, ext := range instanceExt {
		ext.Deref()
		extNames = append(extNames, GetCString(ext.ExtensionName[:]))
	}
	return extNames
}

func getPhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var gpuCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, nil))
	if err != nil {
		err = fmt.Errorf("vk.EnumeratePhysicalDevices failed with %s", err)
		return nil, err
	}
	if gpuCount == 0 {
		err = fmt.Errorf("getPhysicalDevice: no GPUs found on the system")
		return nil, err
	}
	gpuList := make([]vk.PhysicalDevice, gpuCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, gpuList))
	if err != nil {
		err = fmt.Errorf("vk.EnumeratePhysicalDevices failed with %s", err)
		return nil, err
	}
	return gpuList, nil
}

// findQueueFamily returns the first queue family of gpu that supports
// graphics and can present to surface.
func findQueueFamily(gpu vk.PhysicalDevice, surface vk.Surface) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	for i := uint32(0); i < count; i++ {
		props[i].Deref()
		if props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var present vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, surface, &present)
		if present == vk.True {
			return i, true
		}
	}
	return 0, false
}

// gpuScore rates how suitable gpu is; zero means it can't be used.
func gpuScore(gpu vk.PhysicalDevice, surface vk.Surface) (score uint32, queueIndex uint32) {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	name := GetCString(props.DeviceName[:])
	defer props.Free()

	queueIndex, ok := findQueueFamily(gpu, surface)
	if !ok || !slices.Contains(getDeviceExtensions(gpu), swapchainExtension) {
		slog.Debug(fmt.Sprintf("GPU %s can't present to the surface", name))
		return 0, 0
	}
	score = 1
	if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		score += 1000
	}
	slog.Debug(fmt.Sprintf("listed GPU: %s (score %d)", name, score))
	return score, queueIndex
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		slog.Error(fmt.Sprintf("[%d] %s on layer %s", messageCode, pMessage, pLayerPrefix))
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		slog.Warn(fmt.Sprintf("[%d] %s on layer %s", messageCode, pMessage, pLayerPrefix))
	default:
		slog.Warn(fmt.Sprintf("unknown debug message %d (layer %s)", messageCode, pLayerPrefix))
	}
	return vk.Bool32(vk.False)
}

// NewDevice creates the instance, the window surface and a logical
// device on the most suitable GPU. instanceExtensions are the ones the
// window system requires. With validation the Khronos validation layer
// is enabled.
func NewDevice(appName string, instanceExtensions []string, createSurface SurfaceFunc, validation bool) (*Device, error) {
	var appInfo = &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PApplicationName:   MakeCString(appName),
		PEngineName:        MakeCString("ashframe"),
	}

	// Phase 1: vk.CreateInstance with vk.InstanceCreateInfo

	existingExtensions := getInstanceExtensions()
	slog.Debug(fmt.Sprintf("Instance extensions: %v", existingExtensions))

	extensions := make([]string, 0, len(instanceExtensions)+1)
	for _, ext := range instanceExtensions {
		extensions = append(extensions, MakeCString(ext))
	}
	debugReport := asch.Debug && slices.Contains(existingExtensions, debugReportExt)
	if debugReport {
		extensions = append(extensions, MakeCString(debugReportExt))
	}
	var instanceLayers []string
	if validation {
		instanceLayers = append(instanceLayers, MakeCString(validationLayer))
	}

	instanceCreateInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(instanceLayers)),
		PpEnabledLayerNames:     instanceLayers,
	}
	d := &Device{}
	err := vk.Error(vk.CreateInstance(&instanceCreateInfo, nil, &d.Instance))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateInstance failed with %s", err)
	}
	vk.InitInstance(d.Instance) // used by MoltenVK

	// Phase 2: window surface and GPU

	d.Surface, err = createSurface(d.Instance)
	if err != nil {
		vk.DestroyInstance(d.Instance, nil)
		return nil, fmt.Errorf("create surface failed with %s", err)
	}
	if err := d.pickGPU(); err != nil {
		d.Destroy()
		return nil, err
	}

	// Phase 3: vk.CreateDevice with vk.DeviceCreateInfo (a logical device)

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.QueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	deviceExtensions := []string{
		MakeCString(swapchainExtension),
	}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		EnabledLayerCount:       uint32(len(instanceLayers)),
		PpEnabledLayerNames:     instanceLayers,
	}
	var device vk.Device
	err = vk.Error(vk.CreateDevice(d.GpuDevice, &deviceCreateInfo, nil, &device))
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("vk.CreateDevice failed with %s", err)
	}
	d.Device = device
	var queue vk.Queue
	vk.GetDeviceQueue(device, d.QueueIndex, 0, &queue)
	d.Queue = queue

	vk.GetPhysicalDeviceMemoryProperties(d.GpuDevice, &d.memoryProperties)
	d.memoryProperties.Deref()

	if debugReport {
		// Phase 4: vk.CreateDebugReportCallback

		dbgCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		err = vk.Error(vk.CreateDebugReportCallback(d.Instance, &dbgCreateInfo, nil, &dbg))
		if err != nil {
			slog.Warn(fmt.Sprintf("vk.CreateDebugReportCallback failed with %s", err))
			return d, nil
		}
		d.dbg = dbg
	}
	return d, nil
}

func (d *Device) pickGPU() error {
	gpuDevices, err := getPhysicalDevices(d.Instance)
	if err != nil {
		return err
	}
	slog.Debug(fmt.Sprintf("Found %d GPUs", len(gpuDevices)))

	var best uint32
	for _, gpu := range gpuDevices {
		score, queueIndex := gpuScore(gpu, d.Surface)
		if score > best {
			best = score
			d.GpuDevice = gpu
			d.QueueIndex = queueIndex
		}
	}
	if best == 0 {
		return fmt.Errorf("pickGPU: none of %d GPUs can render to the surface", len(gpuDevices))
	}
	if asch.Debug {
		slog.Debug(fmt.Sprintf("Device extensions: %v", getDeviceExtensions(d.GpuDevice)))
	}
	return nil
}

// Submit submits a primary command buffer to the queue.
func (d *Device) Submit(cb asch.CommandBuffer, wait, signal asch.Semaphore, fence asch.Fence) error {
	waitStages := []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
	signalSemaphores := []vk.Semaphore{signal.(*Semaphore).handle}
	submitInfo := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait.(*Semaphore).handle},
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.(*CommandBuffer).handle},
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
		PSignalSemaphores:    signalSemaphores,
	}}
	err := vk.Error(vk.QueueSubmit(d.Queue, 1, submitInfo, fence.(*Fence).handle))
	if err != nil {
		return fmt.Errorf("vk.QueueSubmit failed with %s", err)
	}
	return nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(d.Device)); err != nil {
		return fmt.Errorf("vk.DeviceWaitIdle failed with %s", err)
	}
	return nil
}

// Destroy destroys the device, the surface and the instance. Everything
// created from the device must have been destroyed before.
func (d *Device) Destroy() {
	var (
		noDevice   vk.Device
		noSurface  vk.Surface
		noInstance vk.Instance
	)
	if d.Device != noDevice {
		vk.DestroyDevice(d.Device, nil)
		d.Device = noDevice
	}
	if d.dbg != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.Instance, d.dbg, nil)
		d.dbg = vk.NullDebugReportCallback
	}
	if d.Surface != noSurface {
		vk.DestroySurface(d.Instance, d.Surface, nil)
		d.Surface = noSurface
	}
	if d.Instance != noInstance {
		vk.DestroyInstance(d.Instance, nil)
		d.Instance = noInstance
	}
}
