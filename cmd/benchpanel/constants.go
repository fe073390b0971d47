package main

import "time"

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03

	SYN_REPORT = 0

	BTN_TOUCH = 0x14a

	ABS_X             = 0x00
	ABS_Y             = 0x01
	ABS_MT_POSITION_X = 0x35
	ABS_MT_POSITION_Y = 0x36
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
)

// Pointer id ranges. IPC clients pick their own ids below touchPointerBase,
// touch devices get touchPointerBase+device, and each WebSocket client gets
// its own block of wsPointerStride ids.
const (
	touchPointerBase = 500
	wsPointerStride  = 1000
)

const (
	defaultSocketPath       = "/tmp/benchpanel.sock"
	defaultHTTPPort         = 8080
	defaultTickHz           = 4
	defaultGestureTimeoutMS = 5000

	// Touch panels that do not report their axis range are assumed to be
	// 12-bit resistive controllers.
	defaultTouchAxisMax = 4095

	// watchDebounce collapses the burst of events an editor save produces.
	watchDebounce = 150 * time.Millisecond
)
