//go:build !linux

package main

import (
	"fmt"
	"os"
)

// readDevices starts one blocking reader per device.
func readDevices(files []*os.File, events chan<- deviceEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- fmt.Errorf("no input devices provided")
		return
	}
	for i, f := range files {
		go readInputEvents(f, i, events, readErr)
	}
}
