package adb

import (
	"strings"

	"wa-go/internal/migrate"
)

// ParseDevices parses `adb devices -l` output. The first line is the
// "List of devices attached" header; every other non-blank line is
//
//	<serial> <state> [key:value ...]
//
// Lines with fewer than two fields are ignored. The model comes from the
// model: field with underscores turned into spaces.
func ParseDevices(raw string) []migrate.Device {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n")), "\n")
	if len(lines) < 2 {
		return nil
	}

	var devices []migrate.Device
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		d := migrate.Device{ID: fields[0], State: fields[1], Model: UnknownModel}
		for _, f := range fields[2:] {
			if model, ok := strings.CutPrefix(f, "model:"); ok {
				d.Model = strings.ReplaceAll(model, "_", " ")
			}
		}
		devices = append(devices, d)
	}
	return devices
}
