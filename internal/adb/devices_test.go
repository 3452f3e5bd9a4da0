package adb

import (
	"reflect"
	"testing"

	"wa-go/internal/migrate"
)

func TestParseDevices(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []migrate.Device
	}{
		{
			name: "model and unauthorized device",
			raw:  "List of devices attached\nD1\tdevice model:Pixel_6\nD2\tunauthorized\n",
			want: []migrate.Device{
				{ID: "D1", State: "device", Model: "Pixel 6"},
				{ID: "D2", State: "unauthorized", Model: "Unknown"},
			},
		},
		{
			name: "long listing",
			raw: "List of devices attached\n" +
				"R58M123ABC     device usb:1-1 product:beyond1lteeea model:SM_G973F device:beyond1 transport_id:1\n" +
				"emulator-5554  offline transport_id:2\n",
			want: []migrate.Device{
				{ID: "R58M123ABC", State: "device", Model: "SM G973F"},
				{ID: "emulator-5554", State: "offline", Model: "Unknown"},
			},
		},
		{
			name: "blank and short lines are skipped",
			raw:  "List of devices attached\n\nlonely\n\nD1 device\n",
			want: []migrate.Device{
				{ID: "D1", State: "device", Model: "Unknown"},
			},
		},
		{
			name: "crlf output",
			raw:  "List of devices attached\r\nD1\tdevice model:Pixel_7a\r\n",
			want: []migrate.Device{
				{ID: "D1", State: "device", Model: "Pixel 7a"},
			},
		},
		{
			name: "header only",
			raw:  "List of devices attached\n",
			want: nil,
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDevices(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDevices() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
