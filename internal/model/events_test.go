package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromMarker(t *testing.T) {
	tests := []struct {
		marker byte
		want   TransferKind
	}{
		{'C', KindControl},
		{'Z', KindIsochronous},
		{'I', KindInterrupt},
		{'B', KindBulk},
		{'X', KindUnknown},
		{'c', KindUnknown}, // 小写不是合法标记
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindFromMarker(tt.marker), "marker %q", tt.marker)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "control", KindControl.String())
	assert.Equal(t, "isochronous", KindIsochronous.String())
	assert.Equal(t, "interrupt", KindInterrupt.String())
	assert.Equal(t, "bulk", KindBulk.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "unknown", TransferKind(42).String())
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "out", DirOut.String())
	assert.Equal(t, "in", DirIn.String())
}

func TestIsCompletion(t *testing.T) {
	assert.True(t, TransferEvent{Type: EventComplete}.IsCompletion())
	assert.False(t, TransferEvent{Type: EventSubmit}.IsCompletion())
	assert.False(t, TransferEvent{Type: EventError}.IsCompletion())
	assert.False(t, TransferEvent{Type: "Co"}.IsCompletion())
}

func TestUnknownDevicePlaceholder(t *testing.T) {
	rec := UnknownDevice(1, 2)
	assert.Equal(t, 1, rec.Bus)
	assert.Equal(t, 2, rec.Device)
	assert.Equal(t, "unknown", rec.VendorID)
	assert.Equal(t, "unknown", rec.Serial)
	assert.Equal(t, "00", rec.ClassID)
	assert.Equal(t, "none", rec.Driver)
	assert.Equal(t, 0.0, rec.SpeedMbps)
	assert.Equal(t, DeviceKey{Bus: 1, Device: 2}, rec.Key())
}
