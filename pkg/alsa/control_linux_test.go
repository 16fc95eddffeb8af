//go:build linux

package alsa

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestIoctlLayout(t *testing.T) {
	assert.Equal(t, uintptr(376), unsafe.Sizeof(rawCardInfo{}))
	assert.Equal(t, uintptr(288), unsafe.Sizeof(rawPCMInfo{}))

	assert.Equal(t, uintptr(0x81785501), ioctlCardInfo)
	assert.Equal(t, uintptr(0x80045530), ioctlPCMNextDevice)
	assert.Equal(t, uintptr(0xc1205531), ioctlPCMInfo)
}
