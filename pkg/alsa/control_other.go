//go:build !linux

package alsa

// HWOpener is unavailable outside Linux.
type HWOpener struct {
	DevDir string
}

func NewHWOpener(devDir string) *HWOpener {
	if devDir == "" {
		devDir = DefaultDevDir
	}

	return &HWOpener{DevDir: devDir}
}

func (*HWOpener) Open(string) (Control, error) {
	return nil, ErrUnsupported
}

func CheckAccess(string, uint32) error {
	return ErrUnsupported
}
