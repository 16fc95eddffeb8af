//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	iocWrite = 1
	iocRead  = 2

	ctlIoctlType = 'U'
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | ctlIoctlType<<8 | nr
}

// struct snd_ctl_card_info
type rawCardInfo struct {
	Card       int32
	_          int32
	ID         [16]byte
	Driver     [16]byte
	Name       [32]byte
	LongName   [80]byte
	_          [16]byte
	MixerName  [80]byte
	Components [128]byte
}

// struct snd_pcm_info
type rawPCMInfo struct {
	Device          uint32
	Subdevice       uint32
	Stream          int32
	Card            int32
	ID              [64]byte
	Name            [80]byte
	Subname         [32]byte
	DevClass        int32
	DevSubclass     int32
	SubdevicesCount uint32
	SubdevicesAvail uint32
	Sync            [16]byte
	_               [64]byte
}

var (
	ioctlCardInfo      = ioc(iocRead, 0x01, unsafe.Sizeof(rawCardInfo{}))
	ioctlPCMNextDevice = ioc(iocRead, 0x30, unsafe.Sizeof(int32(0)))
	ioctlPCMInfo       = ioc(iocRead|iocWrite, 0x31, unsafe.Sizeof(rawPCMInfo{}))
)

// HWOpener opens "hw:N" control nodes under a device directory.
type HWOpener struct {
	DevDir string
}

// NewHWOpener returns an opener rooted at devDir (DefaultDevDir when empty).
func NewHWOpener(devDir string) *HWOpener {
	if devDir == "" {
		devDir = DefaultDevDir
	}

	return &HWOpener{DevDir: devDir}
}

// Open opens the control node read/write, falling back to read-only when
// write access is denied.
func (o *HWOpener) Open(name string) (Control, error) {
	card, err := ParseCardName(name)
	if err != nil {
		return nil, err
	}

	path := ControlPath(o.DevDir, card)

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if errors.Is(err, unix.EACCES) {
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	}

	if err != nil {
		return nil, fmt.Errorf("open %s (%s): %w", name, path, err)
	}

	return &hwControl{fd: fd, name: name}, nil
}

type hwControl struct {
	fd   int
	name string
}

func (c *hwControl) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}

	return nil
}

func (c *hwControl) CardInfo() (CardInfo, error) {
	var raw rawCardInfo

	if err := c.ioctl(ioctlCardInfo, unsafe.Pointer(&raw)); err != nil {
		return CardInfo{}, fmt.Errorf("%s card info: %w", c.name, err)
	}

	return CardInfo{
		Card:       int(raw.Card),
		ID:         cString(raw.ID[:]),
		Driver:     cString(raw.Driver[:]),
		Name:       cString(raw.Name[:]),
		LongName:   cString(raw.LongName[:]),
		MixerName:  cString(raw.MixerName[:]),
		Components: cString(raw.Components[:]),
	}, nil
}

func (c *hwControl) NextPCMDevice(prev int) (int, error) {
	dev := int32(prev)

	if err := c.ioctl(ioctlPCMNextDevice, unsafe.Pointer(&dev)); err != nil {
		return -1, fmt.Errorf("%s next pcm device: %w", c.name, err)
	}

	return int(dev), nil
}

func (c *hwControl) PCMInfo(device, subdevice uint32, stream Stream) (PCMInfo, error) {
	raw := rawPCMInfo{
		Device:    device,
		Subdevice: subdevice,
		Stream:    int32(stream),
	}

	if err := c.ioctl(ioctlPCMInfo, unsafe.Pointer(&raw)); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return PCMInfo{}, ErrNoSuchStream
		}

		return PCMInfo{}, fmt.Errorf("%s pcm %d/%s info: %w", c.name, device, stream, err)
	}

	return PCMInfo{
		Device:          raw.Device,
		Subdevice:       raw.Subdevice,
		Stream:          Stream(raw.Stream),
		Card:            int(raw.Card),
		ID:              cString(raw.ID[:]),
		Name:            cString(raw.Name[:]),
		Subname:         cString(raw.Subname[:]),
		Class:           Class(raw.DevClass),
		Subclass:        Subclass(raw.DevSubclass),
		SubdevicesCount: raw.SubdevicesCount,
		SubdevicesAvail: raw.SubdevicesAvail,
	}, nil
}

func (c *hwControl) Close() error {
	return unix.Close(c.fd)
}

// CheckAccess reports whether the control node of card is readable and
// writable by this process.
func CheckAccess(devDir string, card uint32) error {
	return unix.Access(ControlPath(devDir, card), unix.R_OK|unix.W_OK)
}
