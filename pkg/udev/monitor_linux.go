//go:build linux

package udev

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

const monitorBufferSize = 8192

var errTruncated = errors.New("uevent truncated")

// Monitor receives live bus events from a netlink uevent socket.
type Monitor struct {
	file      *os.File
	conn      syscall.RawConn
	source    Source
	subsystem string
	sysDir    string
	udev      *Udev
	buf       []byte
}

// NewMonitor opens a netlink uevent socket bound to the given group and
// filtered to one subsystem ("" keeps everything).
func (u *Udev) NewMonitor(source Source, subsystem string) (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK,
		unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("netlink socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: uint32(source)}); err != nil {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("netlink bind %s: %w", source, err)
	}

	file := os.NewFile(uintptr(fd), "udev-monitor")

	conn, err := file.SyscallConn()
	if err != nil {
		_ = file.Close()

		return nil, err
	}

	return &Monitor{
		file:      file,
		conn:      conn,
		source:    source,
		subsystem: subsystem,
		sysDir:    u.sysDir,
		udev:      u,
		buf:       make([]byte, monitorBufferSize),
	}, nil
}

// Receive blocks until the next matching event arrives. Messages that are
// not from the expected sender, truncated, malformed, or outside the
// subsystem filter are skipped, as are receive queue overflows.
func (m *Monitor) Receive() (*Device, error) {
	for {
		n, from, err := m.recv()

		switch {
		case err == nil:
		case errors.Is(err, os.ErrClosed):
			return nil, ErrMonitorClosed
		case errors.Is(err, errTruncated):
			m.udev.logger.Debug().Int("size", len(m.buf)).Msg("dropping truncated uevent")

			continue
		case errors.Is(err, unix.ENOBUFS):
			m.udev.logger.Warn().Msg("uevent receive queue overflowed, events lost")

			continue
		default:
			return nil, err
		}

		sa, ok := from.(*unix.SockaddrNetlink)
		if !ok || sa.Groups == 0 {
			continue
		}

		if m.source == SourceKernel && sa.Pid != 0 {
			continue
		}

		dev, err := ParseMessage(m.buf[:n], m.sysDir)
		if err != nil {
			m.udev.logger.Debug().Err(err).Int("len", n).Msg("dropping uevent")

			continue
		}

		if !matchesSubsystem(dev, m.subsystem) {
			continue
		}

		return dev, nil
	}
}

func (m *Monitor) recv() (int, unix.Sockaddr, error) {
	var (
		n     int
		flags int
		from  unix.Sockaddr
		rerr  error
	)

	err := m.conn.Read(func(fd uintptr) bool {
		n, _, flags, from, rerr = unix.Recvmsg(int(fd), m.buf, nil, 0)

		return rerr != unix.EAGAIN
	})
	if err != nil {
		return 0, nil, err
	}

	if rerr != nil {
		return 0, nil, rerr
	}

	if flags&unix.MSG_TRUNC != 0 {
		return 0, nil, errTruncated
	}

	return n, from, nil
}

// Close shuts the socket; a blocked Receive returns ErrMonitorClosed.
func (m *Monitor) Close() error {
	return m.file.Close()
}
