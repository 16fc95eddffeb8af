//go:build !linux

package udev

// Monitor is unavailable outside Linux.
type Monitor struct{}

// NewMonitor always fails outside Linux.
func (*Udev) NewMonitor(Source, string) (*Monitor, error) {
	return nil, ErrUnsupported
}

// Receive always fails outside Linux.
func (*Monitor) Receive() (*Device, error) {
	return nil, ErrUnsupported
}

// Close is a no-op.
func (*Monitor) Close() error {
	return nil
}
