//go:build linux

package taic

import "golang.org/x/sys/unix"

// DeviceRegisterFile mmaps a hart's register window from an open TAIC
// device file descriptor, the real (non-simulated) counterpart to
// NewRegisterFile's plain-buffer form used in tests. Grounded on the
// reference event loop's own use of golang.org/x/sys/unix for the raw
// syscalls an event-driven kernel-facing component needs (poller_linux.go,
// fd_unix.go), here applied to mapping device memory instead of epoll/fd
// primitives.
type DeviceRegisterFile struct {
	*RegisterFile
	region []byte
}

// OpenDeviceRegisterFile maps HartStride bytes at hartIndex*HartStride from
// fd (an open /dev/taic-style character device) as a RegisterFile.
func OpenDeviceRegisterFile(fd int, hartIndex int) (*DeviceRegisterFile, error) {
	region, err := unix.Mmap(fd, int64(hartIndex*HartStride), HartStride,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &DeviceRegisterFile{
		RegisterFile: NewRegisterFile(region),
		region:       region,
	}, nil
}

// Close unmaps the device register window.
func (d *DeviceRegisterFile) Close() error {
	return unix.Munmap(d.region)
}
