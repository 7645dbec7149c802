package syscallring

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestSyscallItemIsRecordAligned(t *testing.T) {
	require.Equal(t, uintptr(128), unsafe.Sizeof(SyscallItem{}))
}
