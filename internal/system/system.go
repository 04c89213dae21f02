package system

import (
	"fmt"
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ivlev/frames2osb/internal/logger"
)

var log = logger.Log

// OpenFileTarget is the soft open file limit requested at startup. Each
// extraction worker keeps a frame and a chunk file open at the same time.
const OpenFileTarget = 2048

// RaiseOpenFileLimit lifts the soft RLIMIT_NOFILE towards want, capped at the
// hard limit. A soft limit already at or above want is left alone. It returns
// the soft limit in effect afterwards.
func RaiseOpenFileLimit(want uint64) (uint64, error) {
	var lim syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &lim); err != nil {
		return 0, fmt.Errorf("read open file limit: %w", err)
	}
	if lim.Cur >= want {
		return lim.Cur, nil
	}
	target := lim
	target.Cur = min(want, lim.Max)
	if target.Cur == lim.Cur {
		return lim.Cur, nil
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &target); err != nil {
		return lim.Cur, fmt.Errorf("raise open file limit to %d: %w", target.Cur, err)
	}
	return target.Cur, nil
}

// DefaultWorkers is the number of logical CPUs, falling back to the Go
// runtime's view when the host cannot be queried.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// LogMemory writes host memory usage at debug level.
func LogMemory(stage string) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Debugf("%s: memory stats unavailable: %v", stage, err)
		return
	}
	log.WithField("stage", stage).Debugf("memory used %.1f%% (%d MiB available)",
		vm.UsedPercent, vm.Available/(1<<20))
}
