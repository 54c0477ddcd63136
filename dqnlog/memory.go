package dqnlog

import (
	"math"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/unixpickle/essentials"
)

const bytesPerGiB = 1 << 30

// ProcessMemory reports the memory held by this process,
// in GiB rounded to one decimal place.
//
// The resident set is reported as allocated memory and
// the virtual size as cached memory.
// It satisfies anydqn.MemoryStats.
func ProcessMemory() (allocated, cached float64, err error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, essentials.AddCtx("memory stats", err)
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, 0, essentials.AddCtx("memory stats", err)
	}
	return roundGiB(info.RSS), roundGiB(info.VMS), nil
}

// FormatBytes produces a human-readable size like
// "1.5 GB".
func FormatBytes(size uint64) string {
	if size == 0 {
		return "0B"
	}
	names := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	i := int(math.Floor(math.Log(float64(size)) / math.Log(1024)))
	if i >= len(names) {
		i = len(names) - 1
	}
	scaled := math.Round(float64(size)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(scaled, 'f', -1, 64) + " " + names[i]
}

func roundGiB(size uint64) float64 {
	return math.Round(float64(size)/bytesPerGiB*10) / 10
}
