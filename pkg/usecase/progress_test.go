package usecase

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func collectProgress(writes []int64, total int64) []int64 {
	var emitted []int64
	p := &downloadProgress{emit: func(written, _ int64) {
		emitted = append(emitted, written)
	}}
	for _, w := range writes {
		p.update(w, total)
	}
	return emitted
}

func TestDownloadProgress_UnknownTotal(t *testing.T) {
	const mib = int64(1 << 20)

	var writes []int64
	for i := int64(1); i <= 35; i++ {
		writes = append(writes, i*mib)
	}

	gt.Value(t, collectProgress(writes, 0)).Equal([]int64{10 * mib, 20 * mib, 30 * mib})
}

func TestDownloadProgress_UnknownTotal_BelowStep(t *testing.T) {
	gt.A(t, collectProgress([]int64{1, downloadByteStep - 1}, 0)).Length(0)
}

func TestDownloadProgress_KnownTotal(t *testing.T) {
	const total = int64(1000)

	var writes []int64
	for w := int64(50); w <= total; w += 50 {
		writes = append(writes, w)
	}

	gt.Value(t, collectProgress(writes, total)).Equal([]int64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000})
}

func TestDownloadProgress_FinalWriteOnTotal(t *testing.T) {
	// A single write covering the whole body emits once
	gt.Value(t, collectProgress([]int64{1000}, 1000)).Equal([]int64{1000})

	// Coarse writes skipping several steps emit once per write, ending at 100%
	gt.Value(t, collectProgress([]int64{250, 999, 1000}, 1000)).Equal([]int64{250, 999, 1000})
}
