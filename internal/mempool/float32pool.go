// Package mempool recycles the large float32 buffers used for model input and
// output tensors.
package mempool

import "sync"

// bucketStep is the granularity of buffer size classes.
const bucketStep = 1024

var pools sync.Map // size class -> *sync.Pool

// sizeClass rounds n up to a multiple of bucketStep, with bucketStep as the minimum.
func sizeClass(n int) int {
	if n <= bucketStep {
		return bucketStep
	}
	return (n + bucketStep - 1) / bucketStep * bucketStep
}

func poolFor(cls int) *sync.Pool {
	if p, ok := pools.Load(cls); ok {
		return p.(*sync.Pool)
	}
	p, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]float32, cls)
		return &buf
	}})
	return p.(*sync.Pool)
}

// GetFloat32 returns a buffer of length n. Its contents are unspecified; callers
// that do not overwrite every element must clear it.
// Return it with PutFloat32 once nothing references it.
func GetFloat32(n int) []float32 {
	if n <= 0 {
		return nil
	}
	cls := sizeClass(n)
	bp, _ := poolFor(cls).Get().(*[]float32)
	if bp == nil || cap(*bp) < cls {
		buf := make([]float32, cls)
		return buf[:n]
	}
	return (*bp)[:n]
}

// PutFloat32 hands a buffer obtained from GetFloat32 back to its pool. Nil
// slices and slices of foreign capacity are ignored.
func PutFloat32(buf []float32) {
	c := cap(buf)
	if c == 0 || c%bucketStep != 0 {
		return
	}
	buf = buf[:c]
	poolFor(c).Put(&buf)
}
