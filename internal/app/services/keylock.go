package services

import (
	"hash/fnv"
	"sync"
)

const quotaKeyStripes = 256

// quotaKeyLock serializes confirmations of one (event, device) pair inside
// this process. Distinct keys may share a stripe.
type quotaKeyLock struct {
	stripes [quotaKeyStripes]sync.Mutex
}

func (l *quotaKeyLock) lock(eventID, deviceID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(eventID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(deviceID))
	mu := &l.stripes[h.Sum32()%quotaKeyStripes]
	mu.Lock()
	return mu.Unlock
}
