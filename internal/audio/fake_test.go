package audio

import (
	"errors"
	"sync"
)

type fakeStream struct {
	startErr error
	started  bool
	stopped  bool
	closed   int
}

func (s *fakeStream) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *fakeStream) Stop() error  { s.stopped = true; return nil }
func (s *fakeStream) Close() error { s.closed++; return nil }

// fakeSource отдаёт блоки через push, как драйвер из своего потока.
type fakeSource struct {
	mu      sync.Mutex
	devices []DeviceInfo
	rates   map[int][]int
	openErr error
	stream  *fakeStream
	opened  []StreamConfig
	cb      func([]int16)
}

func (f *fakeSource) Devices() ([]DeviceInfo, error) { return f.devices, nil }

func (f *fakeSource) SupportsRate(id, rate int) bool {
	for _, r := range f.rates[id] {
		if r == rate {
			return true
		}
	}
	return false
}

func (f *fakeSource) Open(cfg StreamConfig, onChunk func([]int16)) (Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, cfg)
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.stream == nil {
		f.stream = &fakeStream{}
	}
	f.cb = onChunk
	return f.stream, nil
}

func (f *fakeSource) push(samples []int16) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(samples)
	}
}

var errBusy = errors.New("device unavailable")
