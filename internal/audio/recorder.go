// Package audio предоставляет запись аудио с микрофона.
package audio

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Recorder владеет одним потоком захвата и копит блоки PCM, пока взведён.
type Recorder struct {
	src Source

	// life сериализует Start/Stop/Cleanup.
	life   sync.Mutex
	stream Stream
	rate   int

	armed atomic.Bool

	// mu защищает chunks: пишет поток драйвера, читает DrainWAV.
	mu     sync.Mutex
	chunks [][]int16
}

// NewRecorder создаёт Recorder поверх источника звука.
func NewRecorder(src Source) *Recorder {
	return &Recorder{src: src, rate: TargetSampleRate}
}

// Start начинает запись. Повторный вызов во время записи ничего не делает.
func (r *Recorder) Start(deviceID, sampleRate int) error {
	r.life.Lock()
	defer r.life.Unlock()

	if r.armed.Load() {
		return nil
	}

	r.mu.Lock()
	r.chunks = nil
	r.mu.Unlock()

	r.rate = sampleRate
	r.armed.Store(true)

	stream, err := r.src.Open(StreamConfig{
		DeviceID:        deviceID,
		SampleRate:      sampleRate,
		Channels:        Channels,
		FramesPerBuffer: FramesPerBuffer,
	}, r.onChunk)
	if err != nil {
		r.armed.Store(false)
		return asDeviceError(deviceID, err)
	}

	if err := stream.Start(); err != nil {
		r.armed.Store(false)
		if cerr := stream.Close(); cerr != nil {
			slog.Debug("audio: close after failed start", "error", cerr)
		}
		return asDeviceError(deviceID, err)
	}

	r.stream = stream
	slog.Debug("audio: recording started", "device", deviceID, "rate", sampleRate)
	return nil
}

func (r *Recorder) onChunk(in []int16) {
	if !r.armed.Load() || len(in) == 0 {
		return
	}
	chunk := make([]int16, len(in))
	copy(chunk, in)

	r.mu.Lock()
	r.chunks = append(r.chunks, chunk)
	r.mu.Unlock()
}

// Stop останавливает запись и сообщает, был ли захвачен хотя бы один блок.
// Без предшествующего Start возвращает false.
func (r *Recorder) Stop() bool {
	r.life.Lock()
	defer r.life.Unlock()

	if !r.armed.Swap(false) {
		return false
	}

	if r.stream != nil {
		if err := r.stream.Stop(); err != nil {
			slog.Warn("audio: stop stream", "error", err)
		}
		if err := r.stream.Close(); err != nil {
			slog.Warn("audio: close stream", "error", err)
		}
		r.stream = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks) > 0
}

// DrainWAV склеивает блоки в порядке поступления и упаковывает в WAV
// (mono, 16 бит, частота из Start).
func (r *Recorder) DrainWAV() ([]byte, error) {
	r.mu.Lock()
	total := 0
	for _, c := range r.chunks {
		total += len(c)
	}
	if total == 0 {
		r.mu.Unlock()
		return nil, ErrNoAudio
	}
	samples := make([]int16, 0, total)
	for _, c := range r.chunks {
		samples = append(samples, c...)
	}
	r.mu.Unlock()

	r.life.Lock()
	rate := r.rate
	r.life.Unlock()

	return EncodeWAV(samples, rate)
}

// Cleanup принудительно останавливает запись. Ошибки игнорируются.
func (r *Recorder) Cleanup() {
	r.life.Lock()
	defer r.life.Unlock()

	r.armed.Store(false)
	if r.stream == nil {
		return
	}
	_ = r.stream.Stop()
	_ = r.stream.Close()
	r.stream = nil
}

// IsRecording возвращает true если идёт запись.
func (r *Recorder) IsRecording() bool {
	return r.armed.Load()
}
