package audio

// DefaultDevice выбирает устройство ввода по умолчанию.
const DefaultDevice = -1

const (
	// TargetSampleRate - частота, которую ожидают модели распознавания.
	TargetSampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// FramesPerBuffer - размер блока, который отдаёт драйвер.
	FramesPerBuffer = 1024
)

// DeviceInfo описывает устройство ввода.
type DeviceInfo struct {
	ID                int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// StreamConfig - параметры открываемого потока.
type StreamConfig struct {
	DeviceID        int
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Stream - открытый поток ввода.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Source - источник звука: перечисление устройств и открытие потоков.
// onChunk вызывается из потока драйвера; буфер после возврата переиспользуется.
type Source interface {
	Devices() ([]DeviceInfo, error)
	SupportsRate(deviceID, rate int) bool
	Open(cfg StreamConfig, onChunk func([]int16)) (Stream, error)
}
