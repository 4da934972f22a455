package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource - источник звука через PortAudio.
type PortAudioSource struct{}

var _ Source = (*PortAudioSource)(nil)

// NewPortAudioSource инициализирует PortAudio. Парный вызов - Close.
func NewPortAudioSource() (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	return &PortAudioSource{}, nil
}

// Close освобождает PortAudio.
func (s *PortAudioSource) Close() error {
	return portaudio.Terminate()
}

// Devices перечисляет все устройства, включая устройства вывода.
func (s *PortAudioSource) Devices() ([]DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	defIdx := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defIdx = def.Index
	}

	out := make([]DeviceInfo, 0, len(devs))
	for _, d := range devs {
		out = append(out, DeviceInfo{
			ID:                d.Index,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			IsDefault:         d.Index == defIdx,
		})
	}
	return out, nil
}

// SupportsRate проверяет, откроется ли mono поток с данной частотой.
func (s *PortAudioSource) SupportsRate(deviceID, rate int) bool {
	dev, err := lookupDevice(deviceID)
	if err != nil {
		return false
	}
	params := inputParams(dev, rate, FramesPerBuffer)
	return portaudio.IsFormatSupported(params, make([]int16, FramesPerBuffer)) == nil
}

// Open открывает callback-поток int16.
func (s *PortAudioSource) Open(cfg StreamConfig, onChunk func([]int16)) (Stream, error) {
	dev, err := lookupDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}
	params := inputParams(dev, cfg.SampleRate, cfg.FramesPerBuffer)
	if cfg.Channels > 0 {
		params.Input.Channels = cfg.Channels
	}

	stream, err := portaudio.OpenStream(params, func(in []int16) {
		onChunk(in)
	})
	if err != nil {
		return nil, classify(cfg.DeviceID, err)
	}
	return &paStream{id: cfg.DeviceID, s: stream}, nil
}

type paStream struct {
	id int
	s  *portaudio.Stream
}

func (p *paStream) Start() error {
	if err := p.s.Start(); err != nil {
		return classify(p.id, err)
	}
	return nil
}

func (p *paStream) Stop() error  { return p.s.Stop() }
func (p *paStream) Close() error { return p.s.Close() }

func lookupDevice(id int) (*portaudio.DeviceInfo, error) {
	if id == DefaultDevice {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, classify(id, err)
		}
		return dev, nil
	}

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, classify(id, err)
	}
	for _, d := range devs {
		if d.Index == id {
			if d.MaxInputChannels < 1 {
				return nil, &DeviceError{Kind: DeviceConfig, DeviceID: id, Err: errors.New("device has no input channels")}
			}
			return d, nil
		}
	}
	return nil, &DeviceError{Kind: DeviceConfig, DeviceID: id, Err: errors.New("device not found")}
}

func inputParams(dev *portaudio.DeviceInfo, rate, frames int) portaudio.StreamParameters {
	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = Channels
	params.SampleRate = float64(rate)
	params.FramesPerBuffer = frames
	return params
}

func classify(id int, err error) *DeviceError {
	kind := DeviceOther
	switch {
	case errors.Is(err, portaudio.InvalidChannelCount),
		errors.Is(err, portaudio.InvalidSampleRate),
		errors.Is(err, portaudio.InvalidDevice),
		errors.Is(err, portaudio.SampleFormatNotSupported):
		kind = DeviceConfig
	case errors.Is(err, portaudio.DeviceUnavailable):
		kind = DeviceBusy
	}
	return &DeviceError{Kind: kind, DeviceID: id, Err: err}
}
