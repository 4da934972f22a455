// Package speech подключает whisper.cpp как локальный движок распознавания.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"voicesnip/internal/audio"
	"voicesnip/internal/provider"
)

// minSamples - минимальная длина записи (200ms при 16kHz).
// Whisper требует минимум 100ms, добавляем запас.
const minSamples = audio.TargetSampleRate / 5

// Loader загружает модели whisper.cpp. Реализует provider.EngineLoader.
type Loader struct{}

var _ provider.EngineLoader = Loader{}

// NewLoader создаёт загрузчик моделей.
func NewLoader() Loader { return Loader{} }

// Load загружает модель. Ускоритель выбирается при сборке libwhisper,
// поэтому запрос GPU без сборки с CUDA возвращает ошибку.
func (Loader) Load(modelPath string, device provider.Device) (provider.Engine, error) {
	if device == provider.DeviceGPU && !gpuBuild {
		return nil, errors.New("whisper.cpp built without CUDA support")
	}
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", modelPath, err)
	}
	slog.Debug("whisper model loaded", "path", modelPath, "device", device, "multilingual", model.IsMultilingual())
	return &Engine{model: model}, nil
}

// Engine реализует provider.Engine через whisper.cpp.
type Engine struct {
	mu    sync.Mutex
	model whisper.Model
}

// Transcribe распознаёт WAV. Частота должна быть 16kHz.
func (e *Engine) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	pcm, err := audio.DecodeWAV(wav)
	if err != nil {
		return "", err
	}
	if pcm.SampleRate <= 0 {
		return "", fmt.Errorf("invalid sample rate %d", pcm.SampleRate)
	}

	samples := resample(pcm.Float32(), pcm.SampleRate, audio.TargetSampleRate)
	// Добавляем тишину если запись слишком короткая
	if len(samples) < minSamples {
		samples = append(samples, make([]float32, minSamples-len(samples))...)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return "", errors.New("model is closed")
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", err
	}

	// Отключаем перевод - только транскрипция
	wctx.SetTranslate(false)
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set language %q: %w", lang, err)
	}

	// encoder begin: false прерывает обработку
	proceed := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(samples, proceed, nil, nil); err != nil {
		return "", err
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(segment.Text))
	}

	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// Close освобождает модель.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return nil
	}
	err := e.model.Close()
	e.model = nil
	return err
}

// resample - линейная интерполяция до частоты модели. Устройства часто
// не поддерживают 16kHz, а whisper.cpp принимает только её.
func resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]float32, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
