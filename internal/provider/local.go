package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"voicesnip/internal/models"
)

// Device - устройство для локального движка.
type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu"
)

// Engine - загруженная модель локального движка.
type Engine interface {
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
	Close() error
}

// EngineLoader загружает модель с диска на устройство.
type EngineLoader interface {
	Load(modelPath string, device Device) (Engine, error)
}

// LocalConfig - настройки локального whisper.
type LocalConfig struct {
	Model     string
	Device    Device
	Precision models.Precision
}

// Local - whisper на этой машине. Модель грузится при первом распознавании.
type Local struct {
	cfg    LocalConfig
	models *models.Manager
	loader EngineLoader

	mu     sync.Mutex
	engine Engine
	device Device
}

// NewLocal создаёт провайдер. Модель при этом не загружается.
func NewLocal(cfg LocalConfig, mgr *models.Manager, loader EngineLoader) *Local {
	if cfg.Model == "" {
		cfg.Model = models.DefaultModel
	}
	cfg.Model = strings.ToLower(cfg.Model)
	if cfg.Device == "" {
		cfg.Device = DeviceCPU
	}
	return &Local{cfg: cfg, models: mgr, loader: loader, device: cfg.Device}
}

func (l *Local) Name() string { return "Whisper (Local)" }

func (l *Local) id() string {
	if l.cfg.Device == DeviceGPU {
		return NameLocalGPU
	}
	return NameLocalCPU
}

// ValidateConfig проверяет только имя модели, модель не загружается.
func (l *Local) ValidateConfig(context.Context) error {
	if !models.IsKnown(l.cfg.Model) {
		return configErrorf(l.id(), "Invalid Whisper model '%s'. Available models: %s",
			l.cfg.Model, strings.Join(l.AvailableModels(), ", "))
	}
	if l.cfg.Device != DeviceCPU && l.cfg.Device != DeviceGPU {
		return configErrorf(l.id(), "unknown device %q", l.cfg.Device)
	}
	if l.loader == nil {
		return configErrorf(l.id(), "local whisper engine is not available in this build")
	}
	if l.models == nil {
		return configErrorf(l.id(), "model cache directory is not configured")
	}
	return nil
}

func (l *Local) AvailableModels() []string {
	return models.Names()
}

// ActiveDevice возвращает устройство, на котором работает модель
// (после отката с GPU - cpu).
func (l *Local) ActiveDevice() Device {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.device
}

func (l *Local) modelInfo() (models.ModelInfo, error) {
	prec := models.ResolvePrecision(l.cfg.Precision, l.cfg.Device == DeviceGPU)
	info, ok := models.Lookup(l.cfg.Model, prec)
	if !ok {
		return models.ModelInfo{}, configErrorf(l.id(), "no %s build of model %q", prec, l.cfg.Model)
	}
	return info, nil
}

func (l *Local) IsModelDownloaded() bool {
	if l.models == nil {
		return false
	}
	info, err := l.modelInfo()
	if err != nil {
		return false
	}
	return l.models.IsDownloaded(info)
}

func (l *Local) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return "", err
	}

	text, err := l.engine.Transcribe(ctx, wav, NormalizeLanguage(language))
	if err != nil {
		slog.Error("whisper transcription error", "device", l.device, "error", err)
		if l.device == DeviceGPU {
			slog.Warn("consider switching to whisper-local-cpu if GPU errors persist")
		}
		return "", nil
	}
	return strings.TrimSpace(text), nil
}

// ensureLoaded вызывается под l.mu.
func (l *Local) ensureLoaded(ctx context.Context) error {
	if l.engine != nil {
		return nil
	}
	if err := l.ValidateConfig(ctx); err != nil {
		return err
	}

	info, err := l.modelInfo()
	if err != nil {
		return err
	}

	if !l.models.IsDownloaded(info) {
		slog.Info("downloading whisper model", "model", info.ID(), "note", "larger models can take a long time")
		if err := l.models.Download(ctx, info, nil); err != nil {
			return &RuntimeError{Provider: l.id(), Msg: fmt.Sprintf("download model %s", info.Name), Err: err}
		}
	} else {
		slog.Info("loading whisper model", "model", info.ID())
	}

	path := l.models.ModelPath(info)
	engine, err := l.loader.Load(path, l.device)
	if err != nil && l.device == DeviceGPU {
		slog.Warn("failed to load model on GPU, falling back to CPU", "model", info.Name, "error", err)
		engine, err = l.loader.Load(path, DeviceCPU)
		if err != nil {
			return &ConfigError{Provider: NameLocalGPU, Msg: "Failed to load model on both GPU and CPU", Err: err}
		}
		l.device = DeviceCPU
	}
	if err != nil {
		return &ConfigError{Provider: l.id(), Msg: "Failed to load model", Err: err}
	}

	l.engine = engine
	slog.Info("whisper model ready", "model", info.Name, "device", l.device)
	return nil
}

// UnloadModel освобождает модель. Безопасно вызывать без загруженной модели.
func (l *Local) UnloadModel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine == nil {
		return
	}
	slog.Info("unloading whisper model", "model", l.cfg.Model, "device", l.device)
	if err := l.engine.Close(); err != nil {
		slog.Warn("close whisper engine", "error", err)
	}
	l.engine = nil
}
