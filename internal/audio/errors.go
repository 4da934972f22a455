package audio

import (
	"errors"
	"fmt"
)

// ErrNoAudio возвращается, если за сессию не пришло ни одного блока.
var ErrNoAudio = errors.New("no audio recorded")

// DeviceErrorKind классифицирует ошибку устройства.
type DeviceErrorKind string

const (
	// DeviceConfig - неподдерживаемые параметры (каналы, частота, устройство).
	DeviceConfig DeviceErrorKind = "config"
	// DeviceBusy - устройство занято другим приложением.
	DeviceBusy DeviceErrorKind = "busy"
	// DeviceOther - любая другая ошибка открытия.
	DeviceOther DeviceErrorKind = "other"
)

// DeviceError - устройство не удалось открыть или запустить.
type DeviceError struct {
	Kind     DeviceErrorKind
	DeviceID int
	Err      error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %d (%s): %v", e.DeviceID, e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// asDeviceError сохраняет уже классифицированную ошибку, остальные помечает как other.
func asDeviceError(deviceID int, err error) *DeviceError {
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}
	return &DeviceError{Kind: DeviceOther, DeviceID: deviceID, Err: err}
}
