package audio

import (
	"fmt"
	"strings"
)

// CommonSampleRates - частоты в порядке предпочтения.
var CommonSampleRates = []int{16000, 44100, 48000, 22050, 8000}

// FallbackSampleRate используется, если ни одна частота не подошла.
const FallbackSampleRate = 44100

// InputDevice - устройство для выбора в интерфейсе.
type InputDevice struct {
	DeviceInfo
	SampleRate  int
	DisplayName string
}

var (
	virtualExact    = []string{"pipewire", "default"}
	virtualKeywords = []string{"monitor", "loopback"}
	physicalHints   = []string{
		"usb audio", "røde", "rode", "videomic", "blue", "shure",
		"audio-technica", "samson", "focusrite", "scarlett", "behringer",
	}
)

// IsPhysical определяет, похоже ли устройство на настоящий микрофон.
func IsPhysical(name string) bool {
	lower := strings.ToLower(name)
	for _, v := range virtualExact {
		if lower == v {
			return false
		}
	}
	for _, v := range virtualKeywords {
		if strings.Contains(lower, v) {
			return false
		}
	}
	if strings.Contains(lower, "hw:") {
		return true
	}
	for _, h := range physicalHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// BestSampleRate возвращает первую поддерживаемую частоту из CommonSampleRates.
func BestSampleRate(src Source, deviceID int) int {
	for _, rate := range CommonSampleRates {
		if src.SupportsRate(deviceID, rate) {
			return rate
		}
	}
	return FallbackSampleRate
}

// ListInputDevices возвращает устройства ввода для выбора.
// Устройство по умолчанию показывается всегда, остальные - только физические.
// Если физических нет, возвращаются все устройства ввода.
func ListInputDevices(src Source) ([]InputDevice, error) {
	devs, err := src.Devices()
	if err != nil {
		return nil, err
	}

	var all, filtered []InputDevice
	for _, d := range devs {
		if d.MaxInputChannels <= 0 {
			continue
		}
		rate := BestSampleRate(src, d.ID)
		in := InputDevice{
			DeviceInfo:  d,
			SampleRate:  rate,
			DisplayName: DisplayName(d.Name, rate),
		}
		all = append(all, in)
		if d.IsDefault || IsPhysical(d.Name) {
			filtered = append(filtered, in)
		}
	}

	if len(filtered) == 0 {
		return all, nil
	}
	return filtered, nil
}

// DisplayName сокращает технические имена устройств (ALSA) для показа.
func DisplayName(name string, rate int) string {
	if strings.Contains(name, ":") && strings.Contains(name, "hw:") {
		parts := strings.Split(name, ":")
		main := strings.TrimSpace(parts[0])
		second := strings.TrimSpace(parts[1])
		if i := strings.Index(second, "("); i >= 0 {
			second = strings.TrimSpace(second[:i])
		}
		if second != "" && second != "-" {
			return fmt.Sprintf("%s: %s (%dHz)", main, second, rate)
		}
		return fmt.Sprintf("%s (%dHz)", main, rate)
	}

	switch {
	case name == "default":
		return fmt.Sprintf("Default Microphone (%dHz)", rate)
	case name == "pipewire":
		return fmt.Sprintf("PipeWire (%dHz)", rate)
	case strings.Contains(name, "VideoMic") || strings.Contains(name, "RØDE"):
		return fmt.Sprintf("%s (%dHz)", strings.Split(name, ":")[0], rate)
	}

	if r := []rune(name); len(r) > 40 {
		return fmt.Sprintf("%s... (%dHz)", string(r[:37]), rate)
	}
	return fmt.Sprintf("%s (%dHz)", name, rate)
}

// FindDevice ищет сохранённое устройство: сначала точное имя,
// затем совпадение по имени карты ALSA (часть до ':').
// Номер hw:N может меняться между перезагрузками.
func FindDevice(devices []InputDevice, saved string) (InputDevice, bool) {
	if saved == "" {
		return InputDevice{}, false
	}
	for _, d := range devices {
		if d.Name == saved {
			return d, true
		}
	}
	if !strings.Contains(saved, ":") {
		return InputDevice{}, false
	}
	card := strings.TrimSpace(strings.SplitN(saved, ":", 2)[0])
	for _, d := range devices {
		if !strings.Contains(d.Name, ":") {
			continue
		}
		if strings.TrimSpace(strings.SplitN(d.Name, ":", 2)[0]) == card {
			return d, true
		}
	}
	return InputDevice{}, false
}
