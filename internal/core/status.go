package core

import "strings"

// Level - важность строки статуса.
type Level int

const (
	// LevelProgress - запись или распознавание идёт.
	LevelProgress Level = iota
	// LevelSuccess - текст распознан.
	LevelSuccess
	// LevelWarning - запись пропущена, но ничего не сломано.
	LevelWarning
	// LevelError - ошибка устройства, провайдера или вставки.
	LevelError
)

var errorPrefixes = []string{
	"Configuration error: ",
	"API error: ",
	"Error: ",
	"Could not insert text: ",
}

// Classify определяет важность строки статуса.
func Classify(status string) Level {
	switch status {
	case StatusRecording, StatusProcessing:
		return LevelProgress
	case StatusNoAudio, StatusBusy:
		return LevelWarning
	case StatusDeviceConfig, StatusDeviceBusy, StatusDeviceOpen, StatusNoText:
		return LevelError
	}
	if _, ok := TranscribedText(status); ok {
		return LevelSuccess
	}
	for _, p := range errorPrefixes {
		if strings.HasPrefix(status, p) {
			return LevelError
		}
	}
	return LevelProgress
}

// TranscribedText извлекает текст из статуса успешного распознавания.
func TranscribedText(status string) (string, bool) {
	return strings.CutPrefix(status, "Transcribed: ")
}
