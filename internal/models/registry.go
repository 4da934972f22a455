// Package models управляет локальным кэшем моделей whisper.cpp.
package models

import "strings"

// Precision - точность весов модели.
type Precision string

const (
	// PrecisionDefault выбирает точность по устройству: int8 на CPU, float16 на GPU.
	PrecisionDefault Precision = "default"
	PrecisionInt8    Precision = "int8"
	PrecisionFloat16 Precision = "float16"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	Name      string    // Размер модели: "tiny", "large-v3"
	Precision Precision // int8 - квантизированный файл, float16 - оригинальный
	Filename  string    // Имя файла: "ggml-tiny.bin"
	URL       string    // URL для скачивания
	Size      int64     // Размер в байтах (для прогресса)
}

// ID возвращает уникальный идентификатор: "tiny-int8".
func (m ModelInfo) ID() string {
	return m.Name + "-" + string(m.Precision)
}

const baseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

const mb = 1024 * 1024

func ggml(name string, prec Precision, file string, size int64) ModelInfo {
	return ModelInfo{Name: name, Precision: prec, Filename: file, URL: baseURL + file, Size: size}
}

// Registry все доступные модели.
var Registry = []ModelInfo{
	ggml("tiny", PrecisionFloat16, "ggml-tiny.bin", 75*mb),
	ggml("tiny", PrecisionInt8, "ggml-tiny-q8_0.bin", 42*mb),
	ggml("base", PrecisionFloat16, "ggml-base.bin", 142*mb),
	ggml("base", PrecisionInt8, "ggml-base-q8_0.bin", 78*mb),
	ggml("small", PrecisionFloat16, "ggml-small.bin", 466*mb),
	ggml("small", PrecisionInt8, "ggml-small-q8_0.bin", 252*mb),
	ggml("medium", PrecisionFloat16, "ggml-medium.bin", 1500*mb),
	ggml("medium", PrecisionInt8, "ggml-medium-q8_0.bin", 785*mb),
	ggml("large-v3", PrecisionFloat16, "ggml-large-v3.bin", 2900*mb),
	// q8_0 для large-v3 не публикуется, ближайший - q5_0
	ggml("large-v3", PrecisionInt8, "ggml-large-v3-q5_0.bin", 1080*mb),
	ggml("turbo", PrecisionFloat16, "ggml-large-v3-turbo.bin", 1620*mb),
	ggml("turbo", PrecisionInt8, "ggml-large-v3-turbo-q8_0.bin", 874*mb),
}

// DefaultModel модель по умолчанию.
const DefaultModel = "base"

// Names возвращает имена моделей без повторов в порядке реестра.
func Names() []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range Registry {
		if !seen[m.Name] {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}

// IsKnown проверяет имя модели.
func IsKnown(name string) bool {
	for _, m := range Registry {
		if m.Name == strings.ToLower(name) {
			return true
		}
	}
	return false
}

// Lookup возвращает модель по имени и точности.
func Lookup(name string, prec Precision) (ModelInfo, bool) {
	name = strings.ToLower(name)
	for _, m := range Registry {
		if m.Name == name && m.Precision == prec {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ResolvePrecision заменяет default на точность по устройству.
func ResolvePrecision(p Precision, gpu bool) Precision {
	if p != "" && p != PrecisionDefault {
		return p
	}
	if gpu {
		return PrecisionFloat16
	}
	return PrecisionInt8
}
