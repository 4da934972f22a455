// Package embedded содержит ресурсы приложения: иконки трея,
// отрисованные в памяти при старте.
package embedded

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// IconSize - сторона иконки в пикселях.
const IconSize = 64

// Цвета состояний.
var (
	ColorIdle       = color.RGBA{128, 128, 128, 255}
	ColorReady      = color.RGBA{60, 170, 90, 255}
	ColorRecording  = color.RGBA{220, 50, 50, 255}
	ColorProcessing = color.RGBA{230, 160, 50, 255}
)

// Иконки в PNG.
var (
	// IconIdle - сессия остановлена (серая).
	IconIdle = mustIcon(ColorIdle)
	// IconReady - сессия запущена, ждём горячую клавишу (зелёная).
	IconReady = mustIcon(ColorReady)
	// IconRecording - идёт запись (красная).
	IconRecording = mustIcon(ColorRecording)
	// IconProcessing - идёт распознавание (оранжевая).
	IconProcessing = mustIcon(ColorProcessing)
)

// RenderIcon рисует круг цвета c на прозрачном фоне и кодирует в PNG.
func RenderIcon(c color.RGBA) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, IconSize, IconSize))

	center := IconSize / 2
	const radius = 20
	for y := range IconSize {
		for x := range IconSize {
			dx, dy := x-center, y-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mustIcon(c color.RGBA) []byte {
	b, err := RenderIcon(c)
	if err != nil {
		panic("embedded: render icon: " + err.Error())
	}
	return b
}
