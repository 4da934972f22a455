package models

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
}

// Manager управляет моделями в одной директории.
type Manager struct {
	modelsDir string
	client    *http.Client
	mu        sync.Mutex
}

// DefaultDir возвращает каталог кэша моделей пользователя.
func DefaultDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("не удалось определить каталог кэша: %w", err)
	}
	return filepath.Join(cache, "voicesnip", "models"), nil
}

// NewManager создаёт менеджер моделей. client может быть nil.
func NewManager(dir string, client *http.Client) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию моделей: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Manager{modelsDir: dir, client: client}, nil
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// ModelPath возвращает полный путь к модели.
func (m *Manager) ModelPath(info ModelInfo) string {
	return filepath.Join(m.modelsDir, info.Filename)
}

// IsDownloaded проверяет, что файл модели есть и не пустой.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.ModelPath(info))
	if err != nil {
		return false
	}
	return !stat.IsDir() && stat.Size() > 0
}

// Download скачивает модель.
// progress канал получает обновления о прогрессе (можно nil), отправка не блокирует.
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		send(progress, Progress{ModelID: info.ID(), Downloaded: info.Size, Total: info.Size, Done: true})
		return nil
	}

	destPath := m.ModelPath(info)
	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return err
	}

	slog.Info("downloading model", "model", info.ID(), "url", info.URL)
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var downloaded int64
	buf := make([]byte, 32*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return werr
			}
			downloaded += int64(n)
			send(progress, Progress{ModelID: info.ID(), Downloaded: downloaded, Total: total})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := file.Close(); err != nil {
		return err
	}

	// Переименовываем в финальное имя
	if err := os.Rename(tmpPath, destPath); err != nil {
		return err
	}

	slog.Info("model downloaded", "model", info.ID(), "bytes", downloaded)
	send(progress, Progress{ModelID: info.ID(), Downloaded: downloaded, Total: total, Done: true})
	return nil
}

func send(ch chan<- Progress, p Progress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	default:
	}
}

// Delete удаляет модель.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(m.ModelPath(info))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
