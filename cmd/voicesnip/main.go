// VoiceSnip - push-to-talk распознавание речи с вставкой текста в активное окно.
//
// Работает в системном трее: пока зажата горячая клавиша, идёт запись,
// после отпускания текст распознаётся и печатается в фокусное приложение.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"voicesnip/internal/app"
	"voicesnip/internal/audio"
	"voicesnip/internal/config"
	"voicesnip/internal/dialog"
	"voicesnip/internal/hotkey/global"
	"voicesnip/internal/i18n"
	"voicesnip/internal/input"
	"voicesnip/internal/models"
	"voicesnip/internal/provider"
	"voicesnip/internal/speech"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

type overrides struct {
	language string
	hotkey   string
	provider string
	device   string
	uiLang   string
}

func main() {
	setupLogging()
	if dir, err := config.LoadEnv(); err != nil {
		slog.Warn("load env", "error", err)
	} else if dir != "" {
		slog.Debug("env loaded", "dir", dir)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if v := os.Getenv("VOICESNIP_LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			level = slog.LevelInfo
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newRootCmd() *cobra.Command {
	var o overrides
	root := &cobra.Command{
		Use:          "voicesnip",
		Short:        "Push-to-talk speech to text for the focused window",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var runErr error
			// systray и горячие клавиши macOS требуют главного потока
			global.RunOnMainThread(func() { runErr = run(o) })
			return runErr
		},
	}
	root.Flags().StringVarP(&o.language, "language", "l", "", "Recognition language: de, en or auto")
	root.Flags().StringVarP(&o.hotkey, "hotkey", "k", "", "Push-to-talk hotkey, e.g. ctrl+space")
	root.Flags().StringVarP(&o.provider, "provider", "p", "", "Speech provider: "+strings.Join(provider.Names(), ", "))
	root.Flags().StringVarP(&o.device, "device", "d", "", "Input device name")
	root.Flags().StringVar(&o.uiLang, "ui-language", "", "Menu and notification language: en, de or ru")

	root.AddCommand(newDevicesCmd(), newProvidersCmd(), newModelsCmd(), newVersionCmd())
	return root
}

func run(o overrides) error {
	slog.Info("VoiceSnip starting", "version", Version)

	path, err := config.DefaultPath()
	if err != nil {
		slog.Warn("config path", "error", err)
	}
	settings := config.Load(path)
	if err := applyOverrides(settings, o); err != nil {
		return err
	}

	inst := loadInstallation()

	src, err := audio.NewPortAudioSource()
	if err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer src.Close()

	inserter, err := input.New()
	if err != nil {
		return fmt.Errorf("init text input: %w", err)
	}

	modelsDir, err := config.ModelsDir()
	if err != nil {
		return err
	}
	mgr, err := models.NewManager(modelsDir, nil)
	if err != nil {
		return err
	}

	application := app.New(app.Options{
		Settings:     settings,
		Installation: inst,
		Audio:        src,
		Keys:         global.New(),
		Inserter:     inserter,
		Deps: provider.Deps{
			Models: mgr,
			Loader: speech.NewLoader(),
		},
	})
	slog.Info("ready", "hotkey", settings.Hotkey(), "provider", settings.Provider())
	application.Run()
	return nil
}

// loadInstallation читает профиль установки. Без профиля доступны все провайдеры.
func loadInstallation() *config.Installation {
	path, err := config.DefaultInstallationPath()
	if err != nil {
		slog.Warn("installation path", "error", err)
		return nil
	}
	inst, err := config.LoadInstallation(path)
	switch {
	case errors.Is(err, config.ErrNotInstalled):
		slog.Warn("installation profile not found, all providers enabled", "path", path)
		go dialog.ShowInfo(i18n.T("app_name"), i18n.T("dialog_not_installed"))
		return nil
	case err != nil:
		slog.Warn("installation profile invalid, all providers enabled", "path", path, "error", err)
		return nil
	}
	slog.Info("installation loaded", "profile", inst.Profile, "features", inst.Features)
	return inst
}

func applyOverrides(s *config.Settings, o overrides) error {
	if o.language != "" {
		lang := strings.ToLower(o.language)
		if lang == "auto" {
			lang = ""
		}
		if !slices.Contains(config.Languages, lang) {
			return fmt.Errorf("unsupported language %q", o.language)
		}
		s.SetLanguage(lang)
	}
	if o.hotkey != "" {
		s.SetHotkey(o.hotkey)
	}
	if o.provider != "" {
		if !slices.Contains(provider.Names(), o.provider) {
			return fmt.Errorf("unknown provider %q", o.provider)
		}
		s.SetProvider(o.provider)
	}
	if o.device != "" {
		s.SetDeviceName(o.device)
	}
	if o.uiLang != "" {
		lang := i18n.Language(strings.ToLower(o.uiLang))
		if !slices.Contains(i18n.AvailableLanguages(), lang) {
			return fmt.Errorf("unsupported interface language %q", o.uiLang)
		}
		s.SetUILanguage(string(lang))
	}
	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List input devices and their best sample rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := audio.NewPortAudioSource()
			if err != nil {
				return err
			}
			defer src.Close()

			devices, err := audio.ListInputDevices(src)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range devices {
				mark := " "
				if d.IsDefault {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %3d  %s\n", mark, d.ID, d.DisplayName)
			}
			return nil
		},
	}
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List speech providers enabled by the installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := provider.Names()
			if path, err := config.DefaultInstallationPath(); err == nil {
				if inst, err := config.LoadInstallation(path); err == nil {
					names = inst.Providers()
				}
			}
			out := cmd.OutOrStdout()
			for _, n := range names {
				fmt.Fprintf(out, "%-24s %s\n", n, provider.DisplayName(n))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "voicesnip %s\n", Version)
		},
	}
}
