// Пакет cli — команды sitectl: управление коллекциями backend из терминала
// через тот же контроллер, что и админ-панель.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/config"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// App — окружение команд: потоки ввода-вывода и путь к конфигурации.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// IsTerminal сообщает, подключён ли ввод к терминалу
	IsTerminal func() bool
	// ConfigPath — файл конфигурации; пусто — $XDG_CONFIG_HOME/sitectl/config.toml
	ConfigPath string

	apiFlag    string
	configFlag string
}

// NewApp создаёт окружение со стандартными потоками процесса.
func NewApp() *App {
	return &App{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// NewRootCommand собирает дерево команд sitectl.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Управление содержимым сайта через REST backend",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	root.PersistentFlags().StringVar(&app.apiFlag, "api", "", "базовый URL backend (перекрывает HS_API_BASE_URL и файл конфигурации)")
	root.PersistentFlags().StringVar(&app.configFlag, "config", "", "путь к файлу конфигурации")

	root.AddCommand(newResourcesCommand(app))
	root.AddCommand(newSchemaCommand(app))
	root.AddCommand(newConfigCommand(app))
	for _, d := range resource.Descriptors() {
		root.AddCommand(newResourceCommand(app, d))
	}
	return root
}

// Execute выполняет команду и печатает ошибку в поток ошибок.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(app.Err, "Ошибка: %s\n", err)
		return err
	}
	return nil
}

func (a *App) configPath() (string, error) {
	if a.configFlag != "" {
		return a.configFlag, nil
	}
	if a.ConfigPath != "" {
		return a.ConfigPath, nil
	}
	return config.DefaultCLIConfigPath()
}

// registry читает конфигурацию и создаёт реестр коллекций.
func (a *App) registry() (*resource.Registry, error) {
	path, err := a.configPath()
	if err != nil {
		return nil, err
	}
	file, err := config.ReadCLIConfigFile(path)
	if err != nil {
		return nil, err
	}
	api, err := config.ResolveCLIAPI(file, a.apiFlag)
	if err != nil {
		return nil, err
	}

	logger := a.logger(file.Log)
	backend, err := apiclient.NewBackend(api.BaseURL, api.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("клиент backend: %w", err)
	}
	return resource.NewRegistry(resource.NewClients(backend), resource.WithLogger(logger)), nil
}

// logger — текстовый или JSON-лог в поток ошибок, по умолчанию уровень warn.
func (a *App) logger(cfg config.CLILogConfig) *slog.Logger {
	level, err := config.ParseLogLevel(cfg.Level)
	if cfg.Level == "" || err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(a.Err, opts))
	}
	return slog.New(slog.NewTextHandler(a.Err, opts))
}
