package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bigkaa/hydrosite/internal/config"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// newResourcesCommand — sitectl resources: список коллекций и их полей.
func newResourcesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Показать коллекции backend и их поля",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "КОЛЛЕКЦИЯ\tПОЛЯ\tФАЙЛ")
			for _, d := range resource.Descriptors() {
				fields := make([]string, 0, len(d.Fields))
				for _, f := range d.Fields {
					name := f.Name + ":" + string(f.Type)
					if f.Required {
						name += "*"
					}
					fields = append(fields, name)
				}
				file := "-"
				if d.HasFile() {
					file = d.FileField
					if d.FileRequired {
						file += "*"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, strings.Join(fields, ", "), file)
			}
			return tw.Flush()
		},
	}
}

// newSchemaCommand — sitectl schema: OpenAPI-документ контракта backend.
func newSchemaCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Напечатать OpenAPI-документ контракта backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := resource.Document(resource.Descriptors(), config.Version)
			enc := json.NewEncoder(app.Out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("кодирование документа: %w", err)
			}
			return nil
		},
	}
}

// newConfigCommand — sitectl config init|show.
func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Файл конфигурации sitectl",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Создать файл конфигурации",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configPath()
			if err != nil {
				return err
			}

			cfg := &config.CLIConfig{
				API: config.CLIAPIConfig{BaseURL: "http://localhost:3001", Timeout: "15s"},
				Log: config.CLILogConfig{Level: "warn", Format: "text"},
			}
			if app.apiFlag != "" {
				base, err := config.NormalizeBaseURL(app.apiFlag)
				if err != nil {
					return err
				}
				cfg.API.BaseURL = base
			}

			if err := config.InitCLIConfigFile(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Конфигурация создана: %s\n", path)
			fmt.Fprintf(app.Out, "Backend: %s\n", cfg.API.BaseURL)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Показать действующие параметры backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configPath()
			if err != nil {
				return err
			}
			file, err := config.ReadCLIConfigFile(path)
			if err != nil {
				return err
			}
			api, err := config.ResolveCLIAPI(file, app.apiFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Файл:    %s\n", path)
			fmt.Fprintf(app.Out, "Backend: %s\n", api.BaseURL)
			fmt.Fprintf(app.Out, "Таймаут: %s\n", api.Timeout)
			return nil
		},
	})

	return cmd
}
