package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/domain/model"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// ErrNotTerminal — удаление без --yes, когда ввод не терминал.
var ErrNotTerminal = errors.New("ввод не является терминалом: подтвердите удаление флагом --yes")

// newResourceCommand — sitectl <коллекция> list|show|create|update|delete.
func newResourceCommand(app *App, d resource.Descriptor) *cobra.Command {
	cmd := &cobra.Command{
		Use:   d.Name,
		Short: fmt.Sprintf("Коллекция %s", d.Name),
	}
	cmd.AddCommand(
		newListCommand(app, d),
		newShowCommand(app, d),
		newCreateCommand(app, d),
		newUpdateCommand(app, d),
		newDeleteCommand(app, d),
	)
	return cmd
}

// session создаёт сессию коллекции d; opts дополняют настройки реестра.
func (a *App) session(d resource.Descriptor, opts ...resource.Option) (resource.Session, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, err
	}
	b, ok := reg.Lookup(d.Name)
	if !ok {
		return nil, fmt.Errorf("неизвестная коллекция %q", d.Name)
	}
	return b.NewSession(opts...), nil
}

func newListCommand(app *App, d resource.Descriptor) *cobra.Command {
	var (
		query  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Показать элементы коллекции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(d)
			if err != nil {
				return err
			}
			if err := s.Mount(cmd.Context()); err != nil {
				return describe(err)
			}

			v := s.View(query)
			if asJSON {
				return writeJSON(app, v.Rows)
			}
			return writeTable(app, d, v)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "поиск по текстовым полям")
	cmd.Flags().BoolVar(&asJSON, "json", false, "вывод в JSON")
	return cmd
}

func newShowCommand(app *App, d resource.Descriptor) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Показать все поля элемента",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(d)
			if err != nil {
				return err
			}
			if err := s.Mount(cmd.Context()); err != nil {
				return describe(err)
			}
			row, ok := findRow(s.View(""), args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], resource.ErrUnknownItem)
			}
			return writeRow(app, d, row)
		},
	}
}

func newCreateCommand(app *App, d resource.Descriptor) *cobra.Command {
	var (
		sets []string
		file string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Создать элемент",
		Example: fmt.Sprintf("  sitectl %s create --set %s=...",
			d.Name, d.Fields[0].Name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var createdID string
			s, err := app.session(d, resource.WithMutationHook(func(_ context.Context, m resource.Mutation) {
				if m.Operation == resource.OpCreate && m.Outcome == resource.OutcomeOK {
					createdID = m.ItemID
				}
			}))
			if err != nil {
				return err
			}

			s.OpenCreate()
			if err := applyDraft(s, d, sets, file); err != nil {
				return err
			}
			if err := submit(cmd.Context(), app, s); err != nil {
				return err
			}

			if createdID != "" {
				fmt.Fprintf(app.Out, "Создан элемент %s\n", createdID)
			} else {
				fmt.Fprintln(app.Out, "Элемент создан")
			}
			return nil
		},
	}
	addDraftFlags(cmd, d, &sets, &file)
	return cmd
}

func newUpdateCommand(app *App, d resource.Descriptor) *cobra.Command {
	var (
		sets []string
		file string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Изменить элемент (незаданные поля берутся из текущего значения)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(d)
			if err != nil {
				return err
			}
			if err := s.Mount(cmd.Context()); err != nil {
				return describe(err)
			}
			if err := s.OpenEdit(args[0]); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := applyDraft(s, d, sets, file); err != nil {
				return err
			}
			if err := submit(cmd.Context(), app, s); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Элемент %s сохранён\n", args[0])
			return nil
		},
	}
	addDraftFlags(cmd, d, &sets, &file)
	return cmd
}

func newDeleteCommand(app *App, d resource.Descriptor) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Удалить элемент",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && (app.IsTerminal == nil || !app.IsTerminal()) {
				return ErrNotTerminal
			}

			s, err := app.session(d)
			if err != nil {
				return err
			}
			if err := s.Mount(cmd.Context()); err != nil {
				return describe(err)
			}

			confirm := func(row resource.Row) bool {
				if yes {
					return true
				}
				return prompt(app, fmt.Sprintf("Удалить %s %s (%s)?", d.Name, row.ID, summary(d, row)))
			}

			err = s.Delete(cmd.Context(), args[0], confirm)
			switch {
			case errors.Is(err, resource.ErrCancelled):
				fmt.Fprintln(app.Out, "Удаление отменено")
				return nil
			case errors.Is(err, resource.ErrUnknownItem):
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := reconciled(app, err); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Элемент %s удалён\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "удалить без подтверждения")
	return cmd
}

func addDraftFlags(cmd *cobra.Command, d resource.Descriptor, sets *[]string, file *string) {
	cmd.Flags().StringArrayVar(sets, "set", nil, "значение поля field=value (можно повторять): "+strings.Join(d.FieldNames(), ", "))
	if d.HasFile() {
		cmd.Flags().StringVar(file, "file", "", fmt.Sprintf("файл для поля %s", d.FileField))
	}
}

// applyDraft переносит --set и --file в черновик сессии.
func applyDraft(s resource.Session, d resource.Descriptor, sets []string, file string) error {
	for _, kv := range sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: ожидается field=value", kv)
		}
		if err := s.SetField(strings.TrimSpace(name), value); err != nil {
			return fmt.Errorf("--set %s: %w (поля: %s)", name, err, strings.Join(d.FieldNames(), ", "))
		}
	}

	if file == "" {
		return nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("чтение файла: %w", err)
	}
	return s.SetAttachment(model.NewAttachment(filepath.Base(file), "", data))
}

// submit отправляет черновик; ошибки проверки печатаются по полям.
func submit(ctx context.Context, app *App, s resource.Session) error {
	err := s.Submit(ctx)
	if resource.IsValidation(err) {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			names := make([]string, 0, len(apiErr.Fields))
			for name := range apiErr.Fields {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(app.Err, "  %s: %s\n", name, apiErr.Fields[name])
			}
		}
		return describe(err)
	}
	return reconciled(app, err)
}

// reconciled превращает ReconcileError в предупреждение: мутация выполнена.
func reconciled(app *App, err error) error {
	var rerr *resource.ReconcileError
	if errors.As(err, &rerr) {
		fmt.Fprintf(app.Err, "Предупреждение: %s\n", rerr)
		return nil
	}
	return describe(err)
}

// describe добавляет к ошибке backend вид ошибки.
func describe(err error) error {
	if err == nil {
		return nil
	}
	switch apiclient.KindOf(err) {
	case apiclient.KindNetwork:
		return fmt.Errorf("backend недоступен: %w", err)
	case apiclient.KindValidation:
		return fmt.Errorf("проверка не пройдена: %w", err)
	case apiclient.KindServer:
		return fmt.Errorf("ошибка backend: %w", err)
	}
	return err
}

// prompt задаёт вопрос [y/N]; согласие — только y или yes.
func prompt(app *App, question string) bool {
	fmt.Fprintf(app.Out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(app.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "д", "да":
		return true
	}
	return false
}

// summary — значение первого непустого поля для подсказки.
func summary(d resource.Descriptor, row resource.Row) string {
	for _, name := range d.FieldNames() {
		if v := strings.TrimSpace(row.Fields[name]); v != "" {
			return truncate(v, 40)
		}
	}
	return "-"
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func findRow(v resource.View, id string) (resource.Row, bool) {
	for _, row := range v.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return resource.Row{}, false
}

func writeTable(app *App, d resource.Descriptor, v resource.View) error {
	tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	header := append([]string{"ID"}, d.FieldNames()...)
	if d.HasFile() {
		header = append(header, d.FileField)
	}
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))

	for _, row := range v.Rows {
		cells := []string{row.ID}
		for _, name := range d.FieldNames() {
			cells = append(cells, truncate(row.Fields[name], 30))
		}
		if d.HasFile() {
			cells = append(cells, row.FileURL)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "%d из %d\n", len(v.Rows), v.Total)
	return nil
}

func writeRow(app *App, d resource.Descriptor, row resource.Row) error {
	tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "_id\t%s\n", row.ID)
	for _, name := range d.FieldNames() {
		fmt.Fprintf(tw, "%s\t%s\n", name, row.Fields[name])
	}
	if row.FileURL != "" {
		fmt.Fprintf(tw, "%s\t%s\n", d.FileField, row.FileURL)
	}
	if row.FileName != "" {
		fmt.Fprintf(tw, "fileName\t%s\n", row.FileName)
	}
	if row.Downloads > 0 {
		fmt.Fprintf(tw, "downloads\t%d\n", row.Downloads)
	}
	if !row.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "createdAt\t%s\n", row.CreatedAt.Format(time.RFC3339))
	}
	if !row.UpdatedAt.IsZero() {
		fmt.Fprintf(tw, "updatedAt\t%s\n", row.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// jsonRow — элемент в выводе --json.
type jsonRow struct {
	ID        string            `json:"_id"`
	Fields    map[string]string `json:"fields"`
	FileURL   string            `json:"fileUrl,omitempty"`
	Downloads int64             `json:"downloads,omitempty"`
}

func writeJSON(app *App, rows []resource.Row) error {
	out := make([]jsonRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, jsonRow{ID: row.ID, Fields: row.Fields, FileURL: row.FileURL, Downloads: row.Downloads})
	}
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
