package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/cmd/htmlfix/opts"
	"github.com/walteh/htmlfix/pkg/defect"
)

// NewDefectsCmd creates the defects command
func NewDefectsCmd(ro *opts.RootOpts) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "defects",
		Short: "List the defects fix can repair, in the order they run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := allDefects(ro.Config)
			if err != nil {
				return err
			}

			type row struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			var rows []row
			for _, d := range reg.All() {
				rows = append(rows, row{Name: d.Name, Description: d.Description})
			}
			rows = append(rows, row{
				Name:        defect.FilenameCase,
				Description: "match link file names to the case found on disk (--resolve-case)",
			})

			if asJSON {
				enc := json.NewEncoder(ro.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			data := pterm.TableData{{"#", "Defect", "Description"}}
			for i, r := range rows {
				data = append(data, []string{fmt.Sprint(i + 1), r.Name, r.Description})
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return errors.Errorf("rendering defects: %w", err)
			}
			fmt.Fprintln(ro.Out, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
