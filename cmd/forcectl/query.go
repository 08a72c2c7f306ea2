package main

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/forcekit/forceclient/pkg/session"
)

// queryCmd runs a SOQL query and renders the records as a table.
var queryCmd = &cobra.Command{
	Use:   "query <soql>",
	Short: "Run a SOQL query and print all result pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		records, err := s.Query(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}

		renderRecords(records)
		pterm.Success.Printfln("%d record(s), %d request(s), %d error(s)",
			len(records), s.Requests(), s.Errors())
		return nil
	},
}

// searchCmd runs a SOSL search.
var searchCmd = &cobra.Command{
	Use:   "search <sosl>",
	Short: "Run a SOSL search and print all result pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		records, err := s.Search(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}

		renderRecords(records)
		pterm.Success.Printfln("%d record(s)", len(records))
		return nil
	},
}

// renderRecords prints records as a table with a stable column order.
func renderRecords(records []session.Record) {
	if len(records) == 0 {
		pterm.Info.Println("No records")
		return
	}

	columns := []string{"Id"}
	seen := map[string]bool{"Id": true}
	var fields []string
	for _, rec := range records {
		for name := range rec.Fields {
			if !seen[name] {
				seen[name] = true
				fields = append(fields, name)
			}
		}
	}
	sort.Strings(fields)
	columns = append(columns, fields...)

	data := pterm.TableData{columns}
	for _, rec := range records {
		row := make([]string, len(columns))
		row[0] = rec.ID
		for i, name := range columns[1:] {
			if value := rec.Field(name); value != nil {
				row[i+1] = fmt.Sprint(value)
			}
		}
		data = append(data, row)
	}

	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(searchCmd)
}
