package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/forcekit/forceclient/pkg/session"
)

var insertFile string

// insertCmd creates records of one sObject type from a JSON document.
// The document is either a single object or an array of objects, each in
// the wire shape ({"attributes": {"type": ...}, "Name": ...}).
var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Insert records from a JSON file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(insertFile)
		if err != nil {
			return err
		}

		records, err := decodeRecords(data)
		if err != nil {
			return err
		}

		s, err := newSession()
		if err != nil {
			return err
		}

		results, err := s.Insert(cmd.Context(), records...)
		if err != nil {
			return err
		}

		for _, result := range results {
			if len(result.Errors) > 0 {
				pterm.Error.Printfln("%s: %s", result.ReferenceID, result.Errors[0].Message)
				continue
			}
			pterm.Printfln("%s -> %s", result.ReferenceID, result.ID)
		}
		pterm.Success.Printfln("%d record(s) inserted", len(results))
		return nil
	},
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// decodeRecords accepts a single record object or an array of them.
func decodeRecords(data []byte) ([]session.Record, error) {
	var records []session.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var single session.Record
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("input is neither a record nor an array of records: %w", err)
	}
	return []session.Record{single}, nil
}

func init() {
	insertCmd.Flags().StringVarP(&insertFile, "file", "f", "", "JSON file with records (default: stdin)")
	rootCmd.AddCommand(insertCmd)
}
