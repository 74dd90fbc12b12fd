package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var scheduleInputFile string

// scheduleCmd posts a task batch read from a file to a running engine
// and prints the resulting schedule. The input file may be JSON or
// YAML; YAML is converted to JSON before being posted, since the
// engine's wire format (and its JSON Schema) is JSON-only.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Submit a task batch for scheduling",
	Long: `Reads a task batch (JSON or YAML) from a file and posts it to
POST /api/v1/schedule on a running load scheduling engine, printing the
resulting schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		if scheduleInputFile == "" {
			fmt.Fprintln(os.Stderr, "Error: --file is required")
			os.Exit(1)
		}

		raw, err := os.ReadFile(scheduleInputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}

		payload, err := toJSON(scheduleInputFile, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing input file: %v\n", err)
			os.Exit(1)
		}

		url := fmt.Sprintf("http://%s:%d/api/v1/schedule", serverHost, serverPort)
		client := &http.Client{Timeout: 30 * time.Second}

		resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error submitting task batch: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading response: %v\n", err)
			os.Exit(1)
		}

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Scheduling request failed (status: %d)\n%s\n", resp.StatusCode, string(body))
			os.Exit(1)
		}

		var pretty map[string]interface{}
		if err := json.Unmarshal(body, &pretty); err != nil {
			fmt.Println(string(body))
			return
		}
		indented, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(indented))
	},
}

// toJSON converts a YAML task-batch file to JSON; a .json file is
// passed through unchanged.
func toJSON(path string, raw []byte) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return raw, nil
	}

	var decoded interface{}
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return json.Marshal(decoded)
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleInputFile, "file", "f", "", "path to a JSON or YAML task batch")
	rootCmd.AddCommand(scheduleCmd)
}
