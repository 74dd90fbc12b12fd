package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check load scheduling engine status",
	Long:  `Check the health and status of the load scheduling engine.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("http://%s:%d/health", serverHost, serverPort)

		client := &http.Client{
			Timeout: 10 * time.Second,
		}

		resp, err := client.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to load scheduling engine: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "load scheduling engine is not healthy (status: %d)\n", resp.StatusCode)
			os.Exit(1)
		}

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)

		if verbose {
			jsonData, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(jsonData))
		} else {
			if status, ok := result["status"].(string); ok {
				fmt.Printf("Status: %s\n", status)
			}
			if service, ok := result["service"].(string); ok {
				fmt.Printf("Service: %s\n", service)
			}
			if duration, ok := result["duration"].(string); ok {
				fmt.Printf("Check duration: %s\n", duration)
			}
		}
	},
}

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show load scheduling engine metrics",
	Long:  `Show Prometheus metrics scraped from the load scheduling engine.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("http://%s:%d/metrics", serverHost, serverPort)

		client := &http.Client{
			Timeout: 10 * time.Second,
		}

		resp, err := client.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting metrics: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error getting metrics (status: %d)\n", resp.StatusCode)
			os.Exit(1)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading metrics response: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(body))
	},
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show load scheduling engine information",
	Long:  `Show detailed information about the load scheduling engine's capabilities and endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("http://%s:%d/info", serverHost, serverPort)

		client := &http.Client{
			Timeout: 10 * time.Second,
		}

		resp, err := client.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting info: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error getting info (status: %d)\n", resp.StatusCode)
			os.Exit(1)
		}

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)

		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
	},
}

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the load scheduling engine",
	Long:  `Ping the load scheduling engine's liveness endpoint to check connectivity.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("http://%s:%d/live", serverHost, serverPort)

		client := &http.Client{
			Timeout: 5 * time.Second,
		}

		start := time.Now()
		resp, err := client.Get(url)
		duration := time.Since(start)

		if err != nil {
			fmt.Fprintf(os.Stderr, "Ping failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Ping failed (status: %d)\n", resp.StatusCode)
			os.Exit(1)
		}

		fmt.Printf("Ping successful - Response time: %v\n", duration)

		if verbose {
			body, _ := io.ReadAll(resp.Body)
			fmt.Printf("Response: %s\n", string(body))
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(pingCmd)
}
