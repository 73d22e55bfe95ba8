package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd queries a running daemon for job status
var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of an ordering job",
	Long: `Show status, progress, and logs for an ordering job on a running
orderd daemon.

Examples:
  # Check a job
  orderctl status 2f1e9c0a-6a6f-4b52-9b37-0a3a4f1de9b1

  # Check a job on a different server
  orderctl status --server http://localhost:8080 <job-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

// resultCmd fetches the ordering result of a completed job
var resultCmd = &cobra.Command{
	Use:   "result <job-id>",
	Short: "Fetch the result of a completed ordering job",
	Long: `Fetch the full ordering result of a completed job and print it as
JSON.

Examples:
  orderctl result 2f1e9c0a-6a6f-4b52-9b37-0a3a4f1de9b1`,
	Args: cobra.ExactArgs(1),
	RunE: runResult,
}

// JobStatusResponse matches internal/http/types.go JobStatusResponse
type JobStatusResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Logs      []struct {
		Timestamp time.Time `json:"timestamp"`
		Message   string    `json:"message"`
		Level     string    `json:"level"`
	} `json:"logs"`
	Error string `json:"error,omitempty"`
}

// runStatus handles the status command
func runStatus(cmd *cobra.Command, args []string) error {
	body, err := getJSON(fmt.Sprintf("%s/api/v1/jobs/%s", serverURL, args[0]))
	if err != nil {
		return err
	}

	var status JobStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Job:      %s\n", status.JobID)
	fmt.Printf("Status:   %s\n", status.Status)
	fmt.Printf("Progress: %d%%\n", status.Progress)
	if status.Error != "" {
		fmt.Printf("Error:    %s\n", status.Error)
	}
	for _, entry := range status.Logs {
		fmt.Printf("  %s [%s] %s\n", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message)
	}
	return nil
}

// runResult handles the result command
func runResult(cmd *cobra.Command, args []string) error {
	body, err := getJSON(fmt.Sprintf("%s/api/v1/jobs/%s/result", serverURL, args[0]))
	if err != nil {
		return err
	}

	// Re-indent so the raw record stays pipeable.
	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	encoded, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

// getJSON fetches a URL and returns the body, surfacing non-200 statuses as
// errors.
func getJSON(url string) ([]byte, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
