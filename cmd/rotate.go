package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/openaid/respond/api/decks"
)

var (
	rotateAPI   string
	rotateToken string
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Run one rotation sweep on a running service and exit",
	RunE:  rotateOnce,
}

func init() {
	rotateCmd.Flags().StringVar(&rotateAPI, "api", "http://localhost:8080", "base URL of the service")
	rotateCmd.Flags().StringVar(&rotateToken, "token", "", "bearer token")
	rootCmd.AddCommand(rotateCmd)
}

func rotateOnce(cmd *cobra.Command, args []string) error {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		rotateAPI+"/api/decks/rotate", nil)
	if err != nil {
		return err
	}
	if rotateToken != "" {
		req.Header.Set("Authorization", "Bearer "+rotateToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rotate: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	var res decks.RotateResult
	if err := json.Unmarshal(body, &res); err != nil {
		return err
	}
	fmt.Printf("rotated %d of %d rosters\n", res.Rotated, res.Rosters)
	return nil
}
