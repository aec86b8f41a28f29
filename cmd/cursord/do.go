package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newDoCmd builds the terminal client: it sends a goal to a running daemon
// and prints the actions it performed.
func newDoCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "do [goal]",
		Short: "Send a goal to a running cursord daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal := ""
			if len(args) == 1 {
				goal = args[0]
			} else {
				fmt.Print("goal> ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				goal = strings.TrimSpace(line)
			}
			if goal == "" {
				return fmt.Errorf("goal is required")
			}

			body, _ := json.Marshal(map[string]any{"goal": goal})
			resp, err := http.Post(baseURL+"/api/pair-program", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("calling daemon: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var apiErr struct {
					Error string `json:"error"`
				}
				if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
					return fmt.Errorf("daemon: %s", apiErr.Error)
				}
				return fmt.Errorf("daemon returned %s", resp.Status)
			}

			var result struct {
				ActionsPerformed []map[string]any `json:"actionsPerformed"`
				FinalPosition    struct {
					X int `json:"x"`
					Y int `json:"y"`
				} `json:"finalPosition"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}

			for i, action := range result.ActionsPerformed {
				b, _ := json.Marshal(action)
				fmt.Printf("%2d. %s\n", i+1, b)
			}
			fmt.Printf("cursor at %d,%d (%d actions)\n",
				result.FinalPosition.X, result.FinalPosition.Y, len(result.ActionsPerformed))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://127.0.0.1:8377", "Daemon base URL")
	return cmd
}
