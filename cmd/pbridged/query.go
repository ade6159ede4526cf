package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/pushchain/push-bridge-core/bridgeCore/config"
)

// Output formats
const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

// QueryResponse represents the standard query response format from HTTP API
type QueryResponse struct {
	Data json.RawMessage `json:"data"`
}

// ErrorResponse represents an error response from HTTP API
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Querying commands against a running node",
	}

	cmd.AddCommand(
		queryPathCmd("params", "Query the quorum policy and oracle counters", 0, func(args []string) (string, error) {
			return "/api/v1/params", nil
		}),
		queryPathCmd("oracles", "Query all registered oracles", 0, func(args []string) (string, error) {
			return "/api/v1/oracles", nil
		}),
		queryPathCmd("submission [submission-id]", "Query the confirmation state of a submission", 1, func(args []string) (string, error) {
			id, err := parseHash(args[0])
			if err != nil {
				return "", err
			}
			return "/api/v1/submissions/" + id.Hex(), nil
		}),
		queryPathCmd("order [order-id]", "Query an order and its fee accounting", 1, func(args []string) (string, error) {
			id, err := parseHash(args[0])
			if err != nil {
				return "", err
			}
			return "/api/v1/orders/" + id.Hex(), nil
		}),
		queryPathCmd("asset [debridge-id]", "Query a deployed asset", 1, func(args []string) (string, error) {
			id, err := parseHash(args[0])
			if err != nil {
				return "", err
			}
			return "/api/v1/assets/" + id.Hex(), nil
		}),
		queryPathCmd("deploy [deploy-id]", "Query the confirmation state of an asset registration", 1, func(args []string) (string, error) {
			id, err := parseHash(args[0])
			if err != nil {
				return "", err
			}
			return "/api/v1/deploys/" + id.Hex(), nil
		}),
	)
	return cmd
}

func queryPathCmd(use, short string, nArgs int, path func(args []string) (string, error)) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := path(args)
			if err != nil {
				return err
			}
			port, err := getQueryServerPort()
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d%s", port, p))
			if err != nil {
				return fmt.Errorf("failed to query %s: %w", p, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				if errResp.Outcome != "" {
					return fmt.Errorf("server error (%s): %s", errResp.Outcome, errResp.Error)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var data interface{}
			if err := json.Unmarshal(queryResp.Data, &data); err != nil {
				return fmt.Errorf("failed to unmarshal response data: %w", err)
			}
			return printOutput(data, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

// getQueryServerPort loads the config to get the query server port
func getQueryServerPort() (int, error) {
	loadedCfg, err := config.Load(homeDir)
	if err != nil {
		return 0, fmt.Errorf("failed to load config: %w", err)
	}

	return loadedCfg.QueryServerPort, nil
}

// printOutput prints the output in the specified format
func printOutput(data interface{}, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		return encoder.Encode(data)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
