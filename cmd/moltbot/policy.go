package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harunnryd/moltbot/cmd/moltbot/runtime"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/formatter"
	"github.com/harunnryd/moltbot/internal/policy"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage the sandbox policy document",
	Long:  `Create, show and validate the policy document the security sandbox enforces.`,
}

var policyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default policy document",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			if err := writeDefaultPolicy(rc.PolicyPath, force); err != nil {
				return err
			}
			fmt.Printf("Policy written to %s\n", rc.PolicyPath)
			return nil
		})
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective policy document",
	Long:  `Print the policy the sandbox enforces. Defaults are shown when the document is missing or invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			out, err := formatter.Encode(format, rc.PolicyEngine.Document())
			if err != nil {
				return moltErrors.InvalidInput(err.Error())
			}

			source := rc.PolicyPath
			if !rc.PolicyLoaded {
				source = "built-in defaults"
			}
			fmt.Fprintf(os.Stderr, "Policy source: %s\n", source)
			fmt.Println(out)
			return nil
		})
	},
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a policy document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			path := rc.PolicyPath
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := policy.LoadDocument(path); err != nil {
				return moltErrors.InvalidInput(err.Error())
			}
			fmt.Printf("Policy %s is valid\n", path)
			return nil
		})
	},
}

func writeDefaultPolicy(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return moltErrors.Conflict(fmt.Sprintf("policy already exists at %s (use --force to overwrite)", path))
	}

	data, err := json.MarshalIndent(policy.DefaultDocument(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode default policy: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create policy dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write policy: %w", err)
	}
	return nil
}

func init() {
	policyInitCmd.Flags().Bool("force", false, "overwrite an existing policy document")
	policyShowCmd.Flags().StringP("output", "o", "json", "output format (json, yaml)")

	policyCmd.AddCommand(policyInitCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyValidateCmd)
	rootCmd.AddCommand(policyCmd)
}
