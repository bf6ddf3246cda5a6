package main

import (
	"fmt"
	"strings"

	"github.com/harunnryd/moltbot/cmd/moltbot/runtime"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/policy"

	"github.com/spf13/cobra"
)

var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Inspect and exercise the security sandbox",
	Long:  `Show sandbox status, recorded violations and reports, and probe individual access decisions.`,
}

var securityStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sandbox security status",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			status := rc.PolicyEngine.Status()
			if violations, err := rc.RecordedViolations(); err == nil {
				status.ViolationCount = len(violations)
			}

			out, err := f.FormatStatus(status)
			if err != nil {
				return err
			}
			fmt.Println(out)

			if !status.Enabled {
				fmt.Println("Warning: sandbox is disabled. Enable it before running the agent unattended.")
			}
			return nil
		})
	},
}

var securityViolationsCmd = &cobra.Command{
	Use:   "violations",
	Short: "Show recorded security violations",
	Long:  `List violations from the audit log when security.audit_log is set, otherwise those recorded by this process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			violations, err := rc.RecordedViolations()
			if err != nil {
				return fmt.Errorf("failed to read violations: %w", err)
			}

			out, err := f.FormatViolations(violations)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		})
	},
}

var securityReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show a security report with recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			report := policy.BuildReport(rc.PolicyEngine)
			if rc.AuditSink != nil {
				violations, err := rc.RecordedViolations()
				if err != nil {
					return fmt.Errorf("failed to read violations: %w", err)
				}
				report = policy.BuildReportFrom(rc.PolicyEngine.Status(), violations, rc.PolicyEngine.Threshold())
			}

			out, err := f.FormatReport(report)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		})
	},
}

var securityTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the sandbox self-test",
	Long:  `Probe a fixed set of paths, commands and URLs and check each decision against the expected outcome.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			results := runSelfTest(rc.PolicyEngine)

			failed := 0
			section := ""
			for _, r := range results {
				if r.probe.section != section {
					section = r.probe.section
					fmt.Printf("\nTesting %s permissions...\n", section)
				}
				mark := "ok"
				if !r.passed() {
					mark = "FAIL"
					failed++
				}
				fmt.Printf("  %-24s %s\n", r.probe.label+":", mark)
			}
			fmt.Println()

			if failed > 0 {
				return moltErrors.Internal(fmt.Sprintf("%d of %d security self-tests failed", failed, len(results)))
			}
			fmt.Println("Security tests completed")
			return nil
		})
	},
}

var securityCheckCmd = &cobra.Command{
	Use:   "check <read|write|exec|net> <target>",
	Short: "Check a single access decision",
	Long:  `Ask the policy engine whether a path, command or URL is allowed. Exits non-zero when denied.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := args[0]
		target := strings.Join(args[1:], " ")

		return executeWithRuntime(cmd, func(rc *runtime.RuntimeComponents) error {
			argv, err := checkAccess(rc.Guard, action, target)
			if err != nil {
				return err
			}

			fmt.Printf("allowed: %s %s\n", action, target)
			if len(argv) > 0 {
				fmt.Printf("argv: %q\n", argv)
			}
			return nil
		})
	},
}

// checkAccess routes one probe through the guard so a denial surfaces as a
// permission error.
func checkAccess(g *policy.Guard, action, target string) ([]string, error) {
	switch strings.ToLower(action) {
	case "read":
		return nil, g.Read(target)
	case "write":
		return nil, g.Write(target)
	case "exec", "execute":
		return g.Exec(target)
	case "net", "network":
		return nil, g.Network(target)
	default:
		return nil, moltErrors.InvalidInput(fmt.Sprintf("unknown check %q (supported: read, write, exec, net)", action))
	}
}

type selfTestProbe struct {
	section string
	label   string
	target  string
	check   func(*policy.Engine, string) bool
	want    bool
}

type selfTestResult struct {
	probe selfTestProbe
	got   bool
}

func (r selfTestResult) passed() bool {
	return r.got == r.probe.want
}

func selfTestProbes() []selfTestProbe {
	read := (*policy.Engine).CanRead
	write := (*policy.Engine).CanWrite
	exec := (*policy.Engine).CanExecute
	network := (*policy.Engine).CanAccessNetwork

	return []selfTestProbe{
		{section: "read", label: "src/config.ts", target: "src/config.ts", check: read, want: true},
		{section: "read", label: "~/.ssh/id_rsa", target: "~/.ssh/id_rsa", check: read, want: false},
		{section: "write", label: "logs/test.log", target: "logs/test.log", check: write, want: true},
		{section: "write", label: "~/Documents/test.txt", target: "~/Documents/test.txt", check: write, want: false},
		{section: "command", label: "npm run cli", target: "npm run cli fetch-feed", check: exec, want: true},
		{section: "command", label: "rm -rf /", target: "rm -rf /", check: exec, want: false},
		{section: "network", label: "moltbook.com", target: "https://moltbook.com", check: network, want: true},
		{section: "network", label: "malicious.com", target: "https://malicious.com", check: network, want: false},
	}
}

func runSelfTest(e *policy.Engine) []selfTestResult {
	probes := selfTestProbes()
	results := make([]selfTestResult, 0, len(probes))
	for _, p := range probes {
		results = append(results, selfTestResult{probe: p, got: p.check(e, p.target)})
	}
	return results
}

func init() {
	for _, c := range []*cobra.Command{securityStatusCmd, securityViolationsCmd, securityReportCmd} {
		c.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")
	}

	securityCmd.AddCommand(securityStatusCmd)
	securityCmd.AddCommand(securityViolationsCmd)
	securityCmd.AddCommand(securityReportCmd)
	securityCmd.AddCommand(securityTestCmd)
	securityCmd.AddCommand(securityCheckCmd)
	rootCmd.AddCommand(securityCmd)
}
