package policy

import "fmt"

type Report struct {
	Status          Status      `json:"status" yaml:"status"`
	Violations      []Violation `json:"violations" yaml:"violations"`
	Recommendations []string    `json:"recommendations" yaml:"recommendations"`
}

func BuildReport(e *Engine) Report {
	return BuildReportFrom(e.Status(), e.Violations(), e.Threshold())
}

// BuildReportFrom builds a report over an externally sourced violation list,
// such as the audit log. Status.ViolationCount follows the list.
func BuildReportFrom(status Status, violations []Violation, threshold int) Report {
	status.ViolationCount = len(violations)

	var recommendations []string
	if !status.Enabled {
		recommendations = append(recommendations, "Sandbox is disabled; enable security.enabled in the policy document")
	}
	if n := len(violations); n > 0 {
		recommendations = append(recommendations, fmt.Sprintf("%d security violations detected; review the violation log", n))
		if n > threshold {
			recommendations = append(recommendations, "Too many violations; the agent may be compromised, stop it and inspect its inputs")
		}
	}

	return Report{
		Status:          status,
		Violations:      violations,
		Recommendations: recommendations,
	}
}
