// Package output renders fraud reports for people and writes them to disk
// or object storage.
package output

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	"github.com/dvloznov/fraud-analyzer/internal/pipeline"
)

// MaxNarrativeChars bounds each narrative in the console rendering.
const MaxNarrativeChars = 500

const (
	rule = "======================================================================"
	sep  = "----------------------------------------------------------------------"
)

var printer = message.NewPrinter(language.English)

func money(x float64) string {
	return printer.Sprintf("$%.2f", x)
}

// RecommendedActions returns the checklist printed for a risk level.
func RecommendedActions(level fraud.Level) []string {
	switch level {
	case fraud.LevelCritical:
		return []string{
			"IMMEDIATELY BLOCK ACCOUNT",
			"Contact account holder for verification",
			"File Suspicious Activity Report (SAR)",
			"Initiate full fraud investigation",
		}
	case fraud.LevelHigh:
		return []string{
			"Flag account for review",
			"Contact account holder to verify transactions",
			"Prepare SAR documentation",
			"Monitor account closely for 30 days",
		}
	default:
		return []string{
			"Monitor account for additional anomalies",
			"Continue regular transaction monitoring",
			"Document findings for compliance records",
		}
	}
}

// RenderReport prints the six-section console report.
func RenderReport(w io.Writer, r *pipeline.Report) error {
	ew := &errWriter{w: w}

	ew.printf("\n%s\n", rule)
	ew.printf("FRAUD DETECTION ANALYSIS REPORT\n")
	ew.printf("Account: %s\n", r.AccountID)
	ew.printf("Report ID: %s\n", r.ReportID)
	ew.printf("Generated: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	ew.printf("%s\n\n", rule)

	renderStatistics(ew, r.Statistics)
	renderDetections(ew, r.Detections)
	renderKnowledge(ew, r.KnowledgeFindings)
	renderNarratives(ew, r.Narratives)
	renderRisk(ew, r.RiskScore)
	renderSummary(ew, r)

	ew.printf("\n%s\n\n", rule)
	return ew.err
}

func section(ew *errWriter, n int, title string) {
	if n > 1 {
		ew.printf("\n")
	}
	ew.printf("%d. %s\n%s\n", n, title, sep)
}

func renderStatistics(ew *errWriter, s *fraud.Statistics) {
	section(ew, 1, "STATISTICAL ANALYSIS")
	if s == nil {
		ew.printf("No statistics available\n")
		return
	}
	ew.printf("Total Transactions: %d\n", s.TotalTransactions)
	ew.printf("Total Amount: %s\n", money(s.TotalAmount))
	ew.printf("Average Transaction: %s\n", money(s.AverageAmount))
	ew.printf("Median Transaction: %s\n", money(s.MedianAmount))
	ew.printf("Std Deviation: %s\n", money(s.StdDeviation))
	ew.printf("Amount Range: %s - %s\n", money(s.MinAmount), money(s.MaxAmount))
	ew.printf("Outliers Detected: %d\n", len(s.AmountOutliers))
	ew.printf("Unique Merchants: %d\n", s.Merchants.UniqueMerchants)
	ew.printf("Unique Locations: %d\n", s.Geography.UniqueLocations)
}

func renderDetections(ew *errWriter, ds []fraud.Detection) {
	section(ew, 2, "FRAUD PATTERN DETECTION")
	if len(ds) == 0 {
		ew.printf("No suspicious patterns detected\n")
		return
	}
	for _, d := range ds {
		ew.printf("\n  [!] Pattern: %s\n", d.Pattern)
		ew.printf("      Severity: %s\n", d.Severity)
		ew.printf("      Occurrences: %d\n", d.Count)
	}
}

func renderKnowledge(ew *errWriter, findings []pipeline.KnowledgeFinding) {
	section(ew, 3, "KNOWLEDGE BASE PATTERN MATCHING")
	if len(findings) == 0 {
		ew.printf("No knowledge base lookups\n")
		return
	}
	for _, f := range findings {
		ew.printf("\n  Analyzing: %s\n", f.Pattern)
		if len(f.RelatedPatterns) > 0 {
			ew.printf("  Related patterns from knowledge base:\n")
			for _, p := range f.RelatedPatterns {
				ew.printf("    - %s (Risk Level: %s)\n", displayName(p), p.RiskLevel)
			}
		}
		if len(f.Regulations) > 0 {
			ew.printf("  Relevant regulations:\n")
			for _, reg := range f.Regulations {
				ew.printf("    - %s\n", reg.Title)
			}
		}
		if f.Error != "" {
			ew.printf("  Lookup incomplete: %s\n", f.Error)
		}
	}
}

func displayName(p pipeline.RelatedPattern) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func renderNarratives(ew *errWriter, ns []pipeline.Narrative) {
	section(ew, 4, "DETAILED MODEL ANALYSIS")
	if len(ns) == 0 {
		ew.printf("Nothing to analyze\n")
		return
	}
	for _, n := range ns {
		ew.printf("\n  Pattern: %s\n", n.Pattern)
		ew.printf("  %s\n", sep[:66])
		if n.Source == pipeline.SourceFallback {
			ew.printf("  (fallback analysis: %s)\n", n.Reason)
		}
		ew.printf("%s\n", Truncate(n.Text, MaxNarrativeChars))
	}
}

func renderRisk(ew *errWriter, rs fraud.RiskScore) {
	section(ew, 5, "OVERALL RISK ASSESSMENT")
	ew.printf("Risk Score: %.1f/100\n", float64(rs.Score))
	ew.printf("Risk Level: %s\n", rs.Level)
	ew.printf("Recommendation: %s\n", rs.Recommendation)
}

func renderSummary(ew *errWriter, r *pipeline.Report) {
	section(ew, 6, "SUMMARY AND RECOMMENDATIONS")
	counts := r.CountBySeverity()
	ew.printf("Total Fraud Patterns Detected: %d\n", len(r.Detections))
	ew.printf("Critical Alerts: %d\n", counts[fraud.SeverityCritical])
	ew.printf("High Risk Alerts: %d\n", counts[fraud.SeverityHigh])
	ew.printf("Medium Risk Alerts: %d\n", counts[fraud.SeverityMedium])

	ew.printf("\nRecommended Actions:\n")
	for i, a := range RecommendedActions(r.RiskScore.Level) {
		ew.printf("  %d. %s\n", i+1, a)
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// RenderSummaryTable prints one line per report, for multi-account runs.
func RenderSummaryTable(w io.Writer, reports []*pipeline.Report) error {
	ew := &errWriter{w: w}
	ew.printf("%-12s %-9s %5s %10s  %s\n", "ACCOUNT", "LEVEL", "SCORE", "DETECTIONS", "TOP PATTERN")
	for _, r := range reports {
		top := "-"
		if len(r.Detections) > 0 {
			top = string(r.Detections[0].Pattern)
		}
		ew.printf("%-12s %-9s %5d %10d  %s\n", r.AccountID, r.RiskScore.Level, r.RiskScore.Score, len(r.Detections), top)
	}
	return ew.err
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// String renders r to a string.
func String(r *pipeline.Report) string {
	var b strings.Builder
	_ = RenderReport(&b, r)
	return b.String()
}
