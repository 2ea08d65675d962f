package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/fraud-analyzer/internal/pipeline"
)

// Property names of the fraud reports database.
const (
	PropReportID       = "Report ID"
	PropAccountID      = "Account ID"
	PropRiskLevel      = "Risk Level"
	PropRiskScore      = "Risk Score"
	PropDetections     = "Detections"
	PropGenerated      = "Generated"
	PropTopPattern     = "Top Pattern"
	PropRecommendation = "Recommendation"
)

// ReportToNotionProperties converts a report to a page of the reports database.
func ReportToNotionProperties(r *pipeline.Report) notionapi.Properties {
	generated := notionapi.Date(r.Timestamp)

	props := notionapi.Properties{
		PropReportID: notionapi.TitleProperty{
			Title: richText(r.ReportID),
		},
		PropAccountID: notionapi.RichTextProperty{
			RichText: richText(r.AccountID),
		},
		PropRiskLevel: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(r.RiskScore.Level)},
		},
		PropRiskScore: notionapi.NumberProperty{
			Number: float64(r.RiskScore.Score),
		},
		PropDetections: notionapi.NumberProperty{
			Number: float64(len(r.Detections)),
		},
		PropGenerated: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &generated},
		},
	}

	if r.RiskScore.Recommendation != "" {
		props[PropRecommendation] = notionapi.RichTextProperty{
			RichText: richText(r.RiskScore.Recommendation),
		}
	}

	// Detections are ordered by rule, so the first one is the leading pattern.
	if len(r.Detections) > 0 {
		props[PropTopPattern] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(r.Detections[0].Pattern)},
		}
	}

	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

// extractReportID reads the Report ID title from a page, or "" when absent.
func extractReportID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropReportID]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok && len(title.Title) > 0 {
			return title.Title[0].PlainText
		}
	}
	return ""
}
