package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/pipeline"
)

// SyncResult counts what a sync did.
type SyncResult struct {
	Created int
	Skipped int
	Deleted int
	Failed  int
}

// SyncOptions tunes SyncReports.
type SyncOptions struct {
	DryRun bool
	// Prune archives pages whose Report ID is not among the synced reports.
	Prune bool
}

// SyncReports creates one Notion page per report, keyed by Report ID.
// Reports that already have a page are skipped. A failed page is logged
// and counted; only listing the database can fail the whole sync.
func SyncReports(ctx context.Context, notionClient NotionService, notionDBID string, reports []*pipeline.Report, opts SyncOptions) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	log.Info().
		Bool("dry_run", opts.DryRun).
		Int("report_count", len(reports)).
		Msg("Starting reports sync to Notion")

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return res, fmt.Errorf("SyncReports: %w", err)
	}
	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	existing := make(map[string]bool, len(notionPages))
	for _, page := range notionPages {
		if id := extractReportID(page); id != "" {
			existing[id] = true
		}
	}

	if opts.Prune {
		res.Deleted, res.Failed = pruneStale(ctx, notionClient, notionPages, reports, opts.DryRun)
	}

	for _, r := range reports {
		if existing[r.ReportID] {
			res.Skipped++
			continue
		}

		if opts.DryRun {
			log.Info().
				Str("report_id", r.ReportID).
				Str("account_id", r.AccountID).
				Msg("[DRY RUN] Would create Notion page for report")
			res.Created++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, ReportToNotionProperties(r))
		if err != nil {
			log.Warn().
				Err(err).
				Str("report_id", r.ReportID).
				Msg("Failed to create Notion page for report")
			res.Failed++
			continue
		}

		log.Info().
			Str("report_id", r.ReportID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page for report")
		res.Created++
		existing[r.ReportID] = true
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Msg("Reports sync completed")

	return res, nil
}

func pruneStale(ctx context.Context, notionClient NotionService, pages []notionapi.Page, reports []*pipeline.Report, dryRun bool) (deleted, failed int) {
	log := logger.FromContext(ctx)

	keep := make(map[string]bool, len(reports))
	for _, r := range reports {
		keep[r.ReportID] = true
	}

	for _, page := range pages {
		id := extractReportID(page)
		if id != "" && keep[id] {
			continue
		}
		if dryRun {
			log.Info().
				Str("report_id", id).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would delete stale Notion page")
			deleted++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("report_id", id).
				Str("page_id", string(page.ID)).
				Msg("Failed to delete stale Notion page")
			failed++
			continue
		}
		deleted++
	}
	return deleted, failed
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
