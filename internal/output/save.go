package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/dvloznov/fraud-analyzer/internal/gcsuploader"
	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/pipeline"
)

// MarshalReports encodes reports as an indented JSON array. A nil slice
// encodes as [].
func MarshalReports(reports []*pipeline.Report) ([]byte, error) {
	if reports == nil {
		reports = []*pipeline.Report{}
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("MarshalReports: %w", err)
	}
	return data, nil
}

// WriteReportsJSON writes reports to a local file.
func WriteReportsJSON(path string, reports []*pipeline.Report) error {
	data, err := MarshalReports(reports)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("WriteReportsJSON: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("WriteReportsJSON: %w", err)
	}
	return nil
}

// SaveReports writes reports to dest, a local path or a gs:// URI.
// storage is only used for gs:// destinations.
func SaveReports(ctx context.Context, dest string, reports []*pipeline.Report, storage gcsuploader.StorageService) error {
	log := logger.FromContext(ctx)

	if !gcsuploader.IsGCSURI(dest) {
		if err := WriteReportsJSON(dest, reports); err != nil {
			return err
		}
		log.Info().Str("path", dest).Int("reports", len(reports)).Msg("Reports saved")
		return nil
	}

	if storage == nil {
		return fmt.Errorf("SaveReports: no storage service for %s", dest)
	}
	bucket, object, err := gcsuploader.ParseGCSURI(dest)
	if err != nil {
		return fmt.Errorf("SaveReports: %w", err)
	}
	data, err := MarshalReports(reports)
	if err != nil {
		return err
	}
	if err := storage.UploadBytes(ctx, bucket, object, "application/json", data); err != nil {
		return fmt.Errorf("SaveReports: %w", err)
	}
	log.Info().Str("uri", dest).Int("reports", len(reports)).Msg("Reports uploaded")
	return nil
}

// LoadReports reads a JSON report array from a local path or a gs:// URI.
func LoadReports(ctx context.Context, src string, storage gcsuploader.StorageService) ([]*pipeline.Report, error) {
	var (
		data []byte
		err  error
	)
	if gcsuploader.IsGCSURI(src) {
		if storage == nil {
			return nil, fmt.Errorf("LoadReports: no storage service for %s", src)
		}
		data, err = storage.FetchFromGCS(ctx, src)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadReports: %w", err)
	}

	var reports []*pipeline.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("LoadReports: decode %s: %w", src, err)
	}
	return reports, nil
}

// BucketReportStore writes each report as its own JSON object under
// reports/<account_id>/<report_id>.json. It is the report sink when no
// warehouse is configured.
type BucketReportStore struct {
	Storage gcsuploader.StorageService
	Bucket  string
}

// ObjectName returns the object path used for a report.
func (s *BucketReportStore) ObjectName(accountID, reportID string) string {
	return path.Join("reports", accountID, reportID+".json")
}

// InsertReport uploads the row's JSON payload.
func (s *BucketReportStore) InsertReport(ctx context.Context, row *infra.FraudReportRow) error {
	if !row.ReportJSON.Valid {
		return fmt.Errorf("BucketReportStore.InsertReport: report %s has no payload", row.ReportID)
	}
	object := s.ObjectName(row.AccountID, row.ReportID)
	if err := s.Storage.UploadBytes(ctx, s.Bucket, object, "application/json", []byte(row.ReportJSON.JSONVal)); err != nil {
		return fmt.Errorf("BucketReportStore.InsertReport: %w", err)
	}
	return nil
}
