package store

import (
	"context"
	"encoding/json"
	"fmt"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// SaveReport inserts or replaces a diagnosis report.
func (s *LocalStore) SaveReport(ctx context.Context, userID string, report types.FarmerReport) error {
	if report.ID == "" {
		return fmt.Errorf("report id is required")
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", report.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (id, user_id, crop, disease_name, report_json, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, userID, report.Crop, report.Diagnosis.DiseaseName, string(payload), report.Timestamp)
	if err != nil {
		return fmt.Errorf("save report %s: %w", report.ID, err)
	}
	logging.StoreDebug("Saved report %s (%s / %s) for %s", report.ID, report.Crop, report.Diagnosis.DiseaseName, userID)
	return nil
}

// ListReports returns the reports of userID, newest first.
func (s *LocalStore) ListReports(ctx context.Context, userID string) ([]types.FarmerReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT report_json FROM reports WHERE user_id = ? ORDER BY timestamp DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []types.FarmerReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var r types.FarmerReport
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			logging.StoreDebug("Skipping undecodable report for %s: %v", userID, err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
