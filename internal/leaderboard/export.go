package leaderboard

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetContributors = "Top Contributors"
	sheetDrivers      = "Top Rated Drivers"
)

// Export writes both leaderboards as an xlsx workbook.
func (s *Service) Export(ctx context.Context, w io.Writer, limit int) error {
	contributors, err := s.TopContributors(ctx, limit)
	if err != nil {
		return err
	}
	drivers, err := s.TopRatedDrivers(ctx, limit)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetContributors); err != nil {
		return err
	}
	if err := writeRows(f, sheetContributors, []any{"Rank", "Name", "Score", "Drivers Added"}, len(contributors), func(i int) []any {
		c := contributors[i]
		return []any{i + 1, c.DisplayName, c.Score, c.DriversAdded}
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetDrivers); err != nil {
		return err
	}
	if err := writeRows(f, sheetDrivers, []any{"Rank", "Vehicle Number", "Platform", "Driver Name", "Average Rating", "Reviews"}, len(drivers), func(i int) []any {
		d := drivers[i]
		return []any{i + 1, d.VehicleNumber, d.Platform.Label(), deref(d.DriverName), d.AverageRating, d.ReviewCount}
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, sheet string, header []any, n int, row func(int) []any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		values := row(i)
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
