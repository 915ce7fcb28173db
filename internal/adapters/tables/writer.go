package tables

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/okian/courtprior/internal/domain/model"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Formats lists the supported output formats.
var Formats = []string{FormatCSV, FormatJSON, FormatXLSX}

// PosteriorColumns is the header of the posterior table.
var PosteriorColumns = []string{
	"player_id", "player_name", "position", "zone", "attempts", "makes",
	"raw_fg_pct", "prior_fg_pct", "prior_alpha", "prior_beta",
	"posterior_alpha", "posterior_beta", "posterior_mean",
	"ci_lower", "ci_upper", "ci_width", "shrinkage", "league_prior",
}

// PriorColumns is the header of the prior table.
var PriorColumns = []string{"position", "zone", "alpha", "beta", "sample_size", "prior_mean"}

func posteriorCells(r model.PlayerZonePosterior) []any {
	return []any{
		r.PlayerID, r.PlayerName, string(r.Position), string(r.Zone), r.Attempts, r.Makes,
		r.RawPct, r.PriorPct, r.PriorAlpha, r.PriorBeta,
		r.PosteriorAlpha, r.PosteriorBeta, r.PosteriorMean,
		r.CILower, r.CIUpper, r.CIWidth, r.Shrinkage, r.LeaguePrior,
	}
}

func priorCells(p model.PositionZonePrior) []any {
	return []any{string(p.Position), string(p.Zone), p.Alpha, p.Beta, p.SampleSize(), p.Mean()}
}

func toStrings(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case string:
			out[i] = v
		case int64:
			out[i] = strconv.FormatInt(v, 10)
		case float64:
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(v)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// WritePosteriorsCSV writes rows with a header.
func WritePosteriorsCSV(w io.Writer, rows []model.PlayerZonePosterior) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PosteriorColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(toStrings(posteriorCells(r))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePriorsCSV writes priors with a header.
func WritePriorsCSV(w io.Writer, priors []model.PositionZonePrior) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PriorColumns); err != nil {
		return err
	}
	for _, p := range priors {
		if err := cw.Write(toStrings(priorCells(p))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ShotColumns is the header written by WriteShotsCSV.
var ShotColumns = []string{"game_id", "game_event_id", "player_id", "player_name", "position", "zone", "made"}

// WriteShotsCSV writes shot events in the layout Sheet.Shots reads.
func WriteShotsCSV(w io.Writer, shots []model.ShotEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ShotColumns); err != nil {
		return err
	}
	for _, e := range shots {
		made := "0"
		if e.Made {
			made = "1"
		}
		if err := cw.Write([]string{e.GameID, e.GameEventID, e.PlayerID, e.PlayerName, e.PositionCode, e.Zone, made}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRosterCSV writes roster rows in the layout Sheet.Roster reads.
func WriteRosterCSV(w io.Writer, roster []model.RosterEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"player_id", "player_name", "position"}); err != nil {
		return err
	}
	for _, r := range roster {
		if err := cw.Write([]string{r.PlayerID, r.PlayerName, r.PositionCode}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path and writes it with fn.
func WriteFile(path string, fn func(io.Writer) error) error {
	return writeFile(path, fn)
}

// WriteJSON writes v as indented JSON records.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteXLSX saves a workbook with "posteriors" and "priors" sheets.
func WriteXLSX(path string, rows []model.PlayerZonePosterior, priors []model.PositionZonePrior) error {
	f := excelize.NewFile()
	defer f.Close()

	const first = "posteriors"
	if err := f.SetSheetName("Sheet1", first); err != nil {
		return err
	}
	if err := fillSheet(f, first, PosteriorColumns, len(rows), func(i int) []any { return posteriorCells(rows[i]) }); err != nil {
		return err
	}

	if _, err := f.NewSheet("priors"); err != nil {
		return err
	}
	if err := fillSheet(f, "priors", PriorColumns, len(priors), func(i int) []any { return priorCells(priors[i]) }); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func fillSheet(f *excelize.File, sheet string, header []string, n int, row func(int) []any) error {
	for c, h := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r := 0; r < n; r++ {
		for c, v := range row(r) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckFormats returns ErrUnsupportedFormat for the first unknown format.
func CheckFormats(formats []string) error {
	for _, format := range formats {
		if !slices.Contains(Formats, format) {
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
	}
	return nil
}

// Export writes the run's tables into dir in each requested format and
// returns the paths written. Nothing is written when a format is unknown.
func Export(dir string, formats []string, rows []model.PlayerZonePosterior, priors []model.PositionZonePrior) ([]string, error) {
	if err := CheckFormats(formats); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var written []string
	for _, format := range formats {
		switch format {
		case FormatCSV:
			p := filepath.Join(dir, "posteriors.csv")
			if err := writeFile(p, func(w io.Writer) error { return WritePosteriorsCSV(w, rows) }); err != nil {
				return written, err
			}
			q := filepath.Join(dir, "priors.csv")
			if err := writeFile(q, func(w io.Writer) error { return WritePriorsCSV(w, priors) }); err != nil {
				return written, err
			}
			written = append(written, p, q)
		case FormatJSON:
			p := filepath.Join(dir, "posteriors.json")
			if err := writeFile(p, func(w io.Writer) error { return WriteJSON(w, rows) }); err != nil {
				return written, err
			}
			written = append(written, p)
		case FormatXLSX:
			p := filepath.Join(dir, "posteriors.xlsx")
			if err := WriteXLSX(p, rows, priors); err != nil {
				return written, fmt.Errorf("write %s: %w", p, err)
			}
			written = append(written, p)
		default:
			return written, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
	}
	return written, nil
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
