// Package tables reads the pipeline's input tables and writes its outputs
// as CSV, JSON, or XLSX.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/prior"
)

// Sheet is a header plus rows of trimmed cells, keyed by lower-cased header.
type Sheet struct {
	Headers []string
	Rows    []map[string]string
}

// ReadFile reads a .csv file, or the first sheet of an .xlsx workbook.
func ReadFile(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadCSV parses CSV with a header row.
func ReadCSV(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return newSheet(records)
}

func readXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrEmpty, path)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return newSheet(records)
}

func newSheet(records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	s := &Sheet{Headers: headers, Rows: make([]map[string]string, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		blank := true
		for j, cell := range rec {
			if j < len(headers) && headers[j] != "" {
				v := strings.TrimSpace(cell)
				row[headers[j]] = v
				if v != "" {
					blank = false
				}
			}
		}
		if !blank {
			s.Rows = append(s.Rows, row)
		}
	}
	return s, nil
}

// column returns the first header present among names.
func (s *Sheet) column(names ...string) (string, bool) {
	for _, n := range names {
		for _, h := range s.Headers {
			if h == n {
				return h, true
			}
		}
	}
	return "", false
}

func (s *Sheet) require(names ...string) (string, error) {
	c, ok := s.column(names...)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingColumn, names[0])
	}
	return c, nil
}

// Shots converts a sheet of shot rows. Accepted headers include the
// stats-feed names (SHOT_ZONE_BASIC, SHOT_MADE_FLAG, ...).
func (s *Sheet) Shots() ([]model.ShotEvent, error) {
	idCol, err := s.require("player_id")
	if err != nil {
		return nil, err
	}
	zoneCol, err := s.require("zone", "shot_zone_basic")
	if err != nil {
		return nil, err
	}
	madeCol, err := s.require("made", "shot_made_flag")
	if err != nil {
		return nil, err
	}
	nameCol, _ := s.column("player_name")
	posCol, _ := s.column("position", "position_code", "pos")
	gameCol, _ := s.column("game_id")
	eventCol, _ := s.column("game_event_id")

	out := make([]model.ShotEvent, 0, len(s.Rows))
	for i, row := range s.Rows {
		made, err := parseMade(row[madeCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, model.ShotEvent{
			GameID:       row[gameCol],
			GameEventID:  row[eventCol],
			PlayerID:     row[idCol],
			PlayerName:   row[nameCol],
			PositionCode: row[posCol],
			Zone:         row[zoneCol],
			Made:         made,
		})
	}
	return out, nil
}

// Roster converts a sheet of roster rows.
func (s *Sheet) Roster() ([]model.RosterEntry, error) {
	idCol, err := s.require("player_id")
	if err != nil {
		return nil, err
	}
	posCol, err := s.require("position", "position_code", "pos")
	if err != nil {
		return nil, err
	}
	nameCol, _ := s.column("player_name", "player")

	out := make([]model.RosterEntry, 0, len(s.Rows))
	for _, row := range s.Rows {
		out = append(out, model.RosterEntry{PlayerID: row[idCol], PlayerName: row[nameCol], PositionCode: row[posCol]})
	}
	return out, nil
}

// Observations converts a sheet of aggregated (player, zone) rows. The
// position column may hold a bucket name or a raw roster code. Rows whose
// position or zone cannot be resolved are left out and counted by reason;
// malformed counts are errors.
func (s *Sheet) Observations() ([]model.PlayerZoneObservation, map[prior.DropReason]int64, error) {
	cols := map[string]string{}
	for _, name := range []string{"player_id", "position", "zone", "attempts", "makes"} {
		c, err := s.require(name)
		if err != nil {
			return nil, nil, err
		}
		cols[name] = c
	}
	nameCol, _ := s.column("player_name")

	out := make([]model.PlayerZoneObservation, 0, len(s.Rows))
	dropped := make(map[prior.DropReason]int64)
	for i, row := range s.Rows {
		line := i + 2
		attempts, err := parseCount(row[cols["attempts"]])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d attempts: %w", line, err)
		}
		makes, err := parseCount(row[cols["makes"]])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d makes: %w", line, err)
		}
		pos, ok := model.ParsePosition(row[cols["position"]])
		if !ok {
			if pos, ok = model.MapPosition(row[cols["position"]]); !ok {
				dropped[prior.DropUnmappablePosition]++
				continue
			}
		}
		zone, ok := model.ParseZone(row[cols["zone"]])
		if !ok {
			dropped[prior.DropUnmappableZone]++
			continue
		}
		out = append(out, model.PlayerZoneObservation{
			PlayerID: row[cols["player_id"]], PlayerName: row[nameCol],
			Position: pos, Zone: zone, Attempts: attempts, Makes: makes,
		})
	}
	return out, dropped, nil
}

// Priors converts a sheet of prior rows (position, zone, alpha, beta).
func (s *Sheet) Priors() ([]model.PositionZonePrior, error) {
	posCol, err := s.require("position")
	if err != nil {
		return nil, err
	}
	zoneCol, err := s.require("zone")
	if err != nil {
		return nil, err
	}
	alphaCol, err := s.require("alpha", "prior_alpha")
	if err != nil {
		return nil, err
	}
	betaCol, err := s.require("beta", "prior_beta")
	if err != nil {
		return nil, err
	}

	out := make([]model.PositionZonePrior, 0, len(s.Rows))
	for i, row := range s.Rows {
		line := i + 2
		pos, ok := model.ParsePosition(row[posCol])
		if !ok {
			return nil, fmt.Errorf("row %d: %w: position %q", line, ErrBadValue, row[posCol])
		}
		zone, ok := model.ParseZone(row[zoneCol])
		if !ok {
			return nil, fmt.Errorf("row %d: %w: zone %q", line, ErrBadValue, row[zoneCol])
		}
		alpha, err := parseCount(row[alphaCol])
		if err != nil {
			return nil, fmt.Errorf("row %d alpha: %w", line, err)
		}
		beta, err := parseCount(row[betaCol])
		if err != nil {
			return nil, fmt.Errorf("row %d beta: %w", line, err)
		}
		out = append(out, model.PositionZonePrior{Position: pos, Zone: zone, Alpha: alpha, Beta: beta})
	}
	return out, nil
}

func parseMade(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "t", "made", "yes", "y":
		return true, nil
	case "0", "false", "f", "missed", "miss", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%w: made flag %q", ErrBadValue, v)
}

// parseCount accepts integers and integral floats ("12", "12.0").
func parseCount(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("%w: count %q", ErrBadValue, v)
	}
	return int64(f), nil
}

// IsInputError reports whether err came from malformed input rather than I/O.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingColumn) || errors.Is(err, ErrBadValue) || errors.Is(err, ErrEmpty)
}
