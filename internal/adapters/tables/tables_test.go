package tables_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtprior/internal/adapters/tables"
	"github.com/okian/courtprior/internal/domain/model"
	"github.com/okian/courtprior/internal/domain/prior"
)

const shotsCSV = `GAME_ID,GAME_EVENT_ID,PLAYER_ID,PLAYER_NAME,POSITION,SHOT_ZONE_BASIC,SHOT_MADE_FLAG
0022300001,7,201939,Stephen Curry,G,Above the Break 3,1
0022300001,9,201939,Stephen Curry,G,Restricted Area,0
,,203999,Nikola Jokic,C,Mid-Range,true
`

func TestReadShots(t *testing.T) {
	Convey("Given a shot feed with stats-feed headers", t, func() {
		sheet, err := tables.ReadCSV(strings.NewReader(shotsCSV))
		So(err, ShouldBeNil)

		Convey("When converted to shot events", func() {
			shots, err := sheet.Shots()

			Convey("Then every column is mapped", func() {
				So(err, ShouldBeNil)
				So(len(shots), ShouldEqual, 3)
				So(shots[0], ShouldResemble, model.ShotEvent{
					GameID: "0022300001", GameEventID: "7", PlayerID: "201939",
					PlayerName: "Stephen Curry", PositionCode: "G", Zone: "Above the Break 3", Made: true,
				})
				So(shots[1].Made, ShouldBeFalse)
				So(shots[2].DedupeKey(), ShouldEqual, "")
				So(shots[2].Made, ShouldBeTrue)
			})
		})

		Convey("When a made flag is malformed", func() {
			bad, _ := tables.ReadCSV(strings.NewReader("player_id,zone,made\n1,Mid-Range,maybe\n"))
			_, err := bad.Shots()

			Convey("Then the row is reported", func() {
				So(errors.Is(err, tables.ErrBadValue), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "row 2")
				So(tables.IsInputError(err), ShouldBeTrue)
			})
		})

		Convey("When a required column is missing", func() {
			bad, _ := tables.ReadCSV(strings.NewReader("player_id,made\n1,1\n"))
			_, err := bad.Shots()

			Convey("Then ErrMissingColumn is returned", func() {
				So(errors.Is(err, tables.ErrMissingColumn), ShouldBeTrue)
			})
		})
	})
}

func TestReadRosterAndObservations(t *testing.T) {
	Convey("Given roster and observation tables", t, func() {
		roster, err := tables.ReadCSV(strings.NewReader("PLAYER_ID,PLAYER,POSITION\n1,Ann,G-F\n\n2,Bo,C\n"))
		So(err, ShouldBeNil)
		obs, err := tables.ReadCSV(strings.NewReader(
			"player_id,player_name,position,zone,attempts,makes\n" +
				"1,Ann,Guard,Above the Break 3,780,318\n" +
				"2,Bo,F-C,Paint (Non-Restricted Area),12.0,6\n"))
		So(err, ShouldBeNil)

		Convey("Then blank lines are skipped and names resolved", func() {
			entries, err := roster.Roster()
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, 2)
			So(entries[0].PlayerName, ShouldEqual, "Ann")
		})

		Convey("Then positions accept bucket names or raw codes", func() {
			rows, dropped, err := obs.Observations()
			So(err, ShouldBeNil)
			So(dropped, ShouldBeEmpty)
			So(rows[0].Position, ShouldEqual, model.Guard)
			So(rows[0].Makes, ShouldEqual, 318)
			So(rows[1].Position, ShouldEqual, model.Forward)
			So(rows[1].Zone, ShouldEqual, model.Paint)
			So(rows[1].Attempts, ShouldEqual, 12)
		})

		Convey("Then fractional counts are rejected", func() {
			bad, _ := tables.ReadCSV(strings.NewReader("player_id,position,zone,attempts,makes\n1,Guard,Mid-Range,1.5,1\n"))
			_, _, err := bad.Observations()
			So(errors.Is(err, tables.ErrBadValue), ShouldBeTrue)
		})

		Convey("Then rows outside the known zones and positions are counted, not fatal", func() {
			mixed, err := tables.ReadCSV(strings.NewReader(
				"position,zone,attempts,makes,player_id\n" +
					"Guard,Above the Break 3,20,8,1\n" +
					"Guard,Backcourt,6,0,1\n" +
					"Unknown,Mid-Range,10,4,2\n"))
			So(err, ShouldBeNil)

			rows, dropped, err := mixed.Observations()
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Zone, ShouldEqual, model.AboveBreak3)
			So(dropped[prior.DropUnmappableZone], ShouldEqual, 1)
			So(dropped[prior.DropUnmappablePosition], ShouldEqual, 1)
		})

		Convey("Then a bad count on an unmappable row is still an error", func() {
			bad, _ := tables.ReadCSV(strings.NewReader("player_id,position,zone,attempts,makes\n1,Guard,Backcourt,x,1\n"))
			_, _, err := bad.Observations()
			So(errors.Is(err, tables.ErrBadValue), ShouldBeTrue)
		})
	})
}

func TestWriteAndExport(t *testing.T) {
	Convey("Given a computed run", t, func() {
		rows := []model.PlayerZonePosterior{{
			PlayerID: "201939", PlayerName: "Stephen Curry", Position: model.Guard, Zone: model.AboveBreak3,
			Attempts: 780, Makes: 318, PosteriorAlpha: 45536, PosteriorBeta: 79154, PosteriorMean: 0.3652,
		}}
		priors := []model.PositionZonePrior{{Position: model.Guard, Zone: model.AboveBreak3, Alpha: 45218, Beta: 78692}}

		Convey("When priors are written as CSV", func() {
			var buf bytes.Buffer
			So(tables.WritePriorsCSV(&buf, priors), ShouldBeNil)

			Convey("Then they read back unchanged", func() {
				sheet, err := tables.ReadCSV(&buf)
				So(err, ShouldBeNil)
				back, err := sheet.Priors()
				So(err, ShouldBeNil)
				So(back, ShouldResemble, priors)
			})
		})

		Convey("When posteriors are written as CSV", func() {
			var buf bytes.Buffer
			So(tables.WritePosteriorsCSV(&buf, rows), ShouldBeNil)

			Convey("Then the header matches the output schema", func() {
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(len(lines), ShouldEqual, 2)
				So(lines[0], ShouldEqual, strings.Join(tables.PosteriorColumns, ","))
				So(lines[1], ShouldStartWith, "201939,Stephen Curry,Guard,Above the Break 3,780,318")
			})
		})

		Convey("When exported in every format", func() {
			dir := t.TempDir()
			paths, err := tables.Export(dir, tables.Formats, rows, priors)

			Convey("Then each file exists and is readable", func() {
				So(err, ShouldBeNil)
				So(len(paths), ShouldEqual, 4)
				for _, p := range paths {
					_, statErr := os.Stat(p)
					So(statErr, ShouldBeNil)
				}

				raw, err := os.ReadFile(filepath.Join(dir, "posteriors.json"))
				So(err, ShouldBeNil)
				var decoded []map[string]any
				So(json.Unmarshal(raw, &decoded), ShouldBeNil)
				So(decoded[0]["posterior_alpha"], ShouldEqual, float64(45536))

				book, err := tables.ReadFile(filepath.Join(dir, "posteriors.xlsx"))
				So(err, ShouldBeNil)
				So(book.Headers, ShouldResemble, tables.PosteriorColumns)
				So(book.Rows[0]["player_id"], ShouldEqual, "201939")
			})
		})

		Convey("When shots and roster are written", func() {
			shots := []model.ShotEvent{{GameID: "g1", GameEventID: "3", PlayerID: "7", PlayerName: "Ann", PositionCode: "G", Zone: "Mid-Range", Made: true}}
			var sb, rb bytes.Buffer
			So(tables.WriteShotsCSV(&sb, shots), ShouldBeNil)
			So(tables.WriteRosterCSV(&rb, []model.RosterEntry{{PlayerID: "7", PlayerName: "Ann", PositionCode: "G"}}), ShouldBeNil)

			Convey("Then the readers accept them unchanged", func() {
				sheet, err := tables.ReadCSV(&sb)
				So(err, ShouldBeNil)
				back, err := sheet.Shots()
				So(err, ShouldBeNil)
				So(back, ShouldResemble, shots)

				rs, err := tables.ReadCSV(&rb)
				So(err, ShouldBeNil)
				roster, err := rs.Roster()
				So(err, ShouldBeNil)
				So(roster[0].PositionCode, ShouldEqual, "G")
			})
		})

		Convey("When an unknown format is requested", func() {
			dir := filepath.Join(t.TempDir(), "out")
			_, err := tables.Export(dir, []string{"csv", "parquet"}, rows, priors)

			Convey("Then it is rejected before anything is written", func() {
				So(errors.Is(err, tables.ErrUnsupportedFormat), ShouldBeTrue)
				So(errors.Is(tables.CheckFormats([]string{"parquet"}), tables.ErrUnsupportedFormat), ShouldBeTrue)
				So(tables.CheckFormats(tables.Formats), ShouldBeNil)
				_, statErr := os.Stat(dir)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}
