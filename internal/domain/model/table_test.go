package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	model "github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCell(t *testing.T) {
	convey.Convey("Given game cells", t, func() {
		convey.Convey("When the cell holds marker text", func() {
			c := model.Text("lll")

			convey.Convey("Then usage counts marker occurrences", func() {
				convey.So(c.Usage('l'), convey.ShouldEqual, 3)
				convey.So(c.Usage('/'), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the cell holds a count", func() {
			convey.So(model.Count(4).Usage('l'), convey.ShouldEqual, 4)
			convey.So(model.Count(-2).Usage('l'), convey.ShouldEqual, 0)
			convey.So(model.Count(7).String(), convey.ShouldEqual, "7")
		})

		convey.Convey("When reading numbers", func() {
			n, ok := model.Text(" 80 ").Number()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(n.String(), convey.ShouldEqual, "80")

			_, ok = model.Text("abc").Number()
			convey.So(ok, convey.ShouldBeFalse)

			_, ok = model.Text("").Number()
			convey.So(ok, convey.ShouldBeFalse)

			n, ok = model.Count(3).Number()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(n.IntPart(), convey.ShouldEqual, 3)
		})
	})
}

func TestCellJSON(t *testing.T) {
	convey.Convey("Given a JSON row", t, func() {
		var row model.Row
		err := json.Unmarshal([]byte(`["Ann", null, 3, "ll"]`), &row)

		convey.Convey("Then numbers decode to counts and strings to text", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(row, convey.ShouldHaveLength, 4)
			convey.So(row[0].Kind(), convey.ShouldEqual, model.KindText)
			convey.So(row[1].IsEmpty(), convey.ShouldBeTrue)
			convey.So(row[2].Kind(), convey.ShouldEqual, model.KindCount)
			convey.So(row[2].Usage('l'), convey.ShouldEqual, 3)
			convey.So(row[3].Usage('l'), convey.ShouldEqual, 2)
		})

		convey.Convey("Then encoding round-trips the variants", func() {
			out, err := json.Marshal(row)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, `["Ann","",3,"ll"]`)
		})
	})

	convey.Convey("Given an invalid cell", t, func() {
		var c model.Cell
		convey.So(json.Unmarshal([]byte(`true`), &c), convey.ShouldNotBeNil)
		err := json.Unmarshal([]byte(`1e12`), &c)
		convey.So(errors.Is(err, model.ErrCountOutOfRange), convey.ShouldBeTrue)
	})
}

func TestTable(t *testing.T) {
	convey.Convey("Given the schema", t, func() {
		h := model.Headers()
		convey.So(h, convey.ShouldHaveLength, model.ColumnCount)
		convey.So(h[model.ColTotalUsage], convey.ShouldEqual, "TotalUsage")
		convey.So(h[model.GameColumn(1)], convey.ShouldEqual, "Game_1")
		convey.So(h[model.ColLastGame], convey.ShouldEqual, "Game_20")
	})

	convey.Convey("Given a table with trailing blank rows", t, func() {
		tbl := model.Table{Rows: []model.Row{
			model.PlayerRow("Ann", "18:00"),
			model.PlayerRow("  ", ""),
			model.PlayerRow("Bo", "18:00"),
			model.NewRow(),
			{},
		}}

		convey.Convey("Then the active bound stops after the last named row", func() {
			convey.So(tbl.ActiveRows(), convey.ShouldEqual, 3)
			convey.So(model.NewTable(5).ActiveRows(), convey.ShouldEqual, 0)
		})

		convey.Convey("Then clones do not alias the original", func() {
			c := tbl.Clone()
			c.Rows[0][model.ColName] = model.Text("Zed")
			convey.So(tbl.Rows[0].Name(), convey.ShouldEqual, "Ann")
		})

		convey.Convey("Then short rows read as empty", func() {
			convey.So(tbl.Rows[4].At(model.ColPrice).IsEmpty(), convey.ShouldBeTrue)
			convey.So(tbl.Rows[4].Extend(model.ColumnCount), convey.ShouldHaveLength, model.ColumnCount)
			convey.So(tbl.Width(), convey.ShouldEqual, model.ColumnCount)
		})
	})
}

func TestTariffsJSON(t *testing.T) {
	convey.Convey("Given tariffs with a fractional fee", t, func() {
		tariffs := model.NewTariffs(20, 62.5, 0, 85)

		convey.Convey("Then they are written as numbers", func() {
			data, err := json.Marshal(tariffs)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldEqual,
				`{"per_unit_cost":20,"per_person_flat_fee":62.5,"court_rental_fee":0,"reference_per_unit_cost":85}`)

			var back model.Tariffs
			convey.So(json.Unmarshal(data, &back), convey.ShouldBeNil)
			convey.So(back.PerPersonFlatFee.Equal(tariffs.PerPersonFlatFee), convey.ShouldBeTrue)
		})

		convey.Convey("Then quoted numbers are accepted on input", func() {
			var back model.Tariffs
			convey.So(json.Unmarshal([]byte(`{"per_unit_cost":"15"}`), &back), convey.ShouldBeNil)
			convey.So(back.PerUnitCost.IntPart(), convey.ShouldEqual, int64(15))
			convey.So(back.CourtRentalFee.IsZero(), convey.ShouldBeTrue)
		})
	})
}
