package sheet_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/sheet"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	in := "Name,Time,TotalUsage,Price,Game_1,Game_2,Game_3\n" +
		"Ann,18:00,,,ll,2,\n" +
		"Bo,18:30\n" +
		",,,,x\n"

	tbl, err := sheet.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len(), "header row is skipped")

	ann := tbl.Rows[0]
	assert.Equal(t, "Ann", ann.Name())
	assert.Equal(t, model.KindText, ann.At(model.GameColumn(1)).Kind())
	assert.Equal(t, 2, ann.At(model.GameColumn(1)).Usage('l'))
	assert.Equal(t, model.KindCount, ann.At(model.GameColumn(2)).Kind())
	assert.Equal(t, 2, ann.At(model.GameColumn(2)).Usage('l'))

	assert.Len(t, tbl.Rows[1], 2, "short rows stay short")
	assert.Equal(t, 2, tbl.ActiveRows())
}

func TestReadCSVWithoutHeader(t *testing.T) {
	tbl, err := sheet.ReadCSV(strings.NewReader("Ann,18:00\nBo,18:00\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestCSVRoundTrip(t *testing.T) {
	src := model.NewTable(2)
	src.Rows[0] = model.PlayerRow("Ann", "18:00")
	src.Rows[0][model.GameColumn(3)] = model.Count(2)
	src.Rows[0][model.ColPrice] = model.Text("100")

	var buf bytes.Buffer
	require.NoError(t, sheet.WriteCSV(&buf, src))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Name,Time,TotalUsage,Price,Game_1"))

	back, err := sheet.ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, "Ann", back.Rows[0].Name())
	assert.Equal(t, 2, back.Rows[0].At(model.GameColumn(3)).Usage('l'))
	assert.Equal(t, "100", back.Rows[0].At(model.ColPrice).String())
}

func TestXLSXRoundTrip(t *testing.T) {
	src := model.NewTable(3)
	src.Rows[0] = model.PlayerRow("Ann", "18:00")
	src.Rows[0][model.GameColumn(1)] = model.Text("lll")
	src.Rows[0][model.ColTotalUsage] = model.Count(3)
	src.Rows[0][model.ColPrice] = model.Text("120")
	src.Rows[1] = model.PlayerRow("Bo", "18:30")
	src.Rows[1][model.GameColumn(20)] = model.Count(1)

	summary := &types.Summary{
		TotalUnitsConsumed: 4,
		NewTotalCost:       decimal.NewFromInt(200),
		LegacyTotalCost:    decimal.NewFromInt(30),
		CostDelta:          decimal.NewFromInt(170),
		SumOfUsageColumn:   decimal.NewFromInt(4),
	}

	var buf bytes.Buffer
	require.NoError(t, sheet.WriteXLSX(&buf, src, summary))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Session", "Summary"}, f.GetSheetList())

	price, err := f.GetCellValue("Session", "D2")
	require.NoError(t, err)
	assert.Equal(t, "120", price)

	slashes, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "4", slashes)

	back, err := sheet.Read("koun.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, back.ActiveRows())
	assert.Equal(t, 3, back.Rows[0].At(model.GameColumn(1)).Usage('l'))
	assert.Equal(t, 1, back.Rows[1].At(model.ColLastGame).Usage('l'))
}

func TestWriteXLSXWithoutSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sheet.Write(&buf, sheet.FormatXLSX, model.NewTable(1), nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Session"}, f.GetSheetList())
}

func TestFormats(t *testing.T) {
	f, err := sheet.FormatOf("evening.XLSX")
	require.NoError(t, err)
	assert.Equal(t, sheet.FormatXLSX, f)
	assert.Equal(t, sheet.ContentTypeXLSX, f.ContentType())

	f, err = sheet.ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, sheet.ContentTypeCSV, f.ContentType())

	_, err = sheet.FormatOf("notes.txt")
	assert.True(t, errors.Is(err, sheet.ErrUnsupportedFormat))

	_, err = sheet.Read("notes.ods", strings.NewReader(""))
	assert.ErrorIs(t, err, sheet.ErrUnsupportedFormat)

	assert.ErrorIs(t, sheet.Write(&bytes.Buffer{}, sheet.Format("ods"), model.Table{}, nil), sheet.ErrUnsupportedFormat)
}

func TestReadXLSXRejectsGarbage(t *testing.T) {
	_, err := sheet.ReadXLSX(strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, sheet.ErrMalformed)

	_, err = sheet.ReadCSV(strings.NewReader("Ann,\"18:00\n"))
	assert.ErrorIs(t, err, sheet.ErrMalformed)
}
