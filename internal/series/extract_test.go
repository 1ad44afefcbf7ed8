package series

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
)

func day(i int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func gappyTable() model.Table {
	t := model.NewTable([]time.Time{day(0), day(1), day(2), day(3), day(4)})
	t.Columns[model.ColumnClose] = []null.Float{
		null.FloatFrom(10), {}, null.FloatFrom(12), null.FloatFrom(math.NaN()), null.FloatFrom(14),
	}
	t.Columns[model.ColumnOpen] = []null.Float{
		null.FloatFrom(9), null.FloatFrom(9), {}, null.FloatFrom(9), null.FloatFrom(math.NaN()),
	}
	return t
}

func TestExtract_DropsMissingCloses(t *testing.T) {
	bars := Extract(model.SingleSeries(gappyTable()), "X")
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}
	want := []float64{10, 12, 14}
	if got := Closes(bars); !reflect.DeepEqual(got, want) {
		t.Errorf("closes = %v, want %v", got, want)
	}
	if !bars[1].Date.Equal(day(2)) || !bars[2].Date.Equal(day(4)) {
		t.Error("row order or dates not preserved")
	}
	if bars[1].Open.Valid {
		t.Error("missing open should stay missing")
	}
	if bars[2].Open.Valid {
		t.Error("NaN open should read as missing")
	}
	if bars[0].High.Valid || bars[0].Volume.Valid {
		t.Error("absent columns should read as missing")
	}
}

func TestExtract_Pure(t *testing.T) {
	batch := model.MultiSeries(map[string]model.Table{"X": gappyTable()})
	first := Extract(batch, "X")
	second := Extract(batch, "X")
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated extraction differs")
	}
}

func TestExtract_ShapeIndependent(t *testing.T) {
	single := Extract(model.SingleSeries(gappyTable()), "X")
	multi := Extract(model.MultiSeries(map[string]model.Table{"X": gappyTable()}), "X")
	if !reflect.DeepEqual(single, multi) {
		t.Errorf("single %v != multi %v", single, multi)
	}
}

func TestExtractStrict_Errors(t *testing.T) {
	bad := model.NewTable([]time.Time{day(0)})
	bad.Columns[model.ColumnOpen] = []null.Float{null.FloatFrom(1)}
	batch := model.MultiSeries(map[string]model.Table{"BAD": bad})

	if _, err := ExtractStrict(batch, "NONE"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("missing symbol: err = %v", err)
	}
	if _, err := ExtractStrict(batch, "BAD"); !errors.Is(err, model.ErrMalformedTable) {
		t.Errorf("malformed: err = %v", err)
	}
	if bars := Extract(batch, "BAD"); bars != nil {
		t.Errorf("Extract on malformed = %v, want nil", bars)
	}
	if bars := Extract(model.EmptyBatch(), "X"); len(bars) != 0 {
		t.Errorf("Extract on empty batch = %v", bars)
	}
}

func TestExtract_AllMissing(t *testing.T) {
	tbl := model.NewTable([]time.Time{day(0), day(1)})
	tbl.Columns[model.ColumnClose] = []null.Float{{}, {}}
	bars, err := ExtractStrict(model.SingleSeries(tbl), "X")
	if err != nil {
		t.Fatalf("ExtractStrict: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("got %d bars, want 0", len(bars))
	}
}
