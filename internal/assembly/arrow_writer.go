package assembly

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/mtgjson/mtgjson/internal/model"
)

var arrowCardSchema = arrow.NewSchema([]arrow.Field{
	{Name: "uuid", Type: arrow.BinaryTypes.String},
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "setCode", Type: arrow.BinaryTypes.String},
	{Name: "number", Type: arrow.BinaryTypes.String},
	{Name: "type", Type: arrow.BinaryTypes.String},
	{Name: "manaValue", Type: arrow.PrimitiveTypes.Float64},
	{Name: "rarity", Type: arrow.BinaryTypes.String},
}, nil)

// WriteArrowIPC writes AllPrintings.arrow: the normalized card rows as a
// single Arrow IPC (Feather V2) record batch, column-at-a-time rather
// than nested JSON — the format a downstream analytics reader (DuckDB,
// pandas, polars) consumes directly without a JSON parse pass.
func (w *Writer) WriteArrowIPC(sets []model.Set) error {
	path := w.path("AllPrintings.arrow")
	skip, err := w.checkConflict(path)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeArrowRecord(tmp, sets); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func writeArrowRecord(f *os.File, sets []model.Set) error {
	pool := memory.NewGoAllocator()
	b := array.NewRecordBuilder(pool, arrowCardSchema)
	defer b.Release()

	uuidB := b.Field(0).(*array.StringBuilder)
	nameB := b.Field(1).(*array.StringBuilder)
	setCodeB := b.Field(2).(*array.StringBuilder)
	numberB := b.Field(3).(*array.StringBuilder)
	typeB := b.Field(4).(*array.StringBuilder)
	manaValueB := b.Field(5).(*array.Float64Builder)
	rarityB := b.Field(6).(*array.StringBuilder)

	for _, set := range sets {
		for _, c := range set.Cards {
			uuidB.Append(c.UUID)
			nameB.Append(c.Name)
			setCodeB.Append(c.SetCode)
			numberB.Append(c.Number)
			typeB.Append(c.Type)
			manaValueB.Append(c.ManaValue)
			rarityB.Append(c.Rarity)
		}
	}

	record := b.NewRecord()
	defer record.Release()

	writer, err := ipc.NewFileWriter(f, ipc.WithSchema(arrowCardSchema), ipc.WithAllocator(pool))
	if err != nil {
		return fmt.Errorf("create arrow writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("write arrow record: %w", err)
	}
	return nil
}
