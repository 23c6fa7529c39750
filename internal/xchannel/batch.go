package xchannel

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/value"
)

// DefaultTableRef is the single table name a BatchForm's embedded query
// context registers, matching xlake-core's DEFAULT_TABLE_REF ("default").
const DefaultTableRef = "default"

// BatchForm is a handle onto an embedded columnar query engine holding
// exactly one table, DefaultTableRef. The original lineage backs this with
// DataFusion/Arrow; no Arrow/DataFusion binding exists anywhere in this
// module's dependency lineage, so BatchForm is backed instead by
// modernc.org/sqlite, a pure-Go embedded SQL engine — the closest available
// substitute for "an embedded columnar query engine" (documented as a
// deliberate substitution, not an invention).
type BatchForm struct {
	db           *sql.DB
	cols         []string
	colKinds     []value.Kind
	explicitNull bool

	memoryLimitBytes int64
	usedBytes        int64
}

// NewBatchForm opens a private in-memory database to back the "default"
// table. explicitNulls controls whether batch->stream conversion emits a
// Null value for a missing/NULL column or omits the key entirely (the
// "columnar->stream explicit nulls" flag from spec 9, defaulting false).
// memoryLimitMB caps the running total of row content bytes ExtendOne will
// accept (SPEC_FULL.md's batch.memory_limit_mb); a value <= 0 means
// unlimited, for callers (tests, primarily) with no configured cap.
func NewBatchForm(explicitNulls bool, memoryLimitMB int) (*BatchForm, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("xchannel: open embedded batch engine: %w", err)
	}
	var limitBytes int64
	if memoryLimitMB > 0 {
		limitBytes = int64(memoryLimitMB) * (1 << 20)
	}
	return &BatchForm{db: db, explicitNull: explicitNulls, memoryLimitBytes: limitBytes}, nil
}

func (b *BatchForm) Close() error { return b.db.Close() }

// columnType classifies a Value into the SQLite column affinity used to
// store it: INTEGER for bool/fixed-integer numbers, REAL for non-integer
// numbers, TEXT for string, BLOB for binary.
func columnType(v value.Value) (string, error) {
	switch v.Kind {
	case value.KindBool:
		return "INTEGER", nil
	case value.KindNumber:
		if !v.Number.IsDynamic() {
			if _, err := strconv.ParseInt(v.Number.String(), 10, 64); err == nil {
				return "INTEGER", nil
			}
		}
		return "REAL", nil
	case value.KindString:
		return "TEXT", nil
	case value.KindBinary:
		return "BLOB", nil
	case value.KindNull:
		return "TEXT", nil
	default:
		return "", fmt.Errorf("xchannel: unsupported value kind %v for batch column", v.Kind)
	}
}

// ExtendOne flattens item and inserts it as one row of the "default" table,
// creating the table and its columns from the first row's keys (in
// lexicographic order) the first time it is called. Subsequent rows are
// inserted by name; a row missing a known column stores NULL, and a row
// introducing an unseen key is rejected — the batch form's schema is fixed
// by its first row, matching a single static table.
func (b *BatchForm) ExtendOne(ctx context.Context, item *object.LazyObject) error {
	flat, err := item.Flatten(ctx)
	if err != nil {
		return err
	}

	if b.memoryLimitBytes > 0 {
		size := rowByteSize(flat)
		if b.usedBytes+size > b.memoryLimitBytes {
			return fmt.Errorf("xchannel: batch exceeds configured memory limit of %d bytes", b.memoryLimitBytes)
		}
		b.usedBytes += size
	}

	if b.cols == nil {
		if err := b.createTable(flat); err != nil {
			return err
		}
	}

	known := make(map[string]struct{}, len(b.cols))
	for _, col := range b.cols {
		known[col] = struct{}{}
	}
	for _, key := range flatKeys(flat) {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("xchannel: row key %q is not a column of the default table", key)
		}
	}

	args := make([]any, len(b.cols))
	for i, col := range b.cols {
		v, ok := flat.GetRaw(col)
		if !ok {
			args[i] = nil
			continue
		}
		args[i], err = sqlArg(v)
		if err != nil {
			return err
		}
	}

	placeholders := ""
	for i := range b.cols {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
	}
	quoted := ""
	for i, col := range b.cols {
		if i > 0 {
			quoted += ","
		}
		quoted += `"` + col + `"`
	}
	_, err = b.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, DefaultTableRef, quoted, placeholders), args...)
	if err != nil {
		return fmt.Errorf("xchannel: insert row into default table: %w", err)
	}
	return nil
}

func (b *BatchForm) createTable(flat *object.LazyObject) error {
	var cols []string
	var kinds []value.Kind
	var defs string
	for _, key := range flatKeys(flat) {
		v, _ := flat.GetRaw(key)
		typ, err := columnType(v)
		if err != nil {
			return err
		}
		if len(cols) > 0 {
			defs += ","
		}
		defs += fmt.Sprintf(`"%s" %s`, key, typ)
		cols = append(cols, key)
		kinds = append(kinds, v.Kind)
	}
	b.cols = cols
	b.colKinds = kinds
	_, err := b.db.Exec(fmt.Sprintf(`CREATE TABLE %q (%s)`, DefaultTableRef, defs))
	if err != nil {
		return fmt.Errorf("xchannel: create default table: %w", err)
	}
	return nil
}

// flatKeys returns the top layer's keys in lexicographic order (a flattened
// LazyObject has exactly one layer).
func flatKeys(flat *object.LazyObject) []string {
	layers := flat.Layers()
	if len(layers) == 0 {
		return nil
	}
	return layers[0].Content.Keys()
}

// rowByteSize approximates a flattened row's content size for the
// memory-limit check: actual byte length for string/binary fields, a fixed
// 8 bytes for every other scalar.
func rowByteSize(flat *object.LazyObject) int64 {
	var size int64
	for _, key := range flatKeys(flat) {
		v, _ := flat.GetRaw(key)
		switch v.Kind {
		case value.KindString:
			size += int64(len(v.String))
		case value.KindBinary:
			size += int64(len(v.Binary))
		default:
			size += 8
		}
	}
	return size
}

func sqlArg(v value.Value) (any, error) {
	switch v.Kind {
	case value.KindNull:
		return nil, nil
	case value.KindBool:
		if v.Bool {
			return int64(1), nil
		}
		return int64(0), nil
	case value.KindNumber:
		return v.Number.String(), nil
	case value.KindString:
		return v.String, nil
	case value.KindBinary:
		return v.Binary, nil
	default:
		return nil, fmt.Errorf("xchannel: unsupported value kind %v", v.Kind)
	}
}

// ToStream executes the default table's plan and converts each resulting
// row into an Object: for each column (visited in lexicographic name
// order), for each row, write (column-name -> typed Value). Nulls are
// omitted unless explicitNull was set at construction. Cells come back as
// null, integer, float, boolean, text or blob (the last as a Binary value);
// a cell of any other driver type is a hard FormatUnsupported error
// surfaced at this conversion site.
func (b *BatchForm) ToStream(ctx context.Context) (*StreamForm, error) {
	if b.cols == nil {
		return NewStreamForm(), nil
	}

	quoted := ""
	for i, col := range b.cols {
		if i > 0 {
			quoted += ","
		}
		quoted += `"` + col + `"`
	}
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %q`, quoted, DefaultTableRef))
	if err != nil {
		return nil, fmt.Errorf("xchannel: query default table: %w", err)
	}
	defer rows.Close()

	out := NewStreamForm()
	scanDest := make([]any, len(b.cols))
	scanVals := make([]any, len(b.cols))
	for i := range scanDest {
		scanDest[i] = &scanVals[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("xchannel: scan row: %w", err)
		}
		content := value.NewObject()
		for i, col := range b.cols {
			v, omit, err := columnValue(scanVals[i], b.colKinds[i], b.explicitNull)
			if err != nil {
				return nil, fmt.Errorf("xchannel: column %q: %w", col, err)
			}
			if omit {
				continue
			}
			content.Insert(col, v)
		}
		out.ExtendOne(object.NewLazyObject(content, nil))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("xchannel: iterate rows: %w", err)
	}
	return out, nil
}

// columnValue converts a driver-returned cell into a Value. sqlite's Go
// driver surfaces INTEGER columns as int64, REAL as float64, TEXT as
// string, BLOB as []byte, and NULL as nil. These map to Int, Number, String,
// Binary and Null (omitted unless explicitNull) respectively; a boolean
// rides on INTEGER 0/1, the only representation ExtendOne ever writes, and
// is recovered from the column's declared kind. Anything else is
// FormatUnsupported.
func columnValue(raw any, declared value.Kind, explicitNull bool) (v value.Value, omit bool, err error) {
	switch x := raw.(type) {
	case nil:
		if !explicitNull {
			return value.Value{}, true, nil
		}
		return value.Null(), false, nil
	case int64:
		if declared == value.KindBool {
			return value.Bool(x != 0), false, nil
		}
		return value.Int(x), false, nil
	case float64:
		return value.NumberValue(value.FixedNumber(fmt.Sprintf("%v", x))), false, nil
	case string:
		return value.String(x), false, nil
	case []byte:
		return value.Binary(x), false, nil
	default:
		return value.Value{}, false, fmt.Errorf("unsupported column type %T", raw)
	}
}
