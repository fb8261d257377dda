// Package importer loads exported SemTUI JSON documents (tables and extension
// responses) into the relational store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/jsonutil"
	"github.com/larasormani21/db-SemTUI/pkg/models"
	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

const (
	kindTable     = "table"
	kindExtension = "extension"

	// DefaultBatchSize is used when the importer is built with a non-positive batch size.
	DefaultBatchSize = 500
)

// Options controls a single import.
type Options struct {
	// Atomic runs the whole import in one transaction. Otherwise cells are
	// committed batch by batch and a failure leaves earlier batches in place.
	Atomic bool
}

// Result summarizes what an import wrote.
type Result struct {
	Columns         int `json:"columns"`
	Cells           int `json:"cells"`
	SkippedCells    int `json:"skipped_cells"`
	Reconciled      int `json:"reconciled"`
	ExtensionValues int `json:"extension_values"`
}

// Importer writes documents through the repositories. All methods need a
// database scope in ctx.
type Importer struct {
	tables     repositories.TableRepository
	columns    repositories.ColumnRepository
	cells      repositories.CellRepository
	extensions repositories.ExtensionRepository
	logger     *zap.Logger
	batchSize  int
}

// New creates an Importer.
func New(
	tables repositories.TableRepository,
	columns repositories.ColumnRepository,
	cells repositories.CellRepository,
	extensions repositories.ExtensionRepository,
	batchSize int,
	logger *zap.Logger,
) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		tables:     tables,
		columns:    columns,
		cells:      cells,
		extensions: extensions,
		logger:     logger.Named("importer"),
		batchSize:  batchSize,
	}
}

// ImportTable reads a table document ({"columns": {...}, "rows": {...}}) and
// creates its columns and cells under tableID. Columns are created in document
// order. A cell whose matched candidate is flagged in its metadata gets that
// candidate's id and score as match_id and score.
func (im *Importer) ImportTable(ctx context.Context, tableID int64, r io.Reader, opts Options) (*Result, error) {
	var doc tableDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: table document: %v", apperrors.ErrInvalidDocument, err)
	}

	return im.run(ctx, kindTable, tableID, opts, func(ctx context.Context, res *Result) error {
		return im.importTable(ctx, tableID, &doc, res)
	})
}

// ImportExtension reads an extension response ({"meta": [...], "rows": {...}})
// and adds one column per meta entry to tableID. Each entity key of rows is
// one row, numbered in document order; each property value list becomes a
// cell whose candidates are the values, and every value is also stored as an
// extension value of that cell.
func (im *Importer) ImportExtension(ctx context.Context, tableID int64, r io.Reader, opts Options) (*Result, error) {
	var doc extensionDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: extension document: %v", apperrors.ErrInvalidDocument, err)
	}

	return im.run(ctx, kindExtension, tableID, opts, func(ctx context.Context, res *Result) error {
		return im.importExtension(ctx, tableID, &doc, res)
	})
}

// run checks the table, executes fn (in a transaction when requested),
// touches the table and records metrics.
func (im *Importer) run(ctx context.Context, kind string, tableID int64, opts Options, fn func(context.Context, *Result) error) (*Result, error) {
	timer := prometheus.NewTimer(importDuration.WithLabelValues(kind))
	defer timer.ObserveDuration()

	if _, err := im.tables.GetByID(ctx, tableID); err != nil {
		importsTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("failed to load table %d: %w", tableID, err)
	}

	res := &Result{}
	body := func(ctx context.Context) error {
		if err := fn(ctx, res); err != nil {
			return err
		}
		return im.tables.Touch(ctx, tableID)
	}

	var err error
	if opts.Atomic {
		err = database.RunInTx(ctx, body)
	} else {
		err = body(ctx)
	}
	if err != nil {
		importsTotal.WithLabelValues(kind, "error").Inc()
		im.logger.Error("Import failed",
			zap.String("kind", kind),
			zap.Int64("table_id", tableID),
			zap.Bool("atomic", opts.Atomic),
			zap.Error(err))
		return nil, err
	}

	importsTotal.WithLabelValues(kind, "ok").Inc()
	importedColumns.WithLabelValues(kind).Add(float64(res.Columns))
	importedCells.WithLabelValues(kind).Add(float64(res.Cells))
	skippedCells.WithLabelValues(kind).Add(float64(res.SkippedCells))

	im.logger.Info("Imported document",
		zap.String("kind", kind),
		zap.Int64("table_id", tableID),
		zap.Int("columns", res.Columns),
		zap.Int("cells", res.Cells),
		zap.Int("skipped_cells", res.SkippedCells),
		zap.Int("reconciled", res.Reconciled),
		zap.Int("extension_values", res.ExtensionValues))
	return res, nil
}

func (im *Importer) importTable(ctx context.Context, tableID int64, doc *tableDocument, res *Result) error {
	colMembers, err := objectMembers(doc.Columns)
	if err != nil {
		return fmt.Errorf("%w: columns: %v", apperrors.ErrInvalidDocument, err)
	}

	columnIDs := make(map[string]int64, len(colMembers))
	for _, m := range colMembers {
		var cd columnDocument
		if err := json.Unmarshal(m.Value, &cd); err != nil {
			return fmt.Errorf("%w: column %q: %v", apperrors.ErrInvalidDocument, m.Key, err)
		}

		name := NormalizeColumnName(m.Key)
		col := &models.Column{
			TableID:        tableID,
			Name:           name,
			Status:         optionalString(cd.Status),
			Context:        cd.Context,
			IsEntity:       cd.Kind == "entity",
			Metadata:       cd.Metadata,
			AnnotationMeta: cd.AnnotationMeta,
		}
		if err := im.columns.Create(ctx, col); err != nil {
			return fmt.Errorf("failed to create column %q: %w", name, err)
		}
		columnIDs[name] = col.ID
		res.Columns++
	}

	rowMembers, err := objectMembers(doc.Rows)
	if err != nil {
		return fmt.Errorf("%w: rows: %v", apperrors.ErrInvalidDocument, err)
	}

	batch := make([]*models.Cell, 0, im.batchSize)
	for _, rm := range rowMembers {
		rowIndex, err := parseRowKey(rm.Key)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
		}

		var rd rowDocument
		if err := json.Unmarshal(rm.Value, &rd); err != nil {
			return fmt.Errorf("%w: row %q: %v", apperrors.ErrInvalidDocument, rm.Key, err)
		}
		cellMembers, err := objectMembers(rd.Cells)
		if err != nil {
			return fmt.Errorf("%w: row %q cells: %v", apperrors.ErrInvalidDocument, rm.Key, err)
		}

		for _, cm := range cellMembers {
			columnID, ok := columnIDs[NormalizeColumnName(cm.Key)]
			if !ok {
				im.logger.Debug("Skipping cell of unknown column",
					zap.String("row", rm.Key),
					zap.String("column", cm.Key))
				res.SkippedCells++
				continue
			}

			var cd cellDocument
			if err := json.Unmarshal(cm.Value, &cd); err != nil {
				return fmt.Errorf("%w: cell %s/%q: %v", apperrors.ErrInvalidDocument, rm.Key, cm.Key, err)
			}
			batch = append(batch, tableCell(columnID, rowIndex, &cd))

			if len(batch) == im.batchSize {
				if err := im.flush(ctx, batch, res); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
	}
	return im.flush(ctx, batch, res)
}

// tableCell builds a cell from its document. Duplicate match flags keep the first.
func tableCell(columnID int64, rowIndex int, cd *cellDocument) *models.Cell {
	candidates := cd.Metadata.NormalizeMatches()
	cell := &models.Cell{
		ColumnID:       columnID,
		RowIndex:       rowIndex,
		CellValue:      jsonutil.FlexibleStringValue(cd.Label),
		Candidates:     candidates,
		AnnotationMeta: cd.AnnotationMeta,
	}
	if m, ok := candidates.Matched(); ok {
		id := m.ID
		if id == "" {
			id = m.Name.URI
		}
		if id != "" {
			cell.MatchID = &id
			if m.HasScore() {
				score := m.Score
				cell.Score = &score
			}
		}
	}
	return cell
}

func (im *Importer) flush(ctx context.Context, batch []*models.Cell, res *Result) error {
	if len(batch) == 0 {
		return nil
	}
	if err := im.cells.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to write %d cells: %w", len(batch), err)
	}
	res.Cells += len(batch)
	for _, c := range batch {
		if c.IsReconciliated() {
			res.Reconciled++
		}
	}
	return nil
}

// pendingExtension is a cell waiting for its id, with the values to attach to it.
type pendingExtension struct {
	cell     *models.Cell
	property string
	kind     string
	values   []json.RawMessage
}

func (im *Importer) importExtension(ctx context.Context, tableID int64, doc *extensionDocument, res *Result) error {
	type extColumn struct {
		id       int64
		isEntity bool
	}
	columns := make(map[string]extColumn, len(doc.Meta))

	for i, raw := range doc.Meta {
		var meta extensionMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("%w: meta %d: %v", apperrors.ErrInvalidDocument, i, err)
		}
		propertyID := jsonutil.FlexibleStringValue(meta.ID)
		if propertyID == "" {
			return fmt.Errorf("%w: meta %d has no id", apperrors.ErrInvalidDocument, i)
		}
		var entry models.MetadataEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("%w: meta %q: %v", apperrors.ErrInvalidDocument, propertyID, err)
		}

		col := &models.Column{
			TableID:  tableID,
			Name:     NormalizeColumnName(propertyID),
			IsEntity: truthy(meta.Type),
			Metadata: models.ColumnMetadata{entry},
		}
		if err := im.columns.Create(ctx, col); err != nil {
			return fmt.Errorf("failed to create column %q: %w", col.Name, err)
		}
		columns[propertyID] = extColumn{id: col.ID, isEntity: col.IsEntity}
		res.Columns++
	}

	rowMembers, err := objectMembers(doc.Rows)
	if err != nil {
		return fmt.Errorf("%w: rows: %v", apperrors.ErrInvalidDocument, err)
	}

	pending := make([]pendingExtension, 0, im.batchSize)
	for rowIndex, rm := range rowMembers {
		props, err := objectMembers(rm.Value)
		if err != nil {
			return fmt.Errorf("%w: entity %q: %v", apperrors.ErrInvalidDocument, rm.Key, err)
		}

		for _, pm := range props {
			col, ok := columns[pm.Key]
			if !ok {
				res.SkippedCells++
				continue
			}
			var values []json.RawMessage
			if err := json.Unmarshal(pm.Value, &values); err != nil {
				im.logger.Debug("Skipping property that is not a value list",
					zap.String("entity", rm.Key),
					zap.String("property", pm.Key))
				res.SkippedCells++
				continue
			}

			cell, ok := extensionCell(col.id, rowIndex, col.isEntity, values)
			if !ok {
				res.SkippedCells++
				continue
			}
			kind := models.ValueKindLiteral
			if col.isEntity {
				kind = models.ValueKindEntity
			}
			pending = append(pending, pendingExtension{cell: cell, property: pm.Key, kind: kind, values: values})

			if len(pending) == im.batchSize {
				if err := im.flushExtension(ctx, pending, res); err != nil {
					return err
				}
				pending = pending[:0]
			}
		}
	}
	return im.flushExtension(ctx, pending, res)
}

// extensionCell builds the cell for one property value list. It reports false
// when the list is empty or its first value has no label.
func extensionCell(columnID int64, rowIndex int, isEntity bool, values []json.RawMessage) (*models.Cell, bool) {
	if len(values) == 0 {
		return nil, false
	}
	var first extensionValue
	if err := json.Unmarshal(values[0], &first); err != nil {
		first = extensionValue{Str: values[0]}
	}
	label := first.label()
	if label == "" {
		return nil, false
	}

	candidates := make(models.Candidates, 0, len(values))
	for _, raw := range values {
		var c models.Candidate
		if err := json.Unmarshal(raw, &c); err != nil {
			c = models.Candidate{Name: models.CandidateName{Value: jsonutil.FlexibleStringValue(raw)}}
		}
		c.Match = false
		candidates = append(candidates, c)
	}

	cell := &models.Cell{
		ColumnID:   columnID,
		RowIndex:   rowIndex,
		CellValue:  label,
		Candidates: candidates,
	}
	if id := jsonutil.FlexibleStringValue(first.ID); isEntity && id != "" {
		candidates[0].Match = true
		cell.MatchID = &id
	}
	return cell, true
}

func (im *Importer) flushExtension(ctx context.Context, pending []pendingExtension, res *Result) error {
	if len(pending) == 0 {
		return nil
	}
	cells := make([]*models.Cell, len(pending))
	for i, p := range pending {
		cells[i] = p.cell
	}
	if err := im.flush(ctx, cells, res); err != nil {
		return err
	}

	for _, p := range pending {
		for _, raw := range p.values {
			var v extensionValue
			if err := json.Unmarshal(raw, &v); err != nil {
				v = extensionValue{Str: raw}
			}
			value := &models.ExtensionValue{
				CellID:    p.cell.ID,
				Property:  p.property,
				Value:     extensionValueText(v, p.kind),
				ValueKind: p.kind,
				Context:   raw,
			}
			if err := im.extensions.CreateValue(ctx, value); err != nil {
				return fmt.Errorf("failed to store extension value of cell %d: %w", p.cell.ID, err)
			}
			res.ExtensionValues++
		}
	}
	return nil
}

// extensionValueText is the entity id for entity values and the label otherwise.
func extensionValueText(v extensionValue, kind string) string {
	if kind == models.ValueKindEntity {
		if id := jsonutil.FlexibleStringValue(v.ID); id != "" {
			return id
		}
	}
	return v.label()
}

func optionalString(raw json.RawMessage) *string {
	s := jsonutil.FlexibleStringValue(raw)
	if s == "" {
		return nil
	}
	return &s
}
