package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	loadSql "github.com/siherrmann/coderank/sql"
)

// SpansDBHandlerFunctions defines the interface for Spans database operations.
type SpansDBHandlerFunctions interface {
	InsertSpan(span *model.Span) error
	SelectSpan(id uuid.UUID) (*model.Span, error)
	SelectSpansBySimilarity(embedding []float32, kind *model.SpanKind, limit int, threshold float64) ([]*model.Span, error)
	SelectSpansByText(query string, limit int) ([]*model.Span, error)
	DeleteSpan(id uuid.UUID) error
}

// SpansDBHandler handles span-related database operations
type SpansDBHandler struct {
	db *helper.Database
}

// NewSpansDBHandler creates a new spans database handler.
// It initializes the database connection and loads span-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSpansDBHandler(db *helper.Database, embeddingDim int, force bool) (*SpansDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	spansDbHandler := &SpansDBHandler{
		db: db,
	}

	err := loadSql.LoadSpansSql(spansDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load spans sql", err)
	}

	err = spansDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SpansDBHandler")

	return spansDbHandler, nil
}

// CreateTable creates the 'spans' table in the database.
// If the table already exists, it does not create it again.
// It also creates the vector and full text indexes.
func (h *SpansDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_spans($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("initialize spans table", err)
	}

	h.db.Logger.Info("Checked/created table spans")

	return nil
}

// InsertSpan inserts or updates a span by its (path, start_line, end_line) identity
func (h *SpansDBHandler) InsertSpan(span *model.Span) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_span($1, $2, $3, $4, $5, $6, $7)`,
		span.Path,
		span.StartLine,
		span.EndLine,
		span.Kind,
		span.Content,
		pq.Array(span.Embedding),
		span.Metadata,
	)

	err := row.Scan(
		&span.ID,
		&span.Path,
		&span.StartLine,
		&span.EndLine,
		&span.Kind,
		&span.Content,
		pq.Array(&span.Embedding),
		&span.Metadata,
		&span.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectSpan retrieves a span by ID
func (h *SpansDBHandler) SelectSpan(id uuid.UUID) (*model.Span, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_span($1)`,
		id,
	)

	span := &model.Span{}

	err := row.Scan(
		&span.ID,
		&span.Path,
		&span.StartLine,
		&span.EndLine,
		&span.Kind,
		&span.Content,
		pq.Array(&span.Embedding),
		&span.Metadata,
		&span.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return span, nil
}

// SelectSpansBySimilarity retrieves spans by cosine similarity to the given
// embedding, optionally scoped to one span kind
func (h *SpansDBHandler) SelectSpansBySimilarity(embedding []float32, kind *model.SpanKind, limit int, threshold float64) ([]*model.Span, error) {
	embeddingVector := pgvector.NewVector(embedding)

	var rows *sql.Rows
	var err error

	if kind != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_spans_by_similarity($1, $2, $3, $4)`,
			embeddingVector,
			string(*kind),
			limit,
			threshold,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_spans_by_similarity($1, NULL, $2, $3)`,
			embeddingVector,
			limit,
			threshold,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var spans []*model.Span
	for rows.Next() {
		span := &model.Span{}
		var similarity float64

		err := rows.Scan(
			&span.ID,
			&span.Path,
			&span.StartLine,
			&span.EndLine,
			&span.Kind,
			&span.Content,
			&span.Metadata,
			&span.CreatedAt,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		span.Similarity = &similarity
		spans = append(spans, span)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return spans, nil
}

// SelectSpansByText retrieves spans matching a full text query, ranked by ts_rank
func (h *SpansDBHandler) SelectSpansByText(query string, limit int) ([]*model.Span, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_spans_by_text($1, $2)`,
		query,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var spans []*model.Span
	for rows.Next() {
		span := &model.Span{}
		var rank float64

		err := rows.Scan(
			&span.ID,
			&span.Path,
			&span.StartLine,
			&span.EndLine,
			&span.Kind,
			&span.Content,
			&span.Metadata,
			&span.CreatedAt,
			&rank,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		span.Rank = &rank
		spans = append(spans, span)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return spans, nil
}

// DeleteSpan deletes a span by ID
func (h *SpansDBHandler) DeleteSpan(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_span($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
