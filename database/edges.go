package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	loadSql "github.com/siherrmann/coderank/sql"
)

// EdgesDBHandlerFunctions defines the interface for graph edge database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(edge *model.GraphEdge) error
	SelectAllEdges() ([]*model.GraphEdge, error)
	SelectEdgesFromNode(path string, edgeType *model.EdgeType) ([]*model.GraphEdge, error)
	SelectEdgesToNode(path string, edgeType *model.EdgeType) ([]*model.GraphEdge, error)
	SelectNodeDegree(path string) (int, error)
	DeleteEdge(id uuid.UUID) error
}

// EdgesDBHandler handles graph edge database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new graph edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'graph_edges' table in the database.
// If the table already exists, it does not create it again.
// It also creates the edge_type enum and both direction indexes.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		return helper.NewError("initialize graph edges table", err)
	}

	h.db.Logger.Info("Checked/created table graph_edges")

	return nil
}

// InsertEdge inserts or updates a directed edge
func (h *EdgesDBHandler) InsertEdge(edge *model.GraphEdge) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3, $4, $5)`,
		edge.FromPath,
		edge.ToPath,
		edge.EdgeType,
		edge.Weight,
		edge.Metadata,
	)

	err := row.Scan(
		&edge.ID,
		&edge.FromPath,
		&edge.ToPath,
		&edge.EdgeType,
		&edge.Weight,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectAllEdges retrieves all graph edges
func (h *EdgesDBHandler) SelectAllEdges() ([]*model.GraphEdge, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_edges()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEdgesFromNode retrieves edges originating from a node
func (h *EdgesDBHandler) SelectEdgesFromNode(path string, edgeType *model.EdgeType) ([]*model.GraphEdge, error) {
	var rows *sql.Rows
	var err error

	if edgeType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_edges_from_node($1, $2)`,
			path,
			*edgeType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_edges_from_node($1, NULL)`,
			path,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEdgesToNode retrieves edges targeting a node
func (h *EdgesDBHandler) SelectEdgesToNode(path string, edgeType *model.EdgeType) ([]*model.GraphEdge, error) {
	var rows *sql.Rows
	var err error

	if edgeType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_edges_to_node($1, $2)`,
			path,
			*edgeType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_edges_to_node($1, NULL)`,
			path,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectNodeDegree returns the total degree of a node over both directions
func (h *EdgesDBHandler) SelectNodeDegree(path string) (int, error) {
	var degree int
	err := h.db.Instance.QueryRow(
		`SELECT select_node_degree($1)`,
		path,
	).Scan(&degree)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return degree, nil
}

// DeleteEdge deletes an edge by ID
func (h *EdgesDBHandler) DeleteEdge(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_edge($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanEdges scans edge rows into models
func scanEdges(rows *sql.Rows) ([]*model.GraphEdge, error) {
	var edges []*model.GraphEdge
	for rows.Next() {
		edge := &model.GraphEdge{}
		err := rows.Scan(
			&edge.ID,
			&edge.FromPath,
			&edge.ToPath,
			&edge.EdgeType,
			&edge.Weight,
			&edge.Metadata,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edges = append(edges, edge)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}
