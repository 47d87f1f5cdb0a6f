package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
	loadSql "github.com/siherrmann/coderank/sql"
)

// NodesDBHandlerFunctions defines the interface for graph node database operations.
type NodesDBHandlerFunctions interface {
	InsertNode(node *model.GraphNode) error
	SelectNode(path string) (*model.GraphNode, error)
	SelectAllNodes() ([]*model.GraphNode, error)
	DeleteNode(path string) error
}

// NodesDBHandler handles graph node database operations
type NodesDBHandler struct {
	db *helper.Database
}

// NewNodesDBHandler creates a new graph nodes database handler.
// It initializes the database connection and loads node-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNodesDBHandler(db *helper.Database, force bool) (*NodesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	nodesDbHandler := &NodesDBHandler{
		db: db,
	}

	err := loadSql.LoadNodesSql(nodesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	err = nodesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized NodesDBHandler")

	return nodesDbHandler, nil
}

// CreateTable creates the 'graph_nodes' table in the database.
// If the table already exists, it does not create it again.
func (h *NodesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_nodes();`)
	if err != nil {
		return helper.NewError("initialize graph nodes table", err)
	}

	h.db.Logger.Info("Checked/created table graph_nodes")

	return nil
}

// InsertNode inserts or updates a node by path
func (h *NodesDBHandler) InsertNode(node *model.GraphNode) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_node($1, $2, $3, $4, $5)`,
		node.Path,
		node.StartLine,
		node.EndLine,
		node.Content,
		node.Metadata,
	)

	err := row.Scan(
		&node.ID,
		&node.Path,
		&node.StartLine,
		&node.EndLine,
		&node.Content,
		&node.Metadata,
		&node.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectNode retrieves a node by path
func (h *NodesDBHandler) SelectNode(path string) (*model.GraphNode, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node($1)`,
		path,
	)

	node := &model.GraphNode{}

	err := row.Scan(
		&node.ID,
		&node.Path,
		&node.StartLine,
		&node.EndLine,
		&node.Content,
		&node.Metadata,
		&node.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// SelectAllNodes retrieves all graph nodes, ordered by path
func (h *NodesDBHandler) SelectAllNodes() ([]*model.GraphNode, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_nodes()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var nodes []*model.GraphNode
	for rows.Next() {
		node := &model.GraphNode{}
		err := rows.Scan(
			&node.ID,
			&node.Path,
			&node.StartLine,
			&node.EndLine,
			&node.Content,
			&node.Metadata,
			&node.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		nodes = append(nodes, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return nodes, nil
}

// DeleteNode deletes a node by path
func (h *NodesDBHandler) DeleteNode(path string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_node($1)`,
		path,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
