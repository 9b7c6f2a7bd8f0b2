package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"

	"github.com/vovakirdan/presence-chat/internal/store"
)

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Schema creates the catalog, analytics and user tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS categories (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	about      TEXT NOT NULL DEFAULT '',
	price      REAL NOT NULL CHECK (price > 0),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS product_categories (
	product_id  INTEGER NOT NULL,
	category_id INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	PRIMARY KEY (product_id, category_id),
	FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
	FOREIGN KEY (category_id) REFERENCES categories(id)
);

CREATE INDEX IF NOT EXISTS idx_product_categories_category ON product_categories(category_id);

CREATE TABLE IF NOT EXISTS analytics_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL CHECK (kind IN ('view', 'action', 'goal')),
	source     TEXT NOT NULL,
	url        TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	visitor    TEXT NOT NULL,
	meta       TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analytics_events_visitor ON analytics_events(kind, visitor);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the catalog schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// ApplySchema creates the catalog tables on db.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ==== CategoryStore implementation ====

// ListCategories returns every category ordered by id.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]store.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, id int64) (*store.Category, error) {
	var c store.Category
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

// CreateCategory inserts a category.
func (s *SQLiteStore) CreateCategory(ctx context.Context, name string) (*store.Category, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetCategory(ctx, id)
}

// UpdateCategory renames a category.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id int64, name string) (*store.Category, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if err := expectAffected(result, "category", id); err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category that no product references.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var uses int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_categories WHERE category_id = ?`, id).Scan(&uses); err != nil {
		return fmt.Errorf("count category uses: %w", err)
	}
	if uses > 0 {
		return fmt.Errorf("category %d: %w", id, store.ErrCategoryInUse)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := expectAffected(result, "category", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ==== ProductStore implementation ====

// ListProducts returns products with their categories, ordered by id.
func (s *SQLiteStore) ListProducts(ctx context.Context, page store.Page) ([]store.Product, error) {
	limit, args := pageClause(page)
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, about, price, created_at FROM products ORDER BY id`+limit, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products := make([]store.Product, 0)
	for rows.Next() {
		var p store.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.About, &p.Price, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	// The single pooled connection must be released before loading categories.
	rows.Close()

	for i := range products {
		if err := s.loadCategories(ctx, s.db, &products[i]); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// GetProduct retrieves a product with its categories.
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*store.Product, error) {
	var p store.Product
	err := s.db.QueryRowContext(ctx, `SELECT id, name, about, price, created_at FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.About, &p.Price, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query product: %w", err)
	}

	if err := s.loadCategories(ctx, s.db, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product and links its categories.
func (s *SQLiteStore) CreateProduct(ctx context.Context, in store.ProductInput) (*store.Product, error) {
	categoryIDs := lo.Uniq(in.CategoryIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := checkCategories(ctx, tx, categoryIDs); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO products (name, about, price) VALUES (?, ?, ?)`,
		in.Name, in.About, in.Price,
	)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := linkCategories(ctx, tx, id, categoryIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetProduct(ctx, id)
}

// UpdateProduct replaces the fields and categories of a product.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, id int64, in store.ProductInput) (*store.Product, error) {
	categoryIDs := lo.Uniq(in.CategoryIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := checkCategories(ctx, tx, categoryIDs); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE products SET name = ?, about = ?, price = ? WHERE id = ?`,
		in.Name, in.About, in.Price, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if err := expectAffected(result, "product", id); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clear product categories: %w", err)
	}
	if err := linkCategories(ctx, tx, id, categoryIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product; its category links cascade.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectAffected(result, "product", id)
}

func (s *SQLiteStore) loadCategories(ctx context.Context, q queryer, p *store.Product) error {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.name, c.created_at
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ?
		ORDER BY pc.position
	`, p.ID)
	if err != nil {
		return fmt.Errorf("query product categories: %w", err)
	}
	defer rows.Close()

	categories, err := scanCategories(rows)
	if err != nil {
		return err
	}
	p.Categories = categories
	p.CategoryIDs = lo.Map(categories, func(c store.Category, _ int) int64 { return c.ID })
	return nil
}

func scanCategories(rows *sql.Rows) ([]store.Category, error) {
	categories := make([]store.Category, 0)
	for rows.Next() {
		var c store.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func checkCategories(ctx context.Context, q queryer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `SELECT COUNT(*) FROM categories WHERE id IN (` + placeholders(len(ids)) + `)`
	args := lo.Map(ids, func(id int64, _ int) any { return id })

	var found int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if found != len(ids) {
		return store.ErrUnknownCategory
	}
	return nil
}

func linkCategories(ctx context.Context, tx *sql.Tx, productID int64, ids []int64) error {
	for pos, categoryID := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_categories (product_id, category_id, position) VALUES (?, ?, ?)`,
			productID, categoryID, pos,
		); err != nil {
			return fmt.Errorf("link category %d: %w", categoryID, err)
		}
	}
	return nil
}

func expectAffected(result sql.Result, kind string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

// pageClause renders page as a LIMIT/OFFSET suffix; the zero Page adds nothing.
func pageClause(page store.Page) (string, []any) {
	if page.Limit <= 0 {
		return "", nil
	}
	return ` LIMIT ? OFFSET ?`, []any{page.Limit, max(page.Offset, 0)}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
