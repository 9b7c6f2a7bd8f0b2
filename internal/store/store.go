package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCategoryInUse is returned when deleting a category still referenced by products.
	ErrCategoryInUse = errors.New("category is used by products")
	// ErrUnknownCategory is returned when a product references a missing category.
	ErrUnknownCategory = errors.New("one or more categories do not exist")
	// ErrEmailTaken is returned when a user is created with an email already on file.
	ErrEmailTaken = errors.New("email already registered")
)

// Page selects a window of a listing. The zero Page selects everything.
type Page struct {
	Limit  int
	Offset int
}

// Category groups products in the catalog.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Product is a catalog entry with its resolved categories.
type Product struct {
	ID          int64
	Name        string
	About       string
	Price       float64
	CategoryIDs []int64
	Categories  []Category
	CreatedAt   time.Time
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name        string
	About       string
	Price       float64
	CategoryIDs []int64
}

// CategoryStore persists catalog categories.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*Category, error)
	// DeleteCategory fails with ErrCategoryInUse while any product references it.
	DeleteCategory(ctx context.Context, id int64) error
}

// ProductStore persists catalog products.
type ProductStore interface {
	ListProducts(ctx context.Context, page Page) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	// CreateProduct fails with ErrUnknownCategory if any category id is missing.
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// TrackedKind distinguishes the analytics record types.
type TrackedKind string

const (
	KindView   TrackedKind = "view"
	KindAction TrackedKind = "action"
	KindGoal   TrackedKind = "goal"
)

// Tracked is one analytics record: a page view, a visitor action or a
// reached goal. Label holds the action or goal name and is empty for views.
type Tracked struct {
	ID        int64
	Kind      TrackedKind
	Source    string
	URL       string
	Label     string
	Visitor   string
	Meta      map[string]any
	CreatedAt time.Time
}

// TrackedInput carries the writable fields of a record. A zero CreatedAt
// means now.
type TrackedInput struct {
	Source    string
	URL       string
	Label     string
	Visitor   string
	Meta      map[string]any
	CreatedAt time.Time
}

// GoalDetails is a goal with every view and action of the same visitor.
type GoalDetails struct {
	Goal    Tracked
	Views   []Tracked
	Actions []Tracked
}

// AnalyticsStore persists views, actions and goals.
type AnalyticsStore interface {
	ListTracked(ctx context.Context, kind TrackedKind) ([]Tracked, error)
	GetTracked(ctx context.Context, kind TrackedKind, id int64) (*Tracked, error)
	CreateTracked(ctx context.Context, kind TrackedKind, in TrackedInput) (*Tracked, error)
	UpdateTracked(ctx context.Context, kind TrackedKind, id int64, in TrackedInput) (*Tracked, error)
	DeleteTracked(ctx context.Context, kind TrackedKind, id int64) error
	GoalDetails(ctx context.Context, goalID int64) (*GoalDetails, error)
}

// User is a registered account. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserInput carries the fields of a new user.
type UserInput struct {
	Name         string
	Email        string
	PasswordHash string
}

// UserStore persists user accounts.
type UserStore interface {
	ListUsers(ctx context.Context, page Page) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	// CreateUser fails with ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, in UserInput) (*User, error)
	// DeleteUser returns the removed user.
	DeleteUser(ctx context.Context, id int64) (*User, error)
}

// Store combines all storage interfaces.
type Store interface {
	CategoryStore
	ProductStore
	AnalyticsStore
	UserStore
	Close() error
}
