package db

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nickyhof/LineDB/core"
	"github.com/nickyhof/LineDB/ps"
	"github.com/nickyhof/LineDB/sql"
)

// tableNameColumn is the single column of LIST TABLES rows.
var tableNameColumn = core.Column{Name: "table_name", Type: core.StringType}

// Database maps table names to tables. All access goes through one mutex so
// each query is atomic with respect to every other call.
type Database struct {
	mu       sync.Mutex
	name     string
	filePath string
	tables   map[string]*Table

	store        ps.Store
	storeOptions ps.Options
	logger       *zap.Logger
}

type Option func(*Database)

// WithLogger sets the logger used for queries and persistence.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Database) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithName overrides the name derived from the file path.
func WithName(name string) Option {
	return func(d *Database) {
		d.name = name
	}
}

// WithIdentity sets the author recorded by stores that keep history.
func WithIdentity(identity core.Identity) Option {
	return func(d *Database) {
		d.storeOptions.Identity = identity
	}
}

// WithS3 configures access to s3:// locations.
func WithS3(cfg ps.S3Config) Option {
	return func(d *Database) {
		d.storeOptions.S3 = &cfg
	}
}

// WithStore binds an already opened store instead of resolving one from the
// file path.
func WithStore(store ps.Store) Option {
	return func(d *Database) {
		d.store = store
		if d.filePath == "" {
			d.filePath = store.Location()
		}
	}
}

// New creates an empty database bound to filePath, which may be empty.
func New(filePath string, opts ...Option) *Database {
	d := &Database{
		name:     nameFromPath(filePath),
		filePath: filePath,
		tables:   make(map[string]*Table),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.name == "" {
		d.name = nameFromPath(d.filePath)
	}
	d.storeOptions.Logger = d.logger
	return d
}

func nameFromPath(path string) string {
	if path == "" {
		return ""
	}
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (d *Database) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

func (d *Database) FilePath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filePath
}

// SetFilePath rebinds the database to another location. The next Save
// writes there.
func (d *Database) SetFilePath(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filePath = path
	d.store = nil
	if d.name == "" {
		d.name = nameFromPath(path)
	}
}

// Query runs one command and reports the outcome. It never panics: every
// failure, including a recovered panic, comes back as a FAIL result.
func (d *Database) Query(query string) (result Result) {
	start := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result = failure(fmt.Errorf("internal error: %v", r))
			d.logger.Error("query panicked", zap.String("query", query), zap.Any("panic", r))
		}
		result.ExecutionTimeSec = time.Since(start).Seconds()
		d.logQuery(query, result, time.Since(start))
	}()

	r, err := d.execute(query)
	if err != nil {
		return failure(err)
	}
	return r
}

func (d *Database) logQuery(query string, result Result, elapsed time.Duration) {
	if result.Status == FAIL {
		fields := []zap.Field{zap.String("query", query), zap.String("report", result.Report)}
		if kind, ok := core.KindOf(result.Err); ok {
			fields = append(fields, zap.Stringer("kind", kind))
		}
		d.logger.Info("query failed", fields...)
		return
	}
	d.logger.Debug("query executed",
		zap.String("query", query),
		zap.Stringer("status", result.Status),
		zap.Int("rows", len(result.Rows)),
		zap.Duration("duration", elapsed))
}

func (d *Database) execute(query string) (Result, error) {
	statement, err := sql.Parse(query)
	if err != nil {
		return Result{}, err
	}

	switch statement.Type() {
	case sql.CreateTableStatementType:
		return d.executeCreateTableStatement(statement.(sql.CreateTableStatement))
	case sql.DropTableStatementType:
		return d.executeDropTableStatement(statement.(sql.DropTableStatement))
	case sql.ListTablesStatementType:
		return d.executeListTablesStatement()
	case sql.InsertStatementType:
		return d.executeInsertStatement(statement.(sql.InsertStatement))
	case sql.UpdateStatementType:
		return d.executeUpdateStatement(statement.(sql.UpdateStatement))
	case sql.DeleteStatementType:
		return d.executeDeleteStatement(statement.(sql.DeleteStatement))
	case sql.SelectStatementType:
		return d.executeSelectStatement(statement.(sql.SelectStatement))
	case sql.CartesianProductStatementType:
		return d.executeCartesianProductStatement(statement.(sql.CartesianProductStatement))
	default:
		return Result{}, core.Errorf(core.ParseError, "unsupported statement %s", statement.Type())
	}
}

func (d *Database) executeCreateTableStatement(statement sql.CreateTableStatement) (Result, error) {
	if _, exists := d.tables[statement.Table]; exists {
		return Result{}, core.Errorf(core.PreconditionError, "Table '%s' already exists", statement.Table)
	}

	table, err := NewTable(statement.Table, statement.Columns)
	if err != nil {
		return Result{}, err
	}
	d.tables[statement.Table] = table

	return success(fmt.Sprintf("Table '%s' created", statement.Table), nil), nil
}

func (d *Database) executeDropTableStatement(statement sql.DropTableStatement) (Result, error) {
	if _, err := d.table(statement.Table); err != nil {
		return Result{}, err
	}
	delete(d.tables, statement.Table)

	return success(fmt.Sprintf("Table '%s' dropped", statement.Table), nil), nil
}

func (d *Database) executeListTablesStatement() (Result, error) {
	names := d.tableNames()
	rows := make([]core.Row, len(names))
	for i, name := range names {
		element := core.NewElement(tableNameColumn.Name, core.Text(name))
		if err := element.Validate(tableNameColumn); err != nil {
			return Result{}, err
		}
		rows[i] = core.NewRow(element)
	}
	return success("", rows), nil
}

func (d *Database) executeInsertStatement(statement sql.InsertStatement) (Result, error) {
	table, err := d.table(statement.Table)
	if err != nil {
		return Result{}, err
	}

	if len(statement.Columns) != len(statement.Values) {
		return Result{}, core.Errorf(core.PreconditionError,
			"The number of values (%d) doesn't match the number of columns (%d)",
			len(statement.Values), len(statement.Columns))
	}

	values := make(map[core.Column]*string, len(statement.Columns))
	for i, name := range statement.Columns {
		column, err := table.Column(name)
		if err != nil {
			return Result{}, err
		}
		if _, dup := values[column]; dup {
			return Result{}, core.Errorf(core.PreconditionError, "Column '%s' is given more than once", name)
		}
		values[column] = statement.Values[i]
	}

	row, err := table.Insert(values)
	if err != nil {
		return Result{}, err
	}

	return success("1 row inserted", []core.Row{row}), nil
}

func (d *Database) executeUpdateStatement(statement sql.UpdateStatement) (Result, error) {
	table, err := d.table(statement.Table)
	if err != nil {
		return Result{}, err
	}

	values := make(map[core.Column]*string, len(statement.Updates))
	for _, assignment := range statement.Updates {
		column, err := table.Column(assignment.Column)
		if err != nil {
			return Result{}, err
		}
		if _, dup := values[column]; dup {
			return Result{}, core.Errorf(core.PreconditionError, "Column '%s' is assigned more than once", assignment.Column)
		}
		values[column] = assignment.Value
	}

	predicate, err := wherePredicate(table, statement.Where)
	if err != nil {
		return Result{}, err
	}

	rows, err := table.Update(values, predicate)
	if err != nil {
		return Result{}, err
	}

	return success(fmt.Sprintf("%d row(s) updated", len(rows)), rows), nil
}

func (d *Database) executeDeleteStatement(statement sql.DeleteStatement) (Result, error) {
	table, err := d.table(statement.Table)
	if err != nil {
		return Result{}, err
	}

	predicate, err := wherePredicate(table, statement.Where)
	if err != nil {
		return Result{}, err
	}

	rows := table.Delete(predicate)
	return success(fmt.Sprintf("%d row(s) deleted", len(rows)), rows), nil
}

func (d *Database) executeSelectStatement(statement sql.SelectStatement) (Result, error) {
	table, err := d.table(statement.Table)
	if err != nil {
		return Result{}, err
	}

	var columns []core.Column
	if statement.Wildcard {
		columns = table.Columns()
	} else {
		for _, name := range statement.Columns {
			column, err := table.Column(name)
			if err != nil {
				return Result{}, err
			}
			columns = append(columns, column)
		}
	}

	predicate, err := wherePredicate(table, statement.Where)
	if err != nil {
		return Result{}, err
	}

	rows, err := table.Select(columns, predicate)
	if err != nil {
		return Result{}, err
	}
	return success("", rows), nil
}

func (d *Database) executeCartesianProductStatement(statement sql.CartesianProductStatement) (Result, error) {
	left, err := d.table(statement.Left)
	if err != nil {
		return Result{}, err
	}
	right, err := d.table(statement.Right)
	if err != nil {
		return Result{}, err
	}
	if left == right {
		return Result{}, core.Errorf(core.PreconditionError,
			"A cartesian product needs two different tables, got '%s' twice", statement.Left)
	}

	return success("", left.CartesianProduct(right)), nil
}

// wherePredicate checks that every WHERE column exists before building the
// predicate.
func wherePredicate(table *Table, where []sql.Assignment) (Predicate, error) {
	conditions := make([]Condition, len(where))
	for i, assignment := range where {
		if _, err := table.Column(assignment.Column); err != nil {
			return nil, err
		}
		conditions[i] = Condition{Column: assignment.Column, Value: assignment.Value}
	}
	return Where(conditions...), nil
}

func (d *Database) table(name string) (*Table, error) {
	table, ok := d.tables[name]
	if !ok {
		return nil, core.Errorf(core.SchemaError, "Table '%s' doesn't exist", name)
	}
	return table, nil
}

func (d *Database) tableNames() []string {
	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables returns the table names in sorted order.
func (d *Database) Tables() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tableNames()
}

// TableColumns returns the schema of the named table in declared order.
func (d *Database) TableColumns(name string) ([]core.Column, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	table, err := d.table(name)
	if err != nil {
		return nil, err
	}
	return table.Columns(), nil
}

// Table returns a detached copy of the named table. Changes to the copy do
// not reach the database.
func (d *Database) Table(name string) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	table, err := d.table(name)
	if err != nil {
		return nil, err
	}
	return &Table{
		name:    table.name,
		columns: table.Columns(),
		schema:  table.schema,
		rows:    table.Rows(),
	}, nil
}
