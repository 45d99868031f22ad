package db

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nickyhof/LineDB/core"
	"github.com/nickyhof/LineDB/ps"
)

// Open reads the database stored at path. Every stored row is validated
// against its table schema; a row that does not fit fails the whole load.
func Open(ctx context.Context, path string, opts ...Option) (*Database, error) {
	d := New(path, opts...)

	d.mu.Lock()
	defer d.mu.Unlock()

	store, err := d.resolveStore()
	if err != nil {
		return nil, err
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.restore(snapshot); err != nil {
		return nil, fmt.Errorf("%s: %w", store.Location(), err)
	}

	d.logger.Info("database opened",
		zap.String("name", d.name),
		zap.String("location", store.Location()),
		zap.Int("tables", len(d.tables)))
	return d, nil
}

// OpenOrNew opens the database at path and falls back to an empty database
// bound to the same path. A missing file is not an error; any other load
// failure is returned next to the fresh database so callers can report it.
func OpenOrNew(ctx context.Context, path string, opts ...Option) (*Database, error) {
	d, err := Open(ctx, path, opts...)
	if err == nil {
		return d, nil
	}

	fresh := New(path, opts...)
	if errors.Is(err, ps.ErrNotFound) {
		return fresh, nil
	}
	fresh.logger.Warn("failed to load database, starting empty", zap.String("path", path), zap.Error(err))
	return fresh, err
}

// Save writes the whole database to its bound location.
func (d *Database) Save(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	store, err := d.resolveStore()
	if err != nil {
		return err
	}

	snapshot := d.snapshot()
	if err := store.Save(ctx, snapshot); err != nil {
		return err
	}

	d.logger.Info("database saved",
		zap.String("name", d.name),
		zap.String("location", store.Location()),
		zap.Int("tables", len(snapshot.Tables)))
	return nil
}

// History lists the recorded saves for stores that keep them.
func (d *Database) History(ctx context.Context) ([]ps.Transaction, error) {
	d.mu.Lock()
	store, err := d.resolveStore()
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	historian, ok := store.(ps.Historian)
	if !ok {
		return nil, fmt.Errorf("%s keeps no history", store.Location())
	}
	return historian.History(ctx)
}

// Snapshot captures the current tables.
func (d *Database) Snapshot() ps.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

func (d *Database) snapshot() ps.Snapshot {
	snapshot := ps.Snapshot{Name: d.name, Tables: []ps.TableSnapshot{}}
	for _, name := range d.tableNames() {
		table := d.tables[name]
		rows := make([][]*string, len(table.rows))
		for i, row := range table.rows {
			values := make([]*string, len(table.columns))
			for j, column := range table.columns {
				if element := row.Element(column.Name); element != nil {
					values[j] = element.Raw()
				}
			}
			rows[i] = values
		}
		snapshot.Tables = append(snapshot.Tables, ps.TableSnapshot{
			Name:    name,
			Columns: table.Columns(),
			Rows:    rows,
		})
	}
	return snapshot
}

// restore replaces the tables with the snapshot contents, or leaves them
// alone when any table fails to load.
func (d *Database) restore(snapshot ps.Snapshot) error {
	tables := make(map[string]*Table, len(snapshot.Tables))
	for _, ts := range snapshot.Tables {
		if _, dup := tables[ts.Name]; dup {
			return fmt.Errorf("table '%s' is stored twice", ts.Name)
		}

		table, err := NewTable(ts.Name, ts.Columns)
		if err != nil {
			return fmt.Errorf("table '%s': %w", ts.Name, err)
		}

		for i, values := range ts.Rows {
			if len(values) > len(ts.Columns) {
				return fmt.Errorf("table '%s' row %d: %d values for %d columns", ts.Name, i+1, len(values), len(ts.Columns))
			}
			elements := make([]*core.Element, len(values))
			for j, raw := range values {
				elements[j] = core.NewElement(ts.Columns[j].Name, raw)
			}
			if err := table.load(core.NewRow(elements...)); err != nil {
				return fmt.Errorf("table '%s' row %d: %w", ts.Name, i+1, err)
			}
		}
		tables[ts.Name] = table
	}

	d.tables = tables
	if snapshot.Name != "" {
		d.name = snapshot.Name
	}
	return nil
}

func (d *Database) resolveStore() (ps.Store, error) {
	if d.store != nil {
		return d.store, nil
	}
	if d.filePath == "" {
		return nil, fmt.Errorf("database %q is not bound to a file", d.name)
	}

	store, err := ps.OpenStore(d.filePath, d.storeOptions)
	if err != nil {
		return nil, err
	}
	d.store = store
	return store, nil
}
