package ps

import "github.com/nickyhof/LineDB/core"

// Snapshot is the stored image of a database.
type Snapshot struct {
	Name   string          `json:"name" bson:"name"`
	Tables []TableSnapshot `json:"tables" bson:"tables"`
}

// TableSnapshot holds one table. Each row lists raw values in column order;
// nil is null.
type TableSnapshot struct {
	Name    string        `json:"name" bson:"name"`
	Columns []core.Column `json:"columns" bson:"columns"`
	Rows    [][]*string   `json:"rows" bson:"rows"`
}

// Table returns the table snapshot with the given name.
func (s Snapshot) Table(name string) (TableSnapshot, bool) {
	for _, table := range s.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return TableSnapshot{}, false
}
