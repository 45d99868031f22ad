// Package sql provides lexing and parsing for the LineDB command language.
//
// The language has eight one-line commands. Keywords are case-insensitive
// and only recognized where the grammar expects them.
//
// # Lexer Usage
//
//	lexer := sql.NewLexer("SELECT * FROM users")
//	for {
//	    token := lexer.NextToken()
//	    if token.Type == sql.EOF {
//	        break
//	    }
//	    fmt.Printf("%d: %s\n", token.Pos, token)
//	}
//
// # Parser Usage
//
//	statement, err := sql.Parse("SELECT id, name FROM cats WHERE breed=British")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Supported Statements
//
//   - CreateTableStatement:       CREATE TABLE <name> (TYPE col [NOT NULL], ...)
//   - DropTableStatement:         DROP TABLE <name>
//   - ListTablesStatement:        LIST TABLES
//   - InsertStatement:            INSERT INTO <name> (cols) VALUES (vals)
//   - UpdateStatement:            UPDATE <name> SET k=v, ... [WHERE k=v, ...]
//   - DeleteStatement:            DELETE FROM <name> [WHERE k=v, ...]
//   - SelectStatement:            SELECT cols|* FROM <name> [WHERE k=v, ...]
//   - CartesianProductStatement:  CARTESIAN PRODUCT <name> BY <name>
//
// A bare null (any case) in a value position is the absent value; the
// quoted 'null' is plain text.
package sql
