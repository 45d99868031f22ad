package sql

import (
	"strings"

	"github.com/nickyhof/LineDB/core"
)

type StatementType int

const (
	CreateTableStatementType StatementType = iota
	DropTableStatementType
	ListTablesStatementType
	InsertStatementType
	UpdateStatementType
	DeleteStatementType
	SelectStatementType
	CartesianProductStatementType
)

func (t StatementType) String() string {
	switch t {
	case CreateTableStatementType:
		return "CREATE_TABLE"
	case DropTableStatementType:
		return "DROP_TABLE"
	case ListTablesStatementType:
		return "LIST_TABLES"
	case InsertStatementType:
		return "INSERT_ROW"
	case UpdateStatementType:
		return "UPDATE_ROWS"
	case DeleteStatementType:
		return "DELETE_ROWS"
	case SelectStatementType:
		return "SELECT_ROWS"
	case CartesianProductStatementType:
		return "CARTESIAN_PRODUCT"
	default:
		return "UNKNOWN"
	}
}

// Mutating reports whether statements of this type can change the table map
// or table contents.
func (t StatementType) Mutating() bool {
	switch t {
	case CreateTableStatementType, DropTableStatementType, InsertStatementType,
		UpdateStatementType, DeleteStatementType:
		return true
	default:
		return false
	}
}

type Statement interface {
	Type() StatementType
}

type CreateTableStatement struct {
	Table   string
	Columns []core.Column
}

type DropTableStatement struct {
	Table string
}

type ListTablesStatement struct{}

type InsertStatement struct {
	Table   string
	Columns []string
	Values  []*string // nil entries are null
}

type UpdateStatement struct {
	Table   string
	Updates []Assignment
	Where   []Assignment
}

type DeleteStatement struct {
	Table string
	Where []Assignment
}

type SelectStatement struct {
	Table    string
	Wildcard bool
	Columns  []string
	Where    []Assignment
}

type CartesianProductStatement struct {
	Left  string
	Right string
}

// Assignment is one column=value pair of a SET or WHERE list. A nil Value is
// the null literal.
type Assignment struct {
	Column string
	Value  *string
}

func (s CreateTableStatement) Type() StatementType {
	return CreateTableStatementType
}

func (s DropTableStatement) Type() StatementType {
	return DropTableStatementType
}

func (s ListTablesStatement) Type() StatementType {
	return ListTablesStatementType
}

func (s InsertStatement) Type() StatementType {
	return InsertStatementType
}

func (s UpdateStatement) Type() StatementType {
	return UpdateStatementType
}

func (s DeleteStatement) Type() StatementType {
	return DeleteStatementType
}

func (s SelectStatement) Type() StatementType {
	return SelectStatementType
}

func (s CartesianProductStatement) Type() StatementType {
	return CartesianProductStatementType
}

type Parser struct {
	lexer *Lexer
}

func NewParser(sql string) *Parser {
	return &Parser{lexer: NewLexer(sql)}
}

// Parse parses one command line.
func Parse(sql string) (Statement, error) {
	return NewParser(sql).Parse()
}

func (parser *Parser) Parse() (Statement, error) {
	statement, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}

	token := parser.lexer.NextToken()
	if token.Type == Semicolon {
		token = parser.lexer.NextToken()
	}
	if token.Type != EOF {
		return nil, parser.errorAt(token, "unexpected %s after end of statement", token)
	}

	return statement, nil
}

func (parser *Parser) parseStatement() (Statement, error) {
	token := parser.lexer.NextToken()
	switch {
	case token.Is("CREATE"):
		return ParseCreateTable(parser)
	case token.Is("DROP"):
		return ParseDropTable(parser)
	case token.Is("LIST"):
		return ParseListTables(parser)
	case token.Is("INSERT"):
		return ParseInsert(parser)
	case token.Is("UPDATE"):
		return ParseUpdate(parser)
	case token.Is("DELETE"):
		return ParseDelete(parser)
	case token.Is("SELECT"):
		return ParseSelect(parser)
	case token.Is("CARTESIAN"):
		return ParseCartesianProduct(parser)
	case token.Type == EOF:
		return nil, parser.errorAt(token, "empty query")
	default:
		return nil, parser.errorAt(token, "unknown command %s (expected CREATE, DROP, LIST, INSERT, UPDATE, DELETE, SELECT or CARTESIAN)", token)
	}
}

func ParseCreateTable(parser *Parser) (Statement, error) {
	var statement CreateTableStatement

	if err := parser.expectKeyword("TABLE", "after CREATE"); err != nil {
		return nil, err
	}

	table, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.Table = table

	if err := parser.expect(ParenOpen, "after table name"); err != nil {
		return nil, err
	}

	for {
		token := parser.lexer.NextToken()
		if token.Type != Word {
			return nil, parser.errorAt(token, "expected column type, found %s", token)
		}
		columnType, err := core.ParseColumnType(token.Value)
		if err != nil {
			return nil, parser.errorAt(token, "%s", err.Error())
		}

		name, err := parser.expectIdentifier("column name")
		if err != nil {
			return nil, err
		}

		column := core.Column{Name: name, Type: columnType, Nullable: true}

		if parser.lexer.PeekToken().Is("NOT") {
			parser.lexer.NextToken() // consume NOT
			if err := parser.expectKeyword("NULL", "after NOT"); err != nil {
				return nil, err
			}
			column.Nullable = false
		} else if parser.lexer.PeekToken().Is("NULL") {
			parser.lexer.NextToken()
		}

		statement.Columns = append(statement.Columns, column)

		token = parser.lexer.NextToken()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			break
		} else {
			return nil, parser.errorAt(token, "expected ',' or ')' in column list, found %s", token)
		}
	}

	return statement, nil
}

func ParseDropTable(parser *Parser) (Statement, error) {
	if err := parser.expectKeyword("TABLE", "after DROP"); err != nil {
		return nil, err
	}

	table, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}

	return DropTableStatement{Table: table}, nil
}

func ParseListTables(parser *Parser) (Statement, error) {
	if err := parser.expectKeyword("TABLES", "after LIST"); err != nil {
		return nil, err
	}
	return ListTablesStatement{}, nil
}

func ParseInsert(parser *Parser) (Statement, error) {
	var statement InsertStatement

	if err := parser.expectKeyword("INTO", "after INSERT"); err != nil {
		return nil, err
	}

	table, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.Table = table

	if err := parser.expect(ParenOpen, "after table name"); err != nil {
		return nil, err
	}

	for {
		column, err := parser.expectIdentifier("column name")
		if err != nil {
			return nil, err
		}
		statement.Columns = append(statement.Columns, column)

		token := parser.lexer.NextToken()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			break
		} else {
			return nil, parser.errorAt(token, "expected ',' or ')' in column list, found %s", token)
		}
	}

	if err := parser.expectKeyword("VALUES", "after column list"); err != nil {
		return nil, err
	}

	if err := parser.expect(ParenOpen, "after VALUES"); err != nil {
		return nil, err
	}

	for {
		value, err := parser.parseValue(nil, true)
		if err != nil {
			return nil, err
		}
		statement.Values = append(statement.Values, value)

		token := parser.lexer.NextToken()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			break
		} else {
			return nil, parser.errorAt(token, "expected ',' or ')' in values list, found %s", token)
		}
	}

	return statement, nil
}

func ParseUpdate(parser *Parser) (Statement, error) {
	var statement UpdateStatement

	table, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.Table = table

	if err := parser.expectKeyword("SET", "after table name"); err != nil {
		return nil, err
	}

	updates, err := parser.parseAssignments([]string{"WHERE"})
	if err != nil {
		return nil, err
	}
	statement.Updates = updates

	where, err := parser.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	statement.Where = where

	return statement, nil
}

func ParseDelete(parser *Parser) (Statement, error) {
	var statement DeleteStatement

	if err := parser.expectKeyword("FROM", "after DELETE"); err != nil {
		return nil, err
	}

	table, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.Table = table

	where, err := parser.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	statement.Where = where

	return statement, nil
}

func ParseSelect(parser *Parser) (Statement, error) {
	var statement SelectStatement

	token := parser.lexer.PeekToken()
	switch {
	case token.Type == Wildcard:
		parser.lexer.NextToken()
		statement.Wildcard = true
	case token.Type == ParenOpen:
		// SELECT (col1, col2) FROM ...
		parser.lexer.NextToken()
		columns, err := parser.parseColumnList(func(t Token) bool { return t.Type == ParenClose })
		if err != nil {
			return nil, err
		}
		parser.lexer.NextToken() // consume ')'
		statement.Columns = columns
	default:
		columns, err := parser.parseColumnList(func(t Token) bool { return t.Is("FROM") })
		if err != nil {
			return nil, err
		}
		statement.Columns = columns
	}

	if err := parser.expectKeyword("FROM", "after column list"); err != nil {
		return nil, err
	}

	table, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.Table = table

	where, err := parser.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	statement.Where = where

	return statement, nil
}

func ParseCartesianProduct(parser *Parser) (Statement, error) {
	var statement CartesianProductStatement

	if err := parser.expectKeyword("PRODUCT", "after CARTESIAN"); err != nil {
		return nil, err
	}

	left, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.Left = left

	if err := parser.expectKeyword("BY", "after table name"); err != nil {
		return nil, err
	}

	right, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.Right = right

	return statement, nil
}

// parseColumnList reads comma-separated column names up to (not including)
// the token accepted by end.
func (parser *Parser) parseColumnList(end func(Token) bool) ([]string, error) {
	var columns []string

	token := parser.lexer.PeekToken()
	if end(token) {
		return nil, parser.errorAt(token, "expected column name or '*', found %s", token)
	}

	for {
		column, err := parser.expectIdentifier("column name")
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)

		token = parser.lexer.PeekToken()
		if token.Type == Comma {
			parser.lexer.NextToken() // consume comma
			continue
		}
		if end(token) {
			return columns, nil
		}
		return nil, parser.errorAt(token, "expected ',' or end of column list, found %s", token)
	}
}

func (parser *Parser) parseOptionalWhere() ([]Assignment, error) {
	if !parser.lexer.PeekToken().Is("WHERE") {
		return nil, nil
	}
	parser.lexer.NextToken() // consume WHERE
	return parser.parseAssignments([]string{"AND"})
}

// parseAssignments reads comma-separated key=value pairs. A value ends at
// any of the given keywords when the keyword starts another "<column> ="
// clause; AND, when listed, also separates pairs.
func (parser *Parser) parseAssignments(keywords []string) ([]Assignment, error) {
	var assignments []Assignment

	stop := func(t Token) bool {
		if !containsFold(keywords, t.Value) || t.Type != Word {
			return false
		}
		ahead := parser.lexer.PeekTokens(3)
		return ahead[1].Type == Word && ahead[2].Type == Equals
	}

	for {
		column, err := parser.expectIdentifier("column name")
		if err != nil {
			return nil, err
		}

		if err := parser.expect(Equals, "after column name"); err != nil {
			return nil, err
		}

		value, err := parser.parseValue(stop, false)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, Assignment{Column: column, Value: value})

		token := parser.lexer.PeekToken()
		if token.Type == Comma {
			parser.lexer.NextToken()
			continue
		}
		if token.Is("AND") && containsFold(keywords, "AND") {
			parser.lexer.NextToken()
			continue
		}
		return assignments, nil
	}
}

// parseValue reads one value: a quoted string, or a run of words joined with
// the spacing of the source text. Words accepted by stop end the run. Inside
// a VALUES list '*', '=' and ';' are ordinary value text.
func (parser *Parser) parseValue(stop func(Token) bool, inList bool) (*string, error) {
	part := func(t Token) bool {
		switch t.Type {
		case Word:
			return true
		case Wildcard, Equals, Semicolon:
			return inList
		}
		return false
	}

	token := parser.lexer.NextToken()
	switch {
	case token.Type == String:
		value := token.Value
		return &value, nil
	case token.Type == Unknown:
		return nil, parser.errorAt(token, "unterminated string literal")
	case !part(token):
		return nil, parser.errorAt(token, "expected value, found %s", token)
	}

	first, last := token, token
	for {
		next := parser.lexer.PeekToken()
		if !part(next) || (stop != nil && stop(next)) {
			break
		}
		last = parser.lexer.NextToken()
	}

	if first == last && strings.EqualFold(first.Value, "null") {
		return nil, nil
	}

	value := parser.lexer.Source(first.Pos, last.End)
	return &value, nil
}

func (parser *Parser) expect(tokenType TokenType, context string) error {
	token := parser.lexer.NextToken()
	if token.Type != tokenType {
		return parser.errorAt(token, "expected %s %s, found %s", Token{Type: tokenType, Value: "?"}, context, token)
	}
	return nil
}

func (parser *Parser) expectKeyword(keyword string, context string) error {
	token := parser.lexer.NextToken()
	if !token.Is(keyword) {
		return parser.errorAt(token, "expected %s %s, found %s", keyword, context, token)
	}
	return nil
}

func (parser *Parser) expectIdentifier(what string) (string, error) {
	token := parser.lexer.NextToken()
	if token.Type != Word {
		return "", parser.errorAt(token, "expected %s, found %s", what, token)
	}
	return token.Value, nil
}

func (parser *Parser) errorAt(token Token, format string, args ...any) error {
	args = append(args, token.Pos+1)
	return core.Errorf(core.ParseError, format+" at position %d", args...)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
