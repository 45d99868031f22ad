package sql

import "strings"

type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset of the first character
	End   int // byte offset just past the last character
}

type TokenType int

const (
	Word TokenType = iota
	String
	Comma
	ParenOpen
	ParenClose
	Equals
	Wildcard
	Semicolon
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Word:
		return "'" + token.Value + "'"
	case String:
		return "string '" + token.Value + "'"
	case Comma:
		return "','"
	case ParenOpen:
		return "'('"
	case ParenClose:
		return "')'"
	case Equals:
		return "'='"
	case Wildcard:
		return "'*'"
	case Semicolon:
		return "';'"
	case EOF:
		return "end of input"
	default:
		return "'" + token.Value + "'"
	}
}

// Is reports whether the token is the given keyword, ignoring case.
func (token Token) Is(keyword string) bool {
	return token.Type == Word && strings.EqualFold(token.Value, keyword)
}

type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) NextToken() Token {
	lexer.skipWhitespace()

	start := lexer.position
	single := func(t TokenType) Token {
		token := Token{Type: t, Value: string(lexer.ch), Pos: start, End: start + 1}
		lexer.readChar()
		return token
	}

	switch lexer.ch {
	case 0:
		return Token{Type: EOF, Pos: len(lexer.sql), End: len(lexer.sql)}
	case ',':
		return single(Comma)
	case '(':
		return single(ParenOpen)
	case ')':
		return single(ParenClose)
	case '=':
		return single(Equals)
	case '*':
		return single(Wildcard)
	case ';':
		return single(Semicolon)
	case '\'':
		value, ok := lexer.readString()
		if !ok {
			return Token{Type: Unknown, Value: lexer.sql[start:lexer.position], Pos: start, End: lexer.position}
		}
		return Token{Type: String, Value: value, Pos: start, End: lexer.position}
	default:
		word := lexer.readWord()
		return Token{Type: Word, Value: word, Pos: start, End: lexer.position}
	}
}

func (lexer *Lexer) PeekToken() Token {
	// Save current state
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	// Restore state
	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

// PeekTokens returns the next n tokens without consuming them. Past the end
// of input every token is EOF.
func (lexer *Lexer) PeekTokens(n int) []Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	tokens := make([]Token, n)
	for i := range tokens {
		tokens[i] = lexer.NextToken()
	}

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return tokens
}

// Source returns the input text between two byte offsets.
func (lexer *Lexer) Source(from, to int) string {
	return lexer.sql[from:to]
}

func (lexer *Lexer) skipWhitespace() {
	for isWhitespace(lexer.ch) {
		lexer.readChar()
	}
}

func (lexer *Lexer) readWord() string {
	position := lexer.position
	for lexer.ch != 0 && !isWhitespace(lexer.ch) && !isDelimiter(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

// readString reads a single-quoted literal; '' inside it is one quote.
func (lexer *Lexer) readString() (string, bool) {
	var b strings.Builder
	lexer.readChar() // skip opening quote
	for {
		switch lexer.ch {
		case 0:
			return "", false
		case '\'':
			lexer.readChar()
			if lexer.ch != '\'' {
				return b.String(), true
			}
		}
		b.WriteByte(lexer.ch)
		lexer.readChar()
	}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	return ch == ',' || ch == '(' || ch == ')' || ch == '=' || ch == '\'' || ch == ';' || ch == '*'
}

func tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token

	for {
		token := lexer.NextToken()
		if token.Type == EOF {
			return append(tokens, token)
		}
		tokens = append(tokens, token)
	}
}
