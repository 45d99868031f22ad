package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nickyhof/LineDB"
	"github.com/nickyhof/LineDB/core"
	"github.com/nickyhof/LineDB/db"
	"github.com/nickyhof/LineDB/sql"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

const maxHistory = 1000

// CLI holds the CLI state
type CLI struct {
	database    *db.Database
	out         io.Writer
	logger      *zap.Logger
	identity    core.Identity
	history     []string
	historyFile string
	tables      []string // refreshed after every mutating query
}

func main() {
	dbPath := flag.String("db", "", "Database location (file path, git://, s3:// or http(s)://)")
	scriptFile := flag.String("file", "", "Query file to execute (non-interactive)")
	userName := flag.String("name", "LineDB", "Author name recorded by stores with history")
	userEmail := flag.String("email", "cli@linedb.local", "Author email recorded by stores with history")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger, err := LineDB.NewLogger(*debug)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}
	defer logger.Sync()

	cli := &CLI{
		out:         os.Stdout,
		logger:      logger,
		identity:    core.Identity{Name: *userName, Email: *userEmail},
		historyFile: getHistoryPath(),
	}

	printBanner()

	if err := cli.open(*dbPath); err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
	}

	cli.loadHistory()

	if *scriptFile != "" {
		if err := cli.importFile(*scriptFile); err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	cli.run(os.Stdin)
	cli.saveHistory()
}

func printBanner() {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("LineDB v%s", Version)
	padding := bannerWidth - len(versionLine) - 2
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   Embedded In-Memory Table Store      ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

// open replaces the current database with the one stored at path. An empty
// path gives an unbound in-memory database. The new database is used even
// when loading failed, so the error is only reported.
func (cli *CLI) open(path string) error {
	opts := []db.Option{db.WithLogger(cli.logger), db.WithIdentity(cli.identity)}

	if path == "" {
		cli.database = LineDB.OpenMemory(opts...)
		fmt.Fprintf(cli.out, "%sUsing an in-memory database%s\n", SuccessColor, ResetColor)
		cli.refreshTables()
		return nil
	}

	database, err := LineDB.Open(context.Background(), path, opts...)
	cli.database = database
	cli.refreshTables()
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%sUsing database %s (%d tables)%s\n", SuccessColor, path, len(cli.tables), ResetColor)
	return nil
}

// run reads one query per line until input ends or .quit is given.
func (cli *CLI) run(input io.Reader) {
	reader := bufio.NewReader(input)

	for {
		fmt.Fprint(cli.out, cli.getPrompt())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if !cli.handleCommand(line) {
				return
			}
			continue
		}

		for _, query := range splitStatements(line) {
			cli.addToHistory(query)
			cli.execute(query)
		}
	}
}

func (cli *CLI) getPrompt() string {
	name := cli.database.Name()
	if name == "" {
		return fmt.Sprintf("%slinedb>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%slinedb (%s)>%s ", PromptColor, name, ResetColor)
}

// execute runs a query and prints its result.
func (cli *CLI) execute(query string) db.Result {
	result := cli.database.Query(query)
	result.DisplayTo(cli.out)
	if result.OK() && mutates(query) {
		cli.refreshTables()
	}
	return result
}

func mutates(query string) bool {
	statement, err := sql.Parse(query)
	return err == nil && statement.Type().Mutating()
}

func (cli *CLI) refreshTables() {
	result := cli.database.Query("list tables")
	if !result.OK() {
		return
	}
	tables := make([]string, 0, len(result.Rows))
	for _, row := range result.Data() {
		tables = append(tables, row[0])
	}
	cli.tables = tables
}

// handleCommand runs a dot command. It returns false when the CLI should
// exit.
func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
		return false

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		if len(cli.tables) == 0 {
			fmt.Fprintln(cli.out, "No tables")
		}
		for _, name := range cli.tables {
			fmt.Fprintf(cli.out, "  %s\n", name)
		}

	case ".columns":
		if len(parts) < 2 {
			cli.printError("Usage: .columns <table>")
			break
		}
		cli.showColumns(parts[1])

	case ".open":
		path := ""
		if len(parts) > 1 {
			path = parts[1]
		}
		if err := cli.open(path); err != nil {
			cli.printError(err.Error())
		}

	case ".save":
		if len(parts) > 1 {
			cli.database.SetFilePath(parts[1])
		}
		if err := cli.database.Save(context.Background()); err != nil {
			cli.printError(err.Error())
			break
		}
		fmt.Fprintf(cli.out, "%s✓ Saved to %s%s\n", SuccessColor, cli.database.FilePath(), ResetColor)

	case ".log":
		cli.printLog()

	case ".clear", ".cls":
		fmt.Fprint(cli.out, "\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Fprintf(cli.out, "LineDB version %s\n", Version)

	case ".import":
		if len(parts) < 2 {
			cli.printError("Usage: .import <file>")
			break
		}
		if err := cli.importFile(parts[1]); err != nil {
			cli.printError(err.Error())
		}

	default:
		cli.printError(fmt.Sprintf("Unknown command: %s (type .help for commands)", parts[0]))
	}

	return true
}

func (cli *CLI) printError(msg string) {
	fmt.Fprintf(cli.out, "%s✗ %s%s\n", ErrorColor, msg, ResetColor)
}

func (cli *CLI) printHelp() {
	w := cli.out
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w, "  .help, .h          Show this help message")
	fmt.Fprintln(w, "  .quit, .exit       Exit the CLI")
	fmt.Fprintln(w, "  .tables            List tables")
	fmt.Fprintln(w, "  .columns <table>   Show the columns of a table")
	fmt.Fprintln(w, "  .open [location]   Open a stored database, or a fresh in-memory one")
	fmt.Fprintln(w, "  .save [location]   Save the database, optionally to a new location")
	fmt.Fprintln(w, "  .log               Show the save history of git-backed databases")
	fmt.Fprintln(w, "  .import <file>     Execute queries from a file")
	fmt.Fprintln(w, "  .history           Show command history")
	fmt.Fprintln(w, "  .clear             Clear the screen")
	fmt.Fprintln(w, "  .version           Show version info")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sQueries (one per line):%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w, "  create table <t> (<type> <col> [not null], ...)")
	fmt.Fprintln(w, "  drop table <t>")
	fmt.Fprintln(w, "  list tables")
	fmt.Fprintln(w, "  insert into <t> (<cols>) values (<vals>)")
	fmt.Fprintln(w, "  update <t> set <col> = <val>, ... [where <col> = <val> and ...]")
	fmt.Fprintln(w, "  delete from <t> [where <col> = <val> and ...]")
	fmt.Fprintln(w, "  select <cols> | * from <t> [where <col> = <val> and ...]")
	fmt.Fprintln(w, "  cartesian product <t1> by <t2>")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sTypes:%s INT, FLOAT, CHAR, STR, DATE (d-m-yyyy), DATE_RANGE (d-m-yyyy...d-m-yyyy)\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w)
}

func (cli *CLI) showColumns(table string) {
	columns, err := cli.database.TableColumns(table)
	if err != nil {
		cli.printError(err.Error())
		return
	}
	for _, column := range columns {
		constraint := ""
		if !column.Nullable {
			constraint = " not null"
		}
		fmt.Fprintf(cli.out, "  %s %s%s\n", column.Type, column.Name, constraint)
	}
}

func (cli *CLI) printLog() {
	transactions, err := cli.database.History(context.Background())
	if err != nil {
		cli.printError(err.Error())
		return
	}
	if len(transactions) == 0 {
		fmt.Fprintln(cli.out, "No saves recorded")
		return
	}
	for _, transaction := range transactions {
		fmt.Fprintf(cli.out, "  %s\n", transaction.Short())
	}
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	if len(cli.history) > maxHistory {
		cli.history = cli.history[len(cli.history)-maxHistory:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Fprintln(cli.out, "No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Fprintf(cli.out, "  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".linedb_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		cli.logger.Debug("failed to save history", zap.Error(err))
		return
	}
	defer file.Close()

	start := 0
	if len(cli.history) > maxHistory {
		start = len(cli.history) - maxHistory
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile runs every query in a file and prints one line per query.
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	successCount := 0
	errorCount := 0

	for i, query := range splitStatements(string(data)) {
		result := cli.database.Query(query)
		if !result.OK() {
			fmt.Fprintf(cli.out, "%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(query, 50), ResetColor)
			fmt.Fprintf(cli.out, "      Error: %s\n", result.Report)
			errorCount++
			continue
		}

		successCount++
		detail := result.Report
		if detail == "" {
			detail = fmt.Sprintf("%d rows", len(result.Rows))
		}
		fmt.Fprintf(cli.out, "%s[%d] ✓ %s (%s)%s\n", SuccessColor, i+1, truncate(query, 50), detail, ResetColor)
	}

	cli.refreshTables()
	fmt.Fprintf(cli.out, "\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits text into queries. Queries end at a newline or at a
// ';' outside a quoted value. Lines starting with "--" are comments.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" && !strings.HasPrefix(stmt, "--") {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch {
		case ch == '\'':
			// '' inside a value is an escaped quote and toggles twice
			inString = !inString
		case ch == '\n':
			inString = false
			flush()
			continue
		case ch == ';' && !inString:
			flush()
			continue
		}

		current.WriteByte(ch)
	}

	flush()
	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
