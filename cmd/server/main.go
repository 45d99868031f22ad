package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nickyhof/LineDB"
	"github.com/nickyhof/LineDB/core"
	"github.com/nickyhof/LineDB/db"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Settings holds the parsed command line.
type Settings struct {
	Port        int
	Host        string
	Database    string
	Auth        bool
	JWTSecret   string
	Issuer      string
	Audience    string
	UsersFile   string
	TLSCert     string
	TLSKey      string
	SaveOnExit  bool
	Debug       bool
	Name        string
	Email       string
	ShowVersion bool
}

func parseSettings(args []string) (*Settings, error) {
	fs := flag.NewFlagSet("linedb-server", flag.ContinueOnError)
	s := &Settings{}
	fs.IntVar(&s.Port, "port", 7070, "TCP port to listen on")
	fs.StringVar(&s.Host, "host", "", "Interface to bind (all if empty)")
	fs.StringVar(&s.Database, "db", "", "Database location: path, file://, git://, s3:// or http(s):// (memory if empty)")
	fs.BoolVar(&s.Auth, "auth", false, "Require AUTH before queries")
	fs.StringVar(&s.JWTSecret, "jwtSecret", "", "HS256 secret for AUTH JWT (or LINEDB_JWT_SECRET)")
	fs.StringVar(&s.Issuer, "issuer", "", "Expected JWT issuer")
	fs.StringVar(&s.Audience, "audience", "", "Expected JWT audience")
	fs.StringVar(&s.UsersFile, "users", "", "File of user:bcrypt-hash lines for AUTH PASSWORD")
	fs.StringVar(&s.TLSCert, "tlsCert", "", "TLS certificate file")
	fs.StringVar(&s.TLSKey, "tlsKey", "", "TLS key file")
	fs.BoolVar(&s.SaveOnExit, "saveOnExit", false, "Save the database on shutdown")
	fs.BoolVar(&s.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&s.Name, "name", "LineDB Server", "Author name for git saves")
	fs.StringVar(&s.Email, "email", "server@linedb.local", "Author email for git saves")
	fs.BoolVar(&s.ShowVersion, "version", false, "Show version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if s.JWTSecret == "" {
		s.JWTSecret = os.Getenv("LINEDB_JWT_SECRET")
	}
	if s.Auth && s.JWTSecret == "" && s.UsersFile == "" {
		return nil, fmt.Errorf("-auth needs -jwtSecret, LINEDB_JWT_SECRET or -users")
	}
	if (s.TLSCert == "") != (s.TLSKey == "") {
		return nil, fmt.Errorf("-tlsCert and -tlsKey must be given together")
	}
	return s, nil
}

func (s *Settings) authConfig() (*AuthConfig, error) {
	if !s.Auth {
		return nil, nil
	}
	cfg := &AuthConfig{
		Enabled:   true,
		JWTSecret: s.JWTSecret,
		Issuer:    s.Issuer,
		Audience:  s.Audience,
	}
	if s.UsersFile != "" {
		users, err := LoadUsers(s.UsersFile)
		if err != nil {
			return nil, err
		}
		cfg.Users = users
	}
	return cfg, nil
}

func main() {
	settings, err := parseSettings(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if settings.ShowVersion {
		fmt.Printf("LineDB Server v%s\n", Version)
		return
	}

	logger, err := LineDB.NewLogger(settings.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(settings, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(settings *Settings, logger *zap.Logger) error {
	opts := []db.Option{
		db.WithLogger(logger),
		db.WithIdentity(core.Identity{Name: settings.Name, Email: settings.Email}),
	}

	var database *db.Database
	if settings.Database == "" {
		logger.Info("using an unsaved in-memory database")
		database = LineDB.OpenMemory(opts...)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		var err error
		database, err = LineDB.Open(ctx, settings.Database, opts...)
		cancel()
		if err != nil {
			logger.Warn("starting with an empty database", zap.String("db", settings.Database), zap.Error(err))
		}
	}

	auth, err := settings.authConfig()
	if err != nil {
		return err
	}

	server := NewServerWithAuth(database, auth, logger)
	addr := net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port))
	if settings.TLSCert != "" {
		err = server.StartTLS(addr, settings.TLSCert, settings.TLSKey)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   LineDB Server v%-20s ║\n", Version)
	fmt.Println("║   Line-oriented in-memory tables      ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on %s\n", server.Addr())
	fmt.Println("Send queries (one per line), 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	server.Stop()

	if settings.SaveOnExit && database.FilePath() != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := database.Save(ctx); err != nil {
			return fmt.Errorf("failed to save on exit: %w", err)
		}
	}
	logger.Info("server stopped")
	return nil
}
