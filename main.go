package LineDB

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nickyhof/LineDB/db"
)

// Open loads the database stored at path. When nothing is stored there yet
// the database starts empty and is bound to path for the next save. A
// database is always returned; err reports a location that exists but could
// not be read.
func Open(ctx context.Context, path string, opts ...db.Option) (*db.Database, error) {
	return db.OpenOrNew(ctx, path, opts...)
}

// OpenMemory returns an empty database that is not bound to any location.
func OpenMemory(opts ...db.Option) *db.Database {
	return db.New("", opts...)
}

// NewLogger builds the process logger: a development logger on stdout when
// debug is set, the production JSON logger otherwise.
func NewLogger(debug bool) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if debug {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		logger, err = z.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
