package ps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nickyhof/LineDB/core"
)

var (
	ErrNotFound = errors.New("snapshot not found")
	ErrReadOnly = errors.New("location is read only")
)

// Store keeps one snapshot at one location.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
	Location() string
}

// Historian is implemented by stores that remember every save.
type Historian interface {
	History(ctx context.Context) ([]Transaction, error)
}

// Options configures the stores opened by OpenStore.
type Options struct {
	// Identity authors the commits of git stores.
	Identity core.Identity
	// S3 is used for s3:// locations; nil means the default AWS chain.
	S3     *S3Config
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) identity() core.Identity {
	if o.Identity.Name == "" && o.Identity.Email == "" {
		return core.Identity{Name: "linedb", Email: "linedb@localhost"}
	}
	return o.Identity
}

type scheme string

const (
	schemeLocal scheme = "local"
	schemeFile  scheme = "file"
	schemeGit   scheme = "git"
	schemeS3    scheme = "s3"
	schemeHTTP  scheme = "http"
	schemeHTTPS scheme = "https"
)

func detectScheme(location string) scheme {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return schemeS3
	case strings.HasPrefix(lower, "git://"):
		return schemeGit
	case strings.HasPrefix(lower, "https://"):
		return schemeHTTPS
	case strings.HasPrefix(lower, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

// OpenStore resolves a location to its store.
func OpenStore(location string, opts Options) (Store, error) {
	if location == "" {
		return nil, fmt.Errorf("no location given")
	}

	switch detectScheme(location) {
	case schemeLocal:
		return NewFileStore(location, opts), nil
	case schemeFile:
		return NewFileStore(location[len("file://"):], opts), nil
	case schemeGit:
		dir, file, err := splitGitLocation(location)
		if err != nil {
			return nil, err
		}
		return NewGitStore(dir, file, opts)
	case schemeS3:
		return NewS3Store(location, opts)
	case schemeHTTP, schemeHTTPS:
		return NewHTTPStore(location, opts), nil
	default:
		return nil, fmt.Errorf("unsupported location: %s", location)
	}
}
