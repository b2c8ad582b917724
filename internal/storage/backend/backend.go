// Package backend opens the storage.UserStore selected by a database URL.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/hongminglow/account-service/internal/storage"
	"github.com/hongminglow/account-service/internal/storage/memory"
	"github.com/hongminglow/account-service/internal/storage/postgres"
	"github.com/hongminglow/account-service/internal/storage/sqlite"
)

// Open dispatches on the URL scheme:
//
//	postgres://, postgresql://  Postgres via pgx
//	sqlite:<path>, file:<path>  SQLite via bun
//	memory:                     in-process maps, lost on exit
func Open(ctx context.Context, databaseURL string) (storage.UserStore, error) {
	url := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.NewUserStore(ctx, url)
	case strings.HasPrefix(url, "sqlite:"):
		return sqlite.NewUserStore(ctx, sqlitePath(strings.TrimPrefix(url, "sqlite:")))
	case strings.HasPrefix(url, "file:"):
		return sqlite.NewUserStore(ctx, url)
	case url == "memory:" || url == "memory://":
		return memory.NewUserStore(), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", redact(url))
	}
}

// sqlitePath accepts both sqlite:users.db and the sqlite:///users.db form.
func sqlitePath(rest string) string {
	if strings.HasPrefix(rest, "///") {
		return strings.TrimPrefix(rest, "///")
	}
	if strings.HasPrefix(rest, "//") {
		return strings.TrimPrefix(rest, "//")
	}
	return rest
}

func redact(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i+3] + "..."
	}
	if i := strings.Index(url, ":"); i >= 0 {
		return url[:i+1] + "..."
	}
	return "..."
}
