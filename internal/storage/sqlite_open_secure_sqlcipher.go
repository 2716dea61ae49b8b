//go:build sqlcipher

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	cipherPageSize = 4096
	cipherKDFIter  = 256000
)

// openSecureSQLite opens path as a SQLCipher database keyed with key. The
// driver registers itself as "sqlite3", alongside modernc's "sqlite".
func openSecureSQLite(path string, key string) (*sql.DB, error) {
	q := url.Values{}
	q.Set("_pragma_key", key)
	q.Set("_pragma_cipher_page_size", fmt.Sprint(cipherPageSize))
	q.Set("_pragma_kdf_iter", fmt.Sprint(cipherKDFIter))
	q.Set("_busy_timeout", "5000")
	dsn := "file:" + url.PathEscape(path) + "?" + q.Encode()

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlcipher db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unlock sqlcipher db: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("set db permissions: %w", err)
	}
	return db, nil
}

func secureSQLiteSupported() bool {
	return true
}
