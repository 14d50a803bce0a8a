package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mbolis/conect-insights/log"
)

// Open opens the SQLite database at path and brings its schema up to date.
func Open(path string) (db *sql.DB, err error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}

	// foreign keys and busy timeout are per connection, so they go in the DSN
	db, err = sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	from, err := upgradeSchema(db)
	if err != nil {
		db.Close()
		return
	}
	if from != SchemaVersion {
		log.Infof("db.open: %s upgraded from schema %d to %d", path, from, SchemaVersion)
	}

	return
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
