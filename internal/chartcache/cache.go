// Package chartcache keeps fetched chart documents in a local sqlite
// database keyed by job id, so a generated song can be replayed without the
// chart service.
package chartcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is one cached chart document.
type Entry struct {
	JobID     string
	Sum       string
	Body      []byte
	FetchedAt time.Time
}

func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open chart cache: %w", err)
	}

	initStatement := `
	create table if not exists charts
	  (
		  job_id text not null primary key,
		  sum text not null,
		  body blob not null,
		  fetched_at integer not null
	  );
	`
	if _, err := db.Exec(initStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("init chart cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Put stores or replaces the chart document for jobID.
func (c *Cache) Put(jobID string, body []byte) error {
	_, err := c.db.Exec(
		"insert or replace into charts(job_id, sum, body, fetched_at) values(?, ?, ?, ?)",
		jobID, hashBody(body), body, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store chart %s: %w", jobID, err)
	}
	return nil
}

// Get returns the cached document for jobID. A missing entry is not an
// error; ok is false.
func (c *Cache) Get(jobID string) ([]byte, bool, error) {
	entry, ok, err := c.Entry(jobID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return entry.Body, true, nil
}

func (c *Cache) Entry(jobID string) (Entry, bool, error) {
	var (
		entry     Entry
		fetchedAt int64
	)
	row := c.db.QueryRow("select job_id, sum, body, fetched_at from charts where job_id = ?", jobID)
	if err := row.Scan(&entry.JobID, &entry.Sum, &entry.Body, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("load chart %s: %w", jobID, err)
	}
	entry.FetchedAt = time.Unix(fetchedAt, 0)
	if hashBody(entry.Body) != entry.Sum {
		return Entry{}, false, fmt.Errorf("load chart %s: checksum mismatch", jobID)
	}
	return entry, true, nil
}

// Delete drops jobID from the cache.
func (c *Cache) Delete(jobID string) error {
	if _, err := c.db.Exec("delete from charts where job_id = ?", jobID); err != nil {
		return fmt.Errorf("delete chart %s: %w", jobID, err)
	}
	return nil
}
