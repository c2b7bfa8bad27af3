// Package store persists the catalog: users, items, and the tag taxonomy.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dev.c0redev.catalog/internal/catalog"
)

// DB wraps sqlite.
type DB struct {
	*sql.DB
}

// Open opens the db at path, runs migrations, and seeds the tag taxonomy.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			blob_id TEXT NOT NULL UNIQUE,
			vector BLOB NOT NULL,
			cost REAL NOT NULL,
			quantity INTEGER NOT NULL,
			seller_id INTEGER NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS item_tags (
			item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			tag_id INTEGER NOT NULL REFERENCES tags(id),
			UNIQUE(item_id, tag_id)
		);
		CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag_id);
	`)
	if err != nil {
		return err
	}
	for _, tag := range catalog.Tags {
		if _, err := db.Exec("INSERT OR IGNORE INTO tags (id, name) VALUES (?, ?)", tag.ID, tag.Name); err != nil {
			return err
		}
	}
	return nil
}

// User: account row.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a user; err if the username is taken.
func (db *DB) CreateUser(username, passwordHash string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.Exec("INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)", username, passwordHash, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UserByName returns the user or nil.
func (db *DB) UserByName(username string) (*User, error) {
	var u User
	var t string
	err := db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username).Scan(&u.ID, &u.Username, &u.PasswordHash, &t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, t)
	return &u, nil
}

// Item: one catalog entry. The blob itself lives in the blob store; Vector is
// the serialized feature vector used for similarity ranking.
type Item struct {
	ID        int64
	Name      string
	BlobID    string
	Vector    []byte
	Cost      float64
	Quantity  int
	SellerID  int64
	CreatedAt time.Time
}

// AddItem inserts an item with its tag associations in one transaction and
// returns the new id.
func (db *DB) AddItem(item *Item, tagIDs []int) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.Exec("INSERT INTO items (name, blob_id, vector, cost, quantity, seller_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		item.Name, item.BlobID, item.Vector, item.Cost, item.Quantity, item.SellerID, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec("INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)", id, tagID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func scanItem(row *sql.Row) (*Item, error) {
	var it Item
	var t string
	err := row.Scan(&it.ID, &it.Name, &it.BlobID, &it.Vector, &it.Cost, &it.Quantity, &it.SellerID, &t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	it.CreatedAt, _ = time.Parse(time.RFC3339, t)
	return &it, nil
}

const itemColumns = "id, name, blob_id, vector, cost, quantity, seller_id, created_at"

// ItemByID returns the item or nil.
func (db *DB) ItemByID(id int64) (*Item, error) {
	return scanItem(db.QueryRow("SELECT "+itemColumns+" FROM items WHERE id = ?", id))
}

// ItemByName returns the item or nil.
func (db *DB) ItemByName(name string) (*Item, error) {
	return scanItem(db.QueryRow("SELECT "+itemColumns+" FROM items WHERE name = ?", name))
}

// HasBlob reports whether any item references this blob id.
func (db *DB) HasBlob(blobID string) (bool, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM items WHERE blob_id = ?", blobID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateItem sets cost and quantity; false if the item does not exist.
func (db *DB) UpdateItem(id int64, cost float64, quantity int) (bool, error) {
	res, err := db.Exec("UPDATE items SET cost = ?, quantity = ? WHERE id = ?", cost, quantity, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteItem removes the item and its tag associations; false if absent.
func (db *DB) DeleteItem(id int64) (bool, error) {
	res, err := db.Exec("DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// tagFilter builds the subquery selecting item ids carrying all of tagIDs.
func tagFilter(tagIDs []int) (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tagIDs)), ",")
	args := make([]interface{}, 0, len(tagIDs)+1)
	for _, id := range tagIDs {
		args = append(args, id)
	}
	args = append(args, len(tagIDs))
	q := fmt.Sprintf("SELECT item_id FROM item_tags WHERE tag_id IN (%s) GROUP BY item_id HAVING COUNT(DISTINCT tag_id) = ?", placeholders)
	return q, args
}

// CountItemsByTags counts items carrying every tag in tagIDs; an empty list
// counts the whole catalog.
func (db *DB) CountItemsByTags(tagIDs []int) (int, error) {
	var n int
	if len(tagIDs) == 0 {
		err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n)
		return n, err
	}
	sub, args := tagFilter(tagIDs)
	err := db.QueryRow("SELECT COUNT(*) FROM items WHERE id IN ("+sub+")", args...).Scan(&n)
	return n, err
}

// ItemsByTags returns one page of items carrying every tag in tagIDs,
// ordered by id so repeated pagination within a session is stable.
func (db *DB) ItemsByTags(tagIDs []int, offset, limit int) ([]Item, error) {
	var rows *sql.Rows
	var err error
	if len(tagIDs) == 0 {
		rows, err = db.Query("SELECT "+itemColumns+" FROM items ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	} else {
		sub, args := tagFilter(tagIDs)
		args = append(args, limit, offset)
		rows, err = db.Query("SELECT "+itemColumns+" FROM items WHERE id IN ("+sub+") ORDER BY id LIMIT ? OFFSET ?", args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Item
	for rows.Next() {
		var it Item
		var t string
		if err := rows.Scan(&it.ID, &it.Name, &it.BlobID, &it.Vector, &it.Cost, &it.Quantity, &it.SellerID, &t); err != nil {
			return nil, err
		}
		it.CreatedAt, _ = time.Parse(time.RFC3339, t)
		list = append(list, it)
	}
	return list, rows.Err()
}

// ItemVector pairs an item id with its stored feature vector.
type ItemVector struct {
	ID     int64
	Vector []byte
}

// Vectors returns every item's feature vector for similarity ranking.
func (db *DB) Vectors() ([]ItemVector, error) {
	rows, err := db.Query("SELECT id, vector FROM items ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []ItemVector
	for rows.Next() {
		var v ItemVector
		if err := rows.Scan(&v.ID, &v.Vector); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
