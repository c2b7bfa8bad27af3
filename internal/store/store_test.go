package store

import (
	"testing"

	"dev.c0redev.catalog/internal/catalog"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addTestItem(t *testing.T, db *DB, name string, seller int64, tags []int) int64 {
	t.Helper()
	id, err := db.AddItem(&Item{
		Name:     name,
		BlobID:   "blob-" + name,
		Vector:   make([]byte, 8),
		Cost:     12.50,
		Quantity: 3,
		SellerID: seller,
	}, tags)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestCreateAndFetchUser(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateUser("alice", "$2a$fakehash")
	if err != nil {
		t.Fatal(err)
	}
	u, err := db.UserByName("alice")
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.ID != id || u.PasswordHash != "$2a$fakehash" {
		t.Fatalf("fetched user %+v", u)
	}
	if _, err := db.CreateUser("alice", "other"); err == nil {
		t.Fatal("duplicate username accepted")
	}
	missing, err := db.UserByName("nobody")
	if err != nil || missing != nil {
		t.Fatalf("missing user: %+v %v", missing, err)
	}
}

func TestItemLifecycle(t *testing.T) {
	db := openTestDB(t)
	seller, err := db.CreateUser("seller", "h")
	if err != nil {
		t.Fatal(err)
	}
	id := addTestItem(t, db, "boots.jpg", seller, []int{2})

	it, err := db.ItemByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if it == nil || it.Name != "boots.jpg" || it.Quantity != 3 {
		t.Fatalf("fetched item %+v", it)
	}
	if byName, _ := db.ItemByName("boots.jpg"); byName == nil || byName.ID != id {
		t.Fatal("lookup by name failed")
	}
	has, err := db.HasBlob("blob-boots.jpg")
	if err != nil || !has {
		t.Fatalf("HasBlob: %v %v", has, err)
	}

	ok, err := db.UpdateItem(id, 99.95, 7)
	if err != nil || !ok {
		t.Fatalf("update: %v %v", ok, err)
	}
	it, _ = db.ItemByID(id)
	if it.Cost != 99.95 || it.Quantity != 7 {
		t.Fatalf("after update %+v", it)
	}
	if ok, _ := db.UpdateItem(9999, 1, 1); ok {
		t.Fatal("update of missing item reported success")
	}

	ok, err = db.DeleteItem(id)
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if it, _ := db.ItemByID(id); it != nil {
		t.Fatal("item survives delete")
	}
	if ok, _ := db.DeleteItem(id); ok {
		t.Fatal("second delete reported success")
	}
}

func TestTagFiltering(t *testing.T) {
	db := openTestDB(t)
	seller, _ := db.CreateUser("seller", "h")
	footwear, mens := 2, 5
	addTestItem(t, db, "boots.jpg", seller, []int{footwear})
	addTestItem(t, db, "loafers.jpg", seller, []int{footwear, mens})
	addTestItem(t, db, "laptop.jpg", seller, []int{12})

	n, err := db.CountItemsByTags(nil)
	if err != nil || n != 3 {
		t.Fatalf("count all: %d %v", n, err)
	}
	n, err = db.CountItemsByTags([]int{footwear})
	if err != nil || n != 2 {
		t.Fatalf("count footwear: %d %v", n, err)
	}
	// all tags must match, not any
	n, err = db.CountItemsByTags([]int{footwear, mens})
	if err != nil || n != 1 {
		t.Fatalf("count footwear+mens: %d %v", n, err)
	}

	page, err := db.ItemsByTags([]int{footwear}, 0, 1)
	if err != nil || len(page) != 1 || page[0].Name != "boots.jpg" {
		t.Fatalf("page 1: %+v %v", page, err)
	}
	page, err = db.ItemsByTags([]int{footwear}, 1, 1)
	if err != nil || len(page) != 1 || page[0].Name != "loafers.jpg" {
		t.Fatalf("page 2: %+v %v", page, err)
	}
}

func TestVectorsAndTaxonomySeed(t *testing.T) {
	db := openTestDB(t)
	seller, _ := db.CreateUser("seller", "h")
	addTestItem(t, db, "a.jpg", seller, nil)
	addTestItem(t, db, "b.jpg", seller, nil)

	vs, err := db.Vectors()
	if err != nil || len(vs) != 2 {
		t.Fatalf("vectors: %d %v", len(vs), err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM tags").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != len(catalog.Tags) {
		t.Fatalf("seeded %d tags, want %d", n, len(catalog.Tags))
	}
}
