package server

import (
	"dev.c0redev.catalog/internal/blob"
	"dev.c0redev.catalog/internal/proto"
	"dev.c0redev.catalog/internal/store"
)

// emptySource streams "no results".
type emptySource struct{}

func (emptySource) Count() (int, error)                  { return 0, nil }
func (emptySource) Page(_, _ int) ([]proto.Record, error) { return nil, nil }

func recordFor(blobs *blob.Store, it *store.Item) (proto.Record, error) {
	data, err := blobs.Get(it.BlobID)
	if err != nil {
		return proto.Record{}, err
	}
	return proto.Record{
		ID:       int(it.ID),
		Blob:     data,
		Name:     it.Name,
		Cost:     float32(it.Cost),
		Quantity: it.Quantity,
	}, nil
}

// tagSource pages items matching a tag set (nil tags = whole catalog)
// straight out of the database, loading each blob on demand.
type tagSource struct {
	db    *store.DB
	blobs *blob.Store
	tags  []int
}

func (s *tagSource) Count() (int, error) { return s.db.CountItemsByTags(s.tags) }

func (s *tagSource) Page(offset, limit int) ([]proto.Record, error) {
	items, err := s.db.ItemsByTags(s.tags, offset, limit)
	if err != nil {
		return nil, err
	}
	records := make([]proto.Record, 0, len(items))
	for i := range items {
		r, err := recordFor(s.blobs, &items[i])
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// rankedSource pages items in a precomputed id order (similarity ranking).
type rankedSource struct {
	db    *store.DB
	blobs *blob.Store
	ids   []int
}

func (s *rankedSource) Count() (int, error) { return len(s.ids), nil }

func (s *rankedSource) Page(offset, limit int) ([]proto.Record, error) {
	if offset >= len(s.ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.ids) {
		end = len(s.ids)
	}
	records := make([]proto.Record, 0, end-offset)
	for _, id := range s.ids[offset:end] {
		it, err := s.db.ItemByID(int64(id))
		if err != nil {
			return nil, err
		}
		if it == nil {
			continue
		}
		r, err := recordFor(s.blobs, it)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
