package items

import (
	"context"
	"fmt"
)

// BinaryStore gives read access to item attachments.
type BinaryStore interface {
	Buffer(ctx context.Context, itemIndex int, field string) ([]byte, error)
	Metadata(itemIndex int, field string) (Metadata, error)
}

// MemoryStore serves attachments from decoded items held in memory.
type MemoryStore struct {
	items []Item
}

// NewMemoryStore wraps the given items.
func NewMemoryStore(items []Item) *MemoryStore {
	return &MemoryStore{items: items}
}

func (s *MemoryStore) lookup(itemIndex int, field string) (Binary, error) {
	if itemIndex < 0 || itemIndex >= len(s.items) {
		return Binary{}, fmt.Errorf("item index %d out of range [0,%d)", itemIndex, len(s.items))
	}
	b, ok := s.items[itemIndex].Binary[field]
	if !ok || b.Data == nil {
		return Binary{}, fmt.Errorf("item %d field %q: %w", itemIndex, field, ErrNoBinary)
	}
	return b, nil
}

// Buffer returns the attachment payload.
func (s *MemoryStore) Buffer(ctx context.Context, itemIndex int, field string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.lookup(itemIndex, field)
	if err != nil {
		return nil, err
	}
	return b.Data, nil
}

// Metadata returns the declared mime type and file name of an attachment.
func (s *MemoryStore) Metadata(itemIndex int, field string) (Metadata, error) {
	b, err := s.lookup(itemIndex, field)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{MimeType: b.MimeType, FileName: b.FileName, Size: len(b.Data)}, nil
}
