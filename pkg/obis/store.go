package obis

import "sort"

// Store holds every item ever parsed, keyed by its OBIS key. Items are
// never removed. Store is not safe for concurrent use; callers serialise
// parse cycles against readers.
type Store struct {
	items map[Key]*Item
}

func NewStore() *Store {
	return &Store{items: make(map[Key]*Item)}
}

// FindOrCreate returns the item for key, creating an empty one if needed.
// created reports whether the item is new.
func (s *Store) FindOrCreate(key Key) (item *Item, created bool) {
	if item, ok := s.items[key]; ok {
		return item, false
	}
	item = &Item{key: key}
	s.items[key] = item
	return item, true
}

func (s *Store) Get(key Key) (*Item, bool) {
	item, ok := s.items[key]
	return item, ok
}

func (s *Store) Len() int {
	return len(s.items)
}

// Each calls fn for every item ordered by key until fn returns false.
func (s *Store) Each(fn func(item *Item) bool) {
	keys := make([]Key, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a].Less(keys[b]) })
	for _, k := range keys {
		if !fn(s.items[k]) {
			return
		}
	}
}
