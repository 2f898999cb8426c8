package domain

// Store represents a POS-connected retail location with its own upstream credentials
type Store struct {
	StoreID   string `json:"store_id" yaml:"store_id"`
	StoreName string `json:"store_name" yaml:"store_name"`
	Email     string `json:"email" yaml:"email"`
	Password  string `json:"-" yaml:"password"`
	Active    bool   `json:"active" yaml:"active"`
}

// StoreDirectory is the immutable set of configured stores, indexed by ID
type StoreDirectory struct {
	stores []Store
	byID   map[string]Store
}

// NewStoreDirectory indexes the given stores. Later duplicates of an ID are ignored.
func NewStoreDirectory(stores []Store) *StoreDirectory {
	d := &StoreDirectory{byID: make(map[string]Store, len(stores))}
	for _, s := range stores {
		if _, exists := d.byID[s.StoreID]; exists {
			continue
		}
		d.byID[s.StoreID] = s
		d.stores = append(d.stores, s)
	}
	return d
}

// Get returns the store with the given ID
func (d *StoreDirectory) Get(storeID string) (Store, bool) {
	s, ok := d.byID[storeID]
	return s, ok
}

// All returns every configured store in configuration order
func (d *StoreDirectory) All() []Store {
	out := make([]Store, len(d.stores))
	copy(out, d.stores)
	return out
}

// Active returns the active stores, optionally restricted to the given IDs
func (d *StoreDirectory) Active(storeIDs ...string) []Store {
	var filter map[string]bool
	if len(storeIDs) > 0 {
		filter = make(map[string]bool, len(storeIDs))
		for _, id := range storeIDs {
			filter[id] = true
		}
	}

	var out []Store
	for _, s := range d.stores {
		if !s.Active {
			continue
		}
		if filter != nil && !filter[s.StoreID] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Name returns the configured name for a store, or the ID itself if unknown
func (d *StoreDirectory) Name(storeID string) string {
	if s, ok := d.byID[storeID]; ok && s.StoreName != "" {
		return s.StoreName
	}
	return storeID
}
