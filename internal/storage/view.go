package storage

// View scopes a DB to the keys under one namespace. Several views may
// share a DB; closing a view leaves the DB open.
type View struct {
	db        DB
	namespace string
}

var _ DB = (*View)(nil)

func NewView(db DB, namespace string) *View {
	return &View{db: db, namespace: namespace}
}

// Key returns key as it is stored in the shared DB. Use it to queue
// writes for several views in one Batch on that DB.
func (v *View) Key(key string) []byte {
	return []byte(v.namespace + key)
}

func (v *View) Get(key []byte) ([]byte, error) {
	return v.db.Get(v.Key(string(key)))
}

func (v *View) Put(key, value []byte) error {
	return v.db.Put(v.Key(string(key)), value)
}

func (v *View) Write(b *Batch) error {
	scoped := &Batch{entries: make([]entry, 0, b.Len())}
	for _, e := range b.entries {
		scoped.entries = append(scoped.entries, entry{key: v.Key(string(e.key)), value: e.value})
	}
	return v.db.Write(scoped)
}

func (v *View) Close() error {
	return nil
}
