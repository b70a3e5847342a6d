package symbolprop

import "sync"

// MemoryDB is a simple in-memory DB implementation: it interns symbol
// names to SymbolIds and stores asset/dependency records in plain slices
// indexed by handle. It's the DB used by the fixture loader and the debug
// CLI, and is a reasonable model for what a real build's interned-string
// table looks like from the propagator's point of view.
type MemoryDB struct {
	mu sync.Mutex

	strings   []string
	byString  map[string]SymbolId
	star      SymbolId
	defaultId SymbolId

	assets       []AssetRecord
	dependencies []DependencyRecord
}

// NewMemoryDB creates an empty MemoryDB with "*" and "default" pre-interned
// as SymbolId 0 and 1 respectively, matching db.starSymbol/db.defaultSymbol.
func NewMemoryDB() *MemoryDB {
	db := &MemoryDB{byString: make(map[string]SymbolId)}
	db.star = db.Intern("*")
	db.defaultId = db.Intern("default")
	return db
}

// Intern returns the SymbolId for name, allocating a fresh one if this is
// the first time name has been seen.
func (db *MemoryDB) Intern(name string) SymbolId {
	db.mu.Lock()
	defer db.mu.Unlock()
	if id, ok := db.byString[name]; ok {
		return id
	}
	id := SymbolId(len(db.strings))
	db.strings = append(db.strings, name)
	db.byString[name] = id
	return id
}

func (db *MemoryDB) StarSymbol() SymbolId    { return db.star }
func (db *MemoryDB) DefaultSymbol() SymbolId { return db.defaultId }

func (db *MemoryDB) ReadCachedString(s SymbolId) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	if int(s) < len(db.strings) {
		return db.strings[s]
	}
	return "<unknown>"
}

// AddAsset stores rec and returns the handle to reference it by.
func (db *MemoryDB) AddAsset(rec AssetRecord) AssetHandle {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.assets = append(db.assets, rec)
	return AssetHandle(len(db.assets) - 1)
}

// AddDependency stores rec and returns the handle to reference it by.
func (db *MemoryDB) AddDependency(rec DependencyRecord) DependencyHandle {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.dependencies = append(db.dependencies, rec)
	return DependencyHandle(len(db.dependencies) - 1)
}

func (db *MemoryDB) GetAsset(h AssetHandle) AssetRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.assets[h]
}

func (db *MemoryDB) GetDependency(h DependencyHandle) DependencyRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.dependencies[h]
}
