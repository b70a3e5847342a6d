package symbolprop

// BundleBehavior controls how an asset is allowed to be combined with
// others in a bundle; only Isolated/Inline change propagation behaviour
// (they force every requested symbol to resolve directly to the asset
// rather than through a reexport chain).
type BundleBehavior int

const (
	BundleBehaviorNormal BundleBehavior = iota
	BundleBehaviorIsolated
	BundleBehaviorInline
)

// ExportedSymbol is one entry of an asset's declared symbol table: local
// binding `Local` is exposed to importers under the name `Exported`.
type ExportedSymbol struct {
	Exported SymbolId
	Local    SymbolId
}

// SourceLocation pinpoints where a dependency named a symbol, for
// diagnostics. It carries no rendering logic — just enough for an
// external diagnostics-rendering collaborator to build one.
type SourceLocation struct {
	FilePath string
	Line     int
	Column   int
	Length   int
}

// DependencySymbolDecl is one entry of a dependency's declared symbol
// table: `Exported` is the name requested from the target module; `Local`
// is the name it's bound to on the importing asset's side, which only
// matters when that same name also appears as a Local in the importing
// asset's own ExportedSymbol table (a re-export chain). IsWeak marks a
// symbol that exists only to be re-exported — if nothing downstream ends
// up using it, it can be dropped even though it is textually imported.
type DependencySymbolDecl struct {
	Exported SymbolId
	Local    SymbolId
	IsWeak   bool
	Loc      *SourceLocation
}

// AssetRecord is what DbAsset.get returns: everything propagation needs to
// know about an asset, independent of its node's mutable propagation
// state.
type AssetRecord struct {
	FilePath       string
	Symbols        []ExportedSymbol
	HasSymbols     bool // false: symbols unknown, assume anything may be used
	SideEffects    bool
	BundleBehavior BundleBehavior
}

// DependencyRecord is what DbDependency.get returns.
type DependencyRecord struct {
	Specifier      string
	Symbols        []DependencySymbolDecl
	HasSymbols     bool
	HasSourceAsset bool // false means this dependency is an entry point
}

// AssetDB resolves asset handles to their declared records.
type AssetDB interface {
	GetAsset(AssetHandle) AssetRecord
}

// DependencyDB resolves dependency handles to their declared records.
type DependencyDB interface {
	GetDependency(DependencyHandle) DependencyRecord
}

// SymbolDB names the two distinguished interned symbols and lets callers
// (diagnostics, logging) recover a symbol's source text.
type SymbolDB interface {
	StarSymbol() SymbolId
	DefaultSymbol() SymbolId
	ReadCachedString(SymbolId) string
}

// DB is the full read-only surface the propagator consumes. Implementers
// typically back it with the same interned string/handle tables the rest
// of the bundler uses; the propagator never mutates it.
type DB interface {
	AssetDB
	DependencyDB
	SymbolDB
}
