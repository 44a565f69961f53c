package models

// ModListing is the result of enumerating one mod directory
type ModListing struct {
	// Mod is the directory name of the mod
	Mod string

	// Files are the relative paths found beneath the mod, in walk order
	Files []string

	// Err is set when the enumeration of this mod failed
	Err error
}

// Ownership maps a relative path to the mods providing it.
// Mods appear in enumeration order and are never repeated for one path.
type Ownership map[string][]string

// Clone returns a deep copy of the ownership map
func (o Ownership) Clone() Ownership {
	out := make(Ownership, len(o))
	for path, mods := range o {
		cp := make([]string, len(mods))
		copy(cp, mods)
		out[path] = cp
	}
	return out
}
