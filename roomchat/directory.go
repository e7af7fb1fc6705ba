package roomchat

// Directory holds the latest room directory snapshot. Every delivery is a
// wholesale replacement; entries are identified by room name and never
// patched individually.
type Directory struct {
	entries []RoomStat
}

// Replace swaps the cached snapshot for a new one.
func (d *Directory) Replace(entries []RoomStat) {
	d.entries = make([]RoomStat, len(entries))
	copy(d.entries, entries)
}

// Snapshot returns a copy of the cached entries.
func (d *Directory) Snapshot() []RoomStat {
	out := make([]RoomStat, len(d.entries))
	copy(out, d.entries)
	return out
}

// Find returns the cached entry for room, if any.
func (d *Directory) Find(room string) (RoomStat, bool) {
	for _, e := range d.entries {
		if e.Room == room {
			return e, true
		}
	}
	return RoomStat{}, false
}
