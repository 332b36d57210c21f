// Package inventory models the remote state of one run: a mapping from
// decoded file name to size and, once verified, content checksum.
package inventory

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Entry is a single remote file.
type Entry struct {
	// Name is the decoded name as the remote reported it.
	Name string
	Size int64
	// Checksum is only set after this run verified the content.
	Checksum string
}

// Inventory is the in-memory view of the remote target. It is built once per
// run from a listing and is the only source of truth afterwards. Keys are NFC
// normalised so that decomposed names reported by a device match the local
// spelling. It is not safe for concurrent use.
type Inventory struct {
	entries map[string]Entry
}

// New returns an empty inventory.
func New() *Inventory {
	return &Inventory{entries: make(map[string]Entry)}
}

// Key is the lookup key of name. Names with equal keys denote the same remote
// file.
func Key(name string) string {
	return norm.NFC.String(name)
}

// Get looks up name.
func (inv *Inventory) Get(name string) (Entry, bool) {
	e, ok := inv.entries[Key(name)]
	return e, ok
}

// Put inserts or replaces the entry for e.Name.
func (inv *Inventory) Put(e Entry) {
	inv.entries[Key(e.Name)] = e
}

// Remove drops name.
func (inv *Inventory) Remove(name string) {
	delete(inv.entries, Key(name))
}

// Len returns the number of entries.
func (inv *Inventory) Len() int {
	return len(inv.entries)
}

// Entries returns all entries sorted by name.
func (inv *Inventory) Entries() []Entry {
	entries := make([]Entry, 0, len(inv.entries))
	for _, e := range inv.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}
