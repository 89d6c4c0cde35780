package types

// Category is a top-level node of the reference tree, for example a drug
// class. Names are unique across the tree and case-sensitive.
type Category struct {
	Name   string   // Unique display name.
	Order  int      // Position among categories; rewritten on commit.
	Groups []*Group // Owned groups in display order.
}

// Group is a second-level node owned by exactly one Category. Titles are
// unique within the owning category only.
type Group struct {
	Title string  // Unique within the owning category.
	Order int     // Position within the category; rewritten on commit.
	Items []*Item // Owned items in display order.
}

// Item is a leaf of the reference tree, for example a drug name. Text may
// repeat across groups and within a group. Items are compared by pointer
// identity, never by text.
//
// Items handed out by a repository are never written again, so callers may
// read them without synchronization. Order is the position the item had when
// it was loaded or added; after a removal it can be stale until the next
// load. The item's place in Group.Items is authoritative.
type Item struct {
	Text  string
	Order int // Position within the group when loaded or added.
}

// Document is a detached, serializable copy of the reference tree used for
// import, export, and search.
type Document struct {
	Categories []DocumentCategory `json:"categories" yaml:"categories" toml:"categories"`
}

// DocumentCategory is one category of a Document.
type DocumentCategory struct {
	Name   string          `json:"name" yaml:"name" toml:"name"`
	Groups []DocumentGroup `json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty"`
}

// DocumentGroup is one group of a DocumentCategory.
type DocumentGroup struct {
	Title string   `json:"title" yaml:"title" toml:"title"`
	Items []string `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty"`
}

// Counts returns the number of categories, groups, and items in the document.
func (d Document) Counts() (categories, groups, items int) {
	for _, c := range d.Categories {
		categories++
		for _, g := range c.Groups {
			groups++
			items += len(g.Items)
		}
	}
	return categories, groups, items
}
