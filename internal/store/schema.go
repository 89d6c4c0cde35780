package store

// Schema is a named set of DDL statements applied by EnsureSchema. Every
// statement must be idempotent (IF NOT EXISTS) and portable across the
// supported dialects.
type Schema struct {
	Name    string
	Tables  []string // CREATE TABLE statements in dependency order.
	Indexes []string
}

// Table names of the reference tree and the history sink.
const (
	TableCategories = "categories"
	TableGroups     = "medication_groups"
	TableItems      = "medication_items"
	TableHistory    = "plan_history"
)

// Reference tree DDL. Foreign keys carry no ON DELETE CASCADE; the commit
// engine deletes children before parents itself.
const (
	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    display_order INTEGER NOT NULL
)`

	createGroups = `CREATE TABLE IF NOT EXISTS medication_groups (
    id TEXT PRIMARY KEY,
    category_id TEXT NOT NULL,
    title TEXT NOT NULL,
    display_order INTEGER NOT NULL,
    UNIQUE (category_id, title),
    FOREIGN KEY (category_id) REFERENCES categories(id)
)`

	createItems = `CREATE TABLE IF NOT EXISTS medication_items (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    text TEXT NOT NULL,
    display_order INTEGER NOT NULL,
    FOREIGN KEY (group_id) REFERENCES medication_groups(id)
)`

	idxGroupsCategory = `CREATE INDEX IF NOT EXISTS idx_medication_groups_category ON medication_groups(category_id, display_order)`
	idxItemsGroup     = `CREATE INDEX IF NOT EXISTS idx_medication_items_group ON medication_items(group_id, display_order)`
)

// History DDL. The table is insert-only.
const (
	createHistory = `CREATE TABLE IF NOT EXISTS plan_history (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    section TEXT NOT NULL,
    content TEXT NOT NULL,
    patient_id TEXT,
    encounter_date TEXT
)`

	idxHistoryCreated = `CREATE INDEX IF NOT EXISTS idx_plan_history_created ON plan_history(created_at)`
)

// ReferenceSchema holds the categories, groups, and items tables.
var ReferenceSchema = Schema{
	Name:    "reference",
	Tables:  []string{createCategories, createGroups, createItems},
	Indexes: []string{idxGroupsCategory, idxItemsGroup},
}

// HistorySchema holds the append-only plan history table.
var HistorySchema = Schema{
	Name:    "history",
	Tables:  []string{createHistory},
	Indexes: []string{idxHistoryCreated},
}
