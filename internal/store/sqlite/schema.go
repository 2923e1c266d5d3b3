package sqlite

// Schema creates the tables used by the store. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	username    TEXT NOT NULL UNIQUE,
	password    TEXT NOT NULL,
	date_joined DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL UNIQUE,
	text    TEXT NOT NULL,
	author  TEXT NOT NULL,
	sent_at DATETIME NOT NULL
);
`
