// internal/store/schema.go
//
// Table definitions. The app has no migration history beyond
// CREATE TABLE IF NOT EXISTS; the schema is applied on every startup.

package store

import (
	"context"

	"github.com/ti4table/companion/internal/apperr"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL UNIQUE,
	resources      INTEGER NOT NULL DEFAULT 0,
	influence      INTEGER NOT NULL DEFAULT 0,
	commodities    INTEGER NOT NULL DEFAULT 0,
	trade_goods    INTEGER NOT NULL DEFAULT 0,
	victory_points INTEGER NOT NULL DEFAULT 0,
	faction        TEXT
);

CREATE TABLE IF NOT EXISTS planets (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL UNIQUE,
	resources         INTEGER NOT NULL DEFAULT 0,
	influence         INTEGER NOT NULL DEFAULT 0,
	terrain           TEXT NOT NULL CHECK (terrain IN ('cultural','hazardous','industrial','frontier')),
	legendary_ability TEXT
);

CREATE TABLE IF NOT EXISTS player_planets (
	player_id TEXT NOT NULL,
	planet_id INTEGER NOT NULL,
	tapped    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (player_id, planet_id)
);

CREATE TABLE IF NOT EXISTS exploration_cards (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL,
	terrain TEXT NOT NULL CHECK (terrain IN ('cultural','hazardous','industrial','frontier')),
	subtype TEXT NOT NULL CHECK (subtype IN ('attach','relic_fragment','action')),
	image   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS exploration_deck (
	card_id INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS player_exploration_cards (
	player_id TEXT NOT NULL,
	card_id   INTEGER NOT NULL,
	PRIMARY KEY (player_id, card_id)
);

CREATE TABLE IF NOT EXISTS planet_attachments (
	planet_id INTEGER NOT NULL,
	card_id   INTEGER NOT NULL,
	PRIMARY KEY (planet_id, card_id)
);

CREATE TABLE IF NOT EXISTS relic_cards (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL UNIQUE,
	image TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS relic_deck (
	card_id INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS player_relics (
	player_id TEXT NOT NULL,
	card_id   INTEGER NOT NULL,
	PRIMARY KEY (player_id, card_id)
);

CREATE TABLE IF NOT EXISTS strategy_cards (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	initiative  INTEGER NOT NULL DEFAULT 0,
	image       TEXT NOT NULL DEFAULT '',
	trade_goods INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS player_strategy_cards (
	player_id TEXT NOT NULL,
	card_id   INTEGER NOT NULL,
	PRIMARY KEY (player_id, card_id)
);

CREATE TABLE IF NOT EXISTS action_cards (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL UNIQUE,
	image TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS player_action_cards (
	player_id TEXT NOT NULL,
	card_id   INTEGER NOT NULL,
	PRIMARY KEY (player_id, card_id)
);

CREATE TABLE IF NOT EXISTS technology_cards (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS player_technologies (
	player_id TEXT NOT NULL,
	card_id   INTEGER NOT NULL,
	tapped    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (player_id, card_id)
);

CREATE TABLE IF NOT EXISTS objectives (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	description TEXT NOT NULL,
	type        TEXT NOT NULL CHECK (type IN ('public','secret')),
	points      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS player_objectives (
	player_id    TEXT NOT NULL,
	objective_id INTEGER NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (player_id, objective_id)
);

CREATE TABLE IF NOT EXISTS factions (
	name            TEXT PRIMARY KEY,
	front_image     TEXT NOT NULL DEFAULT '',
	back_image      TEXT NOT NULL DEFAULT '',
	reference_image TEXT NOT NULL DEFAULT '',
	token_image     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS hosts (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
`

// InitSchema creates all tables. Safe to call on every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperr.Store(err)
	}
	return nil
}
