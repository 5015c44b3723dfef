package store

// schemaV1 creates every table used by the core. Grounded on the teacher's
// pattern of one big idempotent `CREATE TABLE IF NOT EXISTS` script per
// migration step (internal/.../schema.go), adapted to this domain's tables.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS politicians (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	chamber TEXT NOT NULL DEFAULT '',
	party TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	committees TEXT NOT NULL DEFAULT '', -- comma-separated committee codes
	num_trades INTEGER NOT NULL DEFAULT 0,
	total_value REAL NOT NULL DEFAULT 0,
	enriched_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS issuers (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	ticker TEXT NOT NULL DEFAULT '',
	sector TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	num_trades INTEGER NOT NULL DEFAULT 0,
	total_value REAL NOT NULL DEFAULT 0,
	market_cap REAL NOT NULL DEFAULT 0,
	trailing_ytd REAL NOT NULL DEFAULT 0,
	trailing_1y REAL NOT NULL DEFAULT 0,
	enriched_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS issuer_eod_prices (
	issuer_id INTEGER NOT NULL REFERENCES issuers(id),
	date TIMESTAMP NOT NULL,
	close REAL NOT NULL,
	PRIMARY KEY (issuer_id, date)
);

CREATE TABLE IF NOT EXISTS assets (
	id INTEGER PRIMARY KEY,
	asset_type TEXT NOT NULL DEFAULT 'unknown'
);

CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY,
	politician_id TEXT NOT NULL REFERENCES politicians(id),
	asset_id INTEGER NOT NULL REFERENCES assets(id),
	issuer_id INTEGER NOT NULL REFERENCES issuers(id),
	published_at TIMESTAMP NOT NULL,
	filed_at TIMESTAMP,
	transaction_date TIMESTAMP NOT NULL,
	kind TEXT NOT NULL DEFAULT '',
	extended_type TEXT NOT NULL DEFAULT '',
	has_capital_gains INTEGER NOT NULL DEFAULT 0,
	owner_role TEXT NOT NULL DEFAULT '',
	chamber TEXT NOT NULL DEFAULT '',
	reporting_gap_days INTEGER NOT NULL DEFAULT 0,
	comment TEXT NOT NULL DEFAULT '',

	size_range_low INTEGER,
	size_range_high INTEGER,
	value_usd REAL NOT NULL DEFAULT 0,

	filing_id INTEGER NOT NULL DEFAULT 0,
	filing_url TEXT NOT NULL DEFAULT '',

	executed_price REAL,
	current_price REAL,
	benchmark_price REAL,
	price_source TEXT NOT NULL DEFAULT '',
	estimated_shares REAL,
	estimated_value REAL,
	enriched_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_trades_politician ON trades(politician_id);
CREATE INDEX IF NOT EXISTS idx_trades_issuer ON trades(issuer_id);
CREATE INDEX IF NOT EXISTS idx_trades_enriched_at ON trades(enriched_at);
CREATE INDEX IF NOT EXISTS idx_trades_transaction_date ON trades(transaction_date);

CREATE TABLE IF NOT EXISTS trade_committees (
	trade_id INTEGER NOT NULL REFERENCES trades(id),
	committee_code TEXT NOT NULL,
	PRIMARY KEY (trade_id, committee_code)
);

CREATE TABLE IF NOT EXISTS trade_labels (
	trade_id INTEGER NOT NULL REFERENCES trades(id),
	label TEXT NOT NULL,
	PRIMARY KEY (trade_id, label)
);

CREATE TABLE IF NOT EXISTS fec_mappings (
	politician_id TEXT PRIMARY KEY REFERENCES politicians(id),
	candidate_ids TEXT NOT NULL DEFAULT '', -- comma-separated
	bioguide_id TEXT NOT NULL DEFAULT '',
	committee_ids TEXT NOT NULL DEFAULT '', -- comma-separated
	last_synced_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS fec_committees (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	type_code TEXT NOT NULL DEFAULT '',
	designation_code TEXT NOT NULL DEFAULT '',
	party TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	active_cycles TEXT NOT NULL DEFAULT '' -- comma-separated years
);

CREATE TABLE IF NOT EXISTS contributions (
	committee_id TEXT NOT NULL REFERENCES fec_committees(id),
	receipt_date TIMESTAMP NOT NULL,
	receipt_index TEXT NOT NULL,
	donor_name TEXT NOT NULL DEFAULT '',
	employer TEXT NOT NULL DEFAULT '',
	occupation TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	zip TEXT NOT NULL DEFAULT '',
	cycle INTEGER NOT NULL DEFAULT 0,
	amount REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (committee_id, receipt_date, receipt_index)
);

CREATE INDEX IF NOT EXISTS idx_contributions_employer ON contributions(employer);
CREATE INDEX IF NOT EXISTS idx_contributions_donor ON contributions(donor_name);
CREATE INDEX IF NOT EXISTS idx_contributions_state ON contributions(state);

CREATE TABLE IF NOT EXISTS sync_cursors (
	politician_id TEXT NOT NULL,
	committee_id TEXT NOT NULL,
	last_index TEXT,
	last_date TIMESTAMP,
	synced_at TIMESTAMP NOT NULL,
	PRIMARY KEY (politician_id, committee_id)
);

CREATE TABLE IF NOT EXISTS employer_mappings (
	normalized_employer TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	match_type TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS employer_raw_lookup (
	raw_employer TEXT PRIMARY KEY,
	normalized_employer TEXT NOT NULL
);
`
