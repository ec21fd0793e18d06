package journal

// Schema creates the journal tables. Money and quantities are stored as
// decimal TEXT.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	config BLOB,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	rejections INTEGER NOT NULL,
	start_cash TEXT NOT NULL,
	final_cash TEXT NOT NULL,
	final_value TEXT NOT NULL,
	net_pl TEXT NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	open_position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	quantity TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	bar INTEGER NOT NULL,
	time DATETIME NOT NULL,
	close TEXT NOT NULL,
	cash TEXT NOT NULL,
	quantity TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (run_id, bar)
);

CREATE TABLE IF NOT EXISTS rejections (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	bar INTEGER NOT NULL,
	time DATETIME NOT NULL,
	direction TEXT NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
