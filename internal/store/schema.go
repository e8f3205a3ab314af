package store

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id               INTEGER PRIMARY KEY,
		name             TEXT    NOT NULL UNIQUE,
		price            INTEGER NOT NULL,
		total_stocks     INTEGER NOT NULL,
		available_stocks INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id INTEGER PRIMARY KEY,
		balance INTEGER NOT NULL,
		frozen  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		user_id    INTEGER NOT NULL,
		company_id INTEGER NOT NULL,
		amount     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, company_id)
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		ts         INTEGER NOT NULL,
		company_id INTEGER NOT NULL,
		price      INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS history_company_ts ON history (company_id, ts)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id               BIGINT PRIMARY KEY,
		name             TEXT   NOT NULL UNIQUE,
		price            BIGINT NOT NULL,
		total_stocks     BIGINT NOT NULL,
		available_stocks BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id BIGINT  PRIMARY KEY,
		balance BIGINT  NOT NULL,
		frozen  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		user_id    BIGINT NOT NULL,
		company_id BIGINT NOT NULL,
		amount     BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, company_id)
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		id         BIGSERIAL PRIMARY KEY,
		ts         BIGINT NOT NULL,
		company_id BIGINT NOT NULL,
		price      BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS history_company_ts ON history (company_id, ts)`,
}
