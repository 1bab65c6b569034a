package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	migration := `
	CREATE TABLE IF NOT EXISTS holders (
		id            SERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		full_name     TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'CUSTOMER',
		status        TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_login    TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id         SERIAL PRIMARY KEY,
		number     TEXT NOT NULL UNIQUE,
		holder_id  INTEGER NOT NULL REFERENCES holders(id),
		type       TEXT NOT NULL,
		balance    NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		status     TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id           SERIAL PRIMARY KEY,
		order_number TEXT NOT NULL,
		account_id   INTEGER NOT NULL REFERENCES accounts(id),
		direction    TEXT NOT NULL,
		amount       NUMERIC(20, 4) NOT NULL CHECK (amount > 0),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		status       TEXT NOT NULL DEFAULT 'COMPLETED',
		method       TEXT NOT NULL,
		note         TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_order ON transactions (order_number);

	CREATE TABLE IF NOT EXISTS loans (
		id            SERIAL PRIMARY KEY,
		holder_id     INTEGER NOT NULL REFERENCES holders(id),
		principal     NUMERIC(20, 4) NOT NULL CHECK (principal > 0),
		interest_rate NUMERIC(8, 6) NOT NULL DEFAULT 0,
		term_months   INTEGER NOT NULL,
		status        TEXT NOT NULL DEFAULT 'APPLIED',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	if _, err := db.Exec(migration); err != nil {
		log.Fatalf("failed to execute migration: %v", err)
	}

	fmt.Println("Migration executed successfully")
}
