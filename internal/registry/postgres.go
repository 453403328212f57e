package registry

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/token"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Arbitrary key for pg_advisory_xact_lock around index allocation.
const indexLockKey = 0x636877616c6c6574

// PostgresStore keeps the registry in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Registry = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	return NewPostgresStore(db), nil
}

// MigrationSource returns the embedded schema migrations.
func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations",
	}
}

// Migrate applies pending migrations and returns how many ran.
func Migrate(db *sql.DB) (int, error) {
	n, err := migrate.Exec(db, "postgres", MigrationSource(), migrate.Up)
	if err != nil {
		return 0, errors.Wrap(err, "failed to apply migrations")
	}
	return n, nil
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetOrCreateIndex(ctx context.Context, userID int64) (uint32, error) {
	var index int64
	err := s.db.QueryRowContext(ctx,
		`SELECT derivation_index FROM registry_users WHERE user_id = $1`, userID,
	).Scan(&index)
	if err == nil {
		return uint32(index), nil //nolint:gosec // range enforced by table constraint
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrapf(err, "failed to read user %d", userID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, indexLockKey); err != nil {
		return 0, errors.Wrap(err, "failed to lock index allocation")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registry_users (user_id, derivation_index)
		SELECT $1, COALESCE(MAX(derivation_index) + 1, 0) FROM registry_users
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to assign index to user %d", userID)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT derivation_index FROM registry_users WHERE user_id = $1`, userID,
	).Scan(&index); err != nil {
		return 0, errors.Wrapf(err, "failed to read user %d", userID)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit index allocation")
	}

	util.LogFromContext(ctx).Info().
		Int64("user_id", userID).
		Int64("index", index).
		Msg("Assigned derivation index")

	return uint32(index), nil //nolint:gosec // range enforced by table constraint
}

func (s *PostgresStore) GetToken(ctx context.Context, chatID int64, symbol string) (*token.Descriptor, error) {
	var (
		d        token.Descriptor
		addr     string
		decimals sql.NullInt16
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT symbol, address, decimals FROM registry_tokens WHERE chat_id = $1 AND symbol = $2`,
		chatID, strings.ToUpper(symbol),
	).Scan(&d.Symbol, &addr, &decimals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absent token is not an error
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read token %s", symbol)
	}

	d.Address = common.HexToAddress(addr)
	if decimals.Valid {
		dec := uint8(decimals.Int16) //nolint:gosec // range enforced by table constraint
		d.Decimals = &dec
	}

	return &d, nil
}

func (s *PostgresStore) PutToken(ctx context.Context, chatID int64, d token.Descriptor) error {
	var decimals sql.NullInt16
	if d.Decimals != nil {
		decimals = sql.NullInt16{Int16: int16(*d.Decimals), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registry_tokens (chat_id, symbol, address, decimals)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id, symbol) DO UPDATE
		SET address = EXCLUDED.address, decimals = EXCLUDED.decimals, updated_at = now()`,
		chatID, strings.ToUpper(d.Symbol), d.Address.Hex(), decimals)
	if err != nil {
		return errors.Wrapf(err, "failed to store token %s", d.Symbol)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
