package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"masklink/backend/hostmask"
)

// Sender is one distinct identity observed in the message log. The id is
// owned by the store and opaque here.
type Sender struct {
	ID       int64
	Mask     hostmask.Mask
	Realname string
}

type senderRow struct {
	ID       int64          `db:"senderid"`
	Sender   string         `db:"sender"`
	Realname sql.NullString `db:"realname"`
}

const searchQuery = `SELECT senderid, sender, realname FROM sender WHERE sender LIKE ?`

// Store wraps the quassel log database connection. Both the sqlite3 and
// postgres quassel storage backends are supported; the query text is rebound
// per driver.
type Store struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// Open connects to the sender store and verifies the connection with a
// capped exponential backoff before giving up.
func Open(driver, dsn string, log *logrus.Logger) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s sender store", driver)
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMaxElapsedTime(10*time.Second),
	), 5)
	if err := backoff.Retry(db.Ping, policy); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s sender store", driver)
	}
	if driver == "sqlite3" {
		// Fingerprints are case sensitive; sqlite's LIKE is not unless told so.
		if _, err := db.Exec(`PRAGMA case_sensitive_like = ON`); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "enable case sensitive LIKE")
		}
	}
	return &Store{db: db, log: log}, nil
}

// Search runs one fingerprint pattern against the sender table. Rows whose
// stored text is not a parseable mask are dropped; a well-formed store makes
// that rare enough to only warrant a debug line.
func (s *Store) Search(ctx context.Context, pattern string) ([]Sender, error) {
	var rows []senderRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(searchQuery), pattern); err != nil {
		return nil, errors.Wrapf(err, "search %q", pattern)
	}
	senders := make([]Sender, 0, len(rows))
	for _, row := range rows {
		mask, err := hostmask.Parse(row.Sender)
		if err != nil {
			if s.log != nil {
				s.log.WithField("sender", row.Sender).WithError(err).
					Debug("dropping undecodable sender row")
			}
			continue
		}
		senders = append(senders, Sender{
			ID:       row.ID,
			Mask:     mask,
			Realname: row.Realname.String,
		})
	}
	return senders, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
