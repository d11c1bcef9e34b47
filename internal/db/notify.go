package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Notifier wraps the LISTEN/NOTIFY mechanism in PostgreSQL.  It announces
// memory-document updates so sibling service instances sharing the store can
// react (refresh caches, emit metrics).  Delivery is best effort.
type Notifier struct {
	DB       *sql.DB
	conninfo string
	Channel  string
}

// NewNotifier constructs a new Notifier.  conninfo is the same connection
// string used to open the DB; the channel should match the
// POSTGRES_NOTIFY_CHANNEL environment variable.
func NewNotifier(db *sql.DB, conninfo, channel string) *Notifier {
	return &Notifier{DB: db, conninfo: conninfo, Channel: channel}
}

// Notify publishes the user id of an updated memory document.
func (n *Notifier) Notify(ctx context.Context, userID string) error {
	_, err := n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, userID)
	return err
}

// Listen yields user ids as their memory documents are updated anywhere in
// the deployment.  The returned channel closes when ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := pq.NewListener(n.conninfo, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(n.Channel); err != nil {
		listener.Close()
		return nil, err
	}
	ch := make(chan string)
	go func() {
		defer close(ch)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case note, ok := <-listener.Notify:
				if !ok {
					return
				}
				// nil notifications signal a driver reconnect
				if note == nil {
					continue
				}
				select {
				case ch <- note.Extra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
