package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"voyager_booking/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// Repo is the MySQL audit log of fallback searches and booking attempts.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects and pings. The DSN needs parseTime=true for Booking to scan dates.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

func (r *Repo) LogFallback(ctx context.Context, e domain.FallbackEvent) error {
	_, err := r.db.ExecContext(ctx, insertFallbackSQL,
		e.SessionID,
		e.Cause.String(),
		valInt(e.Status),
		string(e.RoomType),
		e.Results,
	)
	return err
}

func (r *Repo) LogBooking(ctx context.Context, e domain.BookingEvent) error {
	_, err := r.db.ExecContext(ctx, upsertBookingSQL,
		e.SessionID,
		valStr(e.BookingID),
		e.HotelID,
		e.HotelName,
		string(e.Stay.RoomType),
		e.Stay.CheckIn.Format(domain.DateLayout),
		e.Stay.CheckOut.Format(domain.DateLayout),
		e.Stay.Rooms,
		e.Stay.Guests,
		e.FinalPrice,
		e.Success,
		valStr(truncate(e.Message, 512)),
	)
	return err
}

// RecentFallbacks returns the newest fallback records first.
func (r *Repo) RecentFallbacks(ctx context.Context, limit int) ([]domain.FallbackEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, recentFallbacksSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FallbackEvent
	for rows.Next() {
		var (
			e      domain.FallbackEvent
			cause  string
			rt     string
			status sql.NullInt64
		)
		if err := rows.Scan(&e.SessionID, &cause, &status, &rt, &e.Results); err != nil {
			return nil, err
		}
		e.Cause = parseKind(cause)
		e.RoomType = domain.RoomType(rt)
		if status.Valid {
			e.Status = int(status.Int64)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FallbackCounts groups fallback records since the given instant by cause.
func (r *Repo) FallbackCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, fallbackCountsSQL, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			cause string
			n     int
		)
		if err := rows.Scan(&cause, &n); err != nil {
			return nil, err
		}
		out[cause] = n
	}
	return out, rows.Err()
}

func (r *Repo) Booking(ctx context.Context, bookingID string) (domain.BookingEvent, error) {
	var (
		e      domain.BookingEvent
		rt     string
		in, ot time.Time
		msg    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, bookingByIDSQL, bookingID).Scan(
		&e.SessionID, &e.BookingID, &e.HotelID, &e.HotelName, &rt, &in, &ot,
		&e.Stay.Rooms, &e.Stay.Guests, &e.FinalPrice, &e.Success, &msg,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BookingEvent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.BookingEvent{}, err
	}
	e.Stay.RoomType = domain.RoomType(rt)
	e.Stay.CheckIn, e.Stay.CheckOut = in, ot
	e.Message = msg.String
	return e, nil
}

func parseKind(s string) domain.ErrorKind {
	for k := domain.KindUnknown; k <= domain.KindServer; k++ {
		if k.String() == s {
			return k
		}
	}
	return domain.KindUnknown
}

// truncate cuts to n characters; the column is sized in characters.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
