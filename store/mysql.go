package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"ticket-marketplace-backend/ledger"
	"ticket-marketplace-backend/model"
)

const (
	eventTable        = "Events"
	areaTable         = "Event_Areas"
	ticketTable       = "Tickets"
	payoutTable       = "Payouts"
	notificationTable = "Notifications"

	eventSequence = "event"

	errDuplicateEntry  = 1062
	errNoReferencedRow = 1452
	errCheckConstraint = 3819
)

var eventCols = []string{"event_id", "name", "location", "start_time", "organizer", "organizer_fee_percentage", "cancelled", "completed", "total_areas"}
var areaCols = []string{"event_id", "area_id", "name", "price", "quota", "sold_tickets"}
var ticketCols = []string{"event_id", "area_id", "owner", "price", "times_sold", "used", "offered", "uri", "approved"}
var payoutCols = []string{"ticket_id", "recipient", "amount", "kind", "settlement_tx_id", "created_at"}
var notificationCols = []string{"kind", "ticket_id", "event_id", "area_id", "principal", "price", "times_sold", "published", "created_at"}

//go:embed schema.sql
var schema string

type sqlTxKey struct{}

type sqlTx struct {
	owner *MySQL
	tx    *sql.Tx
}

// querier is what *sql.DB and *sql.Tx have in common.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// MySQL keeps the ledger in a MySQL database. Reads inside a unit lock the
// rows they return until the unit commits.
type MySQL struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db, now: time.Now}
}

// OpenMySQL opens dsn with the options the store relies on.
func OpenMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("openMySQL: invalid dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("openMySQL: %w", err)
	}
	return db, nil
}

// Migrate creates the ledger tables when they do not exist.
func (s *MySQL) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *MySQL) txFrom(ctx context.Context) *sql.Tx {
	tx, ok := ctx.Value(sqlTxKey{}).(*sqlTx)
	if !ok || tx.owner != s {
		return nil
	}
	return tx.tx
}

func (s *MySQL) q(ctx context.Context) querier {
	if tx := s.txFrom(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *MySQL) forUpdate(ctx context.Context) string {
	if s.txFrom(ctx) != nil {
		return " FOR UPDATE"
	}
	return ""
}

// WithTx runs fn in one database transaction. A nested call joins the
// enclosing transaction.
func (s *MySQL) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("withTx: error begining db transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("withTx: could not commit transaction: %w", cerr)
		}
	}()

	return fn(context.WithValue(ctx, sqlTxKey{}, &sqlTx{owner: s, tx: tx}))
}

func (s *MySQL) CreateEvent(ctx context.Context, e model.Event, areas []model.Area) (uint64, error) {
	var id uint64
	err := s.WithTx(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.nextID(ctx, eventSequence)
		if err != nil {
			return fmt.Errorf("createEvent: %w", err)
		}

		values := []interface{}{
			id,
			e.Name,
			e.Location,
			e.StartTime.UTC(),
			e.Organizer,
			e.OrganizerFeePercentage,
			e.Cancelled,
			e.Completed,
			uint64(len(areas)),
		}
		if _, err := create(ctx, s.q(ctx), eventTable, eventCols, values); err != nil {
			return fmt.Errorf("createEvent: %w", err)
		}

		for i, a := range areas {
			values := []interface{}{id, uint64(i + 1), a.Name, a.Price, a.Quota, uint64(0)}
			if _, err := create(ctx, s.q(ctx), areaTable, areaCols, values); err != nil {
				if isMySQLError(err, errDuplicateEntry, errNoReferencedRow) {
					return fmt.Errorf("createEvent: area %d: %v: %w", i+1, err, ledger.ErrInvalidInput)
				}
				return fmt.Errorf("createEvent: area %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// NextEventID is the id the next committed event will get.
func (s *MySQL) NextEventID(ctx context.Context) (uint64, error) {
	var next uint64
	err := s.q(ctx).QueryRowContext(ctx, `SELECT next_value FROM Sequences WHERE name = ?`, eventSequence).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("nextEventID: sequence %q is missing, run the migration", eventSequence)
	}
	if err != nil {
		return 0, fmt.Errorf("nextEventID: %w", err)
	}
	return next, nil
}

// nextID takes the next value of a sequence. It must run inside a unit: the
// sequence row stays locked until the unit ends, and a rolled back unit gives
// its value back.
func (s *MySQL) nextID(ctx context.Context, name string) (uint64, error) {
	if s.txFrom(ctx) == nil {
		return 0, fmt.Errorf("nextID: sequence %q read outside a unit", name)
	}

	var id uint64
	err := s.q(ctx).QueryRowContext(ctx, `SELECT next_value FROM Sequences WHERE name = ? FOR UPDATE`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("nextID: sequence %q is missing, run the migration", name)
	}
	if err != nil {
		return 0, fmt.Errorf("nextID: %w", err)
	}
	if _, err := s.q(ctx).ExecContext(ctx, `UPDATE Sequences SET next_value = next_value + 1 WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("nextID: %w", err)
	}
	return id, nil
}

func (s *MySQL) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	query := `SELECT event_id, name, location, start_time, organizer, organizer_fee_percentage, cancelled, completed, total_areas
		FROM Events WHERE event_id = ?` + s.forUpdate(ctx)

	var e model.Event
	err := s.q(ctx).QueryRowContext(ctx, query, eventID).Scan(
		&e.EventID,
		&e.Name,
		&e.Location,
		&e.StartTime,
		&e.Organizer,
		&e.OrganizerFeePercentage,
		&e.Cancelled,
		&e.Completed,
		&e.TotalAreas,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %d: %w", eventID, ledger.ErrNotFound)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("getEvent: error while scanning row: %w", err)
	}
	e.StartTime = e.StartTime.UTC()
	return e, nil
}

func (s *MySQL) GetArea(ctx context.Context, eventID, areaID uint64) (model.Area, error) {
	query := `SELECT event_id, area_id, name, price, quota, sold_tickets
		FROM Event_Areas WHERE event_id = ? AND area_id = ?` + s.forUpdate(ctx)

	var a model.Area
	err := s.q(ctx).QueryRowContext(ctx, query, eventID, areaID).Scan(
		&a.EventID,
		&a.AreaID,
		&a.Name,
		&a.Price,
		&a.Quota,
		&a.SoldTickets,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Area{}, fmt.Errorf("area %d of event %d: %w", areaID, eventID, ledger.ErrNotFound)
	}
	if err != nil {
		return model.Area{}, fmt.Errorf("getArea: error while scanning row: %w", err)
	}
	return a, nil
}

func (s *MySQL) Areas(ctx context.Context, eventID uint64) ([]model.Area, error) {
	query := `SELECT event_id, area_id, name, price, quota, sold_tickets
		FROM Event_Areas WHERE event_id = ? ORDER BY area_id`

	rows, err := s.q(ctx).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("areas: error executing query: %w", err)
	}
	defer rows.Close()

	areas := []model.Area{}
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(&a.EventID, &a.AreaID, &a.Name, &a.Price, &a.Quota, &a.SoldTickets); err != nil {
			return nil, fmt.Errorf("areas: error while scanning row: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("areas: %w", err)
	}
	if len(areas) == 0 {
		return nil, fmt.Errorf("event %d: %w", eventID, ledger.ErrNotFound)
	}
	return areas, nil
}

// AddSoldTickets increments the count only while the quota still allows it,
// so concurrent sales cannot oversell even outside a unit.
func (s *MySQL) AddSoldTickets(ctx context.Context, eventID, areaID, n uint64) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`UPDATE Event_Areas SET sold_tickets = sold_tickets + ?
			WHERE event_id = ? AND area_id = ? AND quota - sold_tickets >= ?`,
		n, eventID, areaID, n,
	)
	if err != nil {
		if isMySQLError(err, errCheckConstraint) {
			return fmt.Errorf("addSoldTickets: %v: %w", err, ledger.ErrQuotaExceeded)
		}
		return fmt.Errorf("addSoldTickets: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("addSoldTickets: %w", err)
	}
	if updated > 0 {
		return nil
	}

	a, err := s.GetArea(ctx, eventID, areaID)
	if err != nil {
		return err
	}
	return fmt.Errorf("area %d of event %d: %d requested, %d of %d sold: %w",
		areaID, eventID, n, a.SoldTickets, a.Quota, ledger.ErrQuotaExceeded)
}

func (s *MySQL) CreateTicket(ctx context.Context, t model.Ticket) (uint64, error) {
	values := []interface{}{t.EventID, t.AreaID, t.Owner, t.Price, t.TimesSold, t.Used, t.Offered, t.URI, t.Approved}
	id, err := create(ctx, s.q(ctx), ticketTable, ticketCols, values)
	if err != nil {
		return 0, fmt.Errorf("createTicket: %w", err)
	}
	return id, nil
}

func (s *MySQL) GetTicket(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	query := `SELECT ticket_id, event_id, area_id, owner, price, times_sold, used, offered, uri, approved
		FROM Tickets WHERE ticket_id = ?` + s.forUpdate(ctx)

	var t model.Ticket
	err := s.q(ctx).QueryRowContext(ctx, query, ticketID).Scan(
		&t.TicketID,
		&t.EventID,
		&t.AreaID,
		&t.Owner,
		&t.Price,
		&t.TimesSold,
		&t.Used,
		&t.Offered,
		&t.URI,
		&t.Approved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, fmt.Errorf("ticket %d: %w", ticketID, ledger.ErrNotFound)
	}
	if err != nil {
		return model.Ticket{}, fmt.Errorf("getTicket: error while scanning row: %w", err)
	}
	return t, nil
}

func (s *MySQL) UpdateTicket(ctx context.Context, t model.Ticket) error {
	updated, err := update(ctx, s.q(ctx), ticketTable,
		[]string{"owner", "price", "times_sold", "used", "offered", "uri", "approved"},
		[]interface{}{t.Owner, t.Price, t.TimesSold, t.Used, t.Offered, t.URI, t.Approved},
		[]string{"ticket_id"},
		[]interface{}{t.TicketID},
	)
	if err != nil {
		return fmt.Errorf("updateTicket: %w", err)
	}
	if updated == 0 {
		// MySQL reports zero rows for an update that changes nothing.
		if _, err := s.GetTicket(ctx, t.TicketID); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQL) CreditPayout(ctx context.Context, p model.Payout) (uint64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	values := []interface{}{p.TicketID, p.Recipient, p.Amount, string(p.Kind), p.SettlementTxID, p.CreatedAt}
	id, err := create(ctx, s.q(ctx), payoutTable, payoutCols, values)
	if err != nil {
		return 0, fmt.Errorf("creditPayout: %w", err)
	}
	return id, nil
}

func (s *MySQL) Balance(ctx context.Context, principal string) (uint64, error) {
	var amount uint64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM Payouts WHERE recipient = ?`, principal,
	).Scan(&amount)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return amount, nil
}

func (s *MySQL) AppendNotification(ctx context.Context, n model.Notification) (uint64, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	values := []interface{}{string(n.Kind), n.TicketID, n.EventID, n.AreaID, n.Principal, n.Price, n.TimesSold, false, n.CreatedAt}
	seq, err := create(ctx, s.q(ctx), notificationTable, notificationCols, values)
	if err != nil {
		return 0, fmt.Errorf("appendNotification: %w", err)
	}
	return seq, nil
}

func (s *MySQL) Notifications(ctx context.Context, afterSeq uint64, limit int) ([]model.Notification, error) {
	query := `SELECT seq, kind, ticket_id, event_id, area_id, principal, price, times_sold, published, created_at
		FROM Notifications WHERE seq > ? ORDER BY seq LIMIT ?`
	return s.notifications(ctx, "notifications", query, afterSeq, limit)
}

func (s *MySQL) UnpublishedNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	query := `SELECT seq, kind, ticket_id, event_id, area_id, principal, price, times_sold, published, created_at
		FROM Notifications WHERE published = FALSE ORDER BY seq LIMIT ?`
	return s.notifications(ctx, "unpublishedNotifications", query, limit)
}

func (s *MySQL) notifications(ctx context.Context, op, query string, args ...interface{}) ([]model.Notification, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: error executing query: %w", op, err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var (
			n    model.Notification
			kind string
		)
		err := rows.Scan(&n.Seq, &kind, &n.TicketID, &n.EventID, &n.AreaID, &n.Principal, &n.Price, &n.TimesSold, &n.Published, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: error while scanning row: %w", op, err)
		}
		n.Kind = model.NotificationKind(kind)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *MySQL) MarkNotificationsPublished(ctx context.Context, seqs []uint64) error {
	if len(seqs) == 0 {
		return nil
	}
	params := make([]string, len(seqs))
	args := make([]interface{}, len(seqs))
	for i, seq := range seqs {
		params[i] = "?"
		args[i] = seq
	}
	query := fmt.Sprintf(`UPDATE Notifications SET published = TRUE WHERE seq IN (%s)`, strings.Join(params, ", "))
	if _, err := s.q(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("markNotificationsPublished: %w", err)
	}
	return nil
}

func (s *MySQL) UnsettledPayouts(ctx context.Context, limit int) ([]model.Payout, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT payout_id, ticket_id, recipient, amount, kind, settlement_tx_id, pending_tx_id, pending_until, created_at
			FROM Payouts WHERE settlement_tx_id = '' ORDER BY payout_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unsettledPayouts: error executing query: %w", err)
	}
	defer rows.Close()

	out := []model.Payout{}
	for rows.Next() {
		var (
			p    model.Payout
			kind string
		)
		if err := rows.Scan(&p.PayoutID, &p.TicketID, &p.Recipient, &p.Amount, &kind, &p.SettlementTxID, &p.PendingTxID, &p.PendingUntil, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("unsettledPayouts: error while scanning row: %w", err)
		}
		p.Kind = model.PayoutKind(kind)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unsettledPayouts: %w", err)
	}
	return out, nil
}

func (s *MySQL) MarkPayoutPending(ctx context.Context, payoutID uint64, txID string, until uint64) error {
	updated, err := update(ctx, s.q(ctx), payoutTable,
		[]string{"pending_tx_id", "pending_until"},
		[]interface{}{txID, until},
		[]string{"payout_id"},
		[]interface{}{payoutID},
	)
	if err != nil {
		return fmt.Errorf("markPayoutPending: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("payout %d: %w", payoutID, ledger.ErrNotFound)
	}
	return nil
}

func (s *MySQL) MarkPayoutSettled(ctx context.Context, payoutID uint64, txID string) error {
	updated, err := update(ctx, s.q(ctx), payoutTable,
		[]string{"settlement_tx_id"},
		[]interface{}{txID},
		[]string{"payout_id"},
		[]interface{}{payoutID},
	)
	if err != nil {
		return fmt.Errorf("markPayoutSettled: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("payout %d: %w", payoutID, ledger.ErrNotFound)
	}
	return nil
}

func create(ctx context.Context, q querier, table string, cols []string, values []interface{}) (uint64, error) {
	var params []string

	for range cols {
		params = append(params, "?")
	}

	tsql := fmt.Sprintf(`INSERT INTO %s(%s) VALUES (%s)`, table, strings.Join(cols, ", "), strings.Join(params, ", "))

	result, err := q.ExecContext(ctx, tsql, values...)
	if err != nil {
		return 0, fmt.Errorf("create: unable to insert record in %s: %w", table, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	return uint64(id), nil
}

func update(ctx context.Context, q querier, table string, cols []string, values []interface{}, column []string, value []interface{}) (int64, error) {
	values = append(values, value...)
	var set []string

	for _, col := range cols {
		set = append(set, fmt.Sprintf("%s = ?", col))
	}

	var conds []string

	for _, c := range column {
		conds = append(conds, fmt.Sprintf("%s = ?", c))
	}

	tsql := fmt.Sprintf(`UPDATE %s SET %s WHERE %s`, table, strings.Join(set, ", "), strings.Join(conds, " AND "))

	result, err := q.ExecContext(ctx, tsql, values...)
	if err != nil {
		return 0, fmt.Errorf("update: unable to update record in %s: %w", table, err)
	}

	return result.RowsAffected()
}

func isMySQLError(err error, numbers ...uint16) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	for _, n := range numbers {
		if me.Number == n {
			return true
		}
	}
	return false
}
