package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"eventhub/internal/model"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const eventSelect = `
	SELECT e.id, e.title, e.description, e.event_date, e.event_time, e.capacity,
	       e.image_url, COALESCE(e.pdf_url, ''), e.organizer_id, COALESCE(u.name, ''),
	       e.address, e.location, e.category, e.status, e.created_at
	FROM events e
	LEFT JOIN users u ON u.id = e.organizer_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	return r.runMigrations(migrationsDir, "*.up.sql", false)
}

func (r *repository) MigrateDown(migrationsDir string) error {
	return r.runMigrations(migrationsDir, "*.down.sql", true)
}

func (r *repository) runMigrations(dir, pattern string, reverse bool) error {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Str("dir", dir).Str("pattern", pattern).Int("files", len(files)).Msg("migrations applied")
	return nil
}

// withTx runs fn inside a master transaction, rolling back on error or panic.
func (r *repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	var status string
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.EventDate, &e.EventTime, &e.Capacity,
		&e.ImageURL, &e.PdfURL, &e.OrganizerID, &e.OrganizerName,
		&e.Address, &e.Location, &e.Category, &status, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = model.EventStatus(status)
	return &e, nil
}

func (r *repository) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		// Concurrent creators would otherwise compute the same free id.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE events IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock events: %w", err)
		}
		if err := tx.QueryRowContext(ctx, `
			SELECT s.i
			FROM generate_series(1, COALESCE((SELECT MAX(id) FROM events), 0) + 1) s(i)
			WHERE NOT EXISTS (SELECT 1 FROM events WHERE id = s.i)
			ORDER BY s.i
			LIMIT 1
		`).Scan(&id); err != nil {
			return fmt.Errorf("failed to find free event id: %w", err)
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO events (id, title, description, event_date, event_time, capacity,
			                    image_url, pdf_url, organizer_id, address, location, category, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13)
			RETURNING created_at
		`, id, e.Title, e.Description, e.EventDate, e.EventTime, e.Capacity,
			e.ImageURL, e.PdfURL, e.OrganizerID, e.Address, e.Location, e.Category, string(e.Status),
		).Scan(&e.CreatedAt)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	e.ID = id
	return id, nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *repository) ListEventsByStatus(ctx context.Context, status model.EventStatus) ([]model.Event, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE e.status = $1 ORDER BY e.event_date DESC, e.id`, string(status))
}

func (r *repository) SearchEvents(ctx context.Context, f model.SearchFilter) ([]model.Event, error) {
	var b strings.Builder
	b.WriteString(eventSelect)
	b.WriteString(` WHERE e.status = 'approved'`)

	args := []any{}
	if f.Date != nil {
		args = append(args, f.Date.Format("2006-01-02"))
		fmt.Fprintf(&b, ` AND e.event_date = $%d::date`, len(args))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		args = append(args, "%"+loc+"%")
		fmt.Fprintf(&b, ` AND e.location ILIKE $%d`, len(args))
	}
	if cat := strings.TrimSpace(f.Category); cat != "" {
		args = append(args, "%"+cat+"%")
		fmt.Fprintf(&b, ` AND e.category ILIKE $%d`, len(args))
	}
	b.WriteString(` ORDER BY e.event_date DESC, e.id`)

	return r.queryEvents(ctx, b.String(), args...)
}

func (r *repository) ListEventsByOrganizer(ctx context.Context, organizerID int64) ([]model.Event, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE e.organizer_id = $1 ORDER BY e.created_at DESC`, organizerID)
}

func (r *repository) ListEventsByRegistrant(ctx context.Context, userID int64) ([]model.Event, error) {
	return r.queryEvents(ctx, eventSelect+`
		JOIN event_registrations reg ON reg.event_id = e.id
		WHERE reg.user_id = $1
		ORDER BY e.event_date DESC`, userID)
}

func (r *repository) UpdateEventTx(ctx context.Context, e *model.Event) (*model.Event, error) {
	var updated *model.Event
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, e.ID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		var booked int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, e.ID,
		).Scan(&booked); err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if e.Capacity < booked {
			return fmt.Errorf("%d seats for %d registrations: %w", e.Capacity, booked, ErrCapacityBelowBooked)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE events
			SET title = $2, description = $3, event_date = $4, event_time = $5, capacity = $6,
			    image_url = $7, pdf_url = NULLIF($8, ''), address = $9, location = $10,
			    category = $11, status = 'pending'
			WHERE id = $1
		`, e.ID, e.Title, e.Description, e.EventDate, e.EventTime, e.Capacity-booked,
			e.ImageURL, e.PdfURL, e.Address, e.Location, e.Category); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		updated, err = scanEvent(tx.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, e.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repository) TransitionEventTx(ctx context.Context, id int64, from []model.EventStatus, to model.EventStatus) (*model.Event, []model.Report, error) {
	var (
		event   *model.Event
		reports []model.Report
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}
		if !containsStatus(from, model.EventStatus(current)) {
			return fmt.Errorf("%s -> %s: %w", current, to, ErrInvalidTransition)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE events SET status = $2 WHERE id = $1`, id, string(to)); err != nil {
			return fmt.Errorf("failed to update event status: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `
			DELETE FROM event_reports
			WHERE event_id = $1
			RETURNING id, event_id, user_id, reason, reported_at
		`, id)
		if err != nil {
			return fmt.Errorf("failed to delete reports: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var rep model.Report
			if err := rows.Scan(&rep.ID, &rep.EventID, &rep.UserID, &rep.Reason, &rep.ReportedAt); err != nil {
				return fmt.Errorf("failed to scan report: %w", err)
			}
			reports = append(reports, rep)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		event, err = scanEvent(tx.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, id))
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return event, reports, nil
}

func (r *repository) DeleteEventTx(ctx context.Context, id int64) (*model.Event, error) {
	var event *model.Event
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		event, err = scanEvent(tx.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1 FOR UPDATE OF e`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		for _, q := range []string{
			`DELETE FROM chat_messages WHERE event_id = $1`,
			`DELETE FROM event_reports WHERE event_id = $1`,
			`DELETE FROM event_registrations WHERE event_id = $1`,
			`DELETE FROM events WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("failed to delete event %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) RegisterTx(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	reg := &model.Registration{EventID: eventID, UserID: userID}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var capacity int
		err := tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&capacity)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2)
		`, eventID, userID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check duplicate registration: %w", err)
		}
		if exists {
			return ErrDuplicateRegistration
		}
		if capacity <= 0 {
			return ErrEventFull
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO event_registrations (event_id, user_id)
			VALUES ($1, $2)
			RETURNING registered_at
		`, eventID, userID).Scan(&reg.RegisteredAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateRegistration
			}
			return fmt.Errorf("failed to create registration: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE events SET capacity = capacity - 1 WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("failed to decrement capacity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *repository) UnregisterTx(ctx context.Context, eventID, userID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var capacity int
		err := tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&capacity)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRegistrationNotFound
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete registration: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrRegistrationNotFound
		}

		if _, err := tx.ExecContext(ctx, `UPDATE events SET capacity = capacity + 1 WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("failed to increment capacity: %w", err)
		}
		return nil
	})
}

func (r *repository) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

func (r *repository) CreateReport(ctx context.Context, rep *model.Report) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO event_reports (event_id, user_id, reason)
		VALUES ($1, $2, $3)
		RETURNING id, reported_at
	`, rep.EventID, rep.UserID, rep.Reason).Scan(&rep.ID, &rep.ReportedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return 0, ErrEventNotFound
		}
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}
	return rep.ID, nil
}

func (r *repository) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	var rep model.Report
	err := r.db.QueryRowContext(ctx, `
		SELECT id, event_id, user_id, reason, reported_at FROM event_reports WHERE id = $1
	`, id).Scan(&rep.ID, &rep.EventID, &rep.UserID, &rep.Reason, &rep.ReportedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &rep, nil
}

func (r *repository) ListReportsByEvent(ctx context.Context, eventID int64) ([]model.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, user_id, reason, reported_at
		FROM event_reports
		WHERE event_id = $1
		ORDER BY reported_at DESC, id DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		var rep model.Report
		if err := rows.Scan(&rep.ID, &rep.EventID, &rep.UserID, &rep.Reason, &rep.ReportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *repository) ListReportedEvents(ctx context.Context) ([]model.ReportedEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.event_id, r.user_id, r.reason, r.reported_at,
		       e.title, e.status, e.organizer_id,
		       COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM event_reports r
		JOIN events e ON e.id = r.event_id
		LEFT JOIN users u ON u.id = r.user_id
		ORDER BY r.reported_at DESC, r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reported events: %w", err)
	}
	defer rows.Close()

	var out []model.ReportedEvent
	for rows.Next() {
		var re model.ReportedEvent
		var status string
		if err := rows.Scan(
			&re.ID, &re.EventID, &re.UserID, &re.Reason, &re.ReportedAt,
			&re.EventTitle, &status, &re.OrganizerID,
			&re.ReporterName, &re.ReporterEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reported event: %w", err)
		}
		re.EventStatus = model.EventStatus(status)
		out = append(out, re)
	}
	return out, rows.Err()
}

func (r *repository) DeleteReport(ctx context.Context, id int64) (*model.Report, error) {
	var rep model.Report
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM event_reports WHERE id = $1
		RETURNING id, event_id, user_id, reason, reported_at
	`, id).Scan(&rep.ID, &rep.EventID, &rep.UserID, &rep.Reason, &rep.ReportedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to delete report: %w", err)
	}
	return &rep, nil
}

const userColumns = `id, name, email, role, is_blocked, created_at, password_hash`

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// SaveUser upserts u by id. An empty PasswordHash keeps the stored one.
func (r *repository) SaveUser(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, role, is_blocked, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role,
		    is_blocked = EXCLUDED.is_blocked,
		    password_hash = COALESCE(NULLIF(EXCLUDED.password_hash, ''), users.password_hash)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, string(u.Role), u.IsBlocked, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// CreateUser inserts u under the next id after the highest one in use.
func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock users: %w", err)
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO users (id, name, email, role, is_blocked, password_hash)
			SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, FALSE, $4 FROM users
			RETURNING id, created_at
		`, u.Name, u.Email, string(u.Role), u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return u.ID, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.IsBlocked, &u.CreatedAt, &u.PasswordHash); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

func (r *repository) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, `id = $1`, id)
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `email <> '' AND LOWER(email) = LOWER($1)`, email)
}

func (r *repository) ListUsers(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE $1 = '' OR role = $1
		ORDER BY id
	`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *repository) SetUserBlocked(ctx context.Context, id int64, blocked bool) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET is_blocked = $2 WHERE id = $1
		RETURNING `+userColumns, id, blocked))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user block status: %w", err)
	}
	return u, nil
}

func (r *repository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) InsertChatMessage(ctx context.Context, m *model.ChatMessage) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (event_id, user_id, username, message_text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.EventID, m.UserID, m.Username, m.Text, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chat message: %w", err)
	}
	return m.ID, nil
}

func (r *repository) GetChatMessagesByEvent(ctx context.Context, eventID int64) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, user_id, username, message_text, created_at
		FROM chat_messages
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.EventID, &m.UserID, &m.Username, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func containsStatus(list []model.EventStatus, s model.EventStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
