// Package journal records choreography sessions to SQLite: every scroll,
// resize and frame event together with the body transforms it produced.
// A recorded session can be replayed against a fresh choreographer to
// check that the scroll choreography is deterministic.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/echoflaresat/spacescroll/choreo"
)

var ErrNoSession = errors.New("journal: no such session")

type Kind string

const (
	KindScroll Kind = "scroll"
	KindResize Kind = "resize"
	KindFrame  Kind = "frame"
)

// Session describes the page a recording started from.
type Session struct {
	ID         string  `db:"id"`
	CreatedAt  int64   `db:"created_at"`
	Width      int     `db:"width"`
	Height     int     `db:"height"`
	DPR        float64 `db:"dpr"`
	HeroHeight float64 `db:"hero_height"`
	MoonGating bool    `db:"moon_gating"`
	Events     int     `db:"events"`
}

func (s Session) Viewport() choreo.Viewport {
	return choreo.Viewport{Width: s.Width, Height: s.Height, DevicePixelRatio: s.DPR, HeroHeight: s.HeroHeight}
}

func (s Session) Created() time.Time {
	return time.Unix(0, s.CreatedAt)
}

// Event is one handler invocation and the state it left behind.
type Event struct {
	Seq  int  `db:"seq"`
	Kind Kind `db:"kind"`

	// ScrollY for scroll events.
	Value float64 `db:"value"`
	// Viewport for resize events.
	Width      int     `db:"width"`
	Height     int     `db:"height"`
	HeroHeight float64 `db:"hero_height"`

	EarthX     float64 `db:"earth_x"`
	EarthY     float64 `db:"earth_y"`
	EarthZ     float64 `db:"earth_z"`
	MoonX      float64 `db:"moon_x"`
	MoonY      float64 `db:"moon_y"`
	MoonZ      float64 `db:"moon_z"`
	MarsX      float64 `db:"mars_x"`
	MarsZ      float64 `db:"mars_z"`
	MoonAngle  float64 `db:"moon_angle"`
	MoonActive bool    `db:"moon_active"`
	EarthSpin  float64 `db:"earth_spin"`
}

// DB wraps a SQLite connection holding recorded sessions.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a journal database at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		dpr REAL NOT NULL,
		hero_height REAL NOT NULL,
		moon_gating INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		session_id TEXT NOT NULL REFERENCES sessions(id),
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		value REAL NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		hero_height REAL NOT NULL,
		earth_x REAL NOT NULL,
		earth_y REAL NOT NULL,
		earth_z REAL NOT NULL,
		moon_x REAL NOT NULL,
		moon_y REAL NOT NULL,
		moon_z REAL NOT NULL,
		mars_x REAL NOT NULL,
		mars_z REAL NOT NULL,
		moon_angle REAL NOT NULL,
		moon_active INTEGER NOT NULL,
		earth_spin REAL NOT NULL,
		PRIMARY KEY (session_id, seq)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Sessions lists recorded sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	var sessions []Session
	err := db.conn.Select(&sessions, `
		SELECT s.id, s.created_at, s.width, s.height, s.dpr, s.hero_height, s.moon_gating,
		       (SELECT COUNT(*) FROM events e WHERE e.session_id = s.id) AS events
		FROM sessions s ORDER BY s.created_at DESC, s.id`)
	return sessions, err
}

// Load returns a session and its events in order.
func (db *DB) Load(id string) (Session, []Event, error) {
	var s Session
	err := db.conn.Get(&s, `
		SELECT id, created_at, width, height, dpr, hero_height, moon_gating,
		       (SELECT COUNT(*) FROM events WHERE session_id = ?) AS events
		FROM sessions WHERE id = ?`, id, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, nil, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	if err != nil {
		return Session{}, nil, err
	}

	var events []Event
	err = db.conn.Select(&events, `
		SELECT seq, kind, value, width, height, hero_height,
		       earth_x, earth_y, earth_z, moon_x, moon_y, moon_z,
		       mars_x, mars_z, moon_angle, moon_active, earth_spin
		FROM events WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return Session{}, nil, err
	}
	return s, events, nil
}

// Latest returns the id of the most recently started session.
func (db *DB) Latest() (string, error) {
	var id string
	err := db.conn.Get(&id, "SELECT id FROM sessions ORDER BY created_at DESC, id LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	return id, err
}

func (db *DB) saveEvents(sessionID string, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(session_id, seq, kind, value, width, height, hero_height,
		 earth_x, earth_y, earth_z, moon_x, moon_y, moon_z,
		 mars_x, mars_z, moon_angle, moon_active, earth_spin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.Exec(
			sessionID, e.Seq, string(e.Kind), e.Value, e.Width, e.Height, e.HeroHeight,
			e.EarthX, e.EarthY, e.EarthZ, e.MoonX, e.MoonY, e.MoonZ,
			e.MarsX, e.MarsZ, e.MoonAngle, e.MoonActive, e.EarthSpin,
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}
	return tx.Commit()
}

// flushEvery bounds how many events a Recorder holds before writing.
const flushEvery = 256

// Recorder forwards handler calls to a choreographer and journals each one.
// Like the choreographer it wraps, it is not safe for concurrent use.
type Recorder struct {
	db      *DB
	c       *choreo.Choreographer
	session Session
	pending []Event
	seq     int
	logger  *slog.Logger
}

// Record starts a new session for c, which must have just been built for vp.
func (db *DB) Record(c *choreo.Choreographer, vp choreo.Viewport, moonGating bool, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UnixNano(),
		Width:      vp.Width,
		Height:     vp.Height,
		DPR:        vp.DevicePixelRatio,
		HeroHeight: vp.HeroHeight,
		MoonGating: moonGating,
	}
	_, err := db.conn.NamedExec(`INSERT INTO sessions
		(id, created_at, width, height, dpr, hero_height, moon_gating)
		VALUES (:id, :created_at, :width, :height, :dpr, :hero_height, :moon_gating)`, s)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("journal session started", "session", s.ID)
	return &Recorder{db: db, c: c, session: s, logger: logger}, nil
}

func (r *Recorder) ID() string { return r.session.ID }

func (r *Recorder) Scroll(scrollY float64) error {
	r.c.Scroll(scrollY)
	return r.append(Event{Kind: KindScroll, Value: scrollY})
}

func (r *Recorder) Resize(vp choreo.Viewport) error {
	r.c.Resize(vp)
	return r.append(Event{Kind: KindResize, Width: vp.Width, Height: vp.Height, HeroHeight: vp.HeroHeight})
}

func (r *Recorder) Frame() error {
	r.c.Frame()
	return r.append(Event{Kind: KindFrame})
}

func (r *Recorder) append(e Event) error {
	e.Seq = r.seq
	r.seq++
	snapshot(r.c, &e)
	r.pending = append(r.pending, e)
	if len(r.pending) >= flushEvery {
		return r.Flush()
	}
	return nil
}

// Flush writes buffered events.
func (r *Recorder) Flush() error {
	if err := r.db.saveEvents(r.session.ID, r.pending); err != nil {
		return fmt.Errorf("journal %s: %w", r.session.ID, err)
	}
	r.pending = r.pending[:0]
	return nil
}

// Close flushes what is left. The database stays open.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	r.logger.Info("journal session closed", "session", r.session.ID, "events", r.seq)
	return nil
}

func snapshot(c *choreo.Choreographer, e *Event) {
	b := c.Bodies()
	st := c.State()
	e.EarthX, e.EarthY, e.EarthZ = b.Earth.Position.X, b.Earth.Position.Y, b.Earth.Position.Z
	e.MoonX, e.MoonY, e.MoonZ = b.Moon.Position.X, b.Moon.Position.Y, b.Moon.Position.Z
	e.MarsX, e.MarsZ = b.Mars.Position.X, b.Mars.Position.Z
	e.MoonAngle = st.MoonAngle
	e.MoonActive = st.MoonActive
	e.EarthSpin = b.Earth.Rotation.Y
}
