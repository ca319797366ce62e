package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"arena-server/game"
)

const (
	queueSize     = 1024
	batchSize     = 50
	flushInterval = 5 * time.Second
)

// Record is one stored gameplay event
type Record struct {
	Type       string
	Tick       uint64
	PlayerID   string
	Name       string
	Score      int
	Length     int
	Cause      string
	KillerID   string
	KillerName string
	Gain       int
	At         time.Time
}

// Analytics handles event tracking with batched background writes. It
// implements game.EventSink.
type Analytics struct {
	db       *DB
	events   chan Record
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	dropped int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan Record, queueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer(flushInterval)
	return a
}

// Track enqueues a world event for async persistence. It never blocks the
// game loop: when the queue is full the event is dropped.
func (a *Analytics) Track(evt game.Event) {
	rec := Record{
		Type:       evt.Kind.String(),
		Tick:       evt.Tick,
		PlayerID:   evt.PlayerID,
		Name:       evt.Name,
		Score:      evt.Score,
		Length:     evt.Length,
		Cause:      evt.Cause,
		KillerID:   evt.KillerID,
		KillerName: evt.KillerName,
		Gain:       evt.Gain,
		At:         time.Now().UTC(),
	}
	select {
	case a.events <- rec:
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Dropped returns how many events were lost to a full queue
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Stop flushes queued events and shuts down the writer
func (a *Analytics) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer(every time.Duration) {
	defer a.wg.Done()

	batch := make([]Record, 0, batchSize)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case rec := <-a.events:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case rec := <-a.events:
					batch = append(batch, rec)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events in one transaction
func (a *Analytics) flush(batch []Record) {
	if a.db == nil || len(batch) == 0 {
		return
	}
	if err := a.db.insertRecords(batch); err != nil {
		log.Printf("analytics: %v", err)
	}
}

func (db *DB) insertRecords(batch []Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events
		(event_type, tick, player_id, name, score, length, cause, killer_id, killer_name, gain, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch {
		killerID := sql.NullString{String: r.KillerID, Valid: r.KillerID != ""}
		killerName := sql.NullString{String: r.KillerName, Valid: r.KillerID != ""}
		if _, err := stmt.Exec(r.Type, int64(r.Tick), r.PlayerID, r.Name, r.Score, r.Length, r.Cause,
			killerID, killerName, r.Gain, r.At.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("insert %s: %w", r.Type, err)
		}
	}
	return tx.Commit()
}

// --- Query methods for the API ---

// KillerRow is one line of the kill ranking
type KillerRow struct {
	Name   string `json:"name"`
	Kills  int    `json:"kills"`
	Points int    `json:"points"`
}

// ScoreRow is a score a player reached before dying or leaving
type ScoreRow struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Length int    `json:"length"`
	Cause  string `json:"cause"`
	At     string `json:"at"`
}

// DayCount holds a count for a specific day
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			return nil, err
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// DeathCauses returns death counts per cause
func (a *Analytics) DeathCauses() (map[string]int, error) {
	rows, err := a.db.conn.Query(`
		SELECT cause, COUNT(*) FROM analytics_events
		WHERE event_type = 'death' GROUP BY cause
	`)
	if err != nil {
		return nil, fmt.Errorf("death causes: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var cause string
		var count int
		if err := rows.Scan(&cause, &count); err != nil {
			return nil, err
		}
		result[cause] = count
	}
	return result, rows.Err()
}

// TopKillers ranks players by kills, then by points taken
func (a *Analytics) TopKillers(limit int) ([]KillerRow, error) {
	rows, err := a.db.conn.Query(`
		SELECT killer_name, COUNT(*) AS kills, SUM(gain) AS points
		FROM analytics_events
		WHERE event_type = 'death' AND killer_id IS NOT NULL
		GROUP BY killer_id, killer_name
		ORDER BY kills DESC, points DESC, killer_name
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top killers: %w", err)
	}
	defer rows.Close()

	var result []KillerRow
	for rows.Next() {
		var k KillerRow
		if err := rows.Scan(&k.Name, &k.Kills, &k.Points); err != nil {
			return nil, err
		}
		result = append(result, k)
	}
	return result, rows.Err()
}

// BestScores returns the highest scores players ended a life with
func (a *Analytics) BestScores(limit int) ([]ScoreRow, error) {
	rows, err := a.db.conn.Query(`
		SELECT name, score, length, cause, created_at
		FROM analytics_events
		WHERE event_type IN ('death', 'leave') AND score > 0
		ORDER BY score DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("best scores: %w", err)
	}
	defer rows.Close()

	var result []ScoreRow
	for rows.Next() {
		var s ScoreRow
		if err := rows.Scan(&s.Name, &s.Score, &s.Length, &s.Cause, &s.At); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// DailyJoins returns join counts for the last N days
func (a *Analytics) DailyJoins(days int) ([]DayCount, error) {
	rows, err := a.db.conn.Query(`
		SELECT date(created_at) AS day, COUNT(*)
		FROM analytics_events
		WHERE event_type = 'join' AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY day ORDER BY day
	`, days)
	if err != nil {
		return nil, fmt.Errorf("daily joins: %w", err)
	}
	defer rows.Close()

	var result []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}
