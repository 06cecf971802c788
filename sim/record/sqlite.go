package record

import (
	"database/sql"
	"fmt"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/inference-sim/memsim/sim"
)

// SQLiteRecorder persists event logs and final run statistics into a SQLite
// database. Several runs may share one database file: every row is tagged
// with the recorder's RunID, so sweeps over memory budgets can be compared
// with plain SQL afterwards.
type SQLiteRecorder struct {
	*sql.DB
	eventStatement *sql.Stmt

	// RunID tags all rows written by this recorder.
	RunID string

	eventsToWrite []sim.Event
	batchSize     int
}

// NewSQLiteRecorder opens (or creates) the database at path and prepares the
// schema. An empty path picks an xid-stamped file name in the working
// directory. The recorder registers its Flush with atexit so buffered events
// survive early exits.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = fmt.Sprintf("memsim_%s.sqlite3", xid.New().String())
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}

	r := &SQLiteRecorder{
		DB:        db,
		RunID:     xid.New().String(),
		batchSize: 100000,
	}
	r.createTables()
	r.prepareEventStatement()

	atexit.Register(func() { r.FlushEvents() })

	return r, nil
}

func (r *SQLiteRecorder) createTables() {
	r.mustExecute(`
		create table if not exists runs
		(
			run_id                varchar(20) not null,
			created_at            varchar(32) not null,
			ram_size_bytes        integer     not null,
			block_size_bytes      integer     not null,
			capacity_blocks       integer     not null,
			block_hits            integer     not null,
			block_misses          integer     not null,
			block_evictions       integer     not null,
			tensor_hits           integer     not null,
			tensor_misses         integer     not null,
			total_io_bytes        integer     not null,
			peak_resident_bytes   integer     not null,
			shared_block_accesses integer     not null,
			memory_saved_sharing  integer     not null
		);
	`)
	r.mustExecute(`
		create table if not exists events
		(
			run_id     varchar(20) not null,
			step       integer     not null,
			node_index integer     not null,
			type       varchar(10) not null,
			tensor_id  integer     not null,
			block_addr integer     not null,
			block_size integer     not null,
			shared_with varchar(200) default '',
			is_write   integer     not null
		);
	`)
	r.mustExecute(`create index if not exists events_run_step on events (run_id, step);`)
}

func (r *SQLiteRecorder) prepareEventStatement() {
	stmt, err := r.Prepare(`INSERT INTO events VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		panic(err)
	}
	r.eventStatement = stmt
}

// WriteRun inserts one row of final statistics for the given configuration.
func (r *SQLiteRecorder) WriteRun(cfg sim.Config, stats *sim.Stats) error {
	_, err := r.Exec(
		`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		time.Now().UTC().Format(time.RFC3339),
		cfg.RAMSizeBytes,
		cfg.BlockSizeBytes,
		cfg.Capacity(),
		stats.BlockHits,
		stats.BlockMisses,
		stats.BlockEvictions,
		stats.TensorHits,
		stats.TensorMisses,
		stats.TotalIOBytes,
		stats.PeakResidentBytes,
		stats.SharedBlockAccesses,
		stats.MemorySavedSharing,
	)
	if err != nil {
		return fmt.Errorf("inserting run row: %w", err)
	}
	return nil
}

// WriteEvent buffers one event, flushing when the batch fills.
func (r *SQLiteRecorder) WriteEvent(e sim.Event) {
	r.eventsToWrite = append(r.eventsToWrite, e)
	if len(r.eventsToWrite) >= r.batchSize {
		r.FlushEvents()
	}
}

// WriteEvents buffers a whole event log.
func (r *SQLiteRecorder) WriteEvents(events []sim.Event) {
	for _, e := range events {
		r.WriteEvent(e)
	}
}

// FlushEvents writes all buffered events inside one transaction.
func (r *SQLiteRecorder) FlushEvents() {
	if len(r.eventsToWrite) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, e := range r.eventsToWrite {
		_, err := r.eventStatement.Exec(
			r.RunID,
			e.Step,
			e.NodeIndex,
			string(e.Type),
			int(e.TensorID),
			int64(e.BlockAddr),
			e.BlockSize,
			joinTensorIDs(e.SharedWith),
			e.Write,
		)
		if err != nil {
			panic(err)
		}
	}

	r.eventsToWrite = nil
}

// Close flushes buffered events and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.FlushEvents()
	if r.eventStatement != nil {
		_ = r.eventStatement.Close()
	}
	return r.DB.Close()
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		panic(fmt.Errorf("executing %q: %w", query, err))
	}
	return res
}
