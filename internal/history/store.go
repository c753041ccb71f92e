package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/forgerun/forgerun/internal/workflow"
)

const (
	sqliteDriverNameConstant         = "sqlite3"
	databasePathRequiredMessageConst = "history database path must be provided"
	storeOpenErrorTemplateConstant   = "unable to open history database %s: %w"
	schemaErrorTemplateConstant      = "unable to prepare history schema: %w"
	recordRunErrorTemplateConstant   = "unable to record run: %w"
	queryRunsErrorTemplateConstant   = "unable to query runs: %w"
	queryStepsErrorTemplateConstant  = "unable to query run steps: %w"
	timestampColumnLayoutConstant    = time.RFC3339Nano
	defaultRecentRunsLimitConstant   = 10

	createRunsTableStatementConstant = `CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	succeeded INTEGER NOT NULL,
	aborted INTEGER NOT NULL
)`
	createStepsTableStatementConstant = `CREATE TABLE IF NOT EXISTS run_steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	step_name TEXT NOT NULL,
	status TEXT NOT NULL,
	attempts INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	failure_message TEXT NOT NULL
)`
	insertRunStatementConstant   = `INSERT INTO runs (started_at, completed_at, succeeded, aborted) VALUES (?, ?, ?, ?)`
	insertStepStatementConstant  = `INSERT INTO run_steps (run_id, step_name, status, attempts, duration_ms, failure_message) VALUES (?, ?, ?, ?, ?, ?)`
	selectRunsStatementConstant  = `SELECT id, started_at, completed_at, succeeded, aborted FROM runs ORDER BY id DESC LIMIT ?`
	selectStepsStatementConstant = `SELECT step_name, status, attempts, duration_ms, failure_message FROM run_steps WHERE run_id = ? ORDER BY id`
)

// ErrDatabasePathRequired indicates the store was opened without a path.
var ErrDatabasePathRequired = errors.New(databasePathRequiredMessageConst)

// RunSummary describes one recorded automation run.
type RunSummary struct {
	Identifier  int64
	StartedAt   time.Time
	CompletedAt time.Time
	Succeeded   bool
	Aborted     bool
}

// StepRecord describes one recorded step outcome.
type StepRecord struct {
	StepName       string
	Status         string
	Attempts       int
	Duration       time.Duration
	FailureMessage string
}

// Store is a SQLite-backed journal of run reports.
type Store struct {
	database *sql.DB
}

// OpenStore opens or creates the journal at the provided path.
func OpenStore(databasePath string) (*Store, error) {
	if len(databasePath) == 0 {
		return nil, ErrDatabasePathRequired
	}

	database, openError := sql.Open(sqliteDriverNameConstant, databasePath)
	if openError != nil {
		return nil, fmt.Errorf(storeOpenErrorTemplateConstant, databasePath, openError)
	}

	for _, schemaStatement := range []string{createRunsTableStatementConstant, createStepsTableStatementConstant} {
		if _, schemaError := database.Exec(schemaStatement); schemaError != nil {
			database.Close()
			return nil, fmt.Errorf(schemaErrorTemplateConstant, schemaError)
		}
	}

	return &Store{database: database}, nil
}

// Close releases the underlying database handle.
func (store *Store) Close() error {
	return store.database.Close()
}

// RecordRun persists the report and its step outcomes, returning the run identifier.
func (store *Store) RecordRun(report workflow.RunReport) (int64, error) {
	transaction, transactionError := store.database.Begin()
	if transactionError != nil {
		return 0, fmt.Errorf(recordRunErrorTemplateConstant, transactionError)
	}

	insertResult, insertError := transaction.Exec(
		insertRunStatementConstant,
		report.StartedAt.UTC().Format(timestampColumnLayoutConstant),
		report.CompletedAt.UTC().Format(timestampColumnLayoutConstant),
		boolToInteger(report.Succeeded()),
		boolToInteger(report.Aborted),
	)
	if insertError != nil {
		transaction.Rollback()
		return 0, fmt.Errorf(recordRunErrorTemplateConstant, insertError)
	}

	runIdentifier, identifierError := insertResult.LastInsertId()
	if identifierError != nil {
		transaction.Rollback()
		return 0, fmt.Errorf(recordRunErrorTemplateConstant, identifierError)
	}

	for _, stepResult := range report.Results {
		_, stepInsertError := transaction.Exec(
			insertStepStatementConstant,
			runIdentifier,
			stepResult.StepName,
			string(stepResult.Status),
			stepResult.Attempts,
			stepResult.Duration.Milliseconds(),
			stepResult.FailureMessage,
		)
		if stepInsertError != nil {
			transaction.Rollback()
			return 0, fmt.Errorf(recordRunErrorTemplateConstant, stepInsertError)
		}
	}

	if commitError := transaction.Commit(); commitError != nil {
		return 0, fmt.Errorf(recordRunErrorTemplateConstant, commitError)
	}
	return runIdentifier, nil
}

// RecentRuns returns the most recent run summaries, newest first.
func (store *Store) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultRecentRunsLimitConstant
	}

	rows, queryError := store.database.Query(selectRunsStatementConstant, limit)
	if queryError != nil {
		return nil, fmt.Errorf(queryRunsErrorTemplateConstant, queryError)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		var summary RunSummary
		var startedAtText string
		var completedAtText string
		var succeededValue int
		var abortedValue int
		if scanError := rows.Scan(&summary.Identifier, &startedAtText, &completedAtText, &succeededValue, &abortedValue); scanError != nil {
			return nil, fmt.Errorf(queryRunsErrorTemplateConstant, scanError)
		}
		summary.StartedAt, _ = time.Parse(timestampColumnLayoutConstant, startedAtText)
		summary.CompletedAt, _ = time.Parse(timestampColumnLayoutConstant, completedAtText)
		summary.Succeeded = succeededValue != 0
		summary.Aborted = abortedValue != 0
		summaries = append(summaries, summary)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, fmt.Errorf(queryRunsErrorTemplateConstant, rowsError)
	}
	return summaries, nil
}

// RunSteps returns the recorded step outcomes for one run in execution order.
func (store *Store) RunSteps(runIdentifier int64) ([]StepRecord, error) {
	rows, queryError := store.database.Query(selectStepsStatementConstant, runIdentifier)
	if queryError != nil {
		return nil, fmt.Errorf(queryStepsErrorTemplateConstant, queryError)
	}
	defer rows.Close()

	stepRecords := []StepRecord{}
	for rows.Next() {
		var stepRecord StepRecord
		var durationMilliseconds int64
		if scanError := rows.Scan(&stepRecord.StepName, &stepRecord.Status, &stepRecord.Attempts, &durationMilliseconds, &stepRecord.FailureMessage); scanError != nil {
			return nil, fmt.Errorf(queryStepsErrorTemplateConstant, scanError)
		}
		stepRecord.Duration = time.Duration(durationMilliseconds) * time.Millisecond
		stepRecords = append(stepRecords, stepRecord)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, fmt.Errorf(queryStepsErrorTemplateConstant, rowsError)
	}
	return stepRecords, nil
}

func boolToInteger(value bool) int {
	if value {
		return 1
	}
	return 0
}
