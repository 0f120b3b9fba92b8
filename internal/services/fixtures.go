package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/metrics"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrFixtureMissing = errors.New("fixture file not found")

// FixtureSource opens a named CSV file.
type FixtureSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFixtureMissing, filepath.Join(s.dir, name))
		}
		return nil, err
	}
	return f, nil
}

func (s *DirSource) String() string {
	return s.dir
}

type fixtureColumn struct {
	name  string
	parse func(string) (interface{}, error)
}

type fixtureTable struct {
	name    string
	file    string
	model   interface{}
	columns map[string]fixtureColumn
}

// fixtureTables is in dependency order. CSV headers are matched against
// the column map; the relation columns accept both "author" and
// "author_id" style headers.
var fixtureTables = []fixtureTable{
	{
		name: "users", file: "user.csv", model: &models.User{},
		columns: map[string]fixtureColumn{
			"id":         {"id", parseUint},
			"username":   {"username", parseString},
			"email":      {"email", parseString},
			"role":       {"role", parseRole},
			"bio":        {"bio", parseString},
			"first_name": {"first_name", parseString},
			"last_name":  {"last_name", parseString},
		},
	},
	{
		name: "genres", file: "genre.csv", model: &models.Genre{},
		columns: map[string]fixtureColumn{
			"id":   {"id", parseUint},
			"name": {"name", parseString},
			"slug": {"slug", parseString},
		},
	},
	{
		name: "categories", file: "category.csv", model: &models.Category{},
		columns: map[string]fixtureColumn{
			"id":   {"id", parseUint},
			"name": {"name", parseString},
			"slug": {"slug", parseString},
		},
	},
	{
		name: "titles", file: "title.csv", model: &models.Title{},
		columns: map[string]fixtureColumn{
			"id":          {"id", parseUint},
			"name":        {"name", parseString},
			"year":        {"year", parseInt},
			"description": {"description", parseString},
			"category":    {"category_id", parseOptionalUint},
			"category_id": {"category_id", parseOptionalUint},
		},
	},
	{
		name: "reviews", file: "review.csv", model: &models.Review{},
		columns: map[string]fixtureColumn{
			"id":        {"id", parseUint},
			"title":     {"title_id", parseUint},
			"title_id":  {"title_id", parseUint},
			"text":      {"text", parseString},
			"author":    {"author_id", parseUint},
			"author_id": {"author_id", parseUint},
			"score":     {"score", parseInt},
			"pub_date":  {"pub_date", parseTime},
		},
	},
	{
		name: "comments", file: "comment.csv", model: &models.Comment{},
		columns: map[string]fixtureColumn{
			"id":        {"id", parseUint},
			"review":    {"review_id", parseUint},
			"review_id": {"review_id", parseUint},
			"text":      {"text", parseString},
			"author":    {"author_id", parseUint},
			"author_id": {"author_id", parseUint},
			"pub_date":  {"pub_date", parseTime},
		},
	},
}

var genreTitleTable = fixtureTable{
	name: "title_genres", file: "genre_title.csv",
	columns: map[string]fixtureColumn{
		"title_id": {"title_id", parseUint},
		"genre_id": {"genre_id", parseUint},
	},
}

type LoadOptions struct {
	Models bool
	Genres bool
}

type FixtureReport struct {
	Table   string
	Created int
	Skipped int
	Failed  []string
}

// FixtureLoader get-or-creates rows from CSV fixtures. Rows that already
// exist (by primary or unique key) are skipped, so loading twice is safe.
type FixtureLoader struct {
	db     *gorm.DB
	source FixtureSource
}

func NewFixtureLoader(db *gorm.DB, source FixtureSource) *FixtureLoader {
	return &FixtureLoader{db: db, source: source}
}

func (l *FixtureLoader) Load(ctx context.Context, opts LoadOptions) ([]FixtureReport, error) {
	var tables []fixtureTable
	if opts.Models {
		tables = append(tables, fixtureTables...)
	}
	if opts.Genres {
		tables = append(tables, genreTitleTable)
	}

	reports := make([]FixtureReport, 0, len(tables))
	for _, table := range tables {
		report, err := l.loadTable(ctx, table)
		if err != nil {
			return reports, fmt.Errorf("%s: %w", table.file, err)
		}
		reports = append(reports, *report)
	}

	if opts.Models {
		if err := l.resetSequences(ctx); err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (l *FixtureLoader) loadTable(ctx context.Context, table fixtureTable) (*FixtureReport, error) {
	src, err := l.source.Open(ctx, table.file)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("CSV file must have a header row")
	}

	header := records[0]
	columns := make([]*fixtureColumn, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if col, ok := table.columns[h]; ok {
			columns[i] = &col
		} else {
			logger.WithFields(logrus.Fields{"file": table.file, "column": h}).Warn("ignoring unknown fixture column")
		}
	}

	report := &FixtureReport{Table: table.name}
	for i, record := range records[1:] {
		line := i + 2

		row, err := buildRow(columns, record)
		if err != nil {
			report.Failed = append(report.Failed, fmt.Sprintf("Row %d: %v", line, err))
			metrics.FixtureRowsTotal.WithLabelValues(table.name, "failed").Inc()
			continue
		}

		query := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
		if table.model != nil {
			query = query.Model(table.model)
		} else {
			query = query.Table(table.name)
		}

		result := query.Create(row)
		switch {
		case result.Error != nil:
			report.Failed = append(report.Failed, fmt.Sprintf("Row %d: %v", line, result.Error))
			metrics.FixtureRowsTotal.WithLabelValues(table.name, "failed").Inc()
		case result.RowsAffected == 0:
			report.Skipped++
			metrics.FixtureRowsTotal.WithLabelValues(table.name, "skipped").Inc()
		default:
			report.Created++
			metrics.FixtureRowsTotal.WithLabelValues(table.name, "created").Inc()
		}
	}

	logger.WithFields(logrus.Fields{
		"table":   table.name,
		"created": report.Created,
		"skipped": report.Skipped,
		"failed":  len(report.Failed),
	}).Info("fixture table processed")

	return report, nil
}

func buildRow(columns []*fixtureColumn, record []string) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		if col == nil {
			continue
		}
		if i >= len(record) {
			return nil, fmt.Errorf("missing value for %s", col.name)
		}
		value, err := col.parse(strings.TrimSpace(record[i]))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", col.name, err)
		}
		row[col.name] = value
	}
	if len(row) == 0 {
		return nil, errors.New("no known columns")
	}
	return row, nil
}

// resetSequences moves postgres id sequences past the explicit ids the
// fixtures inserted. Other dialects derive the next id from the table.
func (l *FixtureLoader) resetSequences(ctx context.Context) error {
	if l.db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "categories", "genres", "titles", "reviews", "comments"} {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table)
		if err := l.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to reset %s id sequence: %w", table, err)
		}
	}
	return nil
}

// RemoveAll empties every catalog, review and account table.
func (l *FixtureLoader) RemoveAll(ctx context.Context) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, step := range []struct {
			name  string
			model interface{}
		}{
			{"comments", &models.Comment{}},
			{"reviews", &models.Review{}},
			{"title_genres", nil},
			{"titles", &models.Title{}},
			{"genres", &models.Genre{}},
			{"categories", &models.Category{}},
			{"users", &models.User{}},
		} {
			var err error
			if step.model == nil {
				err = all.Exec("DELETE FROM " + step.name).Error
			} else {
				err = all.Delete(step.model).Error
			}
			if err != nil {
				return fmt.Errorf("failed to empty %s: %w", step.name, err)
			}
			logger.WithFields(logrus.Fields{"table": step.name}).Info("table emptied")
		}
		return nil
	})
}

func parseString(v string) (interface{}, error) {
	return v, nil
}

func parseUint(v string) (interface{}, error) {
	return strconv.ParseUint(v, 10, 64)
}

func parseOptionalUint(v string) (interface{}, error) {
	if v == "" {
		return nil, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func parseInt(v string) (interface{}, error) {
	return strconv.Atoi(v)
}

func parseRole(v string) (interface{}, error) {
	if v == "" {
		return string(models.RoleUser), nil
	}
	if !models.Role(v).Valid() {
		return nil, fmt.Errorf("unknown role %q", v)
	}
	return v, nil
}

func parseTime(v string) (interface{}, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("unrecognised timestamp %q", v)
}
