package scorers

import (
	"context"
	"fmt"
	"strings"

	pgparser "github.com/auxten/postgresql-parser/pkg/sql/parser"
	sqlite "github.com/rqlite/sql"
	"github.com/xwb1989/sqlparser"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.Scorer = (*SQLScorer)(nil)

// SQLDialect selects the grammar used for parse validation.
type SQLDialect string

// Supported SQL dialects.
const (
	DialectGeneric  SQLDialect = "generic"
	DialectPostgres SQLDialect = "postgres"
	DialectMySQL    SQLDialect = "mysql"
	DialectSQLite   SQLDialect = "sqlite"
)

// SQLConfig defines the parameters for SQL parse validation.
type SQLConfig struct {
	// Dialect names the grammar to parse under. Defaults to generic.
	Dialect SQLDialect `yaml:"dialect" json:"dialect" validate:"omitempty,oneof=generic postgres mysql sqlite"`
}

// DefaultSQLConfig returns a SQLConfig using the generic dialect.
func DefaultSQLConfig() SQLConfig {
	return SQLConfig{Dialect: DialectGeneric}
}

// SQLScorer validates that the task output parses as zero or more SQL
// statements under the configured dialect's grammar. The SQL text is the
// output itself when it is a string, or the string field "sql" when the
// output is a JSON object; any other shape is a scorer failure, since no
// SQL text could be extracted. A parse error is a failing score (value
// 0.0) with the error message and dialect in details, not a failure.
type SQLScorer struct {
	config SQLConfig
	tracer trace.Tracer
}

// NewSQLScorer creates a SQLScorer for the given dialect.
// An unknown dialect is a configuration error.
func NewSQLScorer(config SQLConfig) (*SQLScorer, error) {
	if config.Dialect == "" {
		config.Dialect = DialectGeneric
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &SQLScorer{
		config: config,
		tracer: otel.Tracer("sql-scorer"),
	}, nil
}

// Name returns "sql".
func (s *SQLScorer) Name() string { return "sql" }

// Score extracts the SQL text from the output and parses it.
func (s *SQLScorer) Score(ctx context.Context, _, output any) (domain.Score, error) {
	_, span := s.tracer.Start(ctx, "SQLScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.type", "sql"),
			attribute.String("config.dialect", string(s.config.Dialect)),
		),
	)
	defer span.End()

	text, err := extractSQL(output)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}

	kinds, err := s.parse(text)
	if err != nil {
		span.SetAttributes(attribute.Bool("score.passed", false))
		return domain.Score{
			Name:   s.Name(),
			Value:  0.0,
			Passed: false,
			Details: map[string]any{
				"valid":   false,
				"error":   err.Error(),
				"dialect": string(s.config.Dialect),
			},
		}, nil
	}

	span.SetAttributes(
		attribute.Bool("score.passed", true),
		attribute.Int("sql.statement_count", len(kinds)),
	)
	return domain.Score{
		Name:   s.Name(),
		Value:  1.0,
		Passed: true,
		Details: map[string]any{
			"valid":           true,
			"statement_count": len(kinds),
			"statement_kinds": kinds,
			"dialect":         string(s.config.Dialect),
		},
	}, nil
}

// extractSQL pulls the SQL text out of the task output: the output itself
// when it is a string, or the "sql" string field of a JSON object.
func extractSQL(output any) (string, error) {
	switch v := output.(type) {
	case string:
		return v, nil
	case map[string]any:
		if raw, ok := v["sql"]; ok {
			if text, ok := raw.(string); ok {
				return text, nil
			}
			return "", fmt.Errorf("field %q is not a string", "sql")
		}
		return "", fmt.Errorf("object output has no %q field", "sql")
	default:
		return "", fmt.Errorf("cannot extract SQL from output of type %T", output)
	}
}

// parse validates the text under the configured dialect and returns one
// statement kind per parsed statement.
func (s *SQLScorer) parse(text string) ([]string, error) {
	switch s.config.Dialect {
	case DialectPostgres:
		return parsePostgres(text)
	case DialectSQLite:
		return parseSQLite(text)
	default:
		// The vitess-derived parser serves both the generic and the
		// MySQL dialect.
		return parseGeneric(text)
	}
}

// parseGeneric parses statements with the vitess-derived sqlparser.
func parseGeneric(text string) ([]string, error) {
	pieces, err := sqlparser.SplitStatementToPieces(text)
	if err != nil {
		return nil, err
	}

	var kinds []string
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		stmt, err := sqlparser.Parse(piece)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, genericStatementKind(stmt))
	}
	return kinds, nil
}

// genericStatementKind maps a parsed statement to a coarse kind label.
func genericStatementKind(stmt sqlparser.Statement) string {
	switch node := stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union:
		return "SELECT"
	case *sqlparser.Insert:
		return "INSERT"
	case *sqlparser.Update:
		return "UPDATE"
	case *sqlparser.Delete:
		return "DELETE"
	case *sqlparser.DDL:
		return strings.ToUpper(node.Action)
	default:
		return "OTHER"
	}
}

// parsePostgres parses statements under the PostgreSQL grammar.
func parsePostgres(text string) ([]string, error) {
	stmts, err := pgparser.Parse(text)
	if err != nil {
		return nil, err
	}

	kinds := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		kinds = append(kinds, stmt.AST.StatementTag())
	}
	return kinds, nil
}

// parseSQLite parses statements under the SQLite grammar. Statements are
// split first so each piece is parsed independently.
func parseSQLite(text string) ([]string, error) {
	pieces, err := sqlparser.SplitStatementToPieces(text)
	if err != nil {
		return nil, err
	}

	var kinds []string
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		stmt, err := sqlite.NewParser(strings.NewReader(piece)).ParseStatement()
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, sqliteStatementKind(stmt))
	}
	return kinds, nil
}

// sqliteStatementKind maps a parsed SQLite statement to a coarse kind label.
func sqliteStatementKind(stmt sqlite.Statement) string {
	switch stmt.(type) {
	case *sqlite.SelectStatement:
		return "SELECT"
	case *sqlite.InsertStatement:
		return "INSERT"
	case *sqlite.UpdateStatement:
		return "UPDATE"
	case *sqlite.DeleteStatement:
		return "DELETE"
	case *sqlite.CreateTableStatement:
		return "CREATE TABLE"
	case *sqlite.CreateIndexStatement:
		return "CREATE INDEX"
	case *sqlite.DropTableStatement:
		return "DROP"
	default:
		return "OTHER"
	}
}
