package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"taxprotest/internal/types"

	_ "github.com/lib/pq"
	_ "github.com/sijms/go-ora/v2"
)

const (
	DriverOracle   = "oracle"
	DriverPostgres = "postgres"
)

var (
	ErrUnknownDriver = errors.New("database: unknown driver")
	ErrBadIdentifier = errors.New("database: invalid table or column name")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password), // escapes automatically
		Host:     host + ":" + port,
		Path:     "/" + service, // keep full service name
		RawQuery: "ssl=true",    // ADB requires TCPS on 1522
	}).String()
}

// postgresDSN builds a lib/pq URL. Service is the database name.
func postgresDSN(c DBConfig) string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Service,
		RawQuery: q.Encode(),
	}).String()
}

// DBConfig holds database connection configuration
type DBConfig struct {
	Driver         string   `yaml:"driver"`
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	Service        string   `yaml:"service"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	WalletLocation string   `yaml:"wallet_location"`
	SSLMode        string   `yaml:"sslmode"`
	Table          string   `yaml:"table"`
	Columns        []string `yaml:"columns"`
}

// Enabled reports whether enough is configured to attempt a connection.
func (c DBConfig) Enabled() bool {
	return c.Driver != "" && c.Host != ""
}

// DSN returns the driver name and connection string for c.
func (c DBConfig) DSN() (driver, conn string, err error) {
	switch strings.ToLower(c.Driver) {
	case DriverOracle:
		return DriverOracle, dsn(c.Username, c.Password, c.Host, c.Port, c.Service, c.WalletLocation), nil
	case DriverPostgres, "postgresql", "pq":
		return DriverPostgres, postgresDSN(c), nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
}

// selectQuery builds the roll query. Identifiers cannot be bound, so they are
// validated instead.
func (c DBConfig) selectQuery() (string, []string, error) {
	cols := c.Columns
	if len(cols) == 0 {
		cols = types.AllColumns
	}
	if !identPattern.MatchString(c.Table) {
		return "", nil, fmt.Errorf("%w: %q", ErrBadIdentifier, c.Table)
	}
	for _, col := range cols {
		if !identPattern.MatchString(col) {
			return "", nil, fmt.Errorf("%w: %q", ErrBadIdentifier, col)
		}
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), c.Table), cols, nil
}

// Database holds the database connection and configuration
type Database struct {
	db     *sqlx.DB
	config DBConfig
}

// NewDatabase creates a new database connection
func NewDatabase(ctx context.Context, config DBConfig) (*Database, error) {
	driver, connStr, err := config.DSN()
	if err != nil {
		return nil, err
	}
	if _, _, err := config.selectQuery(); err != nil {
		return nil, err
	}

	log.Info().Str("driver", driver).Str("host", config.Host).Str("table", config.Table).Msg("connecting to appraisal roll database")

	db, err := sqlx.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		config: config,
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Name identifies the source in logs and reports without exposing credentials.
func (d *Database) Name() string {
	return fmt.Sprintf("%s://%s/%s", d.config.Driver, d.config.Host, d.config.Table)
}

// Read pulls the whole roll table as text rows. The header uses the export's
// column names regardless of how the driver folds identifier case.
func (d *Database) Read(ctx context.Context) ([]string, [][]string, error) {
	query, cols, err := d.config.selectQuery()
	if err != nil {
		return nil, nil, err
	}

	rows, err := d.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query roll: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan roll row: %w", err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = text(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read roll rows: %w", err)
	}

	header := make([]string, len(cols))
	copy(header, cols)
	return header, out, nil
}

// text renders a scanned column the way it would appear in the text export.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case sql.NullString:
		return x.String
	default:
		return fmt.Sprint(x)
	}
}

// LoadDatabaseConfig overlays DB_* environment variables on base.
func LoadDatabaseConfig(base DBConfig) DBConfig {
	return DBConfig{
		Driver:         getEnvOrDefault("DB_DRIVER", base.Driver),
		Host:           getEnvOrDefault("DB_HOST", base.Host),
		Port:           getEnvOrDefault("DB_PORT", defaultPort(getEnvOrDefault("DB_DRIVER", base.Driver), base.Port)),
		Service:        getEnvOrDefault("DB_SERVICE", base.Service),
		Username:       getEnvOrDefault("DB_USERNAME", base.Username),
		Password:       getEnvOrDefault("DB_PASSWORD", base.Password),
		WalletLocation: getEnvOrDefault("DB_WALLET_LOCATION", base.WalletLocation),
		SSLMode:        getEnvOrDefault("DB_SSLMODE", orDefault(base.SSLMode, "disable")),
		Table:          getEnvOrDefault("DB_TABLE", orDefault(base.Table, "PROPERTYDATA_R_2025")),
		Columns:        base.Columns,
	}
}

func defaultPort(driver, port string) string {
	if port != "" {
		return port
	}
	if strings.EqualFold(driver, DriverOracle) {
		return "1521"
	}
	return "5432"
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
