package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// Postgres-only constructs that sqlite3 rejects or silently misreads.
var portableViolations = map[string]*regexp.Regexp{
	"SERIAL":           regexp.MustCompile(`(?i)\b(big|small)?serial\b`),
	"TIMESTAMPTZ":      regexp.MustCompile(`(?i)\btimestamptz\b`),
	"JSONB":            regexp.MustCompile(`(?i)\bjsonb\b`),
	"type cast ::":     regexp.MustCompile(`::\s*[a-z]`),
	"gen_random_uuid":  regexp.MustCompile(`(?i)\bgen_random_uuid\s*\(`),
	"CREATE EXTENSION": regexp.MustCompile(`(?i)\bcreate\s+extension\b`),
	"ILIKE":            regexp.MustCompile(`(?i)\bilike\b`),
}

// ValidateDir checks filenames, goose annotations and dialect portability of
// every migration in dir. All problems are reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	versions := map[string]string{}
	names := map[string]string{}
	var errs error

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		file := e.Name()

		m := sqlFileRe.FindStringSubmatch(file)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", file))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, file))
		}
		if prev, ok := names[m[2]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration name %q in %q and %q", m[2], prev, file))
		}
		versions[m[1]] = file
		names[m[2]] = file

		b, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", file, err))
			continue
		}
		errs = multierr.Append(errs, checkContent(file, string(b)))
	}

	if errs == nil && len(versions) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	return errs
}

func checkContent(file, txt string) error {
	var errs error
	up := strings.Index(txt, "-- +goose Up")
	down := strings.Index(txt, "-- +goose Down")
	switch {
	case up < 0:
		errs = multierr.Append(errs, fmt.Errorf("migration %q missing \"-- +goose Up\"", file))
	case down < 0:
		errs = multierr.Append(errs, fmt.Errorf("migration %q missing \"-- +goose Down\"", file))
	case down < up:
		errs = multierr.Append(errs, fmt.Errorf("migration %q declares Down before Up", file))
	}
	if begins, ends := strings.Count(txt, "-- +goose StatementBegin"), strings.Count(txt, "-- +goose StatementEnd"); begins != ends {
		errs = multierr.Append(errs, fmt.Errorf("migration %q has %d StatementBegin and %d StatementEnd", file, begins, ends))
	}

	body := stripSQLComments(txt)
	for label, re := range portableViolations {
		if re.MatchString(body) {
			errs = multierr.Append(errs, fmt.Errorf("migration %q uses postgres-only %s", file, label))
		}
	}
	return errs
}

func stripSQLComments(txt string) string {
	lines := strings.Split(txt, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}
