package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFilePattern = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)

// ValidateDir checks that every .sql file in dir follows the goose naming
// convention and contains both Up and Down sections.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var problems []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		if !migrationFilePattern.MatchString(entry.Name()) {
			problems = append(problems, fmt.Sprintf("%s: name must match YYYYMMDDHHMMSS_snake_case.sql", entry.Name()))
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		text := string(content)
		if !strings.Contains(text, "-- +goose Up") {
			problems = append(problems, fmt.Sprintf("%s: missing '-- +goose Up' header", entry.Name()))
		}
		if !strings.Contains(text, "-- +goose Down") {
			problems = append(problems, fmt.Sprintf("%s: missing '-- +goose Down' header", entry.Name()))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid migrations:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
