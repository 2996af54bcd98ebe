// cleanup-test-data removes test-like brands that never had code generated
// for them. Their rules, selectors, and templates are removed with them.
// Brands with generated code are kept so the audit trail stays intact.
//
// Test patterns matched against the brand name (case-insensitive):
// - ^test (starts with "test")
// - test$ (ends with "test")
// - ^uitest (UI test prefix)
// - ^debug (debug prefix)
// - ^dummy (dummy prefix)
// - ^sample (sample prefix)
// - ^example (example prefix)
// - \d{4}$ (ends with 4 digits, e.g., "Brand2026")
//
// Usage: go run ./scripts/cleanup-test-data
//
// Database connection: Uses standard PG* environment variables
//
// Flags:
//
//	-dry-run   Show what would be deleted without actually deleting (default: true)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// testBrandPatterns are used with PostgreSQL's ~* (case-insensitive regex) operator.
var testBrandPatterns = []string{
	`^test`,
	`test$`,
	`^uitest`,
	`^debug`,
	`^dummy`,
	`^sample`,
	`^example`,
	`\d{4}$`,
}

const candidateQuery = `
	SELECT b.id, b.name,
	       (SELECT count(*) FROM code_rules r WHERE r.brand_id = b.id),
	       (SELECT count(*) FROM dom_selectors s WHERE s.brand_id = b.id),
	       (SELECT count(*) FROM templates t WHERE t.brand_id = b.id)
	FROM brands b
	WHERE b.name ~* $1
	  AND NOT EXISTS (SELECT 1 FROM generated_code g WHERE g.brand_id = b.id)
	ORDER BY b.name`

func main() {
	dryRun := flag.Bool("dry-run", true, "Show what would be deleted without actually deleting")
	flag.Parse()

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, buildConnString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		fmt.Println("Run with -dry-run=false to actually delete brands")
		fmt.Println()
	}

	totalDeleted := 0
	seen := make(map[uuid.UUID]bool)
	for _, pattern := range testBrandPatterns {
		count, err := cleanupTestBrands(ctx, conn, pattern, seen, *dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error cleaning pattern %q: %v\n", pattern, err)
			os.Exit(1)
		}
		totalDeleted += count
	}

	if *dryRun {
		fmt.Printf("\nTotal brands that would be deleted: %d\n", totalDeleted)
	} else {
		fmt.Printf("\nTotal brands deleted: %d\n", totalDeleted)
	}
}

type candidate struct {
	id        uuid.UUID
	name      string
	rules     int
	selectors int
	templates int
}

// cleanupTestBrands deletes unused brands whose name matches pattern. A brand
// matched by an earlier pattern is skipped so the totals count each brand once.
func cleanupTestBrands(ctx context.Context, conn *pgx.Conn, pattern string, seen map[uuid.UUID]bool, dryRun bool) (int, error) {
	rows, err := conn.Query(ctx, candidateQuery, pattern)
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	candidates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (candidate, error) {
		var c candidate
		err := row.Scan(&c.id, &c.name, &c.rules, &c.selectors, &c.templates)
		return c, err
	})
	if err != nil {
		return 0, fmt.Errorf("scan failed: %w", err)
	}

	var count int
	for _, c := range candidates {
		if seen[c.id] {
			continue
		}
		seen[c.id] = true

		if dryRun {
			fmt.Printf("  [%s] %q (%s) rules=%d selectors=%d templates=%d\n",
				pattern, truncate(c.name, 60), c.id, c.rules, c.selectors, c.templates)
			count++
			continue
		}

		// Re-check inside the delete so a brand that gained code meanwhile survives.
		result, err := conn.Exec(ctx, `
			DELETE FROM brands b
			WHERE b.id = $1
			  AND NOT EXISTS (SELECT 1 FROM generated_code g WHERE g.brand_id = b.id)
		`, c.id)
		if err != nil {
			return count, fmt.Errorf("delete of brand %s failed: %w", c.id, err)
		}
		count += int(result.RowsAffected())
	}

	switch {
	case len(candidates) == 0:
		fmt.Printf("  [%s] No matching brands\n", pattern)
	case !dryRun:
		fmt.Printf("Deleted %d brands matching pattern: %s\n", count, pattern)
	}
	return count, nil
}

func buildConnString() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "postgres")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvOrDefault("PGDATABASE", "safecode_engine")

	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
	if password != "" {
		connStr += fmt.Sprintf(" password=%s", password)
	}
	return connStr
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
