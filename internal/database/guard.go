// ABOUTME: Read-only guard for ad-hoc SQL and automatic row limits.
// ABOUTME: Comments are stripped before scanning for statements that could write.

package database

import (
	"fmt"
	"regexp"
	"strings"
)

// Row limits for the query tool.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var (
	limitClause = regexp.MustCompile(`(?i)\bLIMIT\b`)
	identifier  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// writeKeywords are rejected anywhere in a statement, as whole words.
	writeKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|REPLACE|GRANT|REVOKE|EXEC|EXECUTE|ATTACH|DETACH|PRAGMA|VACUUM|REINDEX)\b`)
)

// StripComments removes -- line comments and /* */ block comments. Quoted
// strings and identifiers are copied through untouched.
func StripComments(sql string) string {
	return scrub(sql, true)
}

// IsReadOnly reports whether sql contains no write or administrative keywords.
// It errs on the side of rejection: a keyword inside a string literal also fails.
func IsReadOnly(sql string) bool {
	return !writeKeywords.MatchString(StripComments(sql))
}

// ApplyLimit appends LIMIT n unless the statement already has a LIMIT clause.
// The suffix goes on its own line so a trailing line comment cannot swallow it.
func ApplyLimit(sql string, n int) string {
	sql = strings.TrimSpace(sql)
	if limitClause.MatchString(scrub(sql, false)) {
		return sql
	}
	sql = strings.TrimRight(sql, " \t\r\n;")
	return fmt.Sprintf("%s\nLIMIT %d", sql, n)
}

// scrub drops comments from sql. With keepQuoted unset, quoted spans are
// replaced by an empty literal so keyword scans cannot match inside them.
func scrub(sql string, keepQuoted bool) string {
	var b strings.Builder
	b.Grow(len(sql))
	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			end := closingQuote(sql, i)
			if keepQuoted {
				b.WriteString(sql[i:end])
			} else {
				b.WriteByte(c)
				b.WriteByte(c)
			}
			i = end
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			nl := strings.IndexByte(sql[i:], '\n')
			if nl < 0 {
				i = len(sql)
			} else {
				i += nl
			}
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			b.WriteByte(' ')
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				i = len(sql)
			} else {
				i += end + 4
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// closingQuote returns the index just past the quoted span opened at
// sql[start]. A doubled quote character is an escape, not the end.
func closingQuote(sql string, start int) int {
	q := sql[start]
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != q {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(sql)
}

// ClampLimit bounds a requested row limit to [1, MaxLimit].
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// ValidIdentifier reports whether name is a plain SQL identifier.
func ValidIdentifier(name string) bool {
	return identifier.MatchString(name)
}

// quoteIdent double-quotes a validated identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
