/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
)

// SQLFileInfo describes a SQL file executed by ScriptPatch.
type SQLFileInfo struct {
	Path  string
	Name  string
	Order int
}

var fileOrderPattern = regexp.MustCompile(`^(\d+)_`)

// ScriptPatch executes the .sql files found directly in dir of fsys. Files
// named NNN_comment.sql run in ascending NNN order, others after them by
// name. Each file runs in its own transaction.
func ScriptPatch(fsys fs.FS, dir string) Patch {
	return func(ctx context.Context, db *LiteDatabase) error {
		if fsys == nil {
			return fmt.Errorf("script patch: nil filesystem")
		}
		files, err := sqlFiles(fsys, dir)
		if err != nil {
			return fmt.Errorf("failed to get SQL files: %w", err)
		}
		for _, file := range files {
			rows, err := executeSQLFile(ctx, db.Bun(), fsys, file)
			if err != nil {
				return fmt.Errorf("SQL file execution failed %s: %w", file.Path, err)
			}
			if db.logger != nil {
				db.logger.Debug("SQL file executed successfully", "file", file.Path, "rows_affected", rows)
			}
		}
		return nil
	}
}

func sqlFiles(fsys fs.FS, dir string) ([]SQLFileInfo, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []SQLFileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		files = append(files, SQLFileInfo{
			Path:  path.Join(dir, e.Name()),
			Name:  e.Name(),
			Order: parseFileOrder(e.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func parseFileOrder(filename string) int {
	matches := fileOrderPattern.FindStringSubmatch(filename)
	if len(matches) > 1 {
		if order, err := strconv.Atoi(matches[1]); err == nil {
			return order
		}
	}
	return 999
}

func executeSQLFile(ctx context.Context, db *bun.DB, fsys fs.FS, file SQLFileInfo) (int64, error) {
	content, err := fs.ReadFile(fsys, file.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	statements := splitSQLStatements(string(content))
	if len(statements) == 0 {
		return 0, nil
	}

	var total int64
	err = db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			res, execErr := tx.ExecContext(ctx, stmt)
			if execErr != nil {
				return fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, execErr)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	return total, err
}

// splitSQLStatements splits a script into statements terminated by ';'.
// Semicolons inside string literals, comments, CASE expressions and trigger
// bodies do not end a statement. Comments are dropped.
func splitSQLStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		word       strings.Builder
		words      int
		depth      int
		trigger    bool
	)

	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		w := strings.ToUpper(word.String())
		word.Reset()
		words++
		switch {
		case w == "TRIGGER" && words <= 3:
			trigger = true
		case w == "CASE", w == "BEGIN" && trigger:
			depth++
		case w == "END" && depth > 0:
			depth--
		}
	}
	emit := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" && stmt != ";" {
			statements = append(statements, stmt)
		}
		current.Reset()
		words, depth, trigger = 0, 0, false
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '-' && i+1 < len(content) && content[i+1] == '-':
			flushWord()
			for i < len(content) && content[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			flushWord()
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				i = len(content)
			} else {
				i += end + 3
			}
			current.WriteByte(' ')
		case c == '\'' || c == '"' || c == '`' || c == '[':
			flushWord()
			j := closingQuote(content, i)
			current.WriteString(content[i:j])
			i = j - 1
		case isWordByte(c):
			word.WriteByte(c)
			current.WriteByte(c)
		case c == ';':
			flushWord()
			current.WriteByte(c)
			if depth == 0 {
				emit()
			}
		default:
			flushWord()
			current.WriteByte(c)
		}
	}
	flushWord()
	emit()
	return statements
}

// closingQuote returns the index just past the literal or quoted identifier
// starting at content[start]. Doubled quotes are escapes.
func closingQuote(content string, start int) int {
	closer := content[start]
	if closer == '[' {
		closer = ']'
	}
	for j := start + 1; j < len(content); j++ {
		if content[j] != closer {
			continue
		}
		if closer != ']' && j+1 < len(content) && content[j+1] == closer {
			j++
			continue
		}
		return j + 1
	}
	return len(content)
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
