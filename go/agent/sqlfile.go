/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"os"
	"strings"

	"github.com/mariadbmon/clustermon/go/base"
)

// readSQLFileStatements reads a demotion_sql_file/promotion_sql_file,
// splitting it on ';' terminated lines (spec §4.4's "run optional
// demotion_sql_file/promotion_sql_file" -- the source format is a flat
// list of statements, not a full SQL script with delimiters).
func readSQLFileStatements(path string) ([]string, error) {
	if !base.FileExists(path) {
		return nil, fmt.Errorf("sql file %q does not exist", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var statements []string
	for _, part := range strings.Split(string(raw), ";") {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}
