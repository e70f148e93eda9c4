package migrate

import (
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	script := `create table a (id text);
insert into a values ('x;y');
create index a_idx on a (id);`

	stmts := splitStatements(script)
	if len(stmts) != 3 {
		t.Fatalf("split into %d statements: %q", len(stmts), stmts)
	}
	if !strings.Contains(stmts[1], `('x;y');`) {
		t.Fatalf("semicolon inside string literal split: %q", stmts[1])
	}
}
