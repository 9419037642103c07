package store

import "testing"

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       string
		statements int
	}{
		{"no params", "SELECT 1", "SELECT 1", 1},
		{"dollar params", "SELECT * FROM t WHERE a = $1 AND b = $2", "SELECT * FROM t WHERE a = ?1 AND b = ?2", 1},
		{"multi digit", "SELECT $10", "SELECT ?10", 1},
		{"single quotes untouched", "SELECT '$1' , $1", "SELECT '$1' , ?1", 1},
		{"escaped quote", "SELECT 'it''s $1', $2", "SELECT 'it''s $1', ?2", 1},
		{"double quoted identifier", `SELECT "$1" FROM t`, `SELECT "$1" FROM t`, 1},
		{"bracket identifier", "SELECT [$1] FROM t", "SELECT [$1] FROM t", 1},
		{"line comment", "SELECT 1 -- $1 ; x\n, $1", "SELECT 1 -- $1 ; x\n, ?1", 1},
		{"block comment", "SELECT /* $1; */ $1", "SELECT /* $1; */ ?1", 1},
		{"bare dollar", "SELECT '$' || $a", "SELECT '$' || $a", 1},
		{"dollar inside identifier", "SELECT a$1 FROM t WHERE b = $1", "SELECT a$1 FROM t WHERE b = ?1", 1},
		{"identifier ending in digits", "SELECT col_2$3, x$$1", "SELECT col_2$3, x$$1", 1},
		{"after punctuation", "SELECT ($1),$2+$3", "SELECT (?1),?2+?3", 1},
		{"at start", "$1", "?1", 1},
		{"two statements", "SELECT 1; SELECT 2", "SELECT 1; SELECT 2", 2},
		{"trailing semicolon", "SELECT 1;  ", "SELECT 1;  ", 1},
		{"semicolon in string", "SELECT ';'", "SELECT ';'", 1},
		{"empty", "", "", 0},
		{"only comments", "-- hi\n/* there */", "-- hi\n/* there */", 0},
		{"only semicolons", " ; ; ", " ; ; ", 0},
		{"unterminated string", "SELECT 'abc", "SELECT 'abc", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := rewritePlaceholders(tt.in)
			if got != tt.want {
				t.Errorf("rewritePlaceholders(%q) text = %q, want %q", tt.in, got, tt.want)
			}
			if n != tt.statements {
				t.Errorf("rewritePlaceholders(%q) statements = %d, want %d", tt.in, n, tt.statements)
			}
		})
	}
}
