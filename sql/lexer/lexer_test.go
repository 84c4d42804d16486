package lexer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{"simple select", "SELECT * FROM city", []Token{"SELECT", "*", "FROM", "city"}},
		{"comparison ops", "a >= 1 AND b <= 2", []Token{"a", ">=", "1", "AND", "b", "<=", "2"}},
		{"not equal variants", "a != 1 OR b <> 2", []Token{"a", "!=", "1", "OR", "b", "<>", "2"}},
		{"quoted string", "name = 'A%'", []Token{"name", "=", "'A%'"}},
		{"double quoted string", `name = "A B"`, []Token{"name", "=", `"A B"`}},
		{"doubled quote embeds quote", "name = 'it''s'", []Token{"name", "=", "'it's'"}},
		{"paren and comma", "f(a,b)", []Token{"f", "(", "a", ",", "b", ")"}},
		{"unterminated string tolerated", "name = 'abc", []Token{"name", "=", "'abc'"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
