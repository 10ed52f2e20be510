package model

import "testing"

// TestValidEntityName проверяет правила имён исполнителей и категорий:
// от 1 до 20 символов, только буквы и пробелы.
func TestValidEntityName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"Alice", true},
		{"Bob", true},
		{"Анна Петрова", true},
		{"Jean Luc", true},
		{"", false},
		{"123", false},
		{"Alice2", false},
		{"name-with-dash", false},
		{"name.dot", false},
		{"This Name Is Way Too Long To Pass", false},
	}

	for _, tt := range tests {
		if got := ValidEntityName(tt.name); got != tt.valid {
			t.Errorf("ValidEntityName(%q) = %v, ожидалось %v", tt.name, got, tt.valid)
		}
	}
}
