package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPostgresParams(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"UPDATE T SET A = ? WHERE B = ?", "UPDATE T SET A = $1 WHERE B = $2"},
		{"SELECT * FROM T WHERE S = 'why?' AND ID = ?", "SELECT * FROM T WHERE S = 'why?' AND ID = $1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvertToPostgresParams(tt.in))
	}
}
