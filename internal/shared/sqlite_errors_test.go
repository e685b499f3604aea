package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsSQLiteConflictErrorFromMessage(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("SQLITE_BUSY: database busy"), true},
		{fmt.Errorf("update session: %w", errors.New("database is locked")), true},
		{errors.New("no such table: sessions"), false},
	}
	for _, tt := range tests {
		if got := IsSQLiteConflictError(tt.err); got != tt.want {
			t.Errorf("IsSQLiteConflictError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
