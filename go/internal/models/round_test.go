package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound_IsLast(t *testing.T) {
	tests := []struct {
		name        string
		number      int
		totalRounds int
		want        bool
	}{
		{name: "first of ten", number: 1, totalRounds: TotalRounds, want: false},
		{name: "tenth of ten", number: 10, totalRounds: TotalRounds, want: true},
		{name: "second of three", number: 2, totalRounds: 3, want: false},
		{name: "third of three", number: 3, totalRounds: 3, want: true},
		{name: "stale round past the end", number: 4, totalRounds: 3, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Round{Number: tt.number}
			assert.Equal(t, tt.want, r.IsLast(tt.totalRounds))
		})
	}
}
