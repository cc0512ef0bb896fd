// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/store?sslmode=disable", "pgx5://u:p@localhost:5432/store?sslmode=disable"},
		{"postgresql://u@db/store", "pgx5://u@db/store"},
		{"pgx5://u@db/store", "pgx5://u@db/store"},
		{"host=db user=u", "host=db user=u"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5DSN(tt.in))
		})
	}
}

func TestRunUp_BadSource(t *testing.T) {
	err := RunUp("postgres://u@127.0.0.1:1/none", t.TempDir()+"/missing", nil)
	assert.ErrorContains(t, err, "failed to initialize")
}
