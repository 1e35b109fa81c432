package credentials_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/blobkit/pkg/credentials"
)

func TestMask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short", "abc", "***"},
		{"boundary", "0123456789", "**********"},
		{"long", "0123456789abcdef", "012345******cdef"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, credentials.Mask(tt.secret))
		})
	}
}
