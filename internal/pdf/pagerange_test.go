package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name        string
		pageRange   string
		want        []int
		expectError bool
	}{
		{name: "empty range returns nil", pageRange: "", want: nil},
		{name: "single page", pageRange: "1", want: []int{1}},
		{name: "multiple single pages", pageRange: "1,3,5", want: []int{1, 3, 5}},
		{name: "simple range", pageRange: "1-5", want: []int{1, 2, 3, 4, 5}},
		{name: "mixed pages and ranges", pageRange: "1,3-5,7", want: []int{1, 3, 4, 5, 7}},
		{name: "range with spaces", pageRange: " 1 - 3 , 5 ", want: []int{1, 2, 3, 5}},
		{name: "overlapping ranges", pageRange: "1-3,2-4", want: []int{1, 2, 3, 4}},
		{name: "invalid page number", pageRange: "abc", expectError: true},
		{name: "invalid range format", pageRange: "1-2-3", expectError: true},
		{name: "start greater than end", pageRange: "5-1", expectError: true},
		{name: "zero page", pageRange: "0", expectError: true},
		{name: "only commas", pageRange: ",,", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageRange(tt.pageRange)
			if tt.expectError {
				assert.Error(t, err)
				assert.Error(t, ValidatePageRange(tt.pageRange))
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Len(t, got, len(tt.want))
			for _, p := range tt.want {
				assert.True(t, got[p], "page %d", p)
			}
		})
	}
}

func TestIsEncryptionError(t *testing.T) {
	assert.False(t, isEncryptionError(nil))
	assert.False(t, isEncryptionError(assert.AnError))
	assert.True(t, isEncryptionError(errString("file is encrypted")))
	assert.True(t, isEncryptionError(errString("wrong Password")))
	assert.True(t, isEncryptionError(errString("failed to decrypt")))
}

type errString string

func (e errString) Error() string { return string(e) }

func TestPasswordCredentialsEmpty(t *testing.T) {
	var nilCreds *PasswordCredentials
	assert.True(t, nilCreds.Empty())
	assert.True(t, (&PasswordCredentials{}).Empty())
	assert.False(t, (&PasswordCredentials{OwnerPassword: "x"}).Empty())

	cfg := readConfiguration(&PasswordCredentials{UserPassword: "u", OwnerPassword: "o"})
	assert.Equal(t, "u", cfg.UserPW)
	assert.Equal(t, "o", cfg.OwnerPW)
}
