package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaintedXObjects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"single", "q 100 0 0 100 0 0 cm /Im0 Do Q", []string{"Im0"}},
		{"order", "/B Do\n/A Do /B Do", []string{"B", "A", "B"}},
		{"no whitespace before name", "q/Im1 Do Q", []string{"Im1"}},
		{"escaped name", "/Im#20x Do", []string{"Im x"}},
		{"comment", "% /Fake Do\n/Real Do", []string{"Real"}},
		{"string", "BT (/Fake Do \\) (nested)) Tj ET /Real Do", []string{"Real"}},
		{"hex string", "<2F46616B6520446F> Tj /Real Do", []string{"Real"}},
		{"operator between", "/Im0 gs Do", nil},
		{"marked content dict", "/P <</MCID 0>> BDC /Im2 Do EMC", []string{"Im2"}},
		{"inline image", "BI /W 2 /H 1 /BPC 8 /CS /G ID \x00/X Do EI /Im3 Do", []string{"Im3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paintedXObjects([]byte(tt.content)))
		})
	}
}

func TestDecodeName(t *testing.T) {
	assert.Equal(t, "Im0", decodeName([]byte("Im0")))
	assert.Equal(t, "Im 1", decodeName([]byte("Im#201")))
	assert.Equal(t, "Im#2", decodeName([]byte("Im#2")), "truncated escape keeps the raw token")
}

func TestDecodeHex(t *testing.T) {
	got, err := decodeHex("FF 00\n1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00, 0x10}, got)

	_, err = decodeHex("zz")
	assert.Error(t, err)
}
