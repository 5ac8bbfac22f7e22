package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseHeader(t *testing.T) {
	t.Run("parses simple header", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("order_date,affiliate_name\n2024-01-01,Jane"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())

		assert.Equal(t, []string{"order_date", "affiliate_name"}, p.Headers())
		assert.True(t, p.HasHeader("order_date"))
		assert.False(t, p.HasHeader("missing"))
	})

	t.Run("strips UTF-8 BOM", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("order_date,affiliate_name\n")...)
		p, err := ParseBytes(data)
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())

		assert.True(t, p.HasHeader("order_date"))
	})

	t.Run("skips comment lines before header", func(t *testing.T) {
		input := "# commission upload template\n# fill in one row per order range\norder_date,affiliate_name\n"
		p, err := NewParser(strings.NewReader(input))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())

		assert.True(t, p.HasHeader("affiliate_name"))
	})

	t.Run("empty file fails", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding fails", func(t *testing.T) {
		_, err := ParseBytes([]byte{0xFF, 0xFE, 0x00, 0x41})
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("file without header fails", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("# only comments\n"))
		require.NoError(t, err)
		assert.ErrorIs(t, p.ParseHeader(), ErrMissingHeader)
	})

	t.Run("reports missing required headers", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("order_date,affiliate_name\n"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())

		missing := p.MissingHeaders([]string{"order_date", "commission_type", "order_number_range"})
		assert.Equal(t, []string{"commission_type", "order_number_range"}, missing)
	})
}

func TestParser_ReadRow(t *testing.T) {
	t.Run("reads rows keyed by header", func(t *testing.T) {
		input := "order_date,affiliate_name,invoice_total\n2024-01-01,Jane Doe,100.50\n2024-01-02,Bob,200\n"
		p, err := NewParser(strings.NewReader(input))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())

		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, 2, row.LineNumber)
		assert.Equal(t, "Jane Doe", row.Get("affiliate_name"))
		assert.Equal(t, "100.50", row.Get("invoice_total"))

		row, err = p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Bob", row.Get("affiliate_name"))

		_, err = p.ReadRow()
		assert.Equal(t, io.EOF, err)
		assert.Equal(t, 2, p.RowsRead())
	})

	t.Run("skips blank and comment rows", func(t *testing.T) {
		input := "order_date,affiliate_name\n,,\n# note\n2024-01-01,Jane\n"
		p, err := NewParser(strings.NewReader(input))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())

		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Jane", row.Get("affiliate_name"))
		assert.Equal(t, 1, p.RowsRead())
	})

	t.Run("pads short rows with empty values", func(t *testing.T) {
		input := "order_date,affiliate_name,invoice_total\n2024-01-01,Jane\n"
		p, err := NewParser(strings.NewReader(input))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())

		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "", row.Get("invoice_total"))
		assert.Equal(t, "2024-01-01", row.GetOrDefault("order_date", "n/a"))
		assert.Equal(t, "n/a", row.GetOrDefault("invoice_total", "n/a"))
	})
}
