package ingest

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncodingUTF8(t *testing.T) {
	_, name := DetectEncoding([]byte("#EXTM3U\n#EXTINF:-1,Café TV\nhttp://x/s.ts\n"))
	assert.Equal(t, "utf-8", name)
}

func TestDetectEncodingASCII(t *testing.T) {
	_, name := DetectEncoding([]byte("#EXTM3U\n#EXTINF:-1,Plain\nhttp://x/s.ts\n"))
	assert.Equal(t, "utf-8", name)
}

func TestDetectEncodingUTF8BOM(t *testing.T) {
	sample := append([]byte{0xef, 0xbb, 0xbf}, []byte("#EXTM3U\n")...)
	_, name := DetectEncoding(sample)
	assert.Equal(t, "utf-8", name)
}

func TestDetectEncodingUTF16BOM(t *testing.T) {
	sample := []byte{0xff, 0xfe, '#', 0, 'E', 0, 'X', 0, 'T', 0}
	_, name := DetectEncoding(sample)
	assert.Equal(t, "utf-16le", name)
}

func TestDetectEncodingEmptySample(t *testing.T) {
	_, name := DetectEncoding(nil)
	assert.Equal(t, "utf-8", name)
}

func TestDetectEncodingLatin1(t *testing.T) {
	// Latin-1 accented letters are invalid as UTF-8 sequences.
	sample := []byte("#EXTM3U\n#EXTINF:-1,T\xe9l\xe9 Cinq\nhttp://x/s.ts\n")
	_, name := DetectEncoding(sample)
	assert.NotEqual(t, "utf-8", name, "legacy high bytes select the charset guess")
}

func TestDecodeReaderUTF8Passthrough(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1,Café\nhttp://x/s.ts\n"
	r, name := DecodeReader(strings.NewReader(content), []byte(content))
	require.Equal(t, "utf-8", name)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(out))
}

func TestDecodeReaderUTF16(t *testing.T) {
	// "#EXTM3U\n" as UTF-16LE with BOM.
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xfe})
	for _, c := range "#EXTM3U\n" {
		buf.WriteByte(byte(c))
		buf.WriteByte(0)
	}

	sample := buf.Bytes()
	r, name := DecodeReader(bytes.NewReader(sample), sample)
	require.Equal(t, "utf-16le", name)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n", string(out))
}

func TestDecodeReaderLatin1(t *testing.T) {
	raw := []byte("T\xe9l\xe9 Cinq")
	r, name := DecodeReader(bytes.NewReader(raw), raw)
	require.NotEqual(t, "utf-8", name)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Télé Cinq", string(out))
}

func TestLegacyConfidence(t *testing.T) {
	assert.Equal(t, 0.0, legacyConfidence([]byte("plain ascii")))
	assert.Equal(t, 0.0, legacyConfidence([]byte("café")))

	// Truncated multibyte rune at the sample edge is not penalized.
	full := []byte("café")
	assert.Equal(t, 0.0, legacyConfidence(full[:len(full)-1]))

	assert.Equal(t, 1.0, legacyConfidence([]byte("T\xe9l\xe9")))
}
