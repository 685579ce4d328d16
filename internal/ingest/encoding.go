package ingest

import (
	"io"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// minDetectConfidence is how sure the statistical detector must be before
// its non-UTF-8 guess is accepted. Below this the decoder falls back to
// UTF-8.
const minDetectConfidence = 0.7

// encodingSampleSize bounds how much of the input is inspected for charset
// detection. Detection runs once per load, on the first chunk.
const encodingSampleSize = 4096

// DetectEncoding picks a text encoding for the sample. BOM-carrying
// detections are trusted outright. Otherwise the sample's non-ASCII bytes
// are scored against UTF-8: when at least minDetectConfidence of them fail
// to form valid UTF-8 sequences the statistical charset guess (typically a
// single-byte legacy encoding) is accepted, else the sample is treated as
// UTF-8.
func DetectEncoding(sample []byte) (encoding.Encoding, string) {
	if len(sample) == 0 {
		return unicode.UTF8, "utf-8"
	}
	if len(sample) > encodingSampleSize {
		sample = sample[:encodingSampleSize]
	}

	enc, name, certain := charset.DetermineEncoding(sample, "")
	if certain {
		return enc, name
	}

	if legacyConfidence(sample) >= minDetectConfidence {
		return enc, name
	}
	return unicode.UTF8, "utf-8"
}

// DecodeReader wraps r so reads yield UTF-8, decoding from the encoding
// detected on sample. Any byte-order mark is stripped during transcoding.
func DecodeReader(r io.Reader, sample []byte) (io.Reader, string) {
	enc, name := DetectEncoding(sample)
	if name == "utf-8" {
		return r, name
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), name
}

// legacyConfidence scores how strongly the sample's non-ASCII bytes suggest
// a single-byte legacy encoding: the fraction of high bytes that do not
// participate in a valid UTF-8 sequence. An all-ASCII sample scores 0. A
// rune truncated by the sample boundary is not counted against UTF-8.
func legacyConfidence(sample []byte) float64 {
	highTotal := 0
	highInvalid := 0

	i := 0
	for i < len(sample) {
		b := sample[i]
		if b < utf8.RuneSelf {
			i++
			continue
		}

		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size == 1 {
			if len(sample)-i < utf8.UTFMax && !utf8.FullRune(sample[i:]) {
				// Multibyte rune cut off by the sample edge.
				break
			}
			highTotal++
			highInvalid++
			i++
			continue
		}

		highTotal += size
		i += size
	}

	if highTotal == 0 {
		return 0
	}
	return float64(highInvalid) / float64(highTotal)
}
