package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sampleSize is how much input the detector inspects
const sampleSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader detects the encoding of the input and returns a reader
// that decodes the content to UTF-8.
//
// Detection order:
//  1. Check for BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Validate if the content is valid UTF-8 and return as-is
//  3. Heuristic detection via chardet
//  4. Fallback to Windows-1252
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	// Peek past the sample so a rune straddling its end is seen whole.
	br := bufio.NewReaderSize(r, sampleSize+utf8.UTFMax)

	buf, err := br.Peek(sampleSize + utf8.UTFMax - 1)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if bytes.HasPrefix(buf, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	}

	if bytes.HasPrefix(buf, bomUTF16LE) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), nil
	}

	if bytes.HasPrefix(buf, bomUTF16BE) {
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), nil
	}

	window := buf
	if err == nil {
		window = trimIncompleteRune(buf)
	}
	if utf8.Valid(window) {
		return br, nil
	}

	detector := chardet.NewTextDetector()

	result, detectErr := detector.DetectBest(buf)
	if detectErr == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-1", "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
		case "ISO-8859-15":
			return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// HasUTF16BOM reports whether data starts with a UTF-16 byte order mark
func HasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE)
}

// trimIncompleteRune drops a multi-byte sequence cut off at the end of a
// full peek window.
func trimIncompleteRune(buf []byte) []byte {
	for n := 1; n < utf8.UTFMax && n <= len(buf); n++ {
		i := len(buf) - n
		if !utf8.RuneStart(buf[i]) {
			continue
		}
		if !utf8.FullRune(buf[i:]) {
			return buf[:i]
		}
		return buf
	}
	return buf
}

// ToUTF8 is NewUTF8Reader for in-memory content
func ToUTF8(data []byte) ([]byte, error) {
	r, err := NewUTF8Reader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// CharsetReader satisfies xml.Decoder.CharsetReader. Content that is
// already valid UTF-8 is passed through regardless of the declared label,
// since callers may have transcoded it without rewriting the prolog.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("read %s input: %w", label, err)
	}
	if utf8.Valid(data) {
		return bytes.NewReader(data), nil
	}

	enc, err := ianaindex.IANA.Encoding(strings.ToLower(label))
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return transform.NewReader(bytes.NewReader(data), enc.NewDecoder()), nil
}
