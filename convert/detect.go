package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	fixzip "github.com/hidez8891/zip"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// how much of the file is looked at when deciding its type
const sniffLen = 1024

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

var htmlType = filetype.NewType("html", "text/html")

func init() {
	filetype.AddMatcher(htmlType, htmlMatcher)
}

// htmlMatcher recognizes documents which start with html markup possibly
// preceded by BOM, xml declaration, doctype or comments.
func htmlMatcher(buf []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(toUTF8(buf, detectUTF(buf)))))
	for _, prefix := range []string{"<!doctype html", "<html", "<head", "<body"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	if strings.HasPrefix(head, "<?xml") || strings.HasPrefix(head, "<!--") || strings.HasPrefix(head, "<!doctype") {
		return strings.Contains(head, "<html")
	}
	return false
}

// toUTF8 converts sniffed head of the file, broken trailing character is
// of no importance here.
func toUTF8(buf []byte, enc srcEncoding) []byte {
	var dec io.Reader
	switch enc {
	case encUnknown:
		return buf
	case encUTF8:
		return buf[3:]
	default:
		dec = selectReader(bytes.NewReader(buf), enc)
	}
	out, _ := io.ReadAll(dec)
	return out
}

func isHTMLExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml", ".shtml":
		return true
	}
	return false
}

// isArchiveFile checks if file is zip archive. Word documents are zip
// archives too, they are never treated as input.
func isArchiveFile(path string) (bool, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return false, nil
	}
	buf, err := readHead(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(buf, "zip"), nil
}

// isHTMLFile checks if file is HTML document either by extension or by
// content and detects its unicode encoding by BOM.
func isHTMLFile(path string) (bool, srcEncoding, error) {
	buf, err := readHead(path)
	if err != nil {
		return false, encUnknown, err
	}
	return isHTML(path, buf)
}

// isHTMLInArchive is isHTMLFile for archive entry.
func isHTMLInArchive(f *fixzip.File) (bool, srcEncoding, error) {
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, encUnknown, fmt.Errorf("unable to read %s: %w", f.Name, err)
	}
	return isHTML(f.Name, buf[:n])
}

func isHTML(name string, buf []byte) (bool, srcEncoding, error) {
	enc := detectUTF(buf)
	if isHTMLExt(name) {
		return true, enc, nil
	}
	if len(buf) == 0 {
		return false, enc, nil
	}
	kind, err := filetype.Match(buf)
	if err != nil {
		return false, encUnknown, err
	}
	return kind == htmlType, enc, nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

// selectReader returns UTF-8 reader for source. Without BOM encoding is
// taken from meta tags, defaulting to windows-1252 as browsers do.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		cr, err := charset.NewReader(r, "text/html")
		if err != nil {
			return r
		}
		return cr
	case encUTF8:
		return unicode.UTF8BOM.NewDecoder().Reader(r)
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	}
	// this should never happen
	panic(fmt.Sprintf("unknown source encoding %d", enc))
}
