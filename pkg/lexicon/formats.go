package lexicon

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat identifies an on-disk lexicon layout.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatSQLite             // dictionary and phrase tables
	FormatText               // entry<TAB>count<TAB>variety[<TAB>explanation] lines
)

// FormatInfo contains metadata about a lexicon file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64
}

var sqliteMagic = []byte("SQLite format 3\x00")

var supportedFormats = map[FileFormat]FormatInfo{
	FormatSQLite: {
		Format:      FormatSQLite,
		Description: "SQLite Lexicon",
		Extensions:  []string{".db", ".sqlite", ".sqlite3"},
		MinSize:     int64(len(sqliteMagic)),
	},
	FormatText: {
		Format:      FormatText,
		Description: "Tab Separated Lexicon",
		Extensions:  []string{".txt", ".tsv"},
		MinSize:     0,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expected FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	formatInfo, ok := supportedFormats[expected]
	if !ok {
		return fmt.Errorf("unknown format: %v", expected)
	}
	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	switch expected {
	case FormatSQLite:
		return validateSQLiteHeader(filename)
	case FormatText:
		return validateTextFormat(filename)
	}
	return nil
}

func validateSQLiteHeader(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if !bytes.Equal(header, sqliteMagic) {
		return fmt.Errorf("%s is not a SQLite database", filename)
	}
	log.Debugf("SQLite file %s validated", filename)
	return nil
}

func validateTextFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read from text file %s: %w", filename, err)
	}
	if bytes.IndexByte(buffer[:n], 0) >= 0 {
		return fmt.Errorf("%s looks binary", filename)
	}
	log.Debugf("Text file %s validated", filename)
	return nil
}

// DetectFileFormat picks a format by extension first, then by content.
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range []FileFormat{FormatSQLite, FormatText} {
		for _, e := range supportedFormats[f].Extensions {
			if ext == e {
				if err := ValidateFileFormat(filename, f); err != nil {
					return FormatUnknown, err
				}
				return f, nil
			}
		}
	}
	if ValidateFileFormat(filename, FormatSQLite) == nil {
		return FormatSQLite, nil
	}
	if ValidateFileFormat(filename, FormatText) == nil {
		return FormatText, nil
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}
