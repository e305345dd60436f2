package lexicon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// LoadText reads a tab separated lexicon. Each line is entry, count, variety
// and an optional explanation; missing or malformed stats read as 0. Entries containing whitespace
// are phrases. Blank lines and lines starting with '#' are skipped.
func LoadText(r io.Reader) (words, phrases []Entry, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		key := PhraseKey(fields[0])
		if key == "" {
			log.Debugf("Skipping line %d: empty entry", lineNo)
			continue
		}
		e := Entry{Key: key, Count: statField(fields, 1), Variety: statField(fields, 2)}
		if len(fields) > 3 {
			e.Explanation = strings.TrimSpace(strings.Join(fields[3:], "\t"))
		}
		if strings.Contains(key, " ") {
			phrases = append(phrases, e)
		} else {
			words = append(words, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading line %d: %w", lineNo+1, err)
	}
	return words, phrases, nil
}

func statField(fields []string, i int) int {
	if i >= len(fields) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
	if err != nil {
		return 0
	}
	return n
}

// LoadFile fills mem from a lexicon file in any supported format.
func LoadFile(ctx context.Context, path string, mem *Memory) error {
	format, err := DetectFileFormat(path)
	if err != nil {
		return err
	}
	log.Debugf("Loading %s lexicon from %s", format, path)

	switch format {
	case FormatSQLite:
		store, err := OpenSQL(path, mem.CaseMode())
		if err != nil {
			return err
		}
		defer store.Close()
		return store.LoadInto(ctx, mem)
	case FormatText:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		words, phrases, err := LoadText(f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		mem.Replace(words, phrases)
		return nil
	}
	return fmt.Errorf("unsupported lexicon format for %s", path)
}
