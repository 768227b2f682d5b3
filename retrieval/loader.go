package retrieval

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir walks docsFolder, chunks every .txt and .md file, and adds the
// chunks to idx. It returns the number of chunks indexed.
func LoadDir(idx Index, chunker *Chunker, docsFolder string) (int, error) {
	if docsFolder == "" {
		return 0, fmt.Errorf("docs folder is empty")
	}

	total := 0
	err := filepath.WalkDir(docsFolder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		for i, piece := range chunker.Split(string(data)) {
			if err := idx.Add(Chunk{
				ID:     fmt.Sprintf("%s#%d", filepath.Base(path), i),
				Source: path,
				Text:   piece,
			}); err != nil {
				return err
			}
			total++
		}

		return nil
	})
	if err != nil {
		return total, err
	}

	return total, nil
}
