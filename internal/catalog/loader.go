package catalog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"carpet-quiz-service/internal/domain"
)

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Loader fetches catalog content from a backing source (directory, database).
type Loader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

// DirLoader builds a catalog from a directory of carpet images. File names
// encode `<group>-<areaType>-<subArea>` with `-` as the delimiter; the area
// type must be one of the closed vocabulary in domain.AreaTypes. A sibling
// `<base>.txt` file, when present, supplies the item description.
type DirLoader struct {
	dir  string
	logf func(format string, args ...any)
}

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir, logf: log.Printf}
}

func (l *DirLoader) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("%w: %v", domain.ErrCatalogUnreadable, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := imageExts[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	catalog := domain.Catalog{}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		item, ok := parseBaseName(base)
		if !ok {
			l.logf("catalog: skipping %q: no area type token in name", name)
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		item.ImagePath = name
		if desc, err := os.ReadFile(filepath.Join(l.dir, base+".txt")); err == nil {
			item.Description = strings.TrimSpace(string(desc))
		}
		catalog.Items = append(catalog.Items, item)
	}

	if catalog.Len() == 0 {
		return domain.Catalog{}, fmt.Errorf("%w: %s", domain.ErrCatalogEmpty, l.dir)
	}
	return catalog, nil
}

// parseBaseName decomposes `group-areaType-subArea`. The first token (left
// to right) that belongs to the area vocabulary is the type tag; everything
// before it is the group identifier, everything after it the sub-area.
func parseBaseName(base string) (domain.QuizItem, bool) {
	tokens := strings.Split(base, "-")
	tag := -1
	for i, token := range tokens {
		if domain.IsAreaType(strings.ToLower(token)) {
			tag = i
			break
		}
	}
	if tag <= 0 {
		// No vocabulary token, or nothing before it to name the group.
		return domain.QuizItem{}, false
	}

	group := tokens[:tag]
	return domain.QuizItem{
		ID:             base,
		PrimaryLabel:   titleCase(group),
		SecondaryLabel: strings.ToLower(tokens[tag]),
		SubArea:        strings.Join(tokens[tag+1:], "-"),
	}, true
}

func titleCase(words []string) string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		out = append(out, strings.ToUpper(word[:1])+word[1:])
	}
	return strings.Join(out, " ")
}

// StaticLoader serves a fixed catalog (useful for tests and demos).
type StaticLoader struct {
	catalog domain.Catalog
}

func NewStaticLoader(catalog domain.Catalog) *StaticLoader {
	return &StaticLoader{catalog: catalog}
}

func (l *StaticLoader) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	if l.catalog.Len() == 0 {
		return domain.Catalog{}, domain.ErrCatalogEmpty
	}
	return l.catalog, nil
}
