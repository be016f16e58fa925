// Package preprocess implements spec.md §4.1: textual merge of source
// units through `include "path";` directives, with cycle suppression by
// canonical path.
//
// No analogue of this concern exists elsewhere in the pack (nothing has
// an include directive), so this package is new; its scanning idiom
// (forward byte scan, ident/quote recognition, errors.Wrap at each
// recursion level) is grounded on compiler/front/parse.go's `next`
// tokenizer, the closest thing the pack has to raw byte scanning.
package preprocess

import (
	"context"
	"os"
	"path/filepath"

	"github.com/olang-dev/olang/compiler/set"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

const directive = `include "`

type (
	// Preprocessor holds the cycle-suppression state for one compilation.
	// Canonical paths are interned to small integers and membership is
	// tracked in a set.Bitmap rather than a map[string]bool.
	Preprocessor struct {
		id   map[string]int
		seen set.Bitmap
	}
)

func New() *Preprocessor {
	return &Preprocessor{
		id:   make(map[string]int),
		seen: set.MakeBitmap(64),
	}
}

// ProcessFile reads the root source file and resolves every `include`
// directive it (transitively) contains into a single text.
func ProcessFile(ctx context.Context, path string) ([]byte, error) {
	return New().ProcessFile(ctx, path)
}

func (p *Preprocessor) ProcessFile(ctx context.Context, path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve path %q", path)
	}

	text, err := os.ReadFile(abs)
	if err != nil {
		tlog.SpanFromContext(ctx).Printw("include read error", "path", abs, "err", err, "from", loc.Callers(1, 3))
		return nil, errors.Wrap(err, "read root file %q", path)
	}

	p.markSeen(abs)

	return p.expand(ctx, filepath.Dir(abs), text)
}

// expand scans text forward for `include "..."` directives, splicing in
// the processed contents of each referenced file in place of the
// directive (spec.md §4.1's algorithm).
func (p *Preprocessor) expand(ctx context.Context, dir string, text []byte) ([]byte, error) {
	out := make([]byte, 0, len(text))

	i := 0
	for {
		j := indexFrom(text, i, directive)
		if j < 0 {
			out = append(out, text[i:]...)
			break
		}

		out = append(out, text[i:j]...)

		pathStart := j + len(directive)
		pathEnd := indexByte(text, pathStart, '"')
		if pathEnd < 0 {
			// Malformed: no closing quote. Tolerate as pass-through
			// (spec.md §4.1: "tolerating malformed input as pass-through").
			out = append(out, text[j:]...)
			break
		}

		relPath := string(text[pathStart:pathEnd])

		termEnd := indexByte(text, pathEnd+1, ';')
		if termEnd < 0 {
			// No terminating ';': leave the scan position past the
			// closing quote and continue, per spec.md §4.1.
			out = append(out, text[j:pathEnd+1]...)
			i = pathEnd + 1
			continue
		}

		sub, err := p.include(ctx, dir, relPath)
		if err != nil {
			return nil, errors.Wrap(err, "include %q", relPath)
		}

		out = append(out, sub...)
		i = termEnd + 1
	}

	return out, nil
}

func (p *Preprocessor) include(ctx context.Context, dir, relPath string) ([]byte, error) {
	abs, err := filepath.Abs(filepath.Join(dir, relPath))
	if err != nil {
		return nil, errors.Wrap(err, "resolve %q", relPath)
	}

	if p.isSeen(abs) {
		tlog.SpanFromContext(ctx).Printw("include cycle suppressed", "path", abs)
		return nil, nil
	}

	p.markSeen(abs)

	text, err := os.ReadFile(abs)
	if err != nil {
		tlog.SpanFromContext(ctx).Printw("include read error", "path", abs, "err", err, "from", loc.Callers(1, 3))
		// spec.md §4.1: "On file-open failure, emit a diagnostic and
		// substitute empty text." This is the one error kind the
		// preprocessor recovers from locally (spec.md §7).
		return nil, nil
	}

	return p.expand(ctx, filepath.Dir(abs), text)
}

func (p *Preprocessor) markSeen(canonical string) {
	p.seen.Set(p.internID(canonical))
}

func (p *Preprocessor) isSeen(canonical string) bool {
	id, ok := p.id[canonical]
	if !ok {
		return false
	}

	return p.seen.IsSet(id)
}

func (p *Preprocessor) internID(canonical string) int {
	if id, ok := p.id[canonical]; ok {
		return id
	}

	id := len(p.id)
	p.id[canonical] = id

	return id
}

func indexFrom(b []byte, from int, s string) int {
	if from >= len(b) {
		return -1
	}

	for i := from; i+len(s) <= len(b); i++ {
		if string(b[i:i+len(s)]) == s {
			return i
		}
	}

	return -1
}

func indexByte(b []byte, from int, c byte) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}

	return -1
}
