package uploads

import (
	"bytes"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxFileSize is the exclusive upper bound on a collected file's size.
	DefaultMaxFileSize int64 = 1 << 20
	// DefaultMaxFiles caps how many collected files a single upload publishes.
	DefaultMaxFiles = 100
)

// DefaultExcludedNames are directory or file names never collected,
// at any depth.
var DefaultExcludedNames = []string{"node_modules", ".git", "blis", "obj", "dist", ".next", "build"}

// DefaultAllowedDotfiles are the only dot-prefixed names that are collected.
var DefaultAllowedDotfiles = []string{".gitignore"}

// CollectorOptions tunes the exclusion rules. Zero values take the defaults.
type CollectorOptions struct {
	ExcludedNames   []string `yaml:"excludedNames"`
	AllowedDotfiles []string `yaml:"allowedDotfiles"`
	MaxFileSize     int64    `yaml:"maxFileSize"`
	MaxFiles        int      `yaml:"maxFiles"`
}

// Collector walks a local project tree and yields the text files worth
// publishing. It never writes to the filesystem.
type Collector struct {
	excluded    map[string]bool
	dotfiles    map[string]bool
	maxFileSize int64
	maxFiles    int
	log         *slog.Logger
}

// NewCollector builds a Collector from opts.
func NewCollector(opts CollectorOptions, log *slog.Logger) *Collector {
	if opts.ExcludedNames == nil {
		opts.ExcludedNames = DefaultExcludedNames
	}
	if opts.AllowedDotfiles == nil {
		opts.AllowedDotfiles = DefaultAllowedDotfiles
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	return &Collector{
		excluded:    toSet(opts.ExcludedNames),
		dotfiles:    toSet(opts.AllowedDotfiles),
		maxFileSize: opts.MaxFileSize,
		maxFiles:    opts.MaxFiles,
		log:         log,
	}
}

// MaxFiles is the number of files Collect returns at most.
func (c *Collector) MaxFiles() int { return c.maxFiles }

// Collect returns up to MaxFiles files from root in traversal order. The walk
// stops as soon as the cap is reached.
func (c *Collector) Collect(root string) []File {
	files := make([]File, 0, 16)
	for f := range c.Files(root) {
		if len(files) == c.maxFiles {
			break
		}
		files = append(files, f)
	}
	return files
}

// Files walks root depth-first and yields every collectable file. Directory
// entries are visited in the order os.ReadDir returns them. Unreadable
// directories, unreadable files and binary files are skipped silently.
func (c *Collector) Files(root string) iter.Seq[File] {
	return func(yield func(File) bool) {
		c.walk(root, "", make(map[string]bool), yield)
	}
}

// walk returns false once the consumer has stopped iterating.
func (c *Collector) walk(dir, prefix string, ancestors map[string]bool, yield func(File) bool) bool {
	// ancestors holds the directories on the current path only; a link back
	// to one of them is a cycle.
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if ancestors[real] {
			c.log.Debug("skipping symlink cycle", "dir", dir, "real", real)
			return true
		}
		ancestors[real] = true
		defer delete(ancestors, real)
	}

	// ReadDir returns whatever it managed to read alongside the error.
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.log.Debug("read dir failed", "dir", dir, "error", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if c.skipName(name) {
			continue
		}

		full := filepath.Join(dir, name)
		rel := name
		if prefix != "" {
			rel = prefix + "/" + name
		}

		// Stat follows symlinks so linked files and directories are treated
		// like their targets.
		info, err := os.Stat(full)
		if err != nil {
			c.log.Debug("stat failed", "path", rel, "error", err)
			continue
		}

		if info.IsDir() {
			if !c.walk(full, rel, ancestors, yield) {
				return false
			}
			continue
		}
		if !info.Mode().IsRegular() || info.Size() >= c.maxFileSize {
			continue
		}

		content, ok := c.readText(full)
		if !ok {
			continue
		}
		if !yield(File{Path: rel, Content: content}) {
			return false
		}
	}
	return true
}

func (c *Collector) skipName(name string) bool {
	if c.excluded[name] {
		return true
	}
	return strings.HasPrefix(name, ".") && !c.dotfiles[name]
}

// readText returns the file content when it decodes as text.
func (c *Collector) readText(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.log.Debug("read file failed", "path", path, "error", err)
		return "", false
	}
	// The file may have grown since it was stat'ed.
	if int64(len(data)) >= c.maxFileSize {
		return "", false
	}
	if !IsText(data) {
		return "", false
	}
	return string(data), true
}

// IsText reports whether data looks like text: valid UTF-8 without NUL bytes.
func IsText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) == -1
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
