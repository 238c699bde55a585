// Package repository provides file enumeration and retrieval over an
// unpacked APK tree (disassembled smali, resources, assets, manifest),
// independent of whether that tree lives on local disk, inside an
// archive mount, or on a remote object store.
package repository

import (
	"context"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// File is a single retrieved file: its path relative to the tree root
// and its raw content.
type File struct {
	Path string
	Blob []byte
}

// Repository enumerates and retrieves files from an unpacked APK tree.
// Paths are always relative to the tree root and use forward slashes,
// e.g. "smali/com/example/Foo.smali", "AndroidManifest.xml",
// "res/layout/main.xml", "assets/www/index.js".
type Repository interface {
	// Enum lazily yields every file whose relative path matches glob.
	// glob uses SQL LIKE-style '%' wildcards, translated internally to
	// an anchored regular expression (see likeToRegexp).
	Enum(ctx context.Context, glob string) func(yield func(File) bool)
	// Get retrieves a single file by relative path.
	Get(ctx context.Context, relPath string) ([]byte, bool)
}

// treeRepository is an afs-backed Repository rooted at a single base
// URL (a local directory, or any afs-supported scheme).
type treeRepository struct {
	fs   afs.Service
	root string
}

// New opens a Repository rooted at root, which may be a local path or
// any URL afs.Service understands (s3://, gs://, mem://, ...).
func New(root string) Repository {
	return &treeRepository{fs: afs.New(), root: root}
}

func (r *treeRepository) Enum(ctx context.Context, glob string) func(yield func(File) bool) {
	pattern := likeToRegexp(glob)
	return func(yield func(File) bool) {
		stopped := false
		var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
			if stopped {
				return false, nil
			}
			if info.IsDir() {
				return true, nil
			}
			rel := url.Join(parent, info.Name())
			rel = strings.TrimPrefix(rel, "/")
			if !pattern.MatchString(rel) {
				return true, nil
			}
			content, err := io.ReadAll(reader)
			if err != nil {
				return true, nil
			}
			if !yield(File{Path: rel, Blob: content}) {
				stopped = true
				return false, nil
			}
			return true, nil
		}
		_ = r.fs.Walk(ctx, r.root, visitor)
	}
}

func (r *treeRepository) Get(ctx context.Context, relPath string) ([]byte, bool) {
	content, err := r.fs.DownloadWithURL(ctx, url.Join(r.root, relPath))
	if err != nil || content == nil {
		return nil, false
	}
	return content, true
}

// likeToRegexp translates the SQL LIKE wildcard convention used
// throughout the query API ('%' = any run of characters, including '/')
// into an anchored regexp. '_' has no special meaning here and is left
// as a literal, since smali/resource identifiers use it as an ordinary
// character. A leading "%/" also matches the empty prefix, so a pattern
// like "%/res/%layout%.xml" finds "res/layout/main.xml" whether or not
// the tree nests its resources under a further root directory.
func likeToRegexp(like string) *regexp.Regexp {
	prefix := ""
	if strings.HasPrefix(like, "%/") {
		prefix = "(?:.*/)?"
		like = like[2:]
	}
	parts := strings.Split(like, "%")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + prefix + strings.Join(parts, ".*") + "$")
}
