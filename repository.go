// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package xivtool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"

	"github.com/dervus/xivtool/datafile"
	"github.com/dervus/xivtool/indexfile"
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets an optional logger the repository uses for debug
// output (index builds, shard opens).  If not provided, no logging
// output is produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// pack is the lazily-built index state for one (category, expansion,
// patch) triple.  The once cell guarantees a single build under
// concurrent first access; the outcome, error included, is shared by
// every caller.
type pack struct {
	kind  indexfile.Kind
	once  sync.Once
	table *indexfile.Table
	err   error
}

type shardKey struct {
	pack PackID
	dat  uint8
}

// Repository is a read-only handle on a packed archive root.  It is
// safe for concurrent use from multiple goroutines and is meant to be
// shared: indexes are parsed at most once per pack, and shard files
// are opened at most once and then served via concurrency-safe
// random-access reads.
type Repository struct {
	root   string
	logger *slog.Logger
	packs  map[PackID]*pack

	mu     sync.Mutex
	shards map[shardKey]*mmap.ReaderAt

	indexBuilds atomic.Uint32
}

// Open scans root for pack index files and returns a Repository over
// them.  The scan only records what exists; index contents are parsed
// lazily on first lookup into each pack.  A root that is missing or
// holds no index files fails with ErrRepositoryUnavailable.
func Open(root string, opts ...Option) (*Repository, error) {
	var options options
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}

	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	packs := make(map[PackID]*pack)
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
		}
		for _, f := range files {
			id, ext, ok := parsePackFileName(f.Name())
			if !ok {
				continue
			}
			switch ext {
			case "index2":
				// preferred over the segment-pair variant
				if p, ok := packs[id]; ok {
					p.kind = indexfile.KindFullPath
				} else {
					packs[id] = &pack{kind: indexfile.KindFullPath}
				}
			case "index":
				if _, ok := packs[id]; !ok {
					packs[id] = &pack{kind: indexfile.KindPair}
				}
			}
		}
	}
	if len(packs) == 0 {
		return nil, fmt.Errorf("%w: no index files under %q", ErrRepositoryUnavailable, root)
	}

	return &Repository{
		root:   root,
		logger: options.logger,
		packs:  packs,
		shards: make(map[shardKey]*mmap.ReaderAt),
	}, nil
}

// Packs lists the discovered pack ids in stable order.
func (r *Repository) Packs() []PackID {
	ids := make([]PackID, 0, len(r.packs))
	for id := range r.packs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Preload builds every pack's index up front, concurrently.  Purely an
// optimization; lookups trigger the same builds on demand.
func (r *Repository) Preload(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for id := range r.packs {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := r.index(id)
			return err
		})
	}
	return g.Wait()
}

// Close releases the pooled shard readers.  The Repository must not be
// used afterwards.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for key, shard := range r.shards {
		if err := shard.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.shards, key)
	}
	return firstErr
}

func (r *Repository) index(id PackID) (*indexfile.Table, error) {
	p, ok := r.packs[id]
	if !ok {
		return nil, fmt.Errorf("no pack %s: %w", id, ErrNotFound)
	}
	p.once.Do(func() {
		r.indexBuilds.Add(1)
		ext := "index2"
		if p.kind == indexfile.KindPair {
			ext = "index"
		}
		name := filepath.Join(r.root, id.fileName(ext))
		data, err := os.ReadFile(name)
		if err != nil {
			p.err = fmt.Errorf("read index for pack %s: %w", id, err)
			return
		}
		p.table, p.err = indexfile.Parse(data, p.kind)
		if p.err == nil {
			r.logger.Debug("built pack index", "pack", id.String(), "kind", p.kind.String(), "entries", p.table.Len())
		}
	})
	return p.table, p.err
}

func (r *Repository) shard(id PackID, dat uint8) (*mmap.ReaderAt, error) {
	key := shardKey{pack: id, dat: dat}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.shards[key]; ok {
		return s, nil
	}
	name := filepath.Join(r.root, id.fileName(fmt.Sprintf("dat%d", dat)))
	s, err := mmap.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open shard %s.dat%d: %w", id, dat, err)
	}
	r.logger.Debug("opened shard", "pack", id.String(), "dat", dat, "size", s.Len())
	r.shards[key] = s
	return s, nil
}

// resolve maps a logical path to the shard reader and byte offset of
// its packed body.
func (r *Repository) resolve(p string) (*mmap.ReaderAt, int64, error) {
	ap, err := ParsePath(p)
	if err != nil {
		return nil, 0, err
	}
	table, err := r.index(ap.Pack)
	if err != nil {
		return nil, 0, err
	}
	loc, ok := table.LookupPath(ap.Dir, ap.Name)
	if !ok {
		return nil, 0, fmt.Errorf("%q: %w", ap.String(), ErrNotFound)
	}
	shard, err := r.shard(ap.Pack, loc.DataFileID)
	if err != nil {
		return nil, 0, err
	}
	return shard, loc.Offset, nil
}

// Exists reports whether path resolves to an index entry, without
// touching the data files.
func (r *Repository) Exists(p string) (bool, error) {
	ap, err := ParsePath(p)
	if err != nil {
		return false, nil
	}
	table, err := r.index(ap.Pack)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_, ok := table.LookupPath(ap.Dir, ap.Name)
	return ok, nil
}

// Read resolves path and decodes its packed body into container form.
func (r *Repository) Read(p string) (*datafile.Container, error) {
	shard, off, err := r.resolve(p)
	if err != nil {
		return nil, err
	}
	c, err := datafile.Read(shard, off)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", p, err)
	}
	return c, nil
}

// ReadFile resolves path and returns the flattened contents of a
// standard (or empty) file.
func (r *Repository) ReadFile(p string) ([]byte, error) {
	shard, off, err := r.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := datafile.ReadStandard(shard, off)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", p, err)
	}
	return data, nil
}

// ReadTexture resolves path and decodes its texture container.
func (r *Repository) ReadTexture(p string) (*datafile.Texture, error) {
	shard, off, err := r.resolve(p)
	if err != nil {
		return nil, err
	}
	t, err := datafile.ReadTexture(shard, off)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", p, err)
	}
	return t, nil
}

// ReadModel resolves path and decodes its model container.
func (r *Repository) ReadModel(p string) (*datafile.Model, error) {
	shard, off, err := r.resolve(p)
	if err != nil {
		return nil, err
	}
	m, err := datafile.ReadModel(shard, off)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", p, err)
	}
	return m, nil
}
