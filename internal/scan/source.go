package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoFrame reports that no new frame is available yet. The caller should
// try again on the next tick.
var ErrNoFrame = errors.New("no new frame")

// Source is a device that can be opened for frame capture.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields frames until it returns io.EOF. Close releases the device.
// Streams are not safe for concurrent use: Next and Close must be called
// from the same goroutine.
type Stream interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// FileSource replays a fixed list of still images, one per frame.
type FileSource struct {
	Paths []string
}

func (s FileSource) Open(_ context.Context) (Stream, error) {
	if len(s.Paths) == 0 {
		return nil, errors.New("no image files given")
	}
	return &fileStream{paths: append([]string(nil), s.Paths...)}, nil
}

type fileStream struct {
	paths []string
}

func (s *fileStream) Next(_ context.Context) (image.Image, error) {
	if len(s.paths) == 0 {
		return nil, io.EOF
	}
	path := s.paths[0]
	s.paths = s.paths[1:]
	return decodeFile(path)
}

func (s *fileStream) Close() error {
	s.paths = nil
	return nil
}

// DirSource watches a directory that a capture device keeps writing snapshots
// into. Each frame is the most recently modified image not yet seen.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context) (Stream, error) {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", s.Dir)
	}
	return &dirStream{dir: s.Dir}, nil
}

type dirStream struct {
	dir      string
	lastPath string
	lastMod  time.Time
	closed   bool
}

func (s *dirStream) Next(_ context.Context) (image.Image, error) {
	if s.closed {
		return nil, io.EOF
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	type snapshot struct {
		path string
		mod  time.Time
	}
	var snaps []snapshot
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, snapshot{path: filepath.Join(s.dir, e.Name()), mod: info.ModTime()})
	}
	if len(snaps) == 0 {
		return nil, ErrNoFrame
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].mod.Equal(snaps[j].mod) {
			return snaps[i].path > snaps[j].path
		}
		return snaps[i].mod.After(snaps[j].mod)
	})

	newest := snaps[0]
	if newest.path == s.lastPath && !newest.mod.After(s.lastMod) {
		return nil, ErrNoFrame
	}
	s.lastPath, s.lastMod = newest.path, newest.mod
	return decodeFile(newest.path)
}

func (s *dirStream) Close() error {
	s.closed = true
	return nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
