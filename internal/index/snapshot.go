package index

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/medrag-labs/medragd/internal/language"
)

// Snapshot format. The header is self-describing so a restore detects
// dimension or version skew instead of silently truncating.
const (
	snapshotMagic   = "MEDRAGIDX"
	snapshotVersion = 1
)

type snapshotRecord struct {
	ID         int64
	Vector     []float32
	Text       string
	DocumentID string
	Sequence   int
	Language   string
}

type snapshot struct {
	Magic     string
	Version   int
	Dimension int
	NextID    int64
	Records   []snapshotRecord
}

// Persist writes the full index state to w as an opaque blob.
// restore(persist(index)) reproduces identical vectors, chunks, internal ids
// and dimension. Persist is meant for process shutdown, never for live
// traffic; the read lock only guards against programming mistakes.
func (ix *Index) Persist(w io.Writer) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snap := snapshot{
		Magic:     snapshotMagic,
		Version:   snapshotVersion,
		Dimension: ix.dimension,
		NextID:    ix.nextID,
		Records:   make([]snapshotRecord, 0, len(ix.records)),
	}
	for _, rec := range ix.records {
		snap.Records = append(snap.Records, snapshotRecord{
			ID:         rec.id,
			Vector:     rec.vector,
			Text:       rec.chunk.Text,
			DocumentID: rec.chunk.DocumentID,
			Sequence:   rec.chunk.Sequence,
			Language:   string(rec.chunk.Language),
		})
	}

	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// Restore replaces the state of an empty index with a persisted snapshot.
// Restoring into a populated index fails with ErrIndexNotEmpty; a blob that
// cannot be decoded or that fails its header checks fails with
// ErrIncompatibleFormat, leaving the index unchanged.
func (ix *Index) Restore(r io.Reader) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(ix.records) != 0 {
		return fmt.Errorf("%w: %d vectors already indexed", ErrIndexNotEmpty, len(ix.records))
	}

	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("%w: decoding snapshot: %v", ErrIncompatibleFormat, err)
	}
	if snap.Magic != snapshotMagic {
		return fmt.Errorf("%w: bad magic %q", ErrIncompatibleFormat, snap.Magic)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: snapshot version %d, supported %d", ErrIncompatibleFormat, snap.Version, snapshotVersion)
	}

	records := make([]record, 0, len(snap.Records))
	for _, sr := range snap.Records {
		if snap.Dimension != 0 && len(sr.Vector) != snap.Dimension {
			return fmt.Errorf("%w: record %d has dimension %d, snapshot declares %d",
				ErrIncompatibleFormat, sr.ID, len(sr.Vector), snap.Dimension)
		}
		records = append(records, record{
			id:     sr.ID,
			vector: sr.Vector,
			chunk: Chunk{
				Text:       sr.Text,
				DocumentID: sr.DocumentID,
				Sequence:   sr.Sequence,
				Language:   language.Language(sr.Language),
			},
		})
	}

	ix.dimension = snap.Dimension
	ix.records = records
	if snap.NextID > ix.nextID {
		ix.nextID = snap.NextID
	}
	return nil
}

// SaveFile persists the index to path atomically (temp file + rename).
func (ix *Index) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ix.Persist(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// LoadFile restores the index from a snapshot file. A missing file is
// reported via fs.ErrNotExist semantics so callers can start empty.
func (ix *Index) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ix.Restore(f)
}
