package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"git.canoozie.net/riddling/vmsim/pkg/model"
)

// Swap file header constants
const (
	SwapMagic   uint32 = 0x53574150 // "SWAP"
	SwapVersion uint16 = 1

	swapHeaderSize = 4 + 2 + 4 // magic, version, page size
)

// Every record starts with an xxhash64 of its body and the body length
const recordHeaderSize = 8 + 4

// swapRecordType tags a record body
type swapRecordType byte

const (
	swapRecordStore swapRecordType = 1
	swapRecordDrop  swapRecordType = 2
)

// ErrInvalidSwapRecord is returned when a record has an unknown type or size
var ErrInvalidSwapRecord = errors.New("invalid swap record")

// FileSwapConfig holds configuration options for a FileSwap
type FileSwapConfig struct {
	Path        string       // Path to the swap file
	PageSize    uint64       // Words per page; must match an existing file
	SyncOnWrite bool         // Whether to fsync after every record
	Truncate    bool         // Discard any existing content on open
	Logger      model.Logger // Logger for swap file operations
}

// FileSwap is a SwapStore backed by an append-only file. Evicting a page
// appends a store record, restoring it appends a drop record. The live
// set is kept as a page -> offset index that is rebuilt by replaying the
// file on open.
type FileSwap struct {
	mu          sync.Mutex
	file        *os.File
	path        string
	pageSize    uint64
	index       map[uint64]int64
	size        int64 // offset where the next record goes
	deadBytes   int64 // bytes taken by dropped entries and drop records
	isOpen      bool
	syncOnWrite bool
	logger      model.Logger
}

// NewFileSwap opens or creates the swap file described by config
func NewFileSwap(config FileSwapConfig) (*FileSwap, error) {
	if config.Logger == nil {
		config.Logger = model.DefaultLoggerInstance
	}
	if config.PageSize == 0 {
		return nil, fmt.Errorf("swap page size must be positive")
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create swap directory: %w", err)
	}

	flags := os.O_RDWR | os.O_CREATE
	if config.Truncate {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(config.Path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open swap file: %w", err)
	}

	s := &FileSwap{
		file:        file,
		path:        config.Path,
		pageSize:    config.PageSize,
		index:       make(map[uint64]int64),
		isOpen:      true,
		syncOnWrite: config.SyncOnWrite,
		logger:      config.Logger,
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if fileInfo.Size() == 0 {
		if err := s.writeHeader(); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write swap header: %w", err)
		}
	} else {
		if err := s.verifyHeader(); err != nil {
			file.Close()
			return nil, fmt.Errorf("invalid swap header: %w", err)
		}
		if err := s.replay(fileInfo.Size()); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to replay swap file: %w", err)
		}
	}

	s.logger.Info("Opened swap file at %s with %d pages", config.Path, len(s.index))
	return s, nil
}

func (s *FileSwap) writeHeader() error {
	var header [swapHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:], SwapMagic)
	binary.LittleEndian.PutUint16(header[4:], SwapVersion)
	binary.LittleEndian.PutUint32(header[6:], uint32(s.pageSize))
	if _, err := s.file.WriteAt(header[:], 0); err != nil {
		return err
	}
	s.size = swapHeaderSize
	return nil
}

func (s *FileSwap) verifyHeader() error {
	var header [swapHeaderSize]byte
	if _, err := s.file.ReadAt(header[:], 0); err != nil {
		return err
	}
	if magic := binary.LittleEndian.Uint32(header[0:]); magic != SwapMagic {
		return fmt.Errorf("bad magic %#x", magic)
	}
	if version := binary.LittleEndian.Uint16(header[4:]); version != SwapVersion {
		return fmt.Errorf("unsupported version %d", version)
	}
	if pageSize := binary.LittleEndian.Uint32(header[6:]); uint64(pageSize) != s.pageSize {
		return fmt.Errorf("file page size %d does not match configured %d", pageSize, s.pageSize)
	}
	return nil
}

// replay rebuilds the index from the records after the header. A record cut
// short at the end of the file is a torn write and gets truncated away.
func (s *FileSwap) replay(fileSize int64) error {
	reader := bufio.NewReader(io.NewSectionReader(s.file, swapHeaderSize, fileSize-swapHeaderSize))
	offset := int64(swapHeaderSize)

	for {
		recordType, page, _, n, err := s.readRecord(reader)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			s.logger.Warn("Truncating torn swap record at offset %d of %s", offset, s.path)
			if err := s.file.Truncate(offset); err != nil {
				return err
			}
			break
		}
		if err != nil {
			return fmt.Errorf("record at offset %d: %w", offset, err)
		}

		switch recordType {
		case swapRecordStore:
			if _, exists := s.index[page]; exists {
				return fmt.Errorf("page %d stored twice: %w", page, model.ErrSwapCorrupted)
			}
			s.index[page] = offset
		case swapRecordDrop:
			if _, exists := s.index[page]; !exists {
				return fmt.Errorf("drop of absent page %d: %w", page, model.ErrSwapCorrupted)
			}
			delete(s.index, page)
			s.deadBytes += s.storeRecordSize() + n
		}
		offset += n
	}

	s.size = offset
	return nil
}

func (s *FileSwap) storeRecordSize() int64 {
	return recordHeaderSize + 1 + 8 + int64(s.pageSize)*8
}

func dropRecordSize() int64 {
	return recordHeaderSize + 1 + 8
}

// encodeRecord builds a complete record. frame is ignored for drop records.
func encodeRecord(recordType swapRecordType, page uint64, frame model.Frame) []byte {
	body := make([]byte, 0, 1+8+len(frame)*8)
	body = append(body, byte(recordType))
	body = binary.LittleEndian.AppendUint64(body, page)
	if recordType == swapRecordStore {
		body = frame.AppendBinary(body)
	}

	record := make([]byte, recordHeaderSize, recordHeaderSize+len(body))
	binary.LittleEndian.PutUint64(record[0:], xxhash.Sum64(body))
	binary.LittleEndian.PutUint32(record[8:], uint32(len(body)))
	return append(record, body...)
}

// readRecord decodes one record from r and returns its size on disk.
// io.EOF means r ended cleanly between records.
func (s *FileSwap) readRecord(r io.Reader) (swapRecordType, uint64, model.Frame, int64, error) {
	var head [recordHeaderSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, 0, nil, 0, err
	}
	checksum := binary.LittleEndian.Uint64(head[0:])
	bodyLen := int64(binary.LittleEndian.Uint32(head[8:]))

	if bodyLen != s.storeRecordSize()-recordHeaderSize && bodyLen != dropRecordSize()-recordHeaderSize {
		return 0, 0, nil, 0, ErrInvalidSwapRecord
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, 0, nil, 0, err
	}
	if xxhash.Sum64(body) != checksum {
		return 0, 0, nil, 0, model.ErrSwapCorrupted
	}

	recordType := swapRecordType(body[0])
	page := binary.LittleEndian.Uint64(body[1:])
	switch {
	case recordType == swapRecordStore && bodyLen == s.storeRecordSize()-recordHeaderSize:
		return recordType, page, model.DecodeFrame(body[9:]), recordHeaderSize + bodyLen, nil
	case recordType == swapRecordDrop && bodyLen == dropRecordSize()-recordHeaderSize:
		return recordType, page, nil, recordHeaderSize + bodyLen, nil
	default:
		return 0, 0, nil, 0, ErrInvalidSwapRecord
	}
}

// readStoreAt reads the store record for page at offset
func (s *FileSwap) readStoreAt(page uint64, offset int64) (model.Frame, error) {
	section := io.NewSectionReader(s.file, offset, s.storeRecordSize())
	recordType, recordPage, frame, _, err := s.readRecord(section)
	if err != nil {
		return nil, fmt.Errorf("page %d at offset %d: %w", page, offset, err)
	}
	if recordType != swapRecordStore || recordPage != page {
		return nil, fmt.Errorf("page %d at offset %d: %w", page, offset, model.ErrSwapCorrupted)
	}
	return frame, nil
}

func (s *FileSwap) appendRecord(record []byte) (int64, error) {
	offset := s.size
	if _, err := s.file.WriteAt(record, offset); err != nil {
		return 0, err
	}
	s.size += int64(len(record))

	if s.syncOnWrite {
		if err := s.file.Sync(); err != nil {
			return 0, err
		}
	}
	return offset, nil
}

// Store implements SwapStore
func (s *FileSwap) Store(page uint64, frame model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return model.ErrSwapClosed
	}
	if _, exists := s.index[page]; exists {
		return model.ErrDuplicateSwapEntry{Page: page}
	}
	if uint64(len(frame)) != s.pageSize {
		return fmt.Errorf("frame has %d words, swap pages have %d", len(frame), s.pageSize)
	}

	offset, err := s.appendRecord(encodeRecord(swapRecordStore, page, frame))
	if err != nil {
		return fmt.Errorf("failed to write page %d to swap: %w", page, err)
	}
	s.index[page] = offset
	return nil
}

// Load implements SwapStore
func (s *FileSwap) Load(page uint64) (model.Frame, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return nil, false, model.ErrSwapClosed
	}
	offset, exists := s.index[page]
	if !exists {
		return nil, false, nil
	}

	frame, err := s.readStoreAt(page, offset)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.appendRecord(encodeRecord(swapRecordDrop, page, nil)); err != nil {
		return nil, false, fmt.Errorf("failed to drop page %d from swap: %w", page, err)
	}
	delete(s.index, page)
	s.deadBytes += s.storeRecordSize() + dropRecordSize()
	return frame, true, nil
}

// Contains implements SwapStore
func (s *FileSwap) Contains(page uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.index[page]
	return exists
}

// Len implements SwapStore
func (s *FileSwap) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Snapshot implements SwapStore
func (s *FileSwap) Snapshot() (map[uint64]model.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return nil, model.ErrSwapClosed
	}
	snapshot := make(map[uint64]model.Frame, len(s.index))
	for page, offset := range s.index {
		frame, err := s.readStoreAt(page, offset)
		if err != nil {
			return nil, err
		}
		snapshot[page] = frame
	}
	return snapshot, nil
}

// DeadBytes returns how much of the file Compact would reclaim
func (s *FileSwap) DeadBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadBytes
}

// Size returns the current length of the swap file
func (s *FileSwap) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Compact rewrites the swap file with only the live store records
func (s *FileSwap) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return model.ErrSwapClosed
	}

	tmpPath := s.path + ".compact"
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create compaction file: %w", err)
	}

	compacted := &FileSwap{
		file:     tmp,
		path:     s.path,
		pageSize: s.pageSize,
		index:    make(map[uint64]int64, len(s.index)),
		isOpen:   true,
		logger:   s.logger,
	}
	if err := compacted.writeHeader(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write compaction header: %w", err)
	}

	// Ascending page order keeps the compacted layout deterministic
	pages := make([]uint64, 0, len(s.index))
	for page := range s.index {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

	for _, page := range pages {
		frame, err := s.readStoreAt(page, s.index[page])
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
		offset, err := compacted.appendRecord(encodeRecord(swapRecordStore, page, frame))
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to copy page %d: %w", page, err)
		}
		compacted.index[page] = offset
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync compaction file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace swap file: %w", err)
	}

	reclaimed := s.size - compacted.size
	s.file.Close()
	s.file = tmp
	s.index = compacted.index
	s.size = compacted.size
	s.deadBytes = 0

	s.logger.Info("Compacted swap file %s: %d pages, reclaimed %d bytes", s.path, len(s.index), reclaimed)
	return nil
}

// Sync flushes the swap file to stable storage
func (s *FileSwap) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return model.ErrSwapClosed
	}
	return s.file.Sync()
}

// Close implements SwapStore
func (s *FileSwap) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return nil
	}
	s.isOpen = false

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to sync swap file: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close swap file: %w", err)
	}

	s.logger.Info("Closed swap file at %s", s.path)
	return nil
}

// IsOpen returns whether the swap file is open
func (s *FileSwap) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// Path returns the path to the swap file
func (s *FileSwap) Path() string {
	return s.path
}
