package storage

import (
	"io"
	"os"
	"sync"

	"github.com/hlang/heapdb/common"
)

// DBFile abstracts the physical file backing one heap file's pages.
// Implementations must be safe for concurrent ReadPage/WritePage calls to
// distinct page numbers.
type DBFile interface {
	// ReadPage reads the PageSize bytes at pageNum*PageSize.
	ReadPage(pageNum int) ([]byte, error)
	// WritePage writes data (exactly PageSize bytes) at pageNum*PageSize,
	// extending the file if pageNum is beyond its current length.
	WritePage(pageNum int, data []byte) error
	// NumPages returns floor(fileLength / PageSize).
	NumPages() (int, error)
	// Close releases the underlying file handle.
	Close() error
}

// DiskFile implements DBFile on top of a standard OS file.
type DiskFile struct {
	mu   sync.Mutex
	file *os.File
}

// NewDiskFile opens (creating if necessary) the file at path.
func NewDiskFile(path string) (*DiskFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, common.WrapError(common.IoError, err, "open %q", path)
	}
	return &DiskFile{file: f}, nil
}

// ReadPage implements DBFile.
func (d *DiskFile) ReadPage(pageNum int) ([]byte, error) {
	buf := make([]byte, PageSize)
	offset := int64(pageNum) * int64(PageSize)
	if _, err := d.file.ReadAt(buf, offset); err != nil {
		return nil, common.WrapError(common.IoError, err, "read page %d", pageNum)
	}
	return buf, nil
}

// WritePage implements DBFile.
func (d *DiskFile) WritePage(pageNum int, data []byte) error {
	common.Assert(len(data) == PageSize, "storage: WritePage requires exactly PageSize bytes")
	d.mu.Lock()
	defer d.mu.Unlock()
	offset := int64(pageNum) * int64(PageSize)
	if _, err := d.file.WriteAt(data, offset); err != nil {
		return common.WrapError(common.IoError, err, "write page %d", pageNum)
	}
	return nil
}

// NumPages implements DBFile.
func (d *DiskFile) NumPages() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	size, err := d.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, common.WrapError(common.IoError, err, "stat file size")
	}
	return int(size / int64(PageSize)), nil
}

// Close implements DBFile.
func (d *DiskFile) Close() error {
	return d.file.Close()
}
