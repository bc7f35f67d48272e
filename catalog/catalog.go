// Package catalog implements the table registry (C4): three maps aligned
// by table id — id to heap file, id to name, id to primary-key column —
// plus the external catalog-file loader.
package catalog

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
)

// Catalog is the engine's table registry. Tables are identified by a
// TableID derived from their file's canonical path; the three id-keyed
// maps below and the byName index are kept mutually consistent under a
// single mutex.
type Catalog struct {
	mu    sync.RWMutex
	files map[common.TableID]*storage.HeapFile
	names map[common.TableID]string
	pks   map[common.TableID]string
	byName map[string]common.TableID
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		files:  make(map[common.TableID]*storage.HeapFile),
		names:  make(map[common.TableID]string),
		pks:    make(map[common.TableID]string),
		byName: make(map[string]common.TableID),
	}
}

// AddTable registers file under name with primary key column pk (empty
// string if the table has none). If name is already registered, the old
// entry is removed first, per the design document's last-writer-wins rule.
func (c *Catalog) AddTable(file *storage.HeapFile, name string, pk string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if oldID, ok := c.byName[name]; ok {
		delete(c.files, oldID)
		delete(c.names, oldID)
		delete(c.pks, oldID)
	}
	id := file.TableID()
	c.files[id] = file
	c.names[id] = name
	c.pks[id] = pk
	c.byName[name] = id
}

// AddTableNoKey registers file under name with no primary key.
func (c *Catalog) AddTableNoKey(file *storage.HeapFile, name string) {
	c.AddTable(file, name, "")
}

// AddTableAnonymous registers file under a randomly generated unique name.
func (c *Catalog) AddTableAnonymous(file *storage.HeapFile) string {
	name := randomTableName()
	c.AddTable(file, name, "")
	return name
}

func randomTableName() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "table_" + hex.EncodeToString(buf)
}

// GetTableID looks up a table's id by name.
func (c *Catalog) GetTableID(name string) (common.TableID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return 0, common.NewError(common.NoSuchElement, "no table named %q", name)
	}
	return id, nil
}

// GetTupleDesc returns the tuple descriptor of the table with id.
func (c *Catalog) GetTupleDesc(id common.TableID) (*storage.TupleDesc, error) {
	file, err := c.GetDatabaseFile(id)
	if err != nil {
		return nil, err
	}
	return file.TupleDesc(), nil
}

// GetDatabaseFile returns the heap file backing the table with id.
// Implements storage.FileResolver.
func (c *Catalog) GetDatabaseFile(id common.TableID) (*storage.HeapFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	file, ok := c.files[id]
	if !ok {
		return nil, common.NewError(common.NoSuchElement, "no table with id %d", id)
	}
	return file, nil
}

// GetPrimaryKey returns the primary-key column name of the table with id,
// or "" if it has none.
func (c *Catalog) GetPrimaryKey(id common.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pk, ok := c.pks[id]
	if !ok {
		return "", common.NewError(common.NoSuchElement, "no table with id %d", id)
	}
	return pk, nil
}

// GetTableName returns the registered name of the table with id.
func (c *Catalog) GetTableName(id common.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[id]
	if !ok {
		return "", common.NewError(common.NoSuchElement, "no table with id %d", id)
	}
	return name, nil
}

// TableIDs returns a snapshot of every registered table id.
func (c *Catalog) TableIDs() []common.TableID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]common.TableID, 0, len(c.files))
	for id := range c.files {
		ids = append(ids, id)
	}
	return ids
}

// Clear empties all three maps atomically.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[common.TableID]*storage.HeapFile)
	c.names = make(map[common.TableID]string)
	c.pks = make(map[common.TableID]string)
	c.byName = make(map[string]common.TableID)
}

// TableSpec describes one table parsed out of a catalog file, before its
// backing heap file has been opened on disk.
type TableSpec struct {
	Name      string
	Fields    []storage.FieldDesc
	PrimaryKey string
}

// LoadSchema parses the catalog file grammar: one table per line,
// "NAME ( COL TYPE [pk], COL TYPE [pk], ... )", TYPE in {int, string}
// case-insensitive, optional "pk" marking the primary key column. Blank
// lines and lines starting with "#" are ignored.
func LoadSchema(r io.Reader) ([]TableSpec, error) {
	var specs []TableSpec
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		spec, err := parseSchemaLine(line)
		if err != nil {
			return nil, common.WrapError(common.DbError, err, "catalog file line %d", lineNo)
		}
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, common.WrapError(common.IoError, err, "read catalog file")
	}
	return specs, nil
}

func parseSchemaLine(line string) (TableSpec, error) {
	open := strings.Index(line, "(")
	close := strings.LastIndex(line, ")")
	if open < 0 || close < open {
		return TableSpec{}, common.NewError(common.DbError, "malformed table definition %q", line)
	}
	name := strings.TrimSpace(line[:open])
	if name == "" {
		return TableSpec{}, common.NewError(common.DbError, "missing table name in %q", line)
	}
	body := line[open+1 : close]

	var spec TableSpec
	spec.Name = name
	for _, col := range strings.Split(body, ",") {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		parts := strings.Fields(col)
		if len(parts) < 2 {
			return TableSpec{}, common.NewError(common.DbError, "malformed column %q in %q", col, line)
		}
		colName, typeName := parts[0], parts[1]
		typ, err := field.ParseType(typeName)
		if err != nil {
			return TableSpec{}, err
		}
		spec.Fields = append(spec.Fields, storage.FieldDesc{Type: typ, Name: colName})
		if len(parts) >= 3 && strings.EqualFold(parts[2], "pk") {
			spec.PrimaryKey = colName
		}
	}
	if len(spec.Fields) == 0 {
		return TableSpec{}, common.NewError(common.DbError, "table %q has no columns", name)
	}
	return spec, nil
}

// OpenTables opens one DiskFile per TableSpec under dataDir (named
// "<table>.dat") and registers each in c.
func (c *Catalog) OpenTables(dataDir string, specs []TableSpec) error {
	for _, spec := range specs {
		path := filepath.Join(dataDir, spec.Name+".dat")
		disk, err := storage.NewDiskFile(path)
		if err != nil {
			return err
		}
		id, err := common.TableIDFromPath(path)
		if err != nil {
			return err
		}
		desc := storage.NewTupleDesc(spec.Fields...)
		hf := storage.NewHeapFile(disk, id, desc)
		c.AddTable(hf, spec.Name, spec.PrimaryKey)
	}
	return nil
}
