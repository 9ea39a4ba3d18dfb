package taxonomy

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/vmihailenco/msgpack.v2"
)

// the file names used within a taxonomy directory
const (
	NodesFile = "nodes.dmp"
	CacheFile = "taxonomy.msgpack"
)

// the field separator used by the NCBI taxdump files
const dumpSeparator = "\t|\t"

// cacheNode is the on-disk form of a Node
type cacheNode struct {
	ID     int `msgpack:"i"`
	Parent int `msgpack:"p"`
	Rank   int `msgpack:"r"`
}

// cache is the on-disk form of an NCBI taxonomy
type cache struct {
	Version string      `msgpack:"version"`
	Nodes   []cacheNode `msgpack:"nodes"`
}

// Load reads a taxonomy from a taxdump directory, a nodes.dmp file or a msgpack cache.
// A directory holding a cache file is loaded from the cache in preference to nodes.dmp.
func Load(path string) (*NCBI, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		cachePath := filepath.Join(path, CacheFile)
		if _, err := os.Stat(cachePath); err == nil {
			return LoadCache(cachePath)
		}
		return LoadNodes(filepath.Join(path, NodesFile))
	}
	if strings.HasSuffix(path, ".msgpack") {
		return LoadCache(path)
	}
	return LoadNodes(path)
}

// LoadNodes reads an NCBI nodes.dmp file
func LoadNodes(path string) (*NCBI, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ReadNodes(fh)
}

// ReadNodes parses the contents of an NCBI nodes.dmp file
func ReadNodes(r io.Reader) (*NCBI, error) {
	nodes := []Node{}
	unknownRanks := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(strings.TrimRight(scanner.Text(), "\r"), "\t|")
		if line == "" {
			continue
		}
		fields := strings.Split(line, dumpSeparator)
		if len(fields) < 3 {
			return nil, fmt.Errorf("nodes.dmp line %d has %d fields, expected at least 3", lineNum, len(fields))
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("nodes.dmp line %d: bad taxon id: %v", lineNum, err)
		}
		parent, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("nodes.dmp line %d: bad parent id: %v", lineNum, err)
		}
		rank, ok := parseDumpRank(strings.TrimSpace(fields[2]))
		if !ok {
			unknownRanks++
		}
		nodes = append(nodes, Node{ID: id, Parent: parent, Rank: rank})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	tax, err := NewNCBI(nodes)
	if err != nil {
		return nil, err
	}
	tax.UnknownRanks = unknownRanks
	return tax, nil
}

// Dump writes the taxonomy to a msgpack cache file
func (tax *NCBI) Dump(path, version string) error {
	ids := make([]int, 0, len(tax.nodes))
	for id := range tax.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	holder := cache{Version: version, Nodes: make([]cacheNode, len(ids))}
	for i, id := range ids {
		node := tax.nodes[id]
		holder.Nodes[i] = cacheNode{ID: node.ID, Parent: node.Parent, Rank: int(node.Rank)}
	}
	b, err := msgpack.Marshal(&holder)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// LoadCache reads a taxonomy from a msgpack cache file
func LoadCache(path string) (*NCBI, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadCacheFromBytes(b)
}

// LoadCacheFromBytes is a method to populate a taxonomy using a msgpack byte slice
func LoadCacheFromBytes(b []byte) (*NCBI, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("taxonomy cache appears empty")
	}
	holder := &cache{}
	if err := msgpack.Unmarshal(b, holder); err != nil {
		return nil, err
	}
	nodes := make([]Node, len(holder.Nodes))
	for i, node := range holder.Nodes {
		if node.Rank < 0 || node.Rank >= len(rankNames) {
			return nil, fmt.Errorf("taxonomy cache holds an unknown rank (%d) for taxon %d", node.Rank, node.ID)
		}
		nodes[i] = Node{ID: node.ID, Parent: node.Parent, Rank: Rank(node.Rank)}
	}
	return NewNCBI(nodes)
}
