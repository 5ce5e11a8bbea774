package filetree

import (
	"strings"
)

// Record is one entry of a flat artifact listing.
type Record struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"file_size"`
}

// Node is a file or folder of the artifact tree. Children is nil for files and non-nil for folders.
type Node struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	IsBinary bool    `json:"isBinary"`
	IsDir    bool    `json:"isDir"`
	Children []*Node `json:"children"`
	Loaded   bool    `json:"loaded"`
}

type Tree struct {
	BasePath string  `json:"basePath"`
	Roots    []*Node `json:"roots"`
}

// Build nests a flat listing of basePath into a tree. Intermediate folders are created as needed and
// reused within this call; a record repeating an earlier path updates that node in place.
func Build(basePath string, records []Record) *Tree {
	basePath = strings.Trim(basePath, "/")
	return &Tree{
		BasePath: basePath,
		Roots:    build(basePath, records),
	}
}

func build(basePath string, records []Record) []*Node {
	roots := make([]*Node, 0)
	folders := make(map[string]*Node)
	nodes := make(map[string]*Node)

	for _, record := range records {
		segments := relativeSegments(basePath, record.Path)
		if len(segments) == 0 {
			continue
		}

		siblings := &roots
		relative := ""
		for i, segment := range segments {
			if relative == "" {
				relative = segment
			} else {
				relative = relative + "/" + segment
			}
			full := joinPath(basePath, relative)

			if i < len(segments)-1 {
				folder, ok := folders[relative]
				if !ok {
					if existing, seen := nodes[relative]; seen {
						// A file record seen earlier turns out to be a folder
						folder = existing
						setFolder(folder)
					} else {
						folder = newFolder(segment, full)
						*siblings = append(*siblings, folder)
						nodes[relative] = folder
					}
					folders[relative] = folder
				}
				folder.Loaded = true
				siblings = &folder.Children
				continue
			}

			if existing, ok := nodes[relative]; ok {
				update(existing, record)
				if existing.IsDir {
					folders[relative] = existing
				} else {
					delete(folders, relative)
				}
				continue
			}

			var leaf *Node
			if record.IsDir {
				leaf = newFolder(segment, full)
				folders[relative] = leaf
			} else {
				leaf = newFile(segment, full, record.Size)
			}
			nodes[relative] = leaf
			*siblings = append(*siblings, leaf)
		}
	}
	return roots
}

func relativeSegments(basePath, p string) []string {
	p = strings.Trim(p, "/")
	if basePath != "" {
		if !strings.HasPrefix(p, basePath+"/") {
			return nil
		}
		p = strings.TrimPrefix(p, basePath+"/")
	}

	segments := make([]string, 0)
	for _, segment := range strings.Split(p, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func joinPath(basePath, relative string) string {
	if basePath == "" {
		return relative
	}
	return basePath + "/" + relative
}

func newFolder(name, full string) *Node {
	return &Node{
		Name:     name,
		Type:     TypeFolder,
		Path:     full,
		IsDir:    true,
		Children: make([]*Node, 0),
	}
}

func newFile(name, full string, size int64) *Node {
	return &Node{
		Name:     name,
		Type:     FileType(name),
		Path:     full,
		Size:     size,
		IsBinary: IsBinary(name),
	}
}

func setFolder(n *Node) {
	n.Type = TypeFolder
	n.IsDir = true
	n.IsBinary = false
	n.Size = 0
	if n.Children == nil {
		n.Children = make([]*Node, 0)
	}
}

// update applies a repeated record to an existing node, keeping folder contents already attached.
func update(n *Node, record Record) {
	if record.IsDir {
		setFolder(n)
		return
	}
	if n.IsDir && len(n.Children) > 0 {
		return
	}
	*n = *newFile(n.Name, n.Path, record.Size)
}

// Find returns the node with the given full path.
func (t *Tree) Find(p string) *Node {
	p = strings.Trim(p, "/")
	return find(t.Roots, p)
}

func find(nodes []*Node, p string) *Node {
	for _, n := range nodes {
		if n.Path == p {
			return n
		}
		if n.IsDir && strings.HasPrefix(p, n.Path+"/") {
			return find(n.Children, p)
		}
	}
	return nil
}

// Expand replaces the children of the folder at p with a listing of that folder. Sibling branches keep
// their state. It returns false when p is not a known folder.
func (t *Tree) Expand(p string, records []Record) bool {
	p = strings.Trim(p, "/")
	if p == t.BasePath {
		t.Roots = build(t.BasePath, records)
		return true
	}

	n := t.Find(p)
	if n == nil || !n.IsDir {
		return false
	}
	n.Children = build(p, records)
	n.Loaded = true
	return true
}

// AppendPage merges a further page of the listing of p into the tree without dropping existing children.
func (t *Tree) AppendPage(p string, records []Record) bool {
	p = strings.Trim(p, "/")
	if p == t.BasePath {
		t.Roots = merge(t.Roots, build(t.BasePath, records))
		return true
	}

	n := t.Find(p)
	if n == nil || !n.IsDir {
		return false
	}
	n.Children = merge(n.Children, build(p, records))
	n.Loaded = true
	return true
}

func merge(existing, page []*Node) []*Node {
	for _, incoming := range page {
		var match *Node
		for _, n := range existing {
			if n.Name == incoming.Name {
				match = n
				break
			}
		}
		switch {
		case match == nil:
			existing = append(existing, incoming)
		case match.IsDir && incoming.IsDir:
			match.Children = merge(match.Children, incoming.Children)
			match.Loaded = match.Loaded || incoming.Loaded
		default:
			*match = *incoming
		}
	}
	return existing
}

// Walk visits every node depth first in sibling order. Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	walk(t.Roots, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(n *Node, depth int) bool) {
	for _, n := range nodes {
		if fn(n, depth) && n.IsDir {
			walk(n.Children, depth+1, fn)
		}
	}
}

// Len counts the nodes of the tree.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}
