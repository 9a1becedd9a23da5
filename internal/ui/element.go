// Package ui holds the element handles the interaction controller patches and the
// binding table that maps entity identifiers to them.
package ui

import (
	"slices"
	"strings"
	"sync"
)

// Element is a patchable UI node.
type Element interface {
	AddClass(class string)
	RemoveClass(class string)
	HasClass(class string) bool
	SetText(text string)
	Text() string
	SetAttr(name, value string)
	Attr(name string) string
}

// Node is an in-memory Element. It is safe for concurrent use.
type Node struct {
	mu      sync.RWMutex
	classes []string
	text    string
	attrs   map[string]string
}

// NewNode returns a node carrying the given text and classes.
func NewNode(text string, classes ...string) *Node {
	n := &Node{text: text}
	for _, c := range classes {
		n.AddClass(c)
	}
	return n
}

func (n *Node) AddClass(class string) {
	class = strings.TrimSpace(class)
	if class == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if !slices.Contains(n.classes, class) {
		n.classes = append(n.classes, class)
	}
}

func (n *Node) RemoveClass(class string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.classes = slices.DeleteFunc(n.classes, func(c string) bool { return c == class })
}

func (n *Node) HasClass(class string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Contains(n.classes, class)
}

// ClassName renders the class list the way a class attribute would.
func (n *Node) ClassName() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return strings.Join(n.classes, " ")
}

func (n *Node) SetText(text string) {
	n.mu.Lock()
	n.text = text
	n.mu.Unlock()
}

func (n *Node) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

func (n *Node) SetAttr(name, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
}

func (n *Node) Attr(name string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.attrs[name]
}

var _ Element = (*Node)(nil)
