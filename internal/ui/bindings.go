package ui

import "sync"

// Kind names the role an element plays for an entity.
type Kind string

const (
	LikeIcon      Kind = "like-icon"
	LikeCount     Kind = "like-count"
	CommentCount  Kind = "comment-count"
	FollowButton  Kind = "follow-button"
	FollowerCount Kind = "follower-count"
)

type bindingKey struct {
	kind Kind
	id   string
}

// Bindings maps (kind, entity id) pairs to the elements that display them.
// The same entity may be shown in several places; every bound element is patched.
type Bindings struct {
	mu       sync.RWMutex
	elements map[bindingKey][]Element
}

// NewBindings returns an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{elements: make(map[bindingKey][]Element)}
}

// Bind registers el for the entity. Binding the same element twice is a no-op.
func (b *Bindings) Bind(kind Kind, id string, el Element) {
	if el == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := bindingKey{kind: kind, id: id}
	for _, existing := range b.elements[key] {
		if existing == el {
			return
		}
	}
	b.elements[key] = append(b.elements[key], el)
}

// Unbind removes el from the entity's bindings.
func (b *Bindings) Unbind(kind Kind, id string, el Element) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := bindingKey{kind: kind, id: id}
	list := b.elements[key]
	for i, existing := range list {
		if existing == el {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(b.elements, key)
		return
	}
	b.elements[key] = list
}

// Elements returns a snapshot of the elements bound to the entity.
func (b *Bindings) Elements(kind Kind, id string) []Element {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := b.elements[bindingKey{kind: kind, id: id}]
	out := make([]Element, len(list))
	copy(out, list)
	return out
}

// Each applies fn to every element bound to the entity and reports how many were patched.
func (b *Bindings) Each(kind Kind, id string, fn func(Element)) int {
	elements := b.Elements(kind, id)
	for _, el := range elements {
		fn(el)
	}
	return len(elements)
}
