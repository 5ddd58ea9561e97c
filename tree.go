package bsptree

import (
	"github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// DefaultNormal is the splitting plane orientation shared by every node unless overridden.
var DefaultNormal = mgl32.Vec3{0, 0, 1}

// Entity is anything that can be stored in the tree. The tree compares entities by identity,
// so implementations should be pointer types.
type Entity interface {
	Position() mgl32.Vec3
}

// Releaser is implemented by entities that want to be told when the tree destroys the node
// that owns them.
type Releaser interface {
	Release()
}

type Node struct {
	anchor Entity

	front *Node
	back  *Node
}

func (n *Node) Anchor() Entity { return n.anchor }
func (n *Node) Front() *Node   { return n.front }
func (n *Node) Back() *Node    { return n.back }

func (n *Node) IsLeaf() bool {
	return n.front == nil && n.back == nil
}

// distance is the signed distance of p from the plane through the anchor's current position.
func (n *Node) distance(p, normal mgl32.Vec3) float32 {
	return p.Sub(n.anchor.Position()).Dot(normal)
}

// slot returns the child link p falls into: front for distance >= 0, back otherwise.
func (n *Node) slot(p, normal mgl32.Vec3) **Node {
	if n.distance(p, normal) < 0 {
		return &n.back
	}
	return &n.front
}

// appendFrontItems walks back, self, front for nodes in front of the viewer. A node that fails
// the test drops its back subtree from the result but its front subtree is still visited.
func (n *Node) appendFrontItems(v Viewer, result []Entity, checkFrustum bool) []Entity {
	if n == nil {
		return result
	}

	pos := n.anchor.Position()
	inFront := pos.Sub(v.Position()).Dot(v.Front()) > 0
	inFrustum := !checkFrustum || IsPointInFrustum(pos, v)

	if inFront && inFrustum {
		result = n.back.appendFrontItems(v, result, checkFrustum)
		result = append(result, n.anchor)
	}

	return n.front.appendFrontItems(v, result, checkFrustum)
}

type Tree struct {
	root   *Node
	normal mgl32.Vec3

	result []Entity
}

type TreeOption func(*Tree)

// WithNormal sets the splitting plane normal used by every node.
func WithNormal(normal mgl32.Vec3) TreeOption {
	return func(t *Tree) {
		t.normal = normal
	}
}

// NewTree creates a tree whose root partitions space around root. The root can never be removed.
func NewTree(root Entity, options ...TreeOption) *Tree {
	if root == nil {
		panic("bsptree: nil root entity")
	}

	t := &Tree{
		root:   &Node{anchor: root},
		normal: DefaultNormal,
		result: make([]Entity, 0),
	}

	for _, option := range options {
		option(t)
	}

	return t
}

func (t *Tree) Root() *Node {
	return t.root
}

func (t *Tree) Normal() mgl32.Vec3 {
	return t.normal
}

// Insert places e in the first empty slot reached by following the signed distance rule
// from the root. The tree is never rebalanced.
func (t *Tree) Insert(e Entity) {
	if e == nil {
		panic("bsptree: insert of nil entity")
	}

	p := e.Position()
	cur := t.root

	for {
		slot := cur.slot(p, t.normal)
		if *slot == nil {
			*slot = &Node{anchor: e}
			return
		}
		cur = *slot
	}
}

// Remove destroys the node anchoring e and splices its children back into the tree.
// The search follows the same distance rule as Insert using current positions, so an entity
// that moved across an ancestor's plane after insertion is not found and the call does nothing.
func (t *Tree) Remove(e Entity) {
	if e == nil {
		return
	}

	p := e.Position()
	if e == t.root.anchor {
		log.Debugln("bsptree: the root entity cannot be removed", p)
		return
	}

	cur := t.root

	for {
		slot := cur.slot(p, t.normal)
		child := *slot
		if child == nil {
			break
		}

		if child.anchor == e {
			*slot = mergeSubtrees(child.front, child.back)
			child.front = nil
			child.back = nil
			release(child)
			return
		}

		cur = child
	}

	if t.Contains(e) {
		log.Warnln("bsptree: entity is in the tree but unreachable from its current position", p)
	} else {
		log.Debugln("bsptree: remove of entity not in tree", p)
	}
}

// mergeSubtrees hangs back off the end of front's chain of front links.
func mergeSubtrees(front, back *Node) *Node {
	if front == nil {
		return back
	}
	if back == nil {
		return front
	}

	rightmost := front
	for rightmost.front != nil {
		rightmost = rightmost.front
	}
	rightmost.front = back

	return front
}

// CurrentFrontItems returns the entities in front of v (and inside its frustum when
// checkFrustum is set) in traversal order. The returned slice belongs to the caller.
func (t *Tree) CurrentFrontItems(v Viewer, checkFrustum bool) []Entity {
	for i := range t.result {
		t.result[i] = nil
	}
	t.result = t.root.appendFrontItems(v, t.result[:0], checkFrustum)

	items := make([]Entity, len(t.result))
	copy(items, t.result)
	return items
}

// Walk visits every node pre-order (self, back, front) until fn returns false.
func (t *Tree) Walk(fn func(e Entity, depth int) bool) {
	walkNode(t.root, 0, fn)
}

func walkNode(n *Node, depth int, fn func(e Entity, depth int) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n.anchor, depth) {
		return false
	}
	if !walkNode(n.back, depth+1, fn) {
		return false
	}
	return walkNode(n.front, depth+1, fn)
}

// Len returns the number of entities in the tree, root included.
func (t *Tree) Len() int {
	ct := 0
	t.Walk(func(Entity, int) bool {
		ct++
		return true
	})
	return ct
}

// Depth returns the number of nodes on the longest root to leaf path.
func (t *Tree) Depth() int {
	max := 0
	t.Walk(func(_ Entity, depth int) bool {
		if depth+1 > max {
			max = depth + 1
		}
		return true
	})
	return max
}

// Contains reports whether e anchors any node, scanning the whole tree rather than
// following the distance rule.
func (t *Tree) Contains(e Entity) bool {
	found := false
	t.Walk(func(a Entity, _ int) bool {
		found = a == e
		return !found
	})
	return found
}

// Clear destroys every node below the root, releasing each anchor once.
func (t *Tree) Clear() {
	destroy(t.root.front)
	destroy(t.root.back)
	t.root.front = nil
	t.root.back = nil

	for i := range t.result {
		t.result[i] = nil
	}
	t.result = t.result[:0]
}

func destroy(n *Node) {
	stack := []*Node{}
	if n != nil {
		stack = append(stack, n)
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.front != nil {
			stack = append(stack, cur.front)
		}
		if cur.back != nil {
			stack = append(stack, cur.back)
		}

		cur.front = nil
		cur.back = nil
		release(cur)
	}
}

func release(n *Node) {
	if r, ok := n.anchor.(Releaser); ok {
		r.Release()
	}
	n.anchor = nil
}
