package sumtree

import (
	"cosmossdk.io/math"

	"tickbook/internal/bookerr"
	"tickbook/internal/store"
)

// Tree is a handle onto one (book, tick, direction) sum-tree. It
// carries no state of its own beyond the coordinates used to build
// storage keys; every operation reloads nodes from the store.
type Tree struct {
	s         *store.Store
	bookID    uint64
	tickID    int64
	direction string
}

// New returns a handle onto the sum-tree for the given book, tick and
// direction ("bid" or "ask"). The tree need not exist yet; it is
// created lazily on the first Insert.
func New(s *store.Store, bookID uint64, tickID int64, direction string) *Tree {
	return &Tree{s: s, bookID: bookID, tickID: tickID, direction: direction}
}

func (t *Tree) rootKey() string {
	return store.SumtreeRootKey(t.bookID, t.tickID, t.direction)
}

func (t *Tree) nodeKey(id uint64) string {
	return store.SumtreeNodeKey(t.bookID, t.tickID, t.direction, id)
}

// Root returns the tree's root node, if the tree has ever had a leaf
// inserted into it.
func (t *Tree) Root() (*Node, bool) {
	id, ok := store.Get[uint64](t.s, t.rootKey())
	if !ok {
		return nil, false
	}
	return t.load(id)
}

func (t *Tree) load(id uint64) (*Node, bool) {
	n, ok := store.Get[Node](t.s, t.nodeKey(id))
	if !ok {
		return nil, false
	}
	return &n, true
}

func (t *Tree) save(n *Node) {
	store.Set(t.s, t.nodeKey(n.Key), *n)
}

func (t *Tree) remove(id uint64) {
	t.s.Delete(t.nodeKey(id))
}

func (t *Tree) nextID() uint64 {
	return store.NextSequence(t.s, store.SumtreeNodeCounterKey(t.bookID, t.tickID, t.direction))
}

func (t *Tree) setRoot(id uint64) {
	store.Set(t.s, t.rootKey(), id)
}

func (t *Tree) clearRoot() {
	t.s.Delete(t.rootKey())
}

// Insert records a cancellation of value at the given ETAS position.
// If the tree is empty, the leaf becomes the root directly; if the
// root is a lone leaf, the two leaves are split under a new internal
// root; otherwise it descends per the case ladder in node.rs and
// rebalances on the way back up.
func (t *Tree) Insert(etas, value math.Int) error {
	leaf := &Node{
		BookID:    t.bookID,
		TickID:    t.tickID,
		Direction: t.direction,
		Kind:      KindLeaf,
		Etas:      etas,
		Value:     value,
		Key:       t.nextID(),
	}

	root, ok := t.Root()
	if !ok {
		t.save(leaf)
		t.setRoot(leaf.Key)
		return nil
	}

	if !root.isInternal() {
		newRootID, err := t.split(root, leaf)
		if err != nil {
			return err
		}
		t.setRoot(newRootID)
		return nil
	}

	return t.insertInto(root, leaf)
}

// insertInto descends from node looking for where newLeaf belongs.
// It mutates and saves node's own counters before recursing or
// attaching, matching TreeNode::insert's traversal order: counters
// along the descent path are updated first, then the case ladder
// decides where the leaf actually lands.
func (t *Tree) insertInto(node *Node, newLeaf *Node) error {
	if !node.isInternal() {
		return bookerr.InvalidNodeTypeError{NodeID: node.Key}
	}
	if newLeaf.isInternal() {
		return bookerr.InvalidNodeTypeError{NodeID: newLeaf.Key}
	}

	node.Accumulator = node.Accumulator.Add(newLeaf.getValue())
	if node.RangeMin.GT(newLeaf.minRange()) {
		node.RangeMin = newLeaf.minRange()
	}
	if node.RangeMax.LT(newLeaf.maxRange()) {
		node.RangeMax = newLeaf.maxRange()
	}
	node.Weight++

	var left, right *Node
	if node.Left != nil {
		left, _ = t.load(*node.Left)
	}
	if node.Right != nil {
		right, _ = t.load(*node.Right)
	}

	isLeftInternal := left != nil && left.isInternal()
	isRightInternal := right != nil && right.isInternal()
	isInLeftRange := left != nil && newLeaf.minRange().LTE(left.maxRange())
	isInRightRange := right != nil && newLeaf.minRange().GTE(right.minRange())

	// Case 1 left.
	if isLeftInternal && isInLeftRange {
		t.save(node)
		if err := t.insertInto(left, newLeaf); err != nil {
			return err
		}
		return t.rebalance(node)
	}

	// Case 1 right.
	if isRightInternal && isInRightRange {
		t.save(node)
		if err := t.insertInto(right, newLeaf); err != nil {
			return err
		}
		return t.rebalance(node)
	}

	// Both children internal: tie-break left.
	if isRightInternal && isLeftInternal {
		t.save(node)
		if err := t.insertInto(left, newLeaf); err != nil {
			return err
		}
		return t.rebalance(node)
	}

	// Case 2: left empty, attach left.
	if left == nil {
		node.Left = &newLeaf.Key
		newLeaf.Parent = &node.Key
		t.save(newLeaf)
		t.save(node)
		return t.rebalance(node)
	}

	// Case 3 reordering: new leaf sits entirely below the left leaf
	// and right is empty - demote the existing left to right, new
	// leaf takes left, preserving ETAS order.
	isLowerThanLeftLeaf := !left.isInternal() && newLeaf.maxRange().LTE(left.minRange())
	if isLowerThanLeftLeaf && right == nil {
		node.Right = node.Left
		node.Left = &newLeaf.Key
		newLeaf.Parent = &node.Key
		t.save(newLeaf)
		t.save(node)
		return t.rebalance(node)
	}

	// Case 3: out of range for left, right empty, attach right.
	if !isInLeftRange && right == nil {
		node.Right = &newLeaf.Key
		newLeaf.Parent = &node.Key
		t.save(newLeaf)
		t.save(node)
		return t.rebalance(node)
	}

	leftIsLeaf := left != nil && !left.isInternal()
	rightIsLeaf := right != nil && !right.isInternal()
	isHigherThanRightLeaf := right != nil && !right.isInternal() && newLeaf.minRange().GTE(right.maxRange())

	// Case 4: left is a leaf, new leaf isn't clearly above the right
	// leaf - split left into an internal pair.
	if leftIsLeaf && !isHigherThanRightLeaf {
		newLeftID, err := t.split(left, newLeaf)
		if err != nil {
			return err
		}
		node.Left = &newLeftID
		t.save(node)
		return t.rebalance(node)
	}

	// Case 5 reordering (symmetric to case 3's reordering).
	if isHigherThanRightLeaf && left == nil {
		node.Left = node.Right
		node.Right = &newLeaf.Key
		newLeaf.Parent = &node.Key
		t.save(newLeaf)
		t.save(node)
		return t.rebalance(node)
	}

	// Case 5: out of left's range, right is a leaf, split right.
	if !isInLeftRange && rightIsLeaf {
		newRightID, err := t.split(right, newLeaf)
		if err != nil {
			return err
		}
		node.Right = &newRightID
		t.save(node)
		return t.rebalance(node)
	}

	return nil
}

// split replaces a leaf with a new internal parent holding both the
// existing leaf and the new one, ordered ascending by ETAS.
func (t *Tree) split(existing *Node, newLeaf *Node) (uint64, error) {
	if existing.isInternal() {
		return 0, bookerr.InvalidNodeTypeError{NodeID: existing.Key}
	}

	id := t.nextID()
	accumulator := existing.getValue().Add(newLeaf.getValue())

	var leftID, rightID uint64
	if existing.minRange().LT(newLeaf.minRange()) {
		leftID, rightID = existing.Key, newLeaf.Key
	} else {
		leftID, rightID = newLeaf.Key, existing.Key
	}

	newMin := existing.minRange()
	if newLeaf.minRange().LT(newMin) {
		newMin = newLeaf.minRange()
	}
	newMax := existing.maxRange()
	if newLeaf.maxRange().GT(newMax) {
		newMax = newLeaf.maxRange()
	}

	parent := &Node{
		BookID:      t.bookID,
		TickID:      t.tickID,
		Direction:   t.direction,
		Key:         id,
		Kind:        KindInternal,
		Accumulator: accumulator,
		RangeMin:    newMin,
		RangeMax:    newMax,
		Weight:      2,
		Parent:      existing.Parent,
		Left:        &leftID,
		Right:       &rightID,
	}

	existing.Parent = &id
	newLeaf.Parent = &id

	t.save(parent)
	t.save(existing)
	t.save(newLeaf)

	return id, nil
}

// Delete removes the node with the given key and prunes any ancestor
// left childless by the removal, resyncing the rest of the ancestor
// chain.
func (t *Tree) Delete(nodeID uint64) error {
	node, ok := t.load(nodeID)
	if !ok {
		return nil
	}
	return t.delete(node)
}

func (t *Tree) delete(node *Node) error {
	if node.Parent != nil {
		parent, ok := t.load(*node.Parent)
		if ok {
			if parent.Left != nil && *parent.Left == node.Key {
				parent.Left = nil
			} else if parent.Right != nil && *parent.Right == node.Key {
				parent.Right = nil
			}

			if !parent.hasChild() {
				if err := t.delete(parent); err != nil {
					return err
				}
			} else if err := t.syncRangeAndValue(parent); err != nil {
				return err
			}
		}
	} else if rootID, ok := store.Get[uint64](t.s, t.rootKey()); ok && rootID == node.Key {
		t.clearRoot()
	}

	t.remove(node.Key)
	return nil
}

// syncRangeAndValue recomputes an internal node's range, accumulator
// and weight from its current children, saves it, and propagates the
// same recomputation up through its parent chain.
func (t *Tree) syncRangeAndValue(node *Node) error {
	if !node.isInternal() {
		return bookerr.InvalidNodeTypeError{NodeID: node.Key}
	}

	var left, right *Node
	if node.Left != nil {
		left, _ = t.load(*node.Left)
	}
	if node.Right != nil {
		right, _ = t.load(*node.Right)
	}

	if left == nil && right == nil {
		return nil
	}

	var min, max math.Int
	switch {
	case left != nil && right == nil:
		min, max = left.minRange(), left.maxRange()
	case right != nil && left == nil:
		min, max = right.minRange(), right.maxRange()
	default:
		min = left.minRange()
		if right.minRange().LT(min) {
			min = right.minRange()
		}
		max = left.maxRange()
		if right.maxRange().GT(max) {
			max = right.maxRange()
		}
	}
	node.RangeMin = min
	node.RangeMax = max

	value := math.ZeroInt()
	if left != nil {
		value = value.Add(left.getValue())
	}
	if right != nil {
		value = value.Add(right.getValue())
	}
	node.Accumulator = value

	var weight uint64
	if left != nil {
		weight += left.getWeight()
	}
	if right != nil {
		weight += right.getWeight()
	}
	node.Weight = weight

	t.save(node)

	if node.Parent != nil {
		if parent, ok := t.load(*node.Parent); ok {
			return t.syncRangeAndValue(parent)
		}
	}
	return nil
}

func (t *Tree) balanceFactor(node *Node) int {
	var leftWeight, rightWeight uint64
	if node.Left != nil {
		if l, ok := t.load(*node.Left); ok {
			leftWeight = l.getWeight()
		}
	}
	if node.Right != nil {
		if r, ok := t.load(*node.Right); ok {
			rightWeight = r.getWeight()
		}
	}
	return int(rightWeight) - int(leftWeight)
}

// rebalance checks node's balance factor and applies the appropriate
// single or double rotation. It reloads node fresh from the store
// first, mirroring TreeNode::rebalance's self.sync call, since callers
// may hold a copy mutated earlier in the same insert/delete pass.
func (t *Tree) rebalance(node *Node) error {
	fresh, ok := t.load(node.Key)
	if !ok {
		return bookerr.InvalidNodeTypeError{NodeID: node.Key}
	}
	node = fresh

	if !node.isInternal() {
		return bookerr.InvalidNodeTypeError{NodeID: node.Key}
	}
	if !node.hasChild() {
		return bookerr.ChildlessInternalNodeError{NodeID: node.Key}
	}

	bf := t.balanceFactor(node)
	if bf >= -1 && bf <= 1 {
		return nil
	}

	var left, right *Node
	if node.Left != nil {
		left, _ = t.load(*node.Left)
	}
	if node.Right != nil {
		right, _ = t.load(*node.Right)
	}

	isRightLeaning := bf > 0
	isLeftLeaning := bf < 0

	rightBF := 0
	if right != nil {
		rightBF = t.balanceFactor(right)
	}
	leftBF := 0
	if left != nil {
		leftBF = t.balanceFactor(left)
	}

	switch {
	case isRightLeaning && rightBF >= 0:
		return t.rotateLeft(node)
	case isLeftLeaning && leftBF <= 0:
		return t.rotateRight(node)
	case isRightLeaning && rightBF < 0:
		if err := t.rotateRight(right); err != nil {
			return err
		}
		fresh, ok := t.load(node.Key)
		if !ok {
			return bookerr.InvalidNodeTypeError{NodeID: node.Key}
		}
		return t.rotateLeft(fresh)
	case isLeftLeaning && leftBF > 0:
		if err := t.rotateLeft(left); err != nil {
			return err
		}
		fresh, ok := t.load(node.Key)
		if !ok {
			return bookerr.InvalidNodeTypeError{NodeID: node.Key}
		}
		return t.rotateRight(fresh)
	}

	return nil
}

// rotateRight rotates x's left child up, demoting x to be its new
// right child. Called on the root of the subtree being rotated.
func (t *Tree) rotateRight(x *Node) error {
	if x.Left == nil {
		return bookerr.InvalidNodeTypeError{NodeID: x.Key}
	}
	l, ok := t.load(*x.Left)
	if !ok {
		return bookerr.InvalidNodeTypeError{NodeID: x.Key}
	}

	var parent *Node
	if x.Parent != nil {
		parent, _ = t.load(*x.Parent)
	}
	isLeftChild := parent != nil && parent.Left != nil && *parent.Left == x.Key
	isRightChild := parent != nil && parent.Right != nil && *parent.Right == x.Key

	l.Parent = x.Parent
	x.Parent = &l.Key
	x.Left = l.Right

	if x.Left != nil {
		if newLeftChild, ok := t.load(*x.Left); ok {
			newLeftChild.Parent = &x.Key
			t.save(newLeftChild)
		}
	}

	l.Right = &x.Key

	t.save(l)
	t.save(x)

	if err := t.syncRangeAndValue(x); err != nil {
		return err
	}

	if l.Parent == nil {
		t.setRoot(l.Key)
	}

	if isLeftChild {
		parent.Left = &l.Key
		t.save(parent)
	}
	if isRightChild {
		parent.Right = &l.Key
		t.save(parent)
	}

	return nil
}

// rotateLeft rotates x's right child up, demoting x to be its new
// left child. Derived from first principles rather than transliterated,
// per the rotation-symmetry risk flagged against the original
// rotate_left (which re-parented via the wrong child accessor).
func (t *Tree) rotateLeft(x *Node) error {
	if x.Right == nil {
		return bookerr.InvalidNodeTypeError{NodeID: x.Key}
	}
	r, ok := t.load(*x.Right)
	if !ok {
		return bookerr.InvalidNodeTypeError{NodeID: x.Key}
	}

	var parent *Node
	if x.Parent != nil {
		parent, _ = t.load(*x.Parent)
	}
	isLeftChild := parent != nil && parent.Left != nil && *parent.Left == x.Key
	isRightChild := parent != nil && parent.Right != nil && *parent.Right == x.Key

	r.Parent = x.Parent
	x.Parent = &r.Key
	x.Right = r.Left

	if x.Right != nil {
		if newRightChild, ok := t.load(*x.Right); ok {
			newRightChild.Parent = &x.Key
			t.save(newRightChild)
		}
	}

	r.Left = &x.Key

	t.save(r)
	t.save(x)

	if err := t.syncRangeAndValue(x); err != nil {
		return err
	}

	if r.Parent == nil {
		t.setRoot(r.Key)
	}

	if isLeftChild {
		parent.Left = &r.Key
		t.save(parent)
	}
	if isRightChild {
		parent.Right = &r.Key
		t.save(parent)
	}

	return nil
}

// PrefixSum returns the sum of every leaf's value whose ETAS is
// strictly less than target.
func (t *Tree) PrefixSum(target math.Int) (math.Int, error) {
	root, ok := t.Root()
	if !ok {
		return math.ZeroInt(), nil
	}
	return t.prefixSumWalk(root, root.getValue(), target)
}

func (t *Tree) prefixSumWalk(node *Node, currentSum, target math.Int) (math.Int, error) {
	if target.LT(node.minRange()) {
		return math.ZeroInt(), nil
	}
	if target.GTE(node.maxRange()) {
		return currentSum, nil
	}
	if !node.isInternal() {
		// A leaf that starts exactly at target is not strictly before it.
		if target.Equal(node.minRange()) {
			return currentSum.Sub(node.getValue()), nil
		}
		return currentSum, nil
	}

	var left, right *Node
	if node.Left != nil {
		left, _ = t.load(*node.Left)
	}
	if node.Right != nil {
		right, _ = t.load(*node.Right)
	}

	if left != nil {
		if target.LT(left.minRange()) {
			return math.ZeroInt(), nil
		}
		if target.LTE(left.maxRange()) {
			rightSum := math.ZeroInt()
			if right != nil {
				rightSum = right.getValue()
			}
			return t.prefixSumWalk(left, currentSum.Sub(rightSum), target)
		}
	}

	if right == nil {
		return currentSum, nil
	}

	if target.LT(right.minRange()) {
		return currentSum.Sub(right.getValue()), nil
	}
	if target.LTE(right.maxRange()) {
		return t.prefixSumWalk(right, currentSum, target)
	}
	return currentSum, nil
}

// Traverse returns every node in the tree via a depth-first,
// left-to-right walk - leaves come out ordered ascending by ETAS.
// Used by tests to assert the AVL invariants directly.
func (t *Tree) Traverse() ([]*Node, error) {
	root, ok := t.Root()
	if !ok {
		return nil, nil
	}
	return t.traverse(root), nil
}

func (t *Tree) traverse(node *Node) []*Node {
	nodes := []*Node{node}
	if !node.isInternal() {
		return nodes
	}
	if node.Left != nil {
		if l, ok := t.load(*node.Left); ok {
			nodes = append(nodes, t.traverse(l)...)
		}
	}
	if node.Right != nil {
		if r, ok := t.load(*node.Right); ok {
			nodes = append(nodes, t.traverse(r)...)
		}
	}
	return nodes
}

// BalanceFactor exposes a node's balance factor for tests.
func (t *Tree) BalanceFactor(node *Node) int {
	return t.balanceFactor(node)
}
