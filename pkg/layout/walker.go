package layout

import "github.com/matzehuels/atomtree/pkg/tree"

// wnode is the working state of one node during the two walks.
type wnode struct {
	node     *tree.HierarchyNode
	parent   *wnode
	children []*wnode

	prelim   float64 // preliminary x
	mod      float64 // modifier applied to the subtree
	change   float64
	shift    float64
	thread   *wnode
	ancestor *wnode
	defAnc   *wnode // default ancestor while apportioning the children
	index    int
}

type walker struct {
	root *wnode
	sep  SeparationFunc
}

func newWalker(root *tree.HierarchyNode, sep SeparationFunc) *walker {
	wroot := wrap(root, 0)
	// Synthetic parent so the root can be treated like any other child.
	wroot.parent = &wnode{children: []*wnode{wroot}}
	return &walker{root: wroot, sep: sep}
}

func wrap(n *tree.HierarchyNode, index int) *wnode {
	w := &wnode{node: n, index: index}
	w.ancestor = w
	if len(n.Children) > 0 {
		w.children = make([]*wnode, len(n.Children))
		for i, c := range n.Children {
			cw := wrap(c, i)
			cw.parent = w
			w.children[i] = cw
		}
	}
	return w
}

// firstWalk computes preliminary positions in post-order.
func (t *walker) firstWalk(v *wnode) {
	for _, c := range v.children {
		t.firstWalk(c)
	}

	siblings := v.parent.children
	var w *wnode
	if v.index > 0 {
		w = siblings[v.index-1]
	}

	if len(v.children) > 0 {
		executeShifts(v)
		midpoint := (v.children[0].prelim + v.children[len(v.children)-1].prelim) / 2
		if w != nil {
			v.prelim = w.prelim + t.sep(v.node, w.node)
			v.mod = v.prelim - midpoint
		} else {
			v.prelim = midpoint
		}
	} else if w != nil {
		v.prelim = w.prelim + t.sep(v.node, w.node)
	}

	anc := v.parent.defAnc
	if anc == nil {
		anc = siblings[0]
	}
	v.parent.defAnc = t.apportion(v, w, anc)
}

// secondWalk computes final breadth positions in pre-order.
func (t *walker) secondWalk(v *wnode) {
	v.node.X = v.prelim + v.parent.mod
	v.mod += v.parent.mod
	for _, c := range v.children {
		t.secondWalk(c)
	}
}

// apportion pushes the subtree of v away from its left siblings' subtrees
// until the contours no longer overlap.
func (t *walker) apportion(v, w, ancestor *wnode) *wnode {
	if w == nil {
		return ancestor
	}

	vip, vop := v, v
	vim := w
	vom := vip.parent.children[0]
	sip, sop := vip.mod, vop.mod
	sim, som := vim.mod, vom.mod

	for {
		vim = nextRight(vim)
		vip = nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom = nextLeft(vom)
		vop = nextRight(vop)
		vop.ancestor = v

		shift := vim.prelim + sim - vip.prelim - sip + t.sep(vim.node, vip.node)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.mod
		sip += vip.mod
		som += vom.mod
		sop += vop.mod
	}

	if vim != nil && nextRight(vop) == nil {
		vop.thread = vim
		vop.mod += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.thread = vip
		vom.mod += sip - som
		ancestor = v
	}
	return ancestor
}

func nextLeft(v *wnode) *wnode {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.thread
}

func nextRight(v *wnode) *wnode {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.thread
}

func moveSubtree(wm, wp *wnode, shift float64) {
	change := shift / float64(wp.index-wm.index)
	wp.change -= change
	wp.shift += shift
	wm.change += change
	wp.prelim += shift
	wp.mod += shift
}

func executeShifts(v *wnode) {
	var shift, change float64
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.prelim += shift
		w.mod += shift
		change += w.change
		shift += w.shift + change
	}
}

func nextAncestor(vim, v, ancestor *wnode) *wnode {
	if vim.ancestor.parent == v.parent {
		return vim.ancestor
	}
	return ancestor
}
