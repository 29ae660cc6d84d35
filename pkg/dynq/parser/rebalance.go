package parser

import (
	"github.com/AndreVianna/dynamicquery/pkg/dynq/ast"
)

// Rebalance rotates the left-leaning parse tree so higher-precedence
// operators bind tighter than lower ones, and returns the new root.
//
// Construction folds every operator onto the accumulated left subtree, so
// "2 + 3 * 4" parses as *(+(2,3),4). A left rotation moves the + back above
// the *: the displaced last child of the + becomes the *'s first operand.
// Equal precedence never rotates, which keeps equal-precedence runs
// left-associative.
//
// Children are rebalanced before their parent, and the node a rotation
// pushes down is rebalanced again against its new first operand.
//
// Parenthesized subtrees are atomic: nothing rotates across a scope
// boundary, though their contents rebalance internally. After this pass, no
// operator node has an unscoped looser-binding operator as its first child.
func Rebalance(node *ast.TreeNode) *ast.TreeNode {
	if node == nil {
		return nil
	}

	for i, child := range node.Children {
		node.Children[i] = Rebalance(child)
	}

	if !node.IsOperator() {
		return node
	}
	first := node.First()
	if first == nil || !first.IsOperator() || first.Scoped || first.Precedence <= node.Precedence {
		return node
	}

	root := rotate(node, first)
	root.Children[len(root.Children)-1] = Rebalance(node)
	return root
}

// rotate lifts child above node: child becomes the subtree root, node takes
// child's place holding the displaced operand.
func rotate(node, child *ast.TreeNode) *ast.TreeNode {
	displaced := child.Last()
	child.Children[len(child.Children)-1] = node
	node.Children[0] = displaced
	// A rotation inside a parenthesized subtree moves its root; the scope
	// boundary moves with it.
	child.Scoped = node.Scoped
	node.Scoped = false
	return child
}
