package frontend

import (
	"fmt"
	"strings"
)

// NodeKind tags the variant a Node represents. The AST is a single sum
// type: every node owns its children uniquely, and the meaning of
// Op/Name/BoolVal varies by Kind rather than by a family of distinct structs.
type NodeKind int

const (
	// Identifiers.
	NodeIdentRef NodeKind = iota
	NodeIdentBinding
	NodeLabel
	NodePrivateName

	// Literals.
	NodeNull
	NodeBool
	NodeInt
	NodeFloat
	NodeString

	// Expressions.
	NodeThis
	NodeMember     // Op: "." or "[]"; Children[0]=object; Name=property for "."; Children[1]=property expr for "[]"
	NodeCall       // Children[0]=callee, Children[1:]=args
	NodeNew        // Children[0]=callee, Children[1:]=args
	NodeUpdate     // Op: "++"/"--"; BoolVal: prefix; Children[0]=operand
	NodeUnary      // Op: "+","-","!","~","void","typeof"; Children[0]=operand
	NodeBinary     // Op: arithmetic/bitwise/relational/in/instanceof; Children[0],[1]
	NodeLogical    // Op: "&&","||","??"; Children[0],[1]
	NodeConditional // Children[0]=test,[1]=consequent,[2]=alternate
	NodeAssign     // Op: "=","+=",... ; Children[0]=target,[1]=value
	NodeSequence   // Children: expressions evaluated left to right

	// Statements.
	NodeBlock
	NodeEmpty
	NodeExprStmt
	NodeIf      // Children[0]=test,[1]=consequent,[2]=alternate(optional)
	NodeWhile   // Children[0]=test,[1]=body
	NodeDoWhile // Children[0]=body,[1]=test
	NodeFor     // Children[0]=init(optional),[1]=test(optional),[2]=update(optional),[3]=body
	NodeBreak
	NodeContinue
	NodeReturn // Children[0]=argument(optional)
	NodeThrow  // Children[0]=argument

	// Declarations.
	NodeLexicalDecl  // Op: "let"/"const"; Children: NodeDeclarator*
	NodeDeclarator   // Name: binding name; TypeAnn: annotation; Children[0]=initialiser(optional)
	NodeParam        // Name: parameter name; TypeAnn: annotation
	NodeFunctionDecl // Name: function name; Children[0..n-1]=NodeParam, last child=NodeBlock body; ReturnAnn set
)

// Node is a single AST node. Only the fields meaningful for Kind are set;
// see the NodeKind doc comments above for the per-kind layout.
type Node struct {
	Kind     NodeKind
	Line     int
	Column   int
	Offset   int // Byte offset of the first token, used by function discovery to slice source text.
	EndOffset int // Byte offset one past the last token, set on nodes that need source-slice capture.

	Op       string  // Operator text for NodeUnary/NodeBinary/NodeLogical/NodeAssign/NodeUpdate/NodeMember/NodeLexicalDecl.
	Name     string  // Identifier/label/declarator/parameter/function name.
	TypeAnn  string  // Parameter or declarator type annotation, empty if absent.
	ReturnAnn string // Function return type annotation, empty if absent (function not a compile candidate).

	BoolVal   bool
	IntVal    int32
	FloatVal  float64
	StringVal string

	Children []*Node
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s) @%d:%d", nodeKindNames[n.Kind], n.Op, n.Line, n.Column)
}

// Dump renders the tree rooted at n as an indented outline, used by golden
// fixture tests to pin parser output without depending on line/column
// numbers that would make fixtures brittle to reformatting.
func (n *Node) Dump() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(nodeKindNames[n.Kind])
	if n.Op != "" {
		fmt.Fprintf(b, " %q", n.Op)
	}
	if n.Name != "" {
		fmt.Fprintf(b, " name=%s", n.Name)
	}
	if n.TypeAnn != "" {
		fmt.Fprintf(b, " type=%s", n.TypeAnn)
	}
	if n.ReturnAnn != "" {
		fmt.Fprintf(b, " returns=%s", n.ReturnAnn)
	}
	switch n.Kind {
	case NodeInt:
		fmt.Fprintf(b, " %d", n.IntVal)
	case NodeFloat:
		fmt.Fprintf(b, " %g", n.FloatVal)
	case NodeBool:
		fmt.Fprintf(b, " %t", n.BoolVal)
	case NodeString:
		fmt.Fprintf(b, " %q", n.StringVal)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.dump(b, depth+1)
	}
}

var nodeKindNames = map[NodeKind]string{
	NodeIdentRef: "IdentRef", NodeIdentBinding: "IdentBinding", NodeLabel: "Label", NodePrivateName: "PrivateName",
	NodeNull: "Null", NodeBool: "Bool", NodeInt: "Int", NodeFloat: "Float", NodeString: "String",
	NodeThis: "This", NodeMember: "Member", NodeCall: "Call", NodeNew: "New",
	NodeUpdate: "Update", NodeUnary: "Unary", NodeBinary: "Binary", NodeLogical: "Logical",
	NodeConditional: "Conditional", NodeAssign: "Assign", NodeSequence: "Sequence",
	NodeBlock: "Block", NodeEmpty: "Empty", NodeExprStmt: "ExprStmt", NodeIf: "If",
	NodeWhile: "While", NodeDoWhile: "DoWhile", NodeFor: "For", NodeBreak: "Break",
	NodeContinue: "Continue", NodeReturn: "Return", NodeThrow: "Throw",
	NodeLexicalDecl: "LexicalDecl", NodeDeclarator: "Declarator", NodeParam: "Param",
	NodeFunctionDecl: "FunctionDecl",
}
