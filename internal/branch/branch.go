package branch

import (
	"go/token"

	"github.com/gnoswap-labs/apigate/internal/tree"
)

// Branch stores how a statement leaves the surrounding block.
type Branch struct {
	BranchKind
	Label string
}

// BlockBranch classifies a block by its last statement.
func BlockBranch(block *tree.Block) Branch {
	if block == nil || len(block.List) == 0 {
		return Empty.Branch()
	}
	return StmtBranch(block.List[len(block.List)-1])
}

// StmtBranch classifies a single statement. Only the statement itself is
// considered; an if whose branches all deviate is still Regular.
func StmtBranch(stmt tree.Stmt) Branch {
	switch stmt := stmt.(type) {
	case *tree.Return:
		return Return.Branch()
	case *tree.Block:
		return BlockBranch(stmt)
	case *tree.Branch:
		switch stmt.Tok {
		case token.BREAK:
			return Branch{BranchKind: Break, Label: stmt.Label}
		case token.CONTINUE:
			return Branch{BranchKind: Continue, Label: stmt.Label}
		case token.GOTO:
			return Branch{BranchKind: Goto, Label: stmt.Label}
		}
	case *tree.ExprStmt:
		if call, ok := stmt.X.(*tree.Call); ok && call.NoReturn {
			if call.Callee != nil {
				if kind, ok := Lookup(call.Callee.ID); ok {
					return kind.Branch()
				}
			}
			return Exit.Branch()
		}
	case *tree.Labeled:
		return StmtBranch(stmt.Stmt)
	case nil:
		return Empty.Branch()
	}

	return Regular.Branch()
}
