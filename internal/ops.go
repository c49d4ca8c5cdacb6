package internal

// Op is one command of the tool. The set is closed: Run dispatches on the
// concrete types below.
type Op interface {
	op()
}

// InitOp creates the record directory and record 1.
type InitOp struct{}

// NewOp creates the next record.
type NewOp struct {
	Title      string
	Supersedes []string
	NoEdit     bool // skip the editor even when one is configured
}

// ListOp prints every record in id order.
type ListOp struct {
	Long bool // id, status and title columns instead of bare filenames
}

// LinkOp marks records as superseded by an existing record.
type LinkOp struct {
	ID         int
	Supersedes []string
}

// ShowOp prints a record.
type ShowOp struct {
	ID int
}

// CheckOp reports supersede links without a counterpart.
type CheckOp struct{}

// ServeOp runs the HTTP API with a watched SQLite index.
type ServeOp struct{}

// MCPOp runs the MCP server on stdin/stdout.
type MCPOp struct{}

// HelpOp prints the command summary.
type HelpOp struct{}

func (InitOp) op()  {}
func (NewOp) op()   {}
func (ListOp) op()  {}
func (LinkOp) op()  {}
func (ShowOp) op()  {}
func (CheckOp) op() {}
func (ServeOp) op() {}
func (MCPOp) op()   {}
func (HelpOp) op()  {}
