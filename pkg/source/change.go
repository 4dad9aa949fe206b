package source

import (
	"fmt"

	"github.com/vanderheijden86/expandable/pkg/model"
)

// Change is one mutation of a List. The concrete types are Added, Removed,
// Moved, Replaced and Reset.
type Change interface {
	change()
	fmt.Stringer
}

// Added reports Items inserted starting at index Start.
type Added struct {
	Items []model.Handle
	Start int
}

// Removed reports Items that occupied indices from Start.
type Removed struct {
	Items []model.Handle
	Start int
}

// Moved reports Items that moved from OldStart to NewStart.
type Moved struct {
	Items    []model.Handle
	OldStart int
	NewStart int
}

// Replaced reports Old items at Start swapped for New ones.
type Replaced struct {
	Old   []model.Handle
	New   []model.Handle
	Start int
}

// Reset reports that the list contents changed wholesale.
type Reset struct{}

func (Added) change()    {}
func (Removed) change()  {}
func (Moved) change()    {}
func (Replaced) change() {}
func (Reset) change()    {}

func (c Added) String() string   { return fmt.Sprintf("add %d at %d", len(c.Items), c.Start) }
func (c Removed) String() string { return fmt.Sprintf("remove %d at %d", len(c.Items), c.Start) }
func (c Moved) String() string {
	return fmt.Sprintf("move %d from %d to %d", len(c.Items), c.OldStart, c.NewStart)
}
func (c Replaced) String() string { return fmt.Sprintf("replace %d at %d", len(c.New), c.Start) }
func (Reset) String() string      { return "reset" }
