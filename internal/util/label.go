// label.go provides a thread-safe generator of human-readable basic block
// names. No code in this module calls NewLabel; CFG blocks carry their own
// names (cfg.BasicBlock.Name).

package util

import "fmt"

// Label kinds for debug-friendly basic block naming.
const (
	LabelEntry = iota
	LabelThen
	LabelElse
	LabelPost
	LabelLoopHead
	LabelLoopBody
	LabelLoopPost
	LabelLoopUpdate
	labelCount
)

var labelPrefixes = [labelCount]string{
	"entry",
	"then",
	"else",
	"post",
	"loop.head",
	"loop.body",
	"loop.post",
	"loop.update",
}

var cll chan string
var clr chan int

func init() {
	cll = make(chan string)
	clr = make(chan int)
	var labelIndices [labelCount]int
	go func() {
		for typ := range clr {
			if typ >= 0 && typ < labelCount {
				cll <- fmt.Sprintf("%s.%d", labelPrefixes[typ], labelIndices[typ])
				labelIndices[typ]++
			} else {
				cll <- "label.error"
			}
		}
	}()
}

// NewLabel returns a fresh, readable label of the given kind.
func NewLabel(typ int) string {
	clr <- typ
	return <-cll
}
