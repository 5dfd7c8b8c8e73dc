package apexindex

// ProgressPhase marks where in a rebuild a progress event was emitted.
type ProgressPhase string

const (
	ProgressBegin  ProgressPhase = "begin"
	ProgressReport ProgressPhase = "report"
	ProgressEnd    ProgressPhase = "end"
)

// Progress describes the state of a running rebuild. Report events carry a
// percentage proportional to files processed over total files.
type Progress struct {
	Token      string
	Phase      ProgressPhase
	Message    string
	Percentage int
}

// ProgressFunc receives progress events on the indexing goroutine. It must
// not block.
type ProgressFunc func(Progress)
