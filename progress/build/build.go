package build

import "fmt"

// Stage names, in execution order.
const (
	StageSource    = "Reading installation image"
	StageUnmount   = "Unmounting existing partitions"
	StagePartition = "Partitioning"
	StageFormat    = "Formatting"
	StageMount     = "Mounting"
	StageExtract   = "Extracting Windows image"
	StageBoot      = "Staging boot files"
	StageCopy      = "Copying files"
	StageDrivers   = "Injecting drivers"
	StageFinish    = "Unmounting"
)

// Event is emitted when the builder enters a stage.
type Event struct {
	Index  int // 1-based
	Total  int
	Stage  string
	Detail string
}

func (e Event) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("Phase %d/%d: %s", e.Index, e.Total, e.Stage)
	}
	return fmt.Sprintf("Phase %d/%d: %s %s", e.Index, e.Total, e.Stage, e.Detail)
}
