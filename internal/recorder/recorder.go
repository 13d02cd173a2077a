package recorder

// CycleRecord captures one completed fetch cycle for later analysis.
type CycleRecord struct {
	Source            string
	OK                bool
	ErrorKind         string
	Error             string
	PointCount        int
	DayCoverage       int
	ResolutionMinutes int
	HasBaseline       bool
	Baseline          float64
	CurrentStartsAt   string
	CurrentLevel      string
	CurrentPrice      float64
	Points            []PointRecord
}

// PointRecord is one accepted price point of a cycle.
type PointRecord struct {
	StartsAt string
	Level    string
	Price    float64
}

// Recorder persists fetch-cycle history for analysis.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	Close() error
}
