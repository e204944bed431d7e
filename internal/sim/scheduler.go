package sim

import "time"

// Calendar cadences, in ticks. One tick is one day.
const (
	DaysPerWeek  = 7
	DaysPerMonth = 30
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	StageCount      int
	TotalExecutions int64
	Stages          []StageStats
}

// StageStats provides execution statistics for a single stage.
type StageStats struct {
	Name           string
	Every          uint64
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type stage struct {
	name  string
	every uint64
	run   func(tick uint64)

	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Scheduler runs registered stages in registration order, each on its own
// cadence.
type Scheduler struct {
	stages []*stage
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register appends a stage that runs whenever tick is a multiple of every.
// every <= 1 runs the stage on every tick.
func (s *Scheduler) Register(name string, every uint64, run func(tick uint64)) {
	if every == 0 {
		every = 1
	}
	s.stages = append(s.stages, &stage{
		name:        name,
		every:       every,
		run:         run,
		minDuration: time.Duration(1<<63 - 1),
	})
}

// Due reports whether a stage with the given cadence runs on tick.
func Due(every, tick uint64) bool {
	return every <= 1 || tick%every == 0
}

// Once executes every stage due on tick.
func (s *Scheduler) Once(tick uint64) {
	for _, st := range s.stages {
		if !Due(st.every, tick) {
			continue
		}
		start := time.Now()
		st.run(tick)
		duration := time.Since(start)

		st.executionCount++
		st.lastDuration = duration
		st.totalDuration += duration
		if duration < st.minDuration {
			st.minDuration = duration
		}
		if duration > st.maxDuration {
			st.maxDuration = duration
		}
	}
}

// Stats returns statistics about stage execution.
func (s *Scheduler) Stats() SchedulerStats {
	stats := SchedulerStats{
		StageCount: len(s.stages),
		Stages:     make([]StageStats, len(s.stages)),
	}
	for i, st := range s.stages {
		avg := time.Duration(0)
		minDuration := st.minDuration
		if st.executionCount > 0 {
			avg = st.totalDuration / time.Duration(st.executionCount)
		} else {
			minDuration = 0
		}
		stats.Stages[i] = StageStats{
			Name:           st.name,
			Every:          st.every,
			ExecutionCount: st.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    st.maxDuration,
			AvgDuration:    avg,
			LastDuration:   st.lastDuration,
			TotalDuration:  st.totalDuration,
		}
		stats.TotalExecutions += st.executionCount
	}
	return stats
}
