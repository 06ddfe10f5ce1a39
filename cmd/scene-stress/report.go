package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/scenery/ecs"
)

type Report struct {
	// Configuration
	Config Config

	// Results
	TotalUpdates  int64
	TotalTime     time.Duration
	UpdateTime    Stats
	Scheduler     *ecs.SchedulerStats
	Hooks         HookTotals
	Churn         ChurnStats
	ProducerOps   int64
	LoggedErrors  int64
	DrainTicks    int
	Verification  Verification
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

const reportTemplate = `
# Scene Stress Test Report

## Test Configuration
- **Run Duration:** {{.Config.Duration}}
- **Initial Entities:** {{.Config.Entities}} (max depth {{.Config.MaxDepth}})
- **Workers:** {{.Config.Workers}}
- **Producers:** {{.Config.Producers}}
- **Churn per Tick:** {{.Config.Churn}}
- **Seed:** {{.Config.Seed}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
{{with .Scheduler}}- **Entities Processed:** {{.ProcessedEntities}} (last pass {{.LastProcessTime}})

| System | Runs | Avg | Min | Max |
|--------|------|-----|-----|-----|
{{range .Systems}}| {{.Name}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MinDuration}} | {{.MaxDuration}} |
{{end}}{{end}}
## Operations
- **Toggles:** {{.Churn.Toggles}}
- **Reparents:** {{.Churn.Reparents}}
- **Reloads:** {{.Churn.Reloads}}
- **Destroys:** {{.Churn.Destroys}}
- **Spawns:** {{.Churn.Spawns}}
- **Clones:** {{.Churn.Clones}}
- **Producer Ops:** {{.ProducerOps}}
- **Logged Errors:** {{.LoggedErrors}}

## Component Hooks
- Loads: {{.Hooks.Loads}} (retries {{.Hooks.Retries}}, failures {{.Hooks.Failures}})
- Activations: {{.Hooks.Activations}}
- Deactivations: {{.Hooks.Deactivations}}
- Unloads: {{.Hooks.Unloads}}

## Final State (after {{.DrainTicks}} drain ticks)
- Entities: {{.Verification.Entities}}
- Components: {{.Verification.Components}} (active {{.Verification.Active}}, inactive {{.Verification.Inactive}}, pending {{.Verification.Pending}}, failed {{.Verification.Failed}})
{{if .Verification.OK}}- **Invariants:** OK
{{else}}- **Invariants:** FAILED
{{range .Verification.Violations}}  - {{.}}
{{end}}{{end}}
## Memory Usage
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} MB (start) -> {{mb .MemStatsEnd.HeapAlloc}} MB (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc | mb}} MB
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} MB (start) -> {{mb .MemStatsEnd.TotalAlloc}} MB (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc | mb}} MB
- Sys Memory:     {{mb .MemStatsStart.Sys}} MB (start) -> {{mb .MemStatsEnd.Sys}} MB (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys | mb}} MB
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .Config.GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{usub64 .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}`

var reportFuncs = template.FuncMap{
	"mb": func(v any) string {
		switch val := v.(type) {
		case uint64:
			return fmt.Sprintf("%.2f", float64(val)/1024/1024)
		case int64:
			return fmt.Sprintf("%.2f", float64(val)/1024/1024)
		default:
			return "N/A"
		}
	},
	"bsub": func(a, b uint64) int64 {
		return int64(a) - int64(b)
	},
	"usub": func(a, b uint32) uint32 {
		return a - b
	},
	"usub64": func(a, b uint64) uint64 {
		return a - b
	},
	"ns": func(ns uint64) string {
		return time.Duration(ns).String()
	},
}

var reportTmpl = template.Must(template.New("report").Funcs(reportFuncs).Parse(reportTemplate))

func (r *Report) Generate(w io.Writer) error {
	return reportTmpl.Execute(w, r)
}
