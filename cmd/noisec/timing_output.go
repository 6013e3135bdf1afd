package main

import (
	"fmt"
	"io"
	"time"

	"noisec/internal/buildpipeline"
	"noisec/internal/observ"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	for _, st := range buildpipeline.Stages {
		if !timings.Has(st) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%-9s %.1f ms\n", st, toMillis(timings.Duration(st))); err != nil {
			panic(err)
		}
	}
}

func printTimer(out io.Writer, t *observ.Timer) {
	if out == nil || t == nil {
		return
	}
	if _, err := io.WriteString(out, t.Summary()); err != nil {
		panic(err)
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
